package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opentrusty/tenantcredit/internal/credit"
	"github.com/opentrusty/tenantcredit/internal/id"
	"github.com/opentrusty/tenantcredit/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(context.Background(), Config{Path: filepath.Join(t.TempDir(), "credits.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedTenant(t *testing.T, db *DB, tenantID, orgID, userID string) {
	t.Helper()
	err := NewTenantRepository(db).Create(context.Background(), &tenant.Tenant{
		ID: tenantID, OrgID: orgID, UnitID: "unit-" + tenantID, UserID: userID,
		Name: "Tenant " + tenantID, Email: userID + "@example.com", CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func newEntry(tenantID string, typ credit.EntryType, amount int64, at time.Time) *credit.Entry {
	return &credit.Entry{
		ID: id.NewUUIDv7(), OrgID: "org-a", TenantID: tenantID, UnitID: "unit-" + tenantID,
		Type: typ, Amount: amount, CreatedAt: at,
	}
}

// TestPurpose: Validates tenant persistence and the uniqueness constraints of the SQLite directory.
// Scope: Database Test
// Security: One profile per user across all orgs
// Expected: Round trip preserves fields; duplicate user id and per-org email map to domain errors.
// Test Case ID: SQL-01
func TestTenantRepository_SQLite(t *testing.T) {
	db := openTestDB(t)
	repo := NewTenantRepository(db)
	ctx := context.Background()
	created := time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)

	require.NoError(t, repo.Create(ctx, &tenant.Tenant{
		ID: "t-1", OrgID: "org-a", UnitID: "unit-1", UserID: "user-1", Name: "One", Email: "one@example.com", CreatedAt: created,
	}))

	got, err := repo.GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "org-a", got.OrgID)
	assert.True(t, created.Equal(got.CreatedAt))

	got, err = repo.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "t-1", got.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)

	err = repo.Create(ctx, &tenant.Tenant{ID: "t-2", OrgID: "org-b", UnitID: "u", UserID: "user-1", Name: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, tenant.ErrTenantProfileExists)

	err = repo.Create(ctx, &tenant.Tenant{ID: "t-3", OrgID: "org-a", UnitID: "u", UserID: "user-3", Name: "x", Email: "one@example.com"})
	assert.ErrorIs(t, err, tenant.ErrEmailTaken)
}

// TestPurpose: Validates balance derivation, redemption guard and ledger ordering on SQLite.
// Scope: Database Test
// Security: Ledger integrity
// Expected: Balance is the sum of entries; overdraw is refused with the observed balance; default order is newest first with sequence tie-break.
// Test Case ID: SQL-02
func TestLedgerStore_SQLite(t *testing.T) {
	db := openTestDB(t)
	seedTenant(t, db, "t-1", "org-a", "user-1")
	store := NewLedgerStore(db)
	ctx := context.Background()

	balance, err := store.Balance(ctx, "org-a", "t-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first := newEntry("t-1", credit.TypeEarn, 100, at)
	require.NoError(t, store.Append(ctx, first))
	assert.NotZero(t, first.Seq)

	err = store.AppendRedemption(ctx, newEntry("t-1", credit.TypeRedeem, -150, at))
	var ibe *credit.InsufficientBalanceError
	require.ErrorAs(t, err, &ibe)
	assert.Equal(t, int64(100), ibe.Current)
	assert.Equal(t, int64(150), ibe.Requested)

	redeem := newEntry("t-1", credit.TypeRedeem, -30, at)
	require.NoError(t, store.AppendRedemption(ctx, redeem))
	assert.Greater(t, redeem.Seq, first.Seq)

	require.NoError(t, store.Append(ctx, newEntry("t-1", credit.TypeAdjust, -5, at.Add(time.Second))))

	balance, err = store.Balance(ctx, "org-a", "t-1")
	require.NoError(t, err)
	assert.Equal(t, int64(65), balance)

	balance, err = store.Balance(ctx, "org-b", "t-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	entries, total, err := store.List(ctx, "org-a", "t-1", credit.DefaultQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, entries, 3)
	assert.Equal(t, credit.TypeAdjust, entries[0].Type)
	assert.Equal(t, redeem.ID, entries[1].ID)
	assert.Equal(t, first.ID, entries[2].ID)

	entries, _, err = store.List(ctx, "org-a", "t-1", credit.Query{SortBy: credit.SortAmount, Limit: 1, Page: 2})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(-5), entries[0].Amount)
}

// TestPurpose: Validates that ledger rows cannot be changed or removed, even with direct SQL.
// Scope: Database Test
// Security: Append-only ledger enforced at the storage boundary
// Expected: UPDATE and DELETE abort; the mapped error matches credit.ErrImmutableEntry; data is unchanged.
// Test Case ID: SQL-03
func TestLedgerStore_SQLite_Immutable(t *testing.T) {
	db := openTestDB(t)
	seedTenant(t, db, "t-1", "org-a", "user-1")
	store := NewLedgerStore(db)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, newEntry("t-1", credit.TypeEarn, 100, time.Now())))

	_, err := db.SQL().ExecContext(ctx, `UPDATE credit_transactions SET amount = 1000000`)
	require.Error(t, err)
	assert.ErrorIs(t, mapLedgerError(err), credit.ErrImmutableEntry)

	_, err = db.SQL().ExecContext(ctx, `DELETE FROM credit_transactions`)
	require.Error(t, err)
	assert.ErrorIs(t, mapLedgerError(err), credit.ErrImmutableEntry)

	_, err = db.SQL().ExecContext(ctx, `UPDATE tenants SET org_id = 'org-z' WHERE id = 't-1'`)
	assert.Error(t, err)

	balance, err := store.Balance(ctx, "org-a", "t-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestLedgerStore_SQLite_RejectsInvalidRows(t *testing.T) {
	db := openTestDB(t)
	seedTenant(t, db, "t-1", "org-a", "user-1")
	store := NewLedgerStore(db)
	ctx := context.Background()

	assert.Error(t, store.Append(ctx, newEntry("t-1", credit.TypeEarn, -1, time.Now())))
	assert.Error(t, store.Append(ctx, newEntry("t-1", credit.TypeAdjust, 0, time.Now())))
	assert.Error(t, store.Append(ctx, newEntry("no-such-tenant", credit.TypeEarn, 1, time.Now())))
}

// TestPurpose: Validates that concurrent redemptions never overdraw on SQLite.
// Scope: Database Test
// Security: Check-then-act race closed by the conditional insert
// Expected: Exactly as many redemptions succeed as the balance covers.
// Test Case ID: SQL-04
func TestLedgerStore_SQLite_ConcurrentRedeem(t *testing.T) {
	db := openTestDB(t)
	seedTenant(t, db, "t-1", "org-a", "user-1")
	store := NewLedgerStore(db)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, newEntry("t-1", credit.TypeEarn, 50, time.Now())))

	var wg sync.WaitGroup
	var accepted atomic.Int64
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.AppendRedemption(ctx, newEntry("t-1", credit.TypeRedeem, -10, time.Now())) == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), accepted.Load())
	balance, err := store.Balance(ctx, "org-a", "t-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}
