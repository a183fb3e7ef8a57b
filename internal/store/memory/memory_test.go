package memory

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/opentrusty/tenantcredit/internal/credit"
	"github.com/opentrusty/tenantcredit/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(tenantID string, typ credit.EntryType, amount int64, at time.Time) *credit.Entry {
	return &credit.Entry{ID: at.String(), OrgID: "org-a", TenantID: tenantID, UnitID: "u-1", Type: typ, Amount: amount, CreatedAt: at}
}

// TestPurpose: Validates that concurrent redemptions can never overdraw a tenant.
// Scope: Unit Test
// Security: Check-then-act race on the derived balance
// Expected: With balance 100 and 50 concurrent redemptions of 10, exactly 10 succeed and the balance ends at 0.
// Test Case ID: MEM-01
func TestLedgerStore_AppendRedemption_Concurrent(t *testing.T) {
	s := NewLedgerStore()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.Append(ctx, entry("t-1", credit.TypeEarn, 100, now)))

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.AppendRedemption(ctx, entry("t-1", credit.TypeRedeem, -10, now)); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, credit.ErrInsufficientBalance)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, accepted)
	balance, err := s.Balance(ctx, "org-a", "t-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestLedgerStore_AppendRedemption_RejectsWithObservedBalance(t *testing.T) {
	s := NewLedgerStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, entry("t-1", credit.TypeEarn, 100, time.Now())))

	err := s.AppendRedemption(ctx, entry("t-1", credit.TypeRedeem, -150, time.Now()))
	var ibe *credit.InsufficientBalanceError
	require.ErrorAs(t, err, &ibe)
	assert.Equal(t, int64(100), ibe.Current)
	assert.Equal(t, int64(150), ibe.Requested)

	_, total, err := s.List(ctx, "org-a", "t-1", credit.DefaultQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

// TestPurpose: Validates ledger ordering and pagination with timestamp ties.
// Scope: Unit Test
// Security: N/A
// Expected: Equal timestamps are ordered by insertion sequence in the sort direction; pages slice correctly.
// Test Case ID: MEM-02
func TestLedgerStore_List_OrderAndPaging(t *testing.T) {
	s := NewLedgerStore()
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, amt := range []int64{5, 30, 10} {
		e := entry("t-1", credit.TypeEarn, amt, at)
		e.ID = string(rune('a' + i))
		require.NoError(t, s.Append(ctx, e))
	}
	require.NoError(t, s.Append(ctx, entry("t-2", credit.TypeEarn, 99, at)))

	res, total, err := s.List(ctx, "org-a", "t-1", credit.DefaultQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, res, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{res[0].ID, res[1].ID, res[2].ID})

	res, _, err = s.List(ctx, "org-a", "t-1", credit.Query{SortBy: credit.SortAmount, Limit: 2, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 10}, []int64{res[0].Amount, res[1].Amount})

	res, _, err = s.List(ctx, "org-a", "t-1", credit.Query{SortBy: credit.SortAmount, Limit: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, int64(30), res[0].Amount)

	res, total, err = s.List(ctx, "org-a", "t-1", credit.Query{SortBy: credit.SortAmount, Limit: 2, Page: 5})
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Equal(t, int64(3), total)
}

func TestLedgerStore_List_PageBeyondIntRange(t *testing.T) {
	s := NewLedgerStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, entry("t-1", credit.TypeEarn, 5, time.Now())))

	res, total, err := s.List(ctx, "org-a", "t-1", credit.Query{SortBy: credit.SortAmount, Limit: 10, Page: math.MaxInt})
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Equal(t, int64(1), total)
}

func TestLedgerStore_List_ReturnsCopies(t *testing.T) {
	s := NewLedgerStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, entry("t-1", credit.TypeEarn, 10, time.Now())))

	res, _, err := s.List(ctx, "org-a", "t-1", credit.DefaultQuery())
	require.NoError(t, err)
	res[0].Amount = 1_000_000

	balance, err := s.Balance(ctx, "org-a", "t-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)
}

// TestPurpose: Validates tenant uniqueness rules of the in-memory directory.
// Scope: Unit Test
// Security: One profile per user across all orgs
// Expected: Duplicate user id in any org and duplicate email within an org are rejected.
// Test Case ID: MEM-03
func TestTenantRepository_Uniqueness(t *testing.T) {
	r := NewTenantRepository()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, &tenant.Tenant{ID: "t-1", OrgID: "org-a", UserID: "u-1", Email: "a@x.io"}))
	assert.ErrorIs(t, r.Create(ctx, &tenant.Tenant{ID: "t-2", OrgID: "org-b", UserID: "u-1", Email: "b@x.io"}), tenant.ErrTenantProfileExists)
	assert.ErrorIs(t, r.Create(ctx, &tenant.Tenant{ID: "t-3", OrgID: "org-a", UserID: "u-3", Email: "a@x.io"}), tenant.ErrEmailTaken)
	require.NoError(t, r.Create(ctx, &tenant.Tenant{ID: "t-4", OrgID: "org-b", UserID: "u-4", Email: "a@x.io"}))

	got, err := r.GetByUserID(ctx, "u-4")
	require.NoError(t, err)
	assert.Equal(t, "t-4", got.ID)

	_, err = r.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
}
