package sqlite

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/opentrusty/tenantcredit/internal/credit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	conditionalInsert = `INSERT INTO credit_transactions \(.*\)\s+SELECT \?, \?`
	balanceQuery = regexp.QuoteMeta(`SELECT COALESCE(SUM(amount), 0) FROM credit_transactions`)
)

func redemption() *credit.Entry {
	return &credit.Entry{
		ID: "e-1", OrgID: "org-a", TenantID: "t-1", UnitID: "u-1",
		Type: credit.TypeRedeem, Amount: -150, CreatedAt: time.Unix(0, 42),
	}
}

// TestPurpose: Validates the SQL contract of a refused redemption.
// Scope: Unit Test
// Security: Redemption guard evaluated inside the insert statement
// Expected: The guard is bound to the org, tenant and requested amount; a refused insert reports the re-read balance.
// Test Case ID: SQL-05
func TestLedgerStore_AppendRedemption_Refused(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	store := NewLedgerStore(NewWithDB(sqlDB))

	e := redemption()
	mock.ExpectExec(conditionalInsert).
		WithArgs("e-1", "org-a", "t-1", "u-1", "REDEEM", int64(-150), "", int64(42), "org-a", "t-1", int64(150)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(balanceQuery).
		WithArgs("org-a", "t-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(int64(100)))

	err = store.AppendRedemption(context.Background(), e)
	assert.EqualError(t, err, "Insufficient balance. Current balance: 100, Requested: 150")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStore_AppendRedemption_RetriesWhenBalanceMoved(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	store := NewLedgerStore(NewWithDB(sqlDB))

	e := redemption()
	mock.ExpectExec(conditionalInsert).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(balanceQuery).WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(int64(200)))
	mock.ExpectExec(conditionalInsert).WillReturnResult(sqlmock.NewResult(7, 1))

	require.NoError(t, store.AppendRedemption(context.Background(), e))
	assert.Equal(t, int64(7), e.Seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, "created_at DESC, seq DESC", orderBy(credit.DefaultQuery()))
	assert.Equal(t, "amount ASC, seq ASC", orderBy(credit.Query{SortBy: credit.SortAmount}))
	assert.Equal(t, "created_at ASC, seq ASC", orderBy(credit.Query{SortBy: "memo; DROP TABLE tenants"}))
}
