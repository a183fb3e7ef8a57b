package credit

import (
	"errors"
	"math"
	"testing"

	"github.com/opentrusty/tenantcredit/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery_Defaults(t *testing.T) {
	q, err := ParseQuery("", "", "", PageOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultQuery(), q)
	assert.Equal(t, 0, q.Offset())
}

func TestParseQuery_Values(t *testing.T) {
	q, err := ParseQuery("amount:asc", "5", "3", PageOptions{})
	require.NoError(t, err)
	assert.Equal(t, Query{SortBy: SortAmount, Desc: false, Limit: 5, Page: 3}, q)
	assert.Equal(t, 10, q.Offset())

	q, err = ParseQuery("type", "1000", "1", PageOptions{DefaultLimit: 20, MaxLimit: 50})
	require.NoError(t, err)
	assert.Equal(t, SortType, q.SortBy)
	assert.True(t, q.Desc)
	assert.Equal(t, 50, q.Limit)
}

// TestPurpose: Validates that every malformed paging parameter is reported together.
// Scope: Unit Test
// Security: Input validation
// Expected: One InvalidInput error naming sortBy, limit and page.
// Test Case ID: CRD-10
func TestParseQuery_AggregatesViolations(t *testing.T) {
	_, err := ParseQuery("balance:sideways", "0", "abc", PageOptions{})
	require.ErrorIs(t, err, validation.ErrInvalidInput)

	var verr *validation.Errors
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Violations(), 4)
}

// TestPurpose: Validates that huge page numbers cannot produce a negative offset.
// Scope: Unit Test
// Security: Integer overflow in paging
// Expected: ParseQuery rejects a page whose offset exceeds the int range; Offset saturates instead of wrapping.
// Test Case ID: CRD-11
func TestParseQuery_PageOverflow(t *testing.T) {
	_, err := ParseQuery("", "10", "9223372036854775807", PageOptions{})
	require.ErrorIs(t, err, validation.ErrInvalidInput)
	assert.Contains(t, err.Error(), "page is out of range")

	q, err := ParseQuery("", "1", "9223372036854775807", PageOptions{})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt-1, q.Offset())

	assert.Equal(t, math.MaxInt, Query{Limit: 10, Page: math.MaxInt}.Offset())
	assert.Equal(t, 0, Query{Limit: 10, Page: 0}.Offset())
	assert.GreaterOrEqual(t, Query{Limit: MaxPageLimit, Page: math.MaxInt / 50}.Offset(), 0)
}

func TestNewPage_TotalPages(t *testing.T) {
	assert.Equal(t, int64(0), NewPage(nil, 0, Query{Limit: 10, Page: 1}).TotalPages)
	assert.Equal(t, int64(1), NewPage(nil, 10, Query{Limit: 10, Page: 1}).TotalPages)
	assert.Equal(t, int64(2), NewPage(nil, 11, Query{Limit: 10, Page: 1}).TotalPages)
	assert.NotNil(t, NewPage(nil, 0, Query{Limit: 10, Page: 1}).Results)
}

func TestInsufficientBalanceError(t *testing.T) {
	var err error = &InsufficientBalanceError{Current: 100, Requested: 150}
	assert.Equal(t, "Insufficient balance. Current balance: 100, Requested: 150", err.Error())
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	assert.False(t, errors.Is(err, ErrImmutableEntry))
}
