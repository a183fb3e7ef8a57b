package cache

import (
	"context"
	"testing"
	"time"

	"github.com/opentrusty/tenantcredit/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, t *tenant.Tenant) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *mockRepo) GetByUserID(ctx context.Context, userID string) (*tenant.Tenant, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

// TestPurpose: Validates that repeated tenant lookups are served from the cache.
// Scope: Unit Test
// Security: Cached records keep their org stamp and are returned as copies
// Expected: The wrapped repository is hit once; mutations of a returned tenant do not leak into the cache.
// Test Case ID: CAC-01
func TestTenantRepository_GetByID_Caches(t *testing.T) {
	next := new(mockRepo)
	repo, err := NewTenantRepository(next, Config{MaxItems: 100, TTL: time.Minute})
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	next.On("GetByID", ctx, "t-1").Return(&tenant.Tenant{ID: "t-1", OrgID: "org-a"}, nil).Once()

	first, err := repo.GetByID(ctx, "t-1")
	require.NoError(t, err)
	repo.Wait()

	first.OrgID = "tampered"

	second, err := repo.GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "org-a", second.OrgID)
	next.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestTenantRepository_MissIsNotCached(t *testing.T) {
	next := new(mockRepo)
	repo, err := NewTenantRepository(next, Config{})
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	next.On("GetByID", ctx, "t-x").Return((*tenant.Tenant)(nil), tenant.ErrTenantNotFound).Twice()

	for i := 0; i < 2; i++ {
		_, err := repo.GetByID(ctx, "t-x")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
		repo.Wait()
	}
	next.AssertExpectations(t)
}

func TestTenantRepository_CreatePrimesCache(t *testing.T) {
	next := new(mockRepo)
	repo, err := NewTenantRepository(next, Config{MaxItems: 10})
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	tn := &tenant.Tenant{ID: "t-2", OrgID: "org-b"}
	next.On("Create", ctx, tn).Return(nil)
	require.NoError(t, repo.Create(ctx, tn))
	repo.Wait()

	got, err := repo.GetByID(ctx, "t-2")
	require.NoError(t, err)
	assert.Equal(t, "org-b", got.OrgID)
	next.AssertNotCalled(t, "GetByID", ctx, "t-2")
}
