package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentrusty/tenantcredit/internal/credit"
	"github.com/opentrusty/tenantcredit/internal/identity"
	"github.com/opentrusty/tenantcredit/internal/store/memory"
	"github.com/opentrusty/tenantcredit/internal/tenant"
)

// TestPurpose: Validates the router in bearer-token identity mode.
// Scope: Integration Test
// Security: Only signed, unexpired tokens yield a principal; header triples are ignored in this mode
// Expected: 200 with a valid token; 401 for header-only and tampered requests.
// Test Case ID: API-14
func TestIdentityMiddleware_TokenMode(t *testing.T) {
	resolver, err := identity.NewTokenResolver(strings.Repeat("k", 32), "tenantcredit")
	require.NoError(t, err)

	tenants := tenant.NewService(memory.NewTenantRepository(), nil)
	_, err = tenants.CreateTenant(context.Background(), tenant.CreateInput{
		ID: "t-1", OrgID: "org-a", UnitID: "u-1", UserID: "t-1", Name: "One", Email: "one@example.com",
	})
	require.NoError(t, err)

	h := NewHandler(tenants, credit.NewService(memory.NewLedgerStore(), tenants, nil), resolver, nil, nil)
	router := NewRouter(h, RouterConfig{RequestTimeout: 5 * time.Second})

	token, err := resolver.Sign(identity.Principal{
		Actor: identity.Actor{ID: "t-1", Role: identity.RoleTenant},
		OrgID: "org-a",
	}, time.Minute)
	require.NoError(t, err)

	get := func(mutate func(*http.Request)) int {
		req := httptest.NewRequest(http.MethodGet, "/tenants/t-1/credits/balance", nil)
		mutate(req)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}))
	assert.Equal(t, http.StatusUnauthorized, get(func(r *http.Request) {
		r.Header.Set(identity.HeaderUserID, "t-1")
		r.Header.Set(identity.HeaderOrgID, "org-a")
		r.Header.Set(identity.HeaderRole, "tenant")
	}))
	assert.Equal(t, http.StatusUnauthorized, get(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token+"x")
	}))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, caller{}, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])

	s.do(t, landlordA, http.MethodGet, "/tenants/t-1/credits/balance", nil)

	rec = s.do(t, caller{}, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/tenants/{tenantId}/credits/balance"`)
}
