package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentrusty/tenantcredit/internal/audit"
	"github.com/opentrusty/tenantcredit/internal/credit"
	"github.com/opentrusty/tenantcredit/internal/identity"
	"github.com/opentrusty/tenantcredit/internal/observability/metrics"
	"github.com/opentrusty/tenantcredit/internal/store/memory"
	"github.com/opentrusty/tenantcredit/internal/tenant"
)

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingAudit) ofType(typ string) []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type testServer struct {
	router http.Handler
	audit  *recordingAudit
}

type caller struct {
	userID string
	orgID  string
	role   string
}

var (
	landlordA = caller{userID: "landlord-a", orgID: "org-a", role: "landlord"}
	adminA    = caller{userID: "admin-a", orgID: "org-a", role: "admin"}
	landlordB = caller{userID: "landlord-b", orgID: "org-b", role: "landlord"}
	tenantA1  = caller{userID: "t-1", orgID: "org-a", role: "tenant"}
	tenantA2  = caller{userID: "t-2", orgID: "org-a", role: "tenant"}
)

// newTestServer wires the router over in-memory stores with tenants t-1 and
// t-2 in org-a. Tenant ids equal the tenants' user ids.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	rec := &recordingAudit{}
	tenants := tenant.NewService(memory.NewTenantRepository(), rec)
	credits := credit.NewService(memory.NewLedgerStore(), tenants, rec)

	for _, in := range []tenant.CreateInput{
		{ID: "t-1", OrgID: "org-a", UnitID: "unit-1", UserID: "t-1", Name: "One", Email: "one@example.com"},
		{ID: "t-2", OrgID: "org-a", UnitID: "unit-2", UserID: "t-2", Name: "Two", Email: "two@example.com"},
	} {
		_, err := tenants.CreateTenant(context.Background(), in)
		require.NoError(t, err)
	}

	h := NewHandler(tenants, credits, identity.NewHeaderResolver(), rec, metrics.NewHTTPCollector("tenantcredit-test"))
	return &testServer{router: NewRouter(h, RouterConfig{}), audit: rec}
}

func (s *testServer) do(t *testing.T, c caller, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.userID != "" {
		req.Header.Set(identity.HeaderUserID, c.userID)
	}
	if c.orgID != "" {
		req.Header.Set(identity.HeaderOrgID, c.orgID)
	}
	if c.role != "" {
		req.Header.Set(identity.HeaderRole, c.role)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func amount(n int64) map[string]any {
	return map[string]any{"amount": n}
}
