package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCollector_RecordsRoutePattern(t *testing.T) {
	c := NewHTTPCollector("tenant-credit")

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/tenants/{tenantId}/credits/balance", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tenants/abc/credits/balance", nil))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body,
		`tenant_credit_http_requests_total{method="GET",route="/tenants/{tenantId}/credits/balance",status="418"} 1`), body)
	assert.NotContains(t, body, "/tenants/abc")
}
