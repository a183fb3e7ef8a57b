// @title Tenant Credit API
// @version 1.0.0
// @description Append-only tenant credit ledger, scoped per organization
// @termsOfService http://swagger.io/terms/

// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey HeaderIdentity
// @in header
// @name X-User-Id

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/opentrusty/tenantcredit/internal/audit"
	"github.com/opentrusty/tenantcredit/internal/authz"
	"github.com/opentrusty/tenantcredit/internal/credit"
	"github.com/opentrusty/tenantcredit/internal/identity"
	"github.com/opentrusty/tenantcredit/internal/observability/metrics"
	"github.com/opentrusty/tenantcredit/internal/tenant"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	tenantService *tenant.Service
	creditService *credit.Service
	resolver      identity.Resolver
	auditLogger   audit.Logger
	collector     *metrics.HTTPCollector
}

// NewHandler creates a new HTTP handler. collector may be nil, in which case
// no Prometheus endpoint is mounted.
func NewHandler(
	tenantService *tenant.Service,
	creditService *credit.Service,
	resolver identity.Resolver,
	auditLogger audit.Logger,
	collector *metrics.HTTPCollector,
) *Handler {
	if auditLogger == nil {
		auditLogger = audit.NopLogger{}
	}
	return &Handler{
		tenantService: tenantService,
		creditService: creditService,
		resolver:      resolver,
		auditLogger:   auditLogger,
		collector:     collector,
	}
}

// RouterConfig holds the router-level middleware settings.
type RouterConfig struct {
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter    *RateLimiter
	RequestTimeout time.Duration
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.RateLimiter != nil {
		r.Use(RateLimitMiddleware(cfg.RateLimiter))
	}
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	if h.collector != nil {
		r.Use(h.collector.Middleware)
	}
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	// Health check
	r.Get("/health", h.HealthCheck)
	if h.collector != nil {
		r.Method(http.MethodGet, "/metrics", h.collector.Handler())
	}

	r.Route("/tenants", func(r chi.Router) {
		r.Use(h.IdentityMiddleware)

		r.With(h.RequireCapabilities(authz.CapManageTenants)).Post("/", h.CreateTenant)
		r.With(h.RequireCapabilities(authz.CapGetOwnProfile)).Get("/me", h.GetOwnProfile)

		r.Route("/{tenantId}/credits", func(r chi.Router) {
			// Management-only ledger writes
			r.With(h.RequireCapabilities(authz.CapManageCredits)).Post("/earn", h.EarnCredits)
			r.With(h.RequireCapabilities(authz.CapManageCredits)).Post("/adjust", h.AdjustCredits)

			// Self-or-management
			r.Group(func(r chi.Router) {
				r.Use(h.RequireTenantAccess)
				r.Post("/redeem", h.RedeemCredits)
				r.Get("/ledger", h.GetLedger)
				r.Get("/balance", h.GetBalance)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "tenantcredit",
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
