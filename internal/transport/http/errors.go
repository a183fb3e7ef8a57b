// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/opentrusty/tenantcredit/internal/authz"
	"github.com/opentrusty/tenantcredit/internal/credit"
	"github.com/opentrusty/tenantcredit/internal/identity"
	"github.com/opentrusty/tenantcredit/internal/observability/logger"
	"github.com/opentrusty/tenantcredit/internal/tenant"
	"github.com/opentrusty/tenantcredit/internal/validation"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message" example:"Insufficient balance. Current balance: 100, Requested: 150"`
}

// Messages for the masked and generic paths. A cross-org lookup must produce
// byte-identical output to a missing tenant.
const (
	msgUnauthenticated = "Authentication required"
	msgForbidden       = "Forbidden"
	msgTenantNotFound  = "Tenant not found"
	msgInternal        = "Internal server error"
)

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Message: message})
}

// statusFor maps a service error to its HTTP status and client message.
func statusFor(err error) (int, string) {
	var insufficient *credit.InsufficientBalanceError
	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		return http.StatusUnauthorized, msgUnauthenticated
	case errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden, msgForbidden
	case errors.Is(err, tenant.ErrTenantNotFound):
		return http.StatusNotFound, msgTenantNotFound
	case errors.As(err, &insufficient):
		return http.StatusBadRequest, insufficient.Error()
	case errors.Is(err, validation.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, tenant.ErrTenantProfileExists):
		return http.StatusBadRequest, tenant.ErrTenantProfileExists.Error()
	case errors.Is(err, tenant.ErrEmailTaken):
		return http.StatusBadRequest, tenant.ErrEmailTaken.Error()
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// writeError maps err to a response. Unexpected errors, immutability
// violations included, are logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		attrs := []any{logger.Method(r.Method), logger.Path(r.URL.Path), logger.Error(err)}
		if errors.Is(err, credit.ErrImmutableEntry) {
			attrs = append(attrs, logger.ErrorType("immutable_violation"))
		}
		slog.ErrorContext(r.Context(), "request failed", attrs...)
	}
	respondError(w, status, message)
}
