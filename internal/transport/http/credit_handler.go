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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opentrusty/tenantcredit/internal/credit"
	"github.com/opentrusty/tenantcredit/internal/identity"
)

// CreditRequest is the body of earn, redeem and adjust.
type CreditRequest struct {
	Amount int64  `json:"amount" binding:"required" example:"100"`
	Memo   string `json:"memo,omitempty" example:"On-time rent bonus"`
}

// BalanceResponse is the derived balance of a tenant.
type BalanceResponse struct {
	Balance int64 `json:"balance" example:"100"`
}

type creditOp func(r *http.Request, orgID, tenantID string, amount int64, memo string) (*credit.Entry, error)

// EarnCredits credits a tenant
// @Summary Earn Credits
// @Description Append an EARN entry. Amount must be a positive integer.
// @Tags Credits
// @Accept json
// @Produce json
// @Security HeaderIdentity
// @Param tenantId path string true "Tenant ID"
// @Param request body CreditRequest true "Amount and memo"
// @Success 201 {object} credit.Entry
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tenants/{tenantId}/credits/earn [post]
func (h *Handler) EarnCredits(w http.ResponseWriter, r *http.Request) {
	h.appendEntry(w, r, func(r *http.Request, orgID, tenantID string, amount int64, memo string) (*credit.Entry, error) {
		return h.creditService.Earn(r.Context(), orgID, tenantID, amount, memo)
	})
}

// RedeemCredits debits a tenant if the balance covers the amount
// @Summary Redeem Credits
// @Description Append a REDEEM entry with a negated amount. Rejected when the balance is lower than the amount.
// @Tags Credits
// @Accept json
// @Produce json
// @Security HeaderIdentity
// @Param tenantId path string true "Tenant ID"
// @Param request body CreditRequest true "Amount and memo"
// @Success 201 {object} credit.Entry
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tenants/{tenantId}/credits/redeem [post]
func (h *Handler) RedeemCredits(w http.ResponseWriter, r *http.Request) {
	h.appendEntry(w, r, func(r *http.Request, orgID, tenantID string, amount int64, memo string) (*credit.Entry, error) {
		return h.creditService.Redeem(r.Context(), orgID, tenantID, amount, memo)
	})
}

// AdjustCredits applies an administrative correction
// @Summary Adjust Credits
// @Description Append an ADJUST entry with a signed, nonzero amount. No balance check.
// @Tags Credits
// @Accept json
// @Produce json
// @Security HeaderIdentity
// @Param tenantId path string true "Tenant ID"
// @Param request body CreditRequest true "Signed amount and memo"
// @Success 201 {object} credit.Entry
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tenants/{tenantId}/credits/adjust [post]
func (h *Handler) AdjustCredits(w http.ResponseWriter, r *http.Request) {
	h.appendEntry(w, r, func(r *http.Request, orgID, tenantID string, amount int64, memo string) (*credit.Entry, error) {
		return h.creditService.Adjust(r.Context(), orgID, tenantID, amount, memo)
	})
}

func (h *Handler) appendEntry(w http.ResponseWriter, r *http.Request, op creditOp) {
	p, _ := identity.FromContext(r.Context())

	var req CreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, decodeMessage(err))
		return
	}

	e, err := op(r, p.OrgID, chi.URLParam(r, "tenantId"), req.Amount, req.Memo)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, e)
}

// decodeMessage names the offending field when the body is well-formed JSON
// with a value of the wrong type.
func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		switch typeErr.Field {
		case "amount":
			return "Amount must be an integer"
		case "memo":
			return "Memo must be a string"
		}
	}
	return "Invalid request body"
}

// GetLedger lists a tenant's ledger entries
// @Summary Get Ledger
// @Description Page through a tenant's ledger. Default sort is newest first.
// @Tags Credits
// @Produce json
// @Security HeaderIdentity
// @Param tenantId path string true "Tenant ID"
// @Param sortBy query string false "field:asc|desc, field one of createdAt, amount, type" default(createdAt:desc)
// @Param limit query int false "Page size" default(10)
// @Param page query int false "Page number" default(1)
// @Success 200 {object} credit.Page
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tenants/{tenantId}/credits/ledger [get]
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	qs := r.URL.Query()
	q, err := credit.ParseQuery(qs.Get("sortBy"), qs.Get("limit"), qs.Get("page"), h.creditService.PageOptions())
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.creditService.GetLedger(r.Context(), p.OrgID, chi.URLParam(r, "tenantId"), q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// GetBalance returns a tenant's derived balance
// @Summary Get Balance
// @Description Sum of all ledger entries of the tenant, 0 when there are none.
// @Tags Credits
// @Produce json
// @Security HeaderIdentity
// @Param tenantId path string true "Tenant ID"
// @Success 200 {object} BalanceResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tenants/{tenantId}/credits/balance [get]
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	balance, err := h.creditService.GetBalance(r.Context(), p.OrgID, chi.URLParam(r, "tenantId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, BalanceResponse{Balance: balance})
}
