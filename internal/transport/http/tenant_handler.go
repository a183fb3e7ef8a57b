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
	"net/http"

	"github.com/opentrusty/tenantcredit/internal/identity"
	"github.com/opentrusty/tenantcredit/internal/tenant"
)

// CreateTenantRequest represents tenant creation data. The org is taken from
// the caller's identity, never from the body.
type CreateTenantRequest struct {
	ID     string `json:"id,omitempty" example:"tenant-1"`
	UnitID string `json:"unitId" binding:"required" example:"unit-12b"`
	UserID string `json:"userId" binding:"required" example:"user-42"`
	Name   string `json:"name" binding:"required" example:"Jane Doe"`
	Email  string `json:"email" binding:"required" example:"jane@example.com"`
}

// CreateTenant handles tenant creation
// @Summary Create Tenant
// @Description Provision a tenant profile in the caller's organization
// @Tags Tenant
// @Accept json
// @Produce json
// @Security HeaderIdentity
// @Param request body CreateTenantRequest true "Tenant Data"
// @Success 201 {object} tenant.Tenant
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /tenants [post]
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.tenantService.CreateTenant(r.Context(), tenant.CreateInput{
		ID:      req.ID,
		OrgID:   p.OrgID,
		UnitID:  req.UnitID,
		UserID:  req.UserID,
		Name:    req.Name,
		Email:   req.Email,
		ActorID: p.Actor.ID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, t)
}

// GetOwnProfile returns the tenant profile bound to the caller
// @Summary Get Own Tenant Profile
// @Description Returns the tenant profile of the authenticated tenant user
// @Tags Tenant
// @Produce json
// @Security HeaderIdentity
// @Success 200 {object} tenant.Tenant
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tenants/me [get]
func (h *Handler) GetOwnProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	t, err := h.tenantService.GetTenantByUserID(r.Context(), p.OrgID, p.Actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}
