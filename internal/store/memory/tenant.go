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

// Package memory provides in-process tenant and ledger stores for tests and
// single-process development.
package memory

import (
	"context"
	"sync"

	"github.com/opentrusty/tenantcredit/internal/tenant"
)

// TenantRepository implements tenant.Repository in memory.
type TenantRepository struct {
	mu       sync.RWMutex
	byID     map[string]*tenant.Tenant
	byUserID map[string]string
	byEmail  map[string]string // org id + "\x00" + email -> tenant id
}

// NewTenantRepository creates an empty tenant repository.
func NewTenantRepository() *TenantRepository {
	return &TenantRepository{
		byID:     make(map[string]*tenant.Tenant),
		byUserID: make(map[string]string),
		byEmail:  make(map[string]string),
	}
}

// Create stores t. Ids, user ids and per-org emails are unique.
func (r *TenantRepository) Create(_ context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUserID[t.UserID]; ok {
		return tenant.ErrTenantProfileExists
	}
	emailKey := t.OrgID + "\x00" + t.Email
	if _, ok := r.byEmail[emailKey]; ok {
		return tenant.ErrEmailTaken
	}
	if _, ok := r.byID[t.ID]; ok {
		return tenant.ErrTenantProfileExists
	}

	r.byID[t.ID] = t.Clone()
	r.byUserID[t.UserID] = t.ID
	r.byEmail[emailKey] = t.ID
	return nil
}

// GetByID returns a copy of the tenant with id.
func (r *TenantRepository) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return t.Clone(), nil
}

// GetByUserID returns a copy of the tenant bound to userID.
func (r *TenantRepository) GetByUserID(_ context.Context, userID string) (*tenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUserID[userID]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return r.byID[id].Clone(), nil
}
