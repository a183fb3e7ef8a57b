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

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opentrusty/tenantcredit/internal/tenant"
)

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create inserts a tenant profile.
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	_, err := r.db.db.ExecContext(ctx, `
		INSERT INTO tenants (id, org_id, unit_id, user_id, name, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.OrgID, t.UnitID, t.UserID, t.Name, t.Email, t.CreatedAt.UnixNano())
	if err != nil {
		if msg, ok := uniqueViolation(err); ok {
			if strings.Contains(msg, "tenants.email") {
				return tenant.ErrEmailTaken
			}
			return tenant.ErrTenantProfileExists
		}
		return fmt.Errorf("failed to insert tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	return r.get(ctx, "id", id)
}

// GetByUserID retrieves the tenant bound to a user id
func (r *TenantRepository) GetByUserID(ctx context.Context, userID string) (*tenant.Tenant, error) {
	return r.get(ctx, "user_id", userID)
}

func (r *TenantRepository) get(ctx context.Context, column, value string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	var createdAt int64
	err := r.db.db.QueryRowContext(ctx, `
		SELECT id, org_id, unit_id, user_id, name, email, created_at
		FROM tenants
		WHERE `+column+` = ?
	`, value).Scan(&t.ID, &t.OrgID, &t.UnitID, &t.UserID, &t.Name, &t.Email, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	t.CreatedAt = time.Unix(0, createdAt).UTC()
	return &t, nil
}
