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

package tenant

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/opentrusty/tenantcredit/internal/audit"
	"github.com/opentrusty/tenantcredit/internal/id"
	"github.com/opentrusty/tenantcredit/internal/orgscope"
	"github.com/opentrusty/tenantcredit/internal/validation"
)

// CreateInput carries the fields of a new tenant profile.
type CreateInput struct {
	// ID is optional; a UUIDv7 is generated when empty.
	ID     string
	OrgID  string
	UnitID string
	UserID string
	Name   string
	Email  string
	// ActorID identifies who provisioned the tenant, for the audit trail.
	ActorID string
}

// Service provides tenant directory business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
	now         func() time.Time
}

// NewService creates a new tenant service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	if auditLogger == nil {
		auditLogger = audit.NopLogger{}
	}
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// CreateTenant provisions a tenant profile in the given org.
func (s *Service) CreateTenant(ctx context.Context, in CreateInput) (*Tenant, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.UnitID = strings.TrimSpace(in.UnitID)
	in.UserID = strings.TrimSpace(in.UserID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	var verr validation.Errors
	verr.Check(in.OrgID != "", "orgId", "orgId is required")
	verr.Check(in.UnitID != "", "unitId", "unitId is required")
	verr.Check(in.UserID != "", "userId", "userId is required")
	verr.Check(in.Name != "", "name", "name is required")
	if in.Email == "" {
		verr.Add("email", "email is required")
	} else if _, err := mail.ParseAddress(in.Email); err != nil {
		verr.Add("email", "email must be a valid email")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByUserID(ctx, in.UserID)
	if err != nil && !errors.Is(err, ErrTenantNotFound) {
		return nil, fmt.Errorf("failed to check tenant profile: %w", err)
	}
	if existing != nil {
		return nil, ErrTenantProfileExists
	}

	if in.ID == "" {
		in.ID = id.NewUUIDv7()
	}

	t := &Tenant{
		ID:        in.ID,
		OrgID:     in.OrgID,
		UnitID:    in.UnitID,
		UserID:    in.UserID,
		Name:      in.Name,
		Email:     in.Email,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, ErrTenantProfileExists) || errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantCreated,
		OrgID:    t.OrgID,
		TenantID: t.ID,
		ActorID:  in.ActorID,
		Resource: "tenant",
		Metadata: map[string]any{"unit_id": t.UnitID, "user_id": t.UserID},
	})

	return t, nil
}

// GetTenant retrieves a tenant by ID within orgID. A tenant in another org is
// reported as ErrTenantNotFound.
func (s *Service) GetTenant(ctx context.Context, orgID, tenantID string) (*Tenant, error) {
	return orgscope.Find(ctx, s.repo.GetByID, tenantID, orgID, ErrTenantNotFound)
}

// GetTenantByUserID retrieves the profile bound to userID within orgID.
func (s *Service) GetTenantByUserID(ctx context.Context, orgID, userID string) (*Tenant, error) {
	return orgscope.Find(ctx, s.repo.GetByUserID, userID, orgID, ErrTenantNotFound)
}
