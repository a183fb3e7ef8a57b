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
	"errors"
	"time"
)

// Domain errors
var (
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrTenantProfileExists = errors.New("tenant profile already exists for this user")
	ErrEmailTaken          = errors.New("email is already taken in this organization")
)

// Tenant is a renter profile bound to one unit and one org.
// OrgID is stamped at creation and never changes.
type Tenant struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId"`
	UnitID    string    `json:"unitId"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrgStamp returns the owning org id, or "" for a nil tenant.
func (t *Tenant) OrgStamp() string {
	if t == nil {
		return ""
	}
	return t.OrgID
}

// Clone returns a copy safe to hand out of a store or cache.
func (t *Tenant) Clone() *Tenant {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
