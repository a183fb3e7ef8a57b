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

// Package identity turns the upstream identity assertion carried by a request
// into an Actor and the org scope it operates in.
package identity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// ErrUnauthenticated is the root of every identity failure.
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrMissingIdentity = fmt.Errorf("%w: missing required identity: actor id, org id and role", ErrUnauthenticated)
	ErrUnknownRole     = fmt.Errorf("%w: invalid role, must be one of tenant, landlord, admin", ErrUnauthenticated)
	ErrInvalidToken    = fmt.Errorf("%w: invalid or expired identity token", ErrUnauthenticated)
)

// Platform Authorization Principles:
// 1. The org id is an isolation boundary, never a privilege.
// 2. There is no default role. An unrecognised role fails closed.
// 3. The identity triple is trusted only once it is well formed.

// Role is the closed set of actor roles.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleAdmin    Role = "admin"
)

// ParseRole returns the Role named by s or ErrUnknownRole.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleTenant, RoleLandlord, RoleAdmin:
		return r, nil
	default:
		return "", ErrUnknownRole
	}
}

// IsManagement reports whether the role administers tenants on behalf of an org.
func (r Role) IsManagement() bool {
	return r == RoleLandlord || r == RoleAdmin
}

// Actor is the caller of a request. It is never persisted.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Principal is a resolved actor bound to the org it acts within.
type Principal struct {
	Actor Actor
	OrgID string
}

// NewPrincipal validates the raw identity triple and builds a Principal.
// Presence is checked before role membership so a partial triple always
// reports ErrMissingIdentity.
func NewPrincipal(actorID, orgID, role string) (Principal, error) {
	if actorID == "" || orgID == "" || role == "" {
		return Principal{}, ErrMissingIdentity
	}
	r, err := ParseRole(role)
	if err != nil {
		return Principal{}, err
	}
	return Principal{
		Actor: Actor{ID: actorID, Role: r},
		OrgID: orgID,
	}, nil
}
