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

package authz

import (
	"fmt"

	"github.com/opentrusty/tenantcredit/internal/identity"
)

// Authorize checks every required capability against the actor's role.
// An empty requirement always passes. It knows nothing about tenant identity.
func Authorize(actor identity.Actor, required ...Capability) error {
	for _, c := range required {
		if !HasCapability(actor.Role, c) {
			return fmt.Errorf("%w: role %q lacks capability %q", ErrForbidden, actor.Role, c)
		}
	}
	return nil
}

// CanAccessTenant decides whether actor may act on the tenant record with the
// given id. Management roles always pass here; the org boundary is enforced
// by the ledger lookup, not by this guard.
func CanAccessTenant(actor identity.Actor, tenantID string) bool {
	switch actor.Role {
	case identity.RoleAdmin, identity.RoleLandlord:
		return true
	case identity.RoleTenant:
		return actor.ID != "" && actor.ID == tenantID
	default:
		return false
	}
}
