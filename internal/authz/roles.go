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

// Package authz implements the coarse role capability gate and the fine
// per-tenant ownership guard. The two checks are kept separate.
package authz

import (
	"errors"

	"github.com/opentrusty/tenantcredit/internal/identity"
)

// ErrForbidden is returned when a capability or ownership check fails.
var ErrForbidden = errors.New("forbidden")

// Capability is a named permission token.
type Capability string

// -----------------------------------------------------------------------------
// Capability Constants
// -----------------------------------------------------------------------------

const (
	CapGetOwnProfile    Capability = "getOwnProfile"
	CapRedeemCredits    Capability = "redeemCredits"
	CapViewOwnCredits   Capability = "viewOwnCredits"
	CapGetUsers         Capability = "getUsers"
	CapManageUsers      Capability = "manageUsers"
	CapManageProperties Capability = "manageProperties"
	CapManageUnits      Capability = "manageUnits"
	CapManageTenants    Capability = "manageTenants"
	CapManageCredits    Capability = "manageCredits"
	CapViewLedger       Capability = "viewLedger"
)

// -----------------------------------------------------------------------------
// Role Capability Mappings
// Closed table. There is no mechanism to register roles or capabilities at
// runtime.
// -----------------------------------------------------------------------------

var roleCapabilities = map[identity.Role][]Capability{
	identity.RoleTenant: {
		CapGetOwnProfile,
		CapRedeemCredits,
		CapViewOwnCredits,
	},
	identity.RoleLandlord: {
		CapManageProperties,
		CapManageUnits,
		CapManageTenants,
		CapManageCredits,
		CapViewLedger,
	},
	identity.RoleAdmin: {
		CapGetUsers,
		CapManageUsers,
		CapManageProperties,
		CapManageUnits,
		CapManageTenants,
		CapManageCredits,
		CapViewLedger,
	},
}

// CapabilitiesFor returns a copy of the capability set granted to role.
func CapabilitiesFor(role identity.Role) []Capability {
	caps := roleCapabilities[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

// HasCapability checks if the role grants a specific capability.
func HasCapability(role identity.Role, c Capability) bool {
	for _, granted := range roleCapabilities[role] {
		if granted == c {
			return true
		}
	}
	return false
}
