package authz

import (
	"testing"

	"github.com/opentrusty/tenantcredit/internal/identity"
	"github.com/stretchr/testify/assert"
)

func actor(id string, role identity.Role) identity.Actor {
	return identity.Actor{ID: id, Role: role}
}

// TestPurpose: Validates the fixed role to capability table.
// Scope: Unit Test
// Security: Vertical privilege separation between tenant and management roles
// Expected: Each role holds exactly its listed capabilities.
// Test Case ID: AUT-01
func TestAuthorize_RoleTable(t *testing.T) {
	cases := []struct {
		role    identity.Role
		allowed []Capability
		denied  []Capability
	}{
		{
			role:    identity.RoleTenant,
			allowed: []Capability{CapGetOwnProfile, CapRedeemCredits, CapViewOwnCredits},
			denied:  []Capability{CapManageCredits, CapViewLedger, CapManageTenants, CapGetUsers},
		},
		{
			role:    identity.RoleLandlord,
			allowed: []Capability{CapManageProperties, CapManageUnits, CapManageTenants, CapManageCredits, CapViewLedger},
			denied:  []Capability{CapGetUsers, CapManageUsers, CapRedeemCredits, CapGetOwnProfile},
		},
		{
			role:    identity.RoleAdmin,
			allowed: []Capability{CapGetUsers, CapManageUsers, CapManageProperties, CapManageUnits, CapManageTenants, CapManageCredits, CapViewLedger},
			denied:  []Capability{CapRedeemCredits, CapViewOwnCredits},
		},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			a := actor("u", tc.role)
			for _, c := range tc.allowed {
				assert.NoError(t, Authorize(a, c), c)
			}
			for _, c := range tc.denied {
				assert.ErrorIs(t, Authorize(a, c), ErrForbidden, c)
			}
		})
	}
}

// TestPurpose: Validates that every required capability must be present.
// Scope: Unit Test
// Security: Conjunctive capability checks
// Expected: Missing any one capability fails; an empty requirement passes.
// Test Case ID: AUT-02
func TestAuthorize_RequiredSet(t *testing.T) {
	landlord := actor("l", identity.RoleLandlord)
	assert.NoError(t, Authorize(landlord))
	assert.NoError(t, Authorize(landlord, CapManageCredits, CapViewLedger))
	assert.ErrorIs(t, Authorize(landlord, CapManageCredits, CapManageUsers), ErrForbidden)

	assert.ErrorIs(t, Authorize(actor("x", identity.Role("ghost")), CapGetOwnProfile), ErrForbidden)
	assert.NoError(t, Authorize(actor("x", identity.Role("ghost"))))
}

func TestCapabilitiesFor_ReturnsCopy(t *testing.T) {
	caps := CapabilitiesFor(identity.RoleTenant)
	caps[0] = CapManageUsers
	assert.False(t, HasCapability(identity.RoleTenant, CapManageUsers))
	assert.Empty(t, CapabilitiesFor(identity.Role("ghost")))
}

// TestPurpose: Validates the self-or-management ownership guard.
// Scope: Unit Test
// Security: Horizontal privilege separation between tenants
// Expected: Tenants reach only their own id; landlord and admin reach any id.
// Test Case ID: AUT-03
func TestCanAccessTenant(t *testing.T) {
	assert.True(t, CanAccessTenant(actor("t-1", identity.RoleTenant), "t-1"))
	assert.False(t, CanAccessTenant(actor("t-1", identity.RoleTenant), "t-2"))
	assert.False(t, CanAccessTenant(actor("", identity.RoleTenant), ""))
	assert.True(t, CanAccessTenant(actor("l", identity.RoleLandlord), "t-2"))
	assert.True(t, CanAccessTenant(actor("a", identity.RoleAdmin), "t-2"))
	assert.False(t, CanAccessTenant(actor("g", identity.Role("ghost")), "g"))
}
