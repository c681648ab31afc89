// Package roles defines the platform authority ordering used to gate
// booking lifecycle operations.
package roles

import "github.com/selfydev/selfy-backend/pkg/enums"

// authorityRank orders roles from least to most privileged. A role can do
// anything a lower-ranked role can do.
var authorityRank = map[enums.UserRole]int{
	enums.UserRoleCustomer:        0,
	enums.UserRoleCorporateMember: 1,
	enums.UserRoleCorporateAdmin:  2,
	enums.UserRoleStaff:           3,
	enums.UserRoleAdmin:           4,
}

// Rank returns the role's position in the authority ordering. Unknown roles
// rank below customer so they never pass an AtLeast check.
func Rank(role enums.UserRole) int {
	if rank, ok := authorityRank[role]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether role carries at least the authority of min.
func AtLeast(role, min enums.UserRole) bool {
	return Rank(role) >= Rank(min) && Rank(role) >= 0
}

// IsStaff reports whether the role is staff or admin.
func IsStaff(role enums.UserRole) bool {
	return AtLeast(role, enums.UserRoleStaff)
}

// IsCorporateAdmin reports whether the role can view organization-wide
// bookings and corporate billing.
func IsCorporateAdmin(role enums.UserRole) bool {
	return AtLeast(role, enums.UserRoleCorporateAdmin)
}
