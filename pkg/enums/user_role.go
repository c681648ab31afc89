package enums

import "fmt"

// UserRole represents a caller's position in the platform role hierarchy.
type UserRole string

const (
	UserRoleCustomer        UserRole = "customer"
	UserRoleCorporateMember UserRole = "corporate_member"
	UserRoleCorporateAdmin  UserRole = "corporate_admin"
	UserRoleStaff           UserRole = "staff"
	UserRoleAdmin           UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleCorporateMember,
	UserRoleCorporateAdmin,
	UserRoleStaff,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
