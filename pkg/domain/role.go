package domain

import dErrors "satudata/pkg/domain-errors"

// Role identifies the caller's back-office role. The Access Gate resolves a
// role to its allowed categories and capabilities; no other package branches
// on role values directly.
type Role string

const (
	RoleSuperadmin      Role = "superadmin"
	RoleAdminEkonomi    Role = "admin_ekonomi"
	RoleAdminSosial     Role = "admin_sosial"
	RoleAdminLingkungan Role = "admin_lingkungan"
	RoleViewer          Role = "viewer"
)

var validRoles = map[Role]bool{
	RoleSuperadmin:      true,
	RoleAdminEkonomi:    true,
	RoleAdminSosial:     true,
	RoleAdminLingkungan: true,
	RoleViewer:          true,
}

// ParseRole constructs a Role from external input (token claims).
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
	}
	return r, nil
}

// IsValid checks if the role is one of the supported values.
func (r Role) IsValid() bool {
	return validRoles[r]
}
