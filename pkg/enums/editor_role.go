package enums

import "slices"

// EditorRole represents the back-office permission level carried in access tokens.
type EditorRole string

const (
	EditorRoleAdmin   EditorRole = "admin"
	EditorRolePlanner EditorRole = "planner"
	EditorRoleViewer  EditorRole = "viewer"
)

var validEditorRoles = []EditorRole{
	EditorRoleAdmin,
	EditorRolePlanner,
	EditorRoleViewer,
}

// String implements fmt.Stringer.
func (r EditorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known EditorRole.
func (r EditorRole) IsValid() bool {
	return slices.Contains(validEditorRoles, r)
}

// CanEdit reports whether the role may mutate manufacturing data.
func (r EditorRole) CanEdit() bool {
	return r == EditorRoleAdmin || r == EditorRolePlanner
}

// ParseEditorRole converts raw input into an EditorRole.
func ParseEditorRole(value string) (EditorRole, error) {
	return parseEnum("editor role", value, validEditorRoles)
}
