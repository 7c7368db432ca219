// internal/policy/policy.go

// Package policy centralizes role-based UI gating as a single role × action
// table. It decides which controls a screen offers, nothing more: the
// server is the authority on every action, and a hidden control is a
// courtesy, not a security boundary.
package policy

// Role mirrors the roles the API assigns to accounts.
type Role string

const (
	RoleStudent   Role = "student"
	RoleFaculty   Role = "faculty"
	RoleLibrarian Role = "librarian"
)

// Action is a user-visible capability gated by role.
type Action string

const (
	ActionBorrow         Action = "borrow"
	ActionManageCatalog  Action = "manage-catalog"
	ActionManageBorrows  Action = "manage-borrows"
	ActionClearFine      Action = "clear-fine"
	ActionViewAllBorrows Action = "view-all-borrows"
)

var grants = map[Role]map[Action]bool{
	RoleStudent: {
		ActionBorrow: true,
	},
	RoleFaculty: {
		ActionBorrow: true,
	},
	RoleLibrarian: {
		ActionManageCatalog:  true,
		ActionManageBorrows:  true,
		ActionClearFine:      true,
		ActionViewAllBorrows: true,
	},
}

// Allows reports whether a role may see the control for an action.
// Unknown roles get nothing.
func Allows(role Role, action Action) bool {
	return grants[role][action]
}
