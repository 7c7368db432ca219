// internal/policy/policy_test.go
package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBorrowIsForStudentsAndFaculty(t *testing.T) {
	assert.True(t, Allows(RoleStudent, ActionBorrow))
	assert.True(t, Allows(RoleFaculty, ActionBorrow))
	assert.False(t, Allows(RoleLibrarian, ActionBorrow))
}

func TestManagementIsLibrarianOnly(t *testing.T) {
	for _, action := range []Action{ActionManageCatalog, ActionManageBorrows, ActionClearFine, ActionViewAllBorrows} {
		assert.True(t, Allows(RoleLibrarian, action), string(action))
		assert.False(t, Allows(RoleStudent, action), string(action))
		assert.False(t, Allows(RoleFaculty, action), string(action))
	}
}

func TestUnknownRoleGetsNothing(t *testing.T) {
	for _, action := range []Action{ActionBorrow, ActionManageCatalog, ActionClearFine} {
		assert.False(t, Allows(Role("admin"), action))
		assert.False(t, Allows(Role(""), action))
	}
}
