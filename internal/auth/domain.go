package auth

import (
	"time"

	"github.com/campuskit/campuskit/internal/rbac"
)

// User is the persisted account record an actor is built from.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         rbac.Role
	DepartmentID string
	CollegeID    string
	IsActive     bool
	Permissions  []rbac.ModulePermission
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor builds the immutable per-request identity from the record. Accounts
// without explicit grants fall back to the catalog defaults for their role.
func (u *User) Actor() (*rbac.Actor, error) {
	perms := u.Permissions
	if len(perms) == 0 {
		perms = rbac.DefaultModulePermissions(u.Role)
	}
	return rbac.NewActor(u.ID, u.Email, u.Role, u.DepartmentID, u.CollegeID, perms)
}
