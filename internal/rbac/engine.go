package rbac

import "fmt"

// Decision is the outcome of an authorization check: either an allow or a
// deny carrying a human-readable reason. Checks never return errors; a deny
// is a normal result, not a fault.
type Decision struct {
	allowed bool
	reason  string
}

// Allow grants the requested action.
func Allow() Decision {
	return Decision{allowed: true}
}

// Deny rejects the requested action with a reason.
func Deny(reason string) Decision {
	return Decision{reason: reason}
}

// Allowed reports whether the action was granted.
func (d Decision) Allowed() bool {
	return d.allowed
}

// Reason returns the deny reason, empty on allow.
func (d Decision) Reason() string {
	return d.reason
}

func isCollegeWide(r Role) bool {
	return r == RolePrincipal || r == RoleCollegeAdmin
}

// CheckRole allows the action iff the actor's role is one of the allowed
// roles.
func CheckRole(a *Actor, allowed ...Role) Decision {
	for _, r := range allowed {
		if a.Role == r {
			return Allow()
		}
	}
	return Deny("insufficient role")
}

// CheckModulePermission allows the requested access to a module. Principals
// and college admins bypass the lookup; everyone else must hold an explicit
// grant with the matching flag set.
func CheckModulePermission(a *Actor, m Module, access Access) Decision {
	if isCollegeWide(a.Role) {
		return Allow()
	}
	perm, ok := a.Permission(m)
	if !ok {
		return Deny("no access to module")
	}
	switch access {
	case AccessRead:
		if perm.CanRead {
			return Allow()
		}
	case AccessWrite:
		if perm.CanWrite {
			return Allow()
		}
	}
	return Deny(fmt.Sprintf("insufficient %s permission", access))
}

// CheckDepartmentAccess decides whether the actor may touch data belonging
// to the target department. An empty targetDepartmentID means the request is
// not scoped to any department.
func CheckDepartmentAccess(a *Actor, targetDepartmentID string) Decision {
	switch a.Role {
	case RolePrincipal, RoleCollegeAdmin:
		return Allow()
	case RoleHOD:
		if targetDepartmentID != "" && targetDepartmentID == a.DepartmentID {
			return Allow()
		}
		return Deny("department mismatch")
	case RoleStaff:
		if targetDepartmentID == "" || targetDepartmentID == a.DepartmentID {
			return Allow()
		}
		return Deny("department mismatch")
	}
	return Deny("insufficient role")
}

// CanManageStaff reports whether a role bound to actorDepartmentID may manage
// a staff member in targetDepartmentID. HODs manage only their own
// department; college-wide roles manage everyone.
func CanManageStaff(role Role, actorDepartmentID, targetDepartmentID string) bool {
	if isCollegeWide(role) {
		return true
	}
	if role == RoleHOD {
		return actorDepartmentID != "" && actorDepartmentID == targetDepartmentID
	}
	return false
}

// CheckUserManagement decides whether the actor may manage the target user's
// account.
func CheckUserManagement(a *Actor, target ManagedUser) Decision {
	switch a.Role {
	case RolePrincipal, RoleCollegeAdmin:
		return Allow()
	case RoleHOD:
		if CanManageStaff(a.Role, a.DepartmentID, target.DepartmentID) {
			return Allow()
		}
		return Deny("insufficient permissions")
	}
	return Deny("insufficient permissions")
}

// CheckCalendarPermission consults the static calendar table for the actor's
// role. An HOD targeting department scope must additionally match the
// supplied department, even when the table allows the scope. An empty scope
// defaults to college.
func CheckCalendarPermission(a *Actor, action CalendarAction, scope CalendarScope, scopeDepartmentID string) Decision {
	if scope == "" {
		scope = CalendarScopeCollege
	}
	table := CalendarPermissions(a.Role)
	var allowed map[CalendarScope]bool
	switch action {
	case CalendarCreate:
		allowed = table.CanCreate
	case CalendarEdit:
		allowed = table.CanEdit
	case CalendarDelete:
		allowed = table.CanDelete
	default:
		return Deny("unknown calendar action")
	}
	if !allowed[scope] {
		return Deny(fmt.Sprintf("cannot %s %s calendar entries", action, scope))
	}
	if a.Role == RoleHOD && scope == CalendarScopeDepartment && scopeDepartmentID != "" && scopeDepartmentID != a.DepartmentID {
		return Deny("department mismatch")
	}
	return Allow()
}

// CanAccessAcademicData decides whether the actor may read academic records
// scoped by department and branch. Staff without a department fall back to
// the programs module read grant; departmental staff and HODs stay inside
// their own department.
func CanAccessAcademicData(a *Actor, targetDepartmentID, targetBranchID string) Decision {
	switch a.Role {
	case RolePrincipal, RoleCollegeAdmin:
		return Allow()
	case RoleHOD:
		if targetDepartmentID == "" || targetDepartmentID == a.DepartmentID {
			return Allow()
		}
		return Deny("department mismatch")
	case RoleStaff:
		if a.DepartmentID == "" {
			return CheckModulePermission(a, ModulePrograms, AccessRead)
		}
		if targetDepartmentID == "" || targetDepartmentID == a.DepartmentID {
			return Allow()
		}
		return Deny("department mismatch")
	}
	return Deny("insufficient role")
}
