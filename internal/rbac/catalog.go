package rbac

// Static role hierarchy and permission tables. Everything in this file is
// immutable configuration, safe for concurrent reads.

var roleLevels = map[Role]int{
	RolePrincipal:    4,
	RoleCollegeAdmin: 3,
	RoleHOD:          2,
	RoleStaff:        1,
}

// RoleLevel returns the hierarchy level of a role, higher dominating lower.
// Unknown roles map to zero.
func RoleLevel(r Role) int {
	return roleLevels[r]
}

// CanManageRole reports whether role a strictly dominates role b. A role
// never manages an equal role.
func CanManageRole(a, b Role) bool {
	return RoleLevel(a) > RoleLevel(b)
}

// RequiresDepartment reports whether the role must be bound to a department.
func RequiresDepartment(r Role) bool {
	return r == RoleHOD
}

// CalendarPermissionSet lists the scopes a role may target per calendar
// action.
type CalendarPermissionSet struct {
	CanCreate map[CalendarScope]bool
	CanEdit   map[CalendarScope]bool
	CanDelete map[CalendarScope]bool
}

func calendarScopeSet(scopes ...CalendarScope) map[CalendarScope]bool {
	set := make(map[CalendarScope]bool, len(scopes))
	for _, s := range scopes {
		set[s] = true
	}
	return set
}

var allCalendarScopes = []CalendarScope{
	CalendarScopeCollege,
	CalendarScopeDepartment,
	CalendarScopeDegree,
	CalendarScopeBranch,
	CalendarScopeBatch,
	CalendarScopeSection,
}

var subCollegeCalendarScopes = []CalendarScope{
	CalendarScopeDepartment,
	CalendarScopeDegree,
	CalendarScopeBranch,
	CalendarScopeBatch,
	CalendarScopeSection,
}

var calendarTable = map[Role]CalendarPermissionSet{
	RolePrincipal: {
		CanCreate: calendarScopeSet(allCalendarScopes...),
		CanEdit:   calendarScopeSet(allCalendarScopes...),
		CanDelete: calendarScopeSet(allCalendarScopes...),
	},
	RoleCollegeAdmin: {
		CanCreate: calendarScopeSet(allCalendarScopes...),
		CanEdit:   calendarScopeSet(allCalendarScopes...),
		CanDelete: calendarScopeSet(allCalendarScopes...),
	},
	RoleHOD: {
		CanCreate: calendarScopeSet(subCollegeCalendarScopes...),
		CanEdit:   calendarScopeSet(subCollegeCalendarScopes...),
		CanDelete: calendarScopeSet(subCollegeCalendarScopes...),
	},
	RoleStaff: {
		CanCreate: calendarScopeSet(),
		CanEdit:   calendarScopeSet(),
		CanDelete: calendarScopeSet(),
	},
}

// CalendarPermissions returns the static calendar scope table for a role.
// Staff get empty sets: calendar access for staff is granted through module
// permissions, never through this table.
func CalendarPermissions(r Role) CalendarPermissionSet {
	return calendarTable[r]
}

// DefaultModulePermissions returns the grants assigned at account setup.
func DefaultModulePermissions(r Role) []ModulePermission {
	switch r {
	case RolePrincipal, RoleCollegeAdmin:
		perms := make([]ModulePermission, 0, len(Modules()))
		for _, m := range Modules() {
			perms = append(perms, ModulePermission{Module: m, CanRead: true, CanWrite: true, Scope: ScopeAll})
		}
		return perms
	case RoleHOD:
		perms := make([]ModulePermission, 0, len(Modules()))
		for _, m := range Modules() {
			perms = append(perms, ModulePermission{Module: m, CanRead: true, CanWrite: true, Scope: ScopeDepartment})
		}
		return perms
	case RoleStaff:
		// The programs grant is mandatory so staff can always read the
		// course structure they teach under.
		return []ModulePermission{
			{Module: ModulePrograms, CanRead: true, CanWrite: false, Scope: ScopeOwn},
		}
	default:
		return nil
	}
}
