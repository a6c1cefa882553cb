package rbac

import (
	"fmt"
	"strings"
)

// Role is a position in the college staff hierarchy.
type Role string

const (
	RolePrincipal    Role = "PRINCIPAL"
	RoleCollegeAdmin Role = "COLLEGE_ADMIN"
	RoleHOD          Role = "HOD"
	RoleStaff        Role = "STAFF"
)

// Module is a functional area permission is scoped to.
type Module string

const (
	ModuleStudents   Module = "students"
	ModuleAttendance Module = "attendance"
	ModuleResults    Module = "results"
	ModuleFees       Module = "fees"
	ModuleTimetable  Module = "timetable"
	ModuleLibrary    Module = "library"
	ModuleNotices    Module = "notices"
	ModulePrograms   Module = "programs"
	ModuleCalendar   Module = "calendar"
	ModuleReports    Module = "reports"
)

// Modules returns every known module in catalog order.
func Modules() []Module {
	return []Module{
		ModuleStudents,
		ModuleAttendance,
		ModuleResults,
		ModuleFees,
		ModuleTimetable,
		ModuleLibrary,
		ModuleNotices,
		ModulePrograms,
		ModuleCalendar,
		ModuleReports,
	}
}

// Scope is the breadth at which a module permission applies.
type Scope string

const (
	ScopeAll        Scope = "ALL"
	ScopeDepartment Scope = "DEPARTMENT"
	ScopeOwn        Scope = "OWN"
)

// Access selects which permission flag a check consults.
type Access string

const (
	AccessRead  Access = "read"
	AccessWrite Access = "write"
)

// ModulePermission grants read/write access to a single module.
type ModulePermission struct {
	Module   Module
	CanRead  bool
	CanWrite bool
	Scope    Scope
}

// CalendarScope is the organisational level a calendar entry targets.
type CalendarScope string

const (
	CalendarScopeCollege    CalendarScope = "college"
	CalendarScopeDepartment CalendarScope = "department"
	CalendarScopeDegree     CalendarScope = "degree"
	CalendarScopeBranch     CalendarScope = "branch"
	CalendarScopeBatch      CalendarScope = "batch"
	CalendarScopeSection    CalendarScope = "section"
)

// CalendarAction is an operation on calendar entries.
type CalendarAction string

const (
	CalendarCreate CalendarAction = "create"
	CalendarEdit   CalendarAction = "edit"
	CalendarDelete CalendarAction = "delete"
)

// Actor is the authenticated identity a request acts as. It is built once
// per request from the verified token plus the persisted user record and is
// immutable afterwards.
type Actor struct {
	UserID       int64
	Email        string
	Role         Role
	DepartmentID string
	CollegeID    string

	permissions []ModulePermission
	byModule    map[Module]ModulePermission
}

// NewActor validates and constructs an Actor. Permissions must be unique by
// module and reference known modules; an HOD must carry a department. The
// engine relies on this validation so its checks stay free of defensive
// type handling.
func NewActor(userID int64, email string, role Role, departmentID, collegeID string, perms []ModulePermission) (*Actor, error) {
	if RoleLevel(role) == 0 {
		return nil, fmt.Errorf("rbac: unknown role %q", role)
	}
	if RequiresDepartment(role) && strings.TrimSpace(departmentID) == "" {
		return nil, fmt.Errorf("rbac: role %s requires a department", role)
	}
	known := make(map[Module]struct{}, len(Modules()))
	for _, m := range Modules() {
		known[m] = struct{}{}
	}
	byModule := make(map[Module]ModulePermission, len(perms))
	ordered := make([]ModulePermission, 0, len(perms))
	for _, p := range perms {
		if _, ok := known[p.Module]; !ok {
			return nil, fmt.Errorf("rbac: unknown module %q", p.Module)
		}
		if _, dup := byModule[p.Module]; dup {
			return nil, fmt.Errorf("rbac: duplicate permission for module %q", p.Module)
		}
		if p.Scope == "" {
			p.Scope = ScopeOwn
		}
		byModule[p.Module] = p
		ordered = append(ordered, p)
	}
	return &Actor{
		UserID:       userID,
		Email:        email,
		Role:         role,
		DepartmentID: departmentID,
		CollegeID:    collegeID,
		permissions:  ordered,
		byModule:     byModule,
	}, nil
}

// Permission returns the actor's grant for a module, if any.
func (a *Actor) Permission(m Module) (ModulePermission, bool) {
	p, ok := a.byModule[m]
	return p, ok
}

// Permissions returns the actor's grants in assignment order.
func (a *Actor) Permissions() []ModulePermission {
	out := make([]ModulePermission, len(a.permissions))
	copy(out, a.permissions)
	return out
}

// ManagedUser carries the fields of a target user relevant to management
// authorization.
type ManagedUser struct {
	UserID       int64
	Role         Role
	DepartmentID string
}
