package session

import (
	"fmt"

	"onboarding-cli/internal/model"
)

type Route string

const (
	RouteDashboard  Route = "dashboard"
	RouteChecklist  Route = "checklist"
	RouteTaskDetail Route = "task-detail"
	RouteCalendar   Route = "calendar"
	RouteMentor     Route = "mentor"
	RouteAdmin      Route = "admin"
)

// routeRoles lists the roles allowed on each route; nil means any logged-in role.
var routeRoles = map[Route][]model.Role{
	RouteDashboard:  nil,
	RouteChecklist:  nil,
	RouteTaskDetail: nil,
	RouteCalendar:   nil,
	RouteMentor:     {model.RoleAdmin, model.RoleMentor},
	RouteAdmin:      {model.RoleAdmin},
}

func Routes() []Route {
	return []Route{RouteDashboard, RouteChecklist, RouteTaskDetail, RouteCalendar, RouteMentor, RouteAdmin}
}

// Guard reports whether the session may open route.
//
// Rules:
// - Every route requires a logged-in role (ErrUnauthenticated).
// - mentor pages are limited to admins and mentors, admin pages to admins (ErrForbidden).
func (s Session) Guard(r Route) error {
	roles, ok := routeRoles[r]
	if !ok {
		return fmt.Errorf("unknown route: %q", r)
	}
	if !s.Authenticated() {
		return ErrUnauthenticated
	}
	if roles != nil && !s.Is(roles...) {
		return fmt.Errorf("%w %s: %s", ErrForbidden, s.role, r)
	}
	return nil
}

func (s Session) Allowed(r Route) bool { return s.Guard(r) == nil }
