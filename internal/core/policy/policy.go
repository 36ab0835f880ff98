// Package policy decides which screens and administrative capabilities a
// role may reach. Everything here is a pure function of its inputs.
package policy

import "github.com/reportcentral/console/internal/core/domain"

// RouteTag labels a screen with the capability set allowed to open it.
type RouteTag string

const (
	TagPublic           RouteTag = "public"
	TagUnrestricted     RouteTag = "unrestricted"
	TagAdminOnly        RouteTag = "admin-only"
	TagModeratorOnly    RouteTag = "moderator-only"
	TagAdminOrModerator RouteTag = "admin-or-moderator"
)

// Redirect targets used by denials.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	HomePath      = "/home"
)

// Decision is the outcome of Evaluate. A denial always names a redirect.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

func allow() Decision { return Decision{Allowed: true} }

func deny(target string) Decision { return Decision{RedirectTo: target} }

func isRole(role *domain.Role, r domain.Role) bool { return role != nil && *role == r }

// Evaluate maps the current role (nil when there is no session) and a route
// tag to a decision.
func Evaluate(role *domain.Role, tag RouteTag) Decision {
	if tag == TagPublic {
		return allow()
	}
	if role == nil {
		return deny(LoginPath)
	}

	switch tag {
	case TagAdminOnly:
		if isRole(role, domain.RoleAdmin) {
			return allow()
		}
		return deny(DashboardPath)
	case TagModeratorOnly:
		if isRole(role, domain.RoleModerator) {
			return allow()
		}
		return deny(HomePath)
	case TagAdminOrModerator:
		if isRole(role, domain.RoleAdmin) || isRole(role, domain.RoleModerator) {
			return allow()
		}
		return deny(HomePath)
	default:
		return allow()
	}
}

// Screen is a navigable console route and the tag guarding it.
type Screen struct {
	Path  string   `json:"path"`
	Title string   `json:"title"`
	Tag   RouteTag `json:"tag"`
}

// Screens is the console route table.
var Screens = []Screen{
	{Path: "/", Title: "Welcome", Tag: TagPublic},
	{Path: "/login", Title: "Sign in", Tag: TagPublic},
	{Path: "/forgot-password", Title: "Forgot password", Tag: TagPublic},
	{Path: "/reset-password", Title: "Reset password", Tag: TagPublic},

	{Path: "/home", Title: "Home", Tag: TagUnrestricted},
	{Path: "/dashboard", Title: "Dashboard", Tag: TagUnrestricted},
	{Path: "/centralization", Title: "Centralization", Tag: TagUnrestricted},
	{Path: "/long-term-assets", Title: "Long-term assets", Tag: TagUnrestricted},
	{Path: "/payroll", Title: "Payroll", Tag: TagUnrestricted},
	{Path: "/payroll/consolidated-tariff", Title: "Consolidated tariff", Tag: TagUnrestricted},
	{Path: "/payroll/tariff-list", Title: "Tariff list", Tag: TagUnrestricted},
	{Path: "/nomenclature", Title: "Nomenclature", Tag: TagUnrestricted},
	{Path: "/bank-cash", Title: "Bank and cash", Tag: TagUnrestricted},
	{Path: "/profile", Title: "Profile", Tag: TagUnrestricted},

	{Path: "/users", Title: "Users", Tag: TagAdminOrModerator},
	{Path: "/administration", Title: "Administration", Tag: TagAdminOnly},
}
