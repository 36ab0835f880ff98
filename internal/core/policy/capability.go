package policy

import "github.com/reportcentral/console/internal/core/domain"

// Capability is the administration capability set granted to a role.
type Capability string

const (
	CapabilityNone          Capability = ""
	CapabilityFullAdmin     Capability = "full_admin"
	CapabilityOrgAccessOnly Capability = "org_access_only"
)

var capabilities = map[domain.Role]Capability{
	domain.RoleAdmin:     CapabilityFullAdmin,
	domain.RoleModerator: CapabilityOrgAccessOnly,
}

// CapabilityFor looks the role up in the capability table. Unknown roles and
// plain users get CapabilityNone.
func CapabilityFor(role domain.Role) Capability {
	return capabilities[role]
}

// CanEdit reports whether the capability may open the edit form.
func (c Capability) CanEdit() bool { return c != CapabilityNone }

// CanCreate reports whether the capability may create users.
func (c Capability) CanCreate() bool { return c == CapabilityFullAdmin }

// CanDelete reports whether the capability may delete users.
func (c Capability) CanDelete() bool { return c == CapabilityFullAdmin }
