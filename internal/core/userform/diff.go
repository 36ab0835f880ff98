package userform

import (
	"html"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/reportcentral/console/internal/core/domain"
)

// Free-text fields are stripped of markup before they leave the console.
var plainText = bluemonday.StrictPolicy()

// sanitize drops tags but keeps the text readable: the policy escapes
// entities, which the backend would otherwise store verbatim.
func sanitize(s string) string {
	return html.UnescapeString(plainText.Sanitize(strings.TrimSpace(s)))
}

// fieldRule adds one field to the patch when it differs between the loaded
// and the edited values.
type fieldRule func(initial, edited Values, p *domain.UserPatch)

// diffRules is the per-field table: a field travels only when its sent form
// differs from the loaded value's. A typed password always differs.
var diffRules = []fieldRule{
	func(i, e Values, p *domain.UserPatch) {
		if v := sanitize(e.FullName); v != sanitize(i.FullName) {
			p.FullName = ptr(v)
		}
	},
	func(i, e Values, p *domain.UserPatch) {
		// an empty username on edit means "unchanged"
		if u := strings.TrimSpace(e.Username); u != "" && u != strings.TrimSpace(i.Username) {
			p.Username = ptr(u)
		}
	},
	func(i, e Values, p *domain.UserPatch) {
		if i.Role != e.Role {
			p.Role = ptr(e.Role)
		}
	},
	func(_, e Values, p *domain.UserPatch) {
		if e.Password != "" {
			p.Password = ptr(e.Password)
		}
	},
	func(i, e Values, p *domain.UserPatch) {
		if i.RequirePasswordChange != e.RequirePasswordChange {
			p.RequirePasswordChange = ptr(e.RequirePasswordChange)
		}
	},
	func(i, e Values, p *domain.UserPatch) {
		if i.DisablePasswordChange != e.DisablePasswordChange {
			p.DisablePasswordChange = ptr(e.DisablePasswordChange)
		}
	},
	func(i, e Values, p *domain.UserPatch) {
		if i.ShowInSelection != e.ShowInSelection {
			p.ShowInSelection = ptr(e.ShowInSelection)
		}
	},
	func(i, e Values, p *domain.UserPatch) {
		if v := strings.TrimSpace(e.Email); v != strings.TrimSpace(i.Email) {
			p.Email = ptr(v)
		}
	},
	func(i, e Values, p *domain.UserPatch) {
		if i.Phone != e.Phone {
			p.Phone = ptr(e.Phone)
		}
	},
	func(i, e Values, p *domain.UserPatch) {
		if v := strings.TrimSpace(e.AdditionalEmail); v != strings.TrimSpace(i.AdditionalEmail) {
			p.AdditionalEmail = ptr(v)
		}
	},
	func(i, e Values, p *domain.UserPatch) {
		if v := sanitize(e.Comment); v != sanitize(i.Comment) {
			p.Comment = ptr(v)
		}
	},
	func(i, e Values, p *domain.UserPatch) {
		if !slices.Equal(i.AvailableOrganizations, e.AvailableOrganizations) {
			p.AvailableOrganizations = ptr(slices.Clone(e.AvailableOrganizations))
		}
	},
	func(i, e Values, p *domain.UserPatch) {
		if e.Role == domain.RoleModerator && !slices.Equal(i.AccessibleUsers, e.AccessibleUsers) {
			p.AccessibleUsers = ptr(slices.Clone(e.AccessibleUsers))
		}
	},
}

// overrideRules run on a non-empty diff. With the require_password_change
// box checked, an empty password becomes a reset directive and the flag is
// always sent as true.
var overrideRules = []fieldRule{
	func(_, e Values, p *domain.UserPatch) {
		if e.Password == "" && e.RequirePasswordChange {
			p.ResetPassword = ptr(true)
		}
	},
	func(_, e Values, p *domain.UserPatch) {
		if e.RequirePasswordChange {
			p.RequirePasswordChange = ptr(true)
		}
	},
}

// Diff computes the sparse update between the values captured at load time
// and the edited ones. An empty result means nothing was changed.
func Diff(initial, edited Values) domain.UserPatch {
	var p domain.UserPatch
	for _, rule := range diffRules {
		rule(initial, edited, &p)
	}
	if p.IsEmpty() {
		return p
	}
	for _, rule := range overrideRules {
		rule(initial, edited, &p)
	}
	return p
}

// OrgAccessPatch is the only patch an org-access-only actor may send.
func OrgAccessPatch(v Values) domain.UserPatch {
	return domain.UserPatch{AvailableOrganizations: ptr(slices.Clone(nonNil(v.AvailableOrganizations)))}
}

// CreateRequest builds the full creation payload; diffing does not apply.
func CreateRequest(v Values) domain.CreateUserRequest {
	req := domain.CreateUserRequest{
		FullName:               sanitize(v.FullName),
		Username:               strings.TrimSpace(v.Username),
		Password:               v.Password,
		Role:                   v.Role,
		RequirePasswordChange:  v.RequirePasswordChange,
		DisablePasswordChange:  v.DisablePasswordChange,
		ShowInSelection:        v.ShowInSelection,
		Email:                  strings.TrimSpace(v.Email),
		Phone:                  v.Phone,
		AdditionalEmail:        strings.TrimSpace(v.AdditionalEmail),
		Comment:                sanitize(v.Comment),
		AvailableOrganizations: slices.Clone(nonNil(v.AvailableOrganizations)),
	}
	if v.Role == domain.RoleModerator {
		req.AccessibleUsers = ptr(slices.Clone(nonNil(v.AccessibleUsers)))
	}
	return req
}

func ptr[T any](v T) *T { return &v }
