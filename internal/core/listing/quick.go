package listing

import (
	"time"

	"github.com/reportcentral/console/internal/core/domain"
)

// QuickFilter is a one-click preset on top of the regular predicates.
type QuickFilter string

const (
	QuickNone           QuickFilter = ""
	QuickOnline         QuickFilter = "online"
	QuickNew            QuickFilter = "new"
	QuickInactive       QuickFilter = "inactive"
	QuickPasswordChange QuickFilter = "password_change"
)

const (
	newWindow      = 7 * 24 * time.Hour
	inactiveWindow = 30 * 24 * time.Hour
)

// Valid reports whether q is a known preset.
func (q QuickFilter) Valid() bool {
	switch q {
	case QuickNone, QuickOnline, QuickNew, QuickInactive, QuickPasswordChange:
		return true
	}
	return false
}

func (q QuickFilter) match(u domain.User, now time.Time) bool {
	switch q {
	case QuickOnline:
		return u.IsOnline
	case QuickNew:
		return !u.CreatedAt.IsZero() && now.Sub(u.CreatedAt) <= newWindow
	case QuickInactive:
		// never seen counts as inactive
		return u.LastSeen == nil || now.Sub(*u.LastSeen) > inactiveWindow
	case QuickPasswordChange:
		return u.RequirePasswordChange
	default:
		return true
	}
}

// Stats summarizes the unfiltered collection for the listing header.
type Stats struct {
	Total  int `json:"total"`
	Online int `json:"online"`
	Admins int `json:"admins"`
}

// Summarize counts users, online users and administrators.
func Summarize(users []domain.User) Stats {
	s := Stats{Total: len(users)}
	for _, u := range users {
		if u.IsOnline {
			s.Online++
		}
		if u.Role == domain.RoleAdmin {
			s.Admins++
		}
	}
	return s
}

// RoleLabel is the display label of a role; unknown roles show verbatim.
func RoleLabel(r domain.Role) string {
	switch r {
	case domain.RoleAdmin:
		return "Administrator"
	case domain.RoleModerator:
		return "Moderator"
	case domain.RoleUser:
		return "User"
	default:
		return string(r)
	}
}

// RoleLabels maps every known role to its label for the role filter.
func RoleLabels() map[domain.Role]string {
	return map[domain.Role]string{
		domain.RoleAdmin:     RoleLabel(domain.RoleAdmin),
		domain.RoleModerator: RoleLabel(domain.RoleModerator),
		domain.RoleUser:      RoleLabel(domain.RoleUser),
	}
}
