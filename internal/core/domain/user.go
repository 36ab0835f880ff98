package domain

import "time"

// Role is the privilege level of a console account.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// User models an account managed through the console. Passwords are
// write-only and never part of this struct.
type User struct {
	ID                     int64      `json:"id"`
	FullName               string     `json:"full_name"`
	Username               string     `json:"username"`
	Role                   Role       `json:"role"`
	RequirePasswordChange  bool       `json:"require_password_change"`
	DisablePasswordChange  bool       `json:"disable_password_change"`
	ShowInSelection        bool       `json:"show_in_selection"`
	IsFirstLogin           bool       `json:"is_first_login"`
	Email                  string     `json:"email,omitempty"`
	Phone                  string     `json:"phone,omitempty"`
	AdditionalEmail        string     `json:"additional_email,omitempty"`
	Comment                string     `json:"comment,omitempty"`
	AvailableOrganizations []int64    `json:"available_organizations"`
	AccessibleUsers        []int64    `json:"accessible_users,omitempty"`
	IsOnline               bool       `json:"is_online"`
	LastSeen               *time.Time `json:"last_seen,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Status is the derived visibility state of a user in listings.
type Status string

const (
	StatusHidden  Status = "hidden"
	StatusPending Status = "pending"
	StatusActive  Status = "active"
)

func (s Status) Valid() bool {
	return s == StatusHidden || s == StatusPending || s == StatusActive
}

// Ordinal orders statuses hidden < pending < active.
func (s Status) Ordinal() int {
	switch s {
	case StatusHidden:
		return 0
	case StatusPending:
		return 1
	default:
		return 2
	}
}

// Status derives the user's listing status. It is never stored.
func (u User) Status() Status {
	switch {
	case !u.ShowInSelection:
		return StatusHidden
	case u.IsFirstLogin && u.RequirePasswordChange:
		return StatusPending
	default:
		return StatusActive
	}
}

// Organization is read-only reference data used for membership selection.
type Organization struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
