package domain

// CreateUserRequest is the full payload sent when a user is created.
// Optional strings are omitted when empty; AccessibleUsers only travels
// for moderators.
type CreateUserRequest struct {
	FullName               string   `json:"full_name"`
	Username               string   `json:"username"`
	Password               string   `json:"password,omitempty"`
	Role                   Role     `json:"role"`
	RequirePasswordChange  bool     `json:"require_password_change"`
	DisablePasswordChange  bool     `json:"disable_password_change"`
	ShowInSelection        bool     `json:"show_in_selection"`
	Email                  string   `json:"email,omitempty"`
	Phone                  string   `json:"phone,omitempty"`
	AdditionalEmail        string   `json:"additional_email,omitempty"`
	Comment                string   `json:"comment,omitempty"`
	AvailableOrganizations []int64  `json:"available_organizations"`
	AccessibleUsers        *[]int64 `json:"accessible_users,omitempty"`
}

// UserPatch is a sparse update. A nil field is left unchanged by the backend;
// a non-nil pointer to an empty slice clears the collection.
type UserPatch struct {
	FullName               *string  `json:"full_name,omitempty"`
	Username               *string  `json:"username,omitempty"`
	Role                   *Role    `json:"role,omitempty"`
	Password               *string  `json:"password,omitempty"`
	ResetPassword          *bool    `json:"reset_password,omitempty"`
	RequirePasswordChange  *bool    `json:"require_password_change,omitempty"`
	DisablePasswordChange  *bool    `json:"disable_password_change,omitempty"`
	ShowInSelection        *bool    `json:"show_in_selection,omitempty"`
	Email                  *string  `json:"email,omitempty"`
	Phone                  *string  `json:"phone,omitempty"`
	AdditionalEmail        *string  `json:"additional_email,omitempty"`
	Comment                *string  `json:"comment,omitempty"`
	AvailableOrganizations *[]int64 `json:"available_organizations,omitempty"`
	AccessibleUsers        *[]int64 `json:"accessible_users,omitempty"`
}

// Fields lists the JSON names of the fields present in the patch, in a
// stable order. Used for audit entries and logs.
func (p UserPatch) Fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.FullName != nil, "full_name")
	add(p.Username != nil, "username")
	add(p.Role != nil, "role")
	add(p.Password != nil, "password")
	add(p.ResetPassword != nil, "reset_password")
	add(p.RequirePasswordChange != nil, "require_password_change")
	add(p.DisablePasswordChange != nil, "disable_password_change")
	add(p.ShowInSelection != nil, "show_in_selection")
	add(p.Email != nil, "email")
	add(p.Phone != nil, "phone")
	add(p.AdditionalEmail != nil, "additional_email")
	add(p.Comment != nil, "comment")
	add(p.AvailableOrganizations != nil, "available_organizations")
	add(p.AccessibleUsers != nil, "accessible_users")
	return out
}

// IsEmpty reports whether the patch carries no field at all.
func (p UserPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}
