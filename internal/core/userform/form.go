// Package userform implements the user administration form: the editable
// field set, its validation, and the payload it submits. A form is either
// Creating (no backing id) or Editing an existing user, and acts with the
// capability of the signed-in actor.
package userform

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/phone"
	"github.com/reportcentral/console/internal/core/policy"
)

// Mode distinguishes creation from edition.
type Mode string

const (
	Creating Mode = "creating"
	Editing  Mode = "editing"
)

// Values is the full editable field set.
type Values struct {
	FullName               string      `json:"full_name"`
	Username               string      `json:"username"`
	Role                   domain.Role `json:"role"`
	Password               string      `json:"password"`
	RequirePasswordChange  bool        `json:"require_password_change"`
	DisablePasswordChange  bool        `json:"disable_password_change"`
	ShowInSelection        bool        `json:"show_in_selection"`
	Email                  string      `json:"email"`
	Phone                  string      `json:"phone"`
	AdditionalEmail        string      `json:"additional_email"`
	Comment                string      `json:"comment"`
	AvailableOrganizations []int64     `json:"available_organizations"`
	AccessibleUsers        []int64     `json:"accessible_users"`
}

func (v Values) clone() Values {
	v.AvailableOrganizations = slices.Clone(v.AvailableOrganizations)
	v.AccessibleUsers = slices.Clone(v.AccessibleUsers)
	return v
}

// Edit mutates the form values in place.
type Edit func(*Values)

// Options is the reference data loaded on mount.
type Options struct {
	Organizations []domain.Organization `json:"organizations"`
	Candidates    []domain.User         `json:"candidates"`
}

// Saver persists a form submission.
type Saver interface {
	Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error)
}

// Form is safe for concurrent use: mount loads write options while the
// caller keeps editing.
type Form struct {
	mu         sync.Mutex
	mode       Mode
	capability policy.Capability
	original   *domain.User
	initial    Values
	values     Values
	options    Options
	closed     bool
	disposed   bool
	lastErr    string
	onSuccess  func(*domain.User)
	log        zerolog.Logger
}

// Option configures a Form.
type Option func(*Form)

// WithLogger sets the logger used for non-fatal load failures.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Form) { f.log = log }
}

// OnSuccess registers the callback fired after a successful submit. Callers
// use it to refresh their listing.
func OnSuccess(fn func(*domain.User)) Option {
	return func(f *Form) { f.onSuccess = fn }
}

// NewCreate opens an empty form.
func NewCreate(c policy.Capability, opts ...Option) *Form {
	f := &Form{
		mode:       Creating,
		capability: c,
		values: Values{
			Role:                   domain.RoleUser,
			RequirePasswordChange:  true,
			ShowInSelection:        true,
			AvailableOrganizations: []int64{},
			AccessibleUsers:        []int64{},
		},
		log: zerolog.Nop(),
	}
	f.initial = f.values.clone()
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewEdit opens a form over u. The values captured here are the baseline for
// the diff sent on submit.
func NewEdit(c policy.Capability, u domain.User, opts ...Option) *Form {
	orig := u
	f := &Form{
		mode:       Editing,
		capability: c,
		original:   &orig,
		values: Values{
			FullName:               u.FullName,
			Username:               u.Username,
			Role:                   u.Role,
			RequirePasswordChange:  u.RequirePasswordChange,
			DisablePasswordChange:  u.DisablePasswordChange,
			ShowInSelection:        u.ShowInSelection,
			Email:                  u.Email,
			Phone:                  phone.Format(u.Phone),
			AdditionalEmail:        u.AdditionalEmail,
			Comment:                u.Comment,
			AvailableOrganizations: nonNil(slices.Clone(u.AvailableOrganizations)),
			AccessibleUsers:        nonNil(slices.Clone(u.AccessibleUsers)),
		},
		log: zerolog.Nop(),
	}
	f.initial = f.values.clone()
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func (f *Form) Mode() Mode { return f.mode }

func (f *Form) Capability() policy.Capability { return f.capability }

// Original returns the user being edited, or nil while creating.
func (f *Form) Original() *domain.User {
	if f.original == nil {
		return nil
	}
	u := *f.original
	return &u
}

// Values returns a copy of the current field values.
func (f *Form) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values.clone()
}

// Options returns a copy of the loaded reference data.
func (f *Form) Options() Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Options{
		Organizations: slices.Clone(f.options.Organizations),
		Candidates:    slices.Clone(f.options.Candidates),
	}
}

// Err returns the message of the last failed submit.
func (f *Form) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Closed reports whether the form was submitted successfully.
func (f *Form) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Edit applies fn to the values. Every field stays editable in memory; what
// is sent depends on the capability.
func (f *Form) Edit(fn Edit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.values)
	f.values.Phone = phone.Format(f.values.Phone)
	f.values.AvailableOrganizations = nonNil(f.values.AvailableOrganizations)
	f.values.AccessibleUsers = nonNil(f.values.AccessibleUsers)
}

// ToggleOrganization adds id to the organization set or removes it.
func (f *Form) ToggleOrganization(id int64) {
	f.Edit(func(v *Values) { v.AvailableOrganizations = toggle(v.AvailableOrganizations, id) })
}

// ToggleAccessibleUser adds id to the managed-user set or removes it.
func (f *Form) ToggleAccessibleUser(id int64) {
	f.Edit(func(v *Values) { v.AccessibleUsers = toggle(v.AccessibleUsers, id) })
}

func toggle(ids []int64, id int64) []int64 {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(slices.Clone(ids), i, i+1)
	}
	return append(slices.Clone(ids), id)
}

// Dispose detaches the form; pending loads no longer write to it.
func (f *Form) Dispose() {
	f.mu.Lock()
	f.disposed = true
	f.mu.Unlock()
}

// Submit validates the values and persists them through s. On failure the
// message is kept on the form and the values are left untouched.
func (f *Form) Submit(ctx context.Context, s Saver) (*domain.User, error) {
	f.mu.Lock()
	values := f.values.clone()
	f.mu.Unlock()

	saved, err := f.submit(ctx, s, values)

	f.mu.Lock()
	if err != nil {
		f.lastErr = err.Error()
		f.mu.Unlock()
		return nil, err
	}
	f.lastErr = ""
	f.closed = true
	cb := f.onSuccess
	f.mu.Unlock()

	if cb != nil {
		cb(saved)
	}
	return saved, nil
}

func (f *Form) submit(ctx context.Context, s Saver, values Values) (*domain.User, error) {
	if f.mode == Creating {
		if !f.capability.CanCreate() {
			return nil, domain.ErrForbidden
		}
		if err := validate(values, Creating, true, true); err != nil {
			return nil, err
		}
		return s.Create(ctx, CreateRequest(values))
	}

	if !f.capability.CanEdit() {
		return nil, domain.ErrForbidden
	}
	patch, err := f.patch(values)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, f.original.ID, patch)
}

// Patch computes the sparse update for the current values without sending it.
func (f *Form) Patch() (domain.UserPatch, error) {
	if f.mode != Editing {
		return domain.UserPatch{}, errors.New("userform: patch requires an editing form")
	}
	return f.patch(f.Values())
}

func (f *Form) patch(values Values) (domain.UserPatch, error) {
	if f.capability == policy.CapabilityOrgAccessOnly {
		return OrgAccessPatch(values), nil
	}
	phoneChanged := values.Phone != f.initial.Phone
	roleChanged := values.Role != f.initial.Role
	if err := validate(values, Editing, phoneChanged, roleChanged); err != nil {
		return domain.UserPatch{}, err
	}
	p := Diff(f.initial, values)
	if p.IsEmpty() {
		return domain.UserPatch{}, domain.ErrNoChanges
	}
	return p, nil
}
