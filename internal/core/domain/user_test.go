package domain

import (
	"errors"
	"testing"
)

func TestUserStatus(t *testing.T) {
	cases := []struct {
		name string
		user User
		want Status
	}{
		{"hidden wins over pending", User{ShowInSelection: false, IsFirstLogin: true, RequirePasswordChange: true}, StatusHidden},
		{"hidden plain", User{ShowInSelection: false}, StatusHidden},
		{"pending", User{ShowInSelection: true, IsFirstLogin: true, RequirePasswordChange: true}, StatusPending},
		{"first login without reset", User{ShowInSelection: true, IsFirstLogin: true}, StatusActive},
		{"reset without first login", User{ShowInSelection: true, RequirePasswordChange: true}, StatusActive},
		{"active", User{ShowInSelection: true}, StatusActive},
	}
	for _, tc := range cases {
		if got := tc.user.Status(); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}

	if !(StatusHidden.Ordinal() < StatusPending.Ordinal() && StatusPending.Ordinal() < StatusActive.Ordinal()) {
		t.Fatalf("status ordinals out of order")
	}
}

func TestSession_ClearDropsProfile(t *testing.T) {
	s := &Session{ID: "s1", Token: "tok", Profile: &User{ID: 7, Role: RoleAdmin}}
	if r := s.Role(); r == nil || *r != RoleAdmin {
		t.Fatalf("expected admin role, got %v", r)
	}

	s.Clear()
	if s.Authenticated() || s.Profile != nil || s.Role() != nil {
		t.Fatalf("session not fully cleared: %+v", s)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	if !errors.Is(ErrNoChanges, ErrValidation) {
		t.Fatalf("ErrNoChanges should be a validation error")
	}

	var fl error = &ForceLogoutError{Reason: "revoked"}
	if !errors.Is(fl, ErrForceLogout) || !errors.Is(fl, ErrUnauthorized) {
		t.Fatalf("force logout should match ErrForceLogout and ErrUnauthorized")
	}

	nf := &APIError{Status: 404, Message: "user not found"}
	if !errors.Is(nf, ErrNotFound) || errors.Is(nf, ErrConflict) {
		t.Fatalf("404 should match ErrNotFound only")
	}
	if (&APIError{Status: 502}).Error() != "HTTP 502" {
		t.Fatalf("generic message expected")
	}
}

func TestUserPatch_Fields(t *testing.T) {
	name := "B"
	orgs := []int64{}
	p := UserPatch{FullName: &name, AvailableOrganizations: &orgs}

	got := p.Fields()
	if len(got) != 2 || got[0] != "full_name" || got[1] != "available_organizations" {
		t.Fatalf("unexpected fields: %v", got)
	}
	if p.IsEmpty() || !(UserPatch{}).IsEmpty() {
		t.Fatalf("IsEmpty mismatch")
	}
}
