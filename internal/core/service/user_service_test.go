package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/listing"
	"github.com/reportcentral/console/internal/core/policy"
	"github.com/reportcentral/console/internal/core/ports"
	"github.com/reportcentral/console/internal/core/userform"
)

type userServiceFixture struct {
	dir      *stubDirectory
	store    *memorySessions
	cache    *memoryCache
	confirms *memoryConfirms
	audit    *memoryAudit
	svc      *UserService
}

func newUserServiceFixture(dir *stubDirectory) *userServiceFixture {
	f := &userServiceFixture{
		dir:      dir,
		store:    newMemorySessions(),
		cache:    newMemoryCache(),
		confirms: newMemoryConfirms(),
		audit:    &memoryAudit{},
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc = NewUserService(dir, f.store, f.cache, f.confirms, f.audit, f.audit, zerolog.Nop(),
		WithFormWait(200*time.Millisecond),
		WithClock(func() time.Time { return now }),
	)
	return f
}

func target() *domain.User {
	return &domain.User{
		ID:                     42,
		FullName:               "A",
		Username:               "alice",
		Role:                   domain.RoleUser,
		ShowInSelection:        true,
		AvailableOrganizations: []int64{1},
	}
}

func TestUserService_RejectsPlainUsers(t *testing.T) {
	f := newUserServiceFixture(&stubDirectory{})

	if _, err := f.svc.List(context.Background(), sessionAs(domain.RoleUser, 1), listing.Query{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.List(context.Background(), &domain.Session{ID: "x"}, listing.Query{}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUserService_List_UsesCache(t *testing.T) {
	dir := &stubDirectory{listUsersFn: func(context.Context, ports.Credentials) ([]domain.User, error) {
		return []domain.User{
			{ID: 1, Username: "a", Role: domain.RoleAdmin, IsOnline: true},
			{ID: 2, Username: "b", Role: domain.RoleUser},
		}, nil
	}}
	f := newUserServiceFixture(dir)
	sess := sessionAs(domain.RoleAdmin, 1)

	res, err := f.svc.List(context.Background(), sess, listing.Query{Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Total != 1 || res.Items[0].ID != 2 {
		t.Fatalf("unexpected page %+v", res.Page)
	}
	if res.Stats.Total != 2 || res.Stats.Online != 1 || res.Stats.Admins != 1 {
		t.Fatalf("stats must cover the unfiltered collection: %+v", res.Stats)
	}

	if _, err := f.svc.List(context.Background(), sess, listing.Query{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if f.dir.listCalls != 1 {
		t.Fatalf("expected one directory fetch, got %d", f.dir.listCalls)
	}
}

func TestUserService_Update_SendsDiffAndAudits(t *testing.T) {
	var sent domain.UserPatch
	dir := &stubDirectory{
		getUserFn: func(context.Context, ports.Credentials, int64) (*domain.User, error) { return target(), nil },
		updateUserFn: func(_ context.Context, _ ports.Credentials, id int64, p domain.UserPatch) (*domain.User, error) {
			sent = p
			u := target()
			u.FullName = "B"
			return u, nil
		},
	}
	f := newUserServiceFixture(dir)
	sess := sessionAs(domain.RoleAdmin, 1)
	_ = f.cache.Put(context.Background(), sess.ID, []domain.User{*target()})

	u, err := f.svc.Update(context.Background(), sess, 42, func(v *userform.Values) { v.FullName = "B" })
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.FullName != "B" {
		t.Fatalf("unexpected user %+v", u)
	}
	if fields := sent.Fields(); len(fields) != 1 || fields[0] != "full_name" {
		t.Fatalf("expected only full_name, got %v", fields)
	}
	if f.cache.invalidated != 1 {
		t.Fatalf("listing cache not invalidated")
	}
	if len(f.audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(f.audit.entries))
	}
	e := f.audit.entries[0]
	if e.Action != domain.AuditUpdate || e.TargetID != 42 || e.ActorID != 1 || len(e.Fields) != 1 {
		t.Fatalf("unexpected audit entry %+v", e)
	}
}

func TestUserService_Update_NoChanges(t *testing.T) {
	called := false
	dir := &stubDirectory{
		getUserFn: func(context.Context, ports.Credentials, int64) (*domain.User, error) { return target(), nil },
		updateUserFn: func(context.Context, ports.Credentials, int64, domain.UserPatch) (*domain.User, error) {
			called = true
			return nil, nil
		},
	}
	f := newUserServiceFixture(dir)

	_, err := f.svc.Update(context.Background(), sessionAs(domain.RoleAdmin, 1), 42, func(v *userform.Values) { v.FullName = "A" })
	if !errors.Is(err, domain.ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}
	if called || len(f.audit.entries) != 0 {
		t.Fatalf("no-op edit must not reach the backend or the audit trail")
	}
}

func TestUserService_Update_ModeratorSendsOnlyOrganizations(t *testing.T) {
	var sent domain.UserPatch
	dir := &stubDirectory{
		getUserFn: func(context.Context, ports.Credentials, int64) (*domain.User, error) { return target(), nil },
		updateUserFn: func(_ context.Context, _ ports.Credentials, _ int64, p domain.UserPatch) (*domain.User, error) {
			sent = p
			return target(), nil
		},
	}
	f := newUserServiceFixture(dir)

	_, err := f.svc.Update(context.Background(), sessionAs(domain.RoleModerator, 5), 42, func(v *userform.Values) {
		v.Role = domain.RoleAdmin
		v.AvailableOrganizations = []int64{1, 2}
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if fields := sent.Fields(); len(fields) != 1 || fields[0] != "available_organizations" {
		t.Fatalf("moderator sent %v", fields)
	}
}

func TestUserService_Create_ModeratorForbidden(t *testing.T) {
	f := newUserServiceFixture(&stubDirectory{})

	_, err := f.svc.Create(context.Background(), sessionAs(domain.RoleModerator, 5), func(v *userform.Values) {
		v.FullName = "N"
		v.Username = "n"
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUserService_Create_Audits(t *testing.T) {
	dir := &stubDirectory{createUserFn: func(_ context.Context, _ ports.Credentials, req domain.CreateUserRequest) (*domain.User, error) {
		return &domain.User{ID: 77, Username: req.Username}, nil
	}}
	f := newUserServiceFixture(dir)

	u, err := f.svc.Create(context.Background(), sessionAs(domain.RoleAdmin, 1), func(v *userform.Values) {
		v.FullName = "New"
		v.Username = "new"
	})
	if err != nil || u.ID != 77 {
		t.Fatalf("unexpected result %+v, %v", u, err)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != domain.AuditCreate || f.audit.entries[0].TargetID != 77 {
		t.Fatalf("unexpected audit %+v", f.audit.entries)
	}
}

func TestUserService_Delete_RequiresConfirmation(t *testing.T) {
	deleted := 0
	dir := &stubDirectory{deleteUserFn: func(context.Context, ports.Credentials, int64) error {
		deleted++
		return nil
	}}
	f := newUserServiceFixture(dir)
	sess := sessionAs(domain.RoleAdmin, 1)
	ctx := context.Background()

	if err := f.svc.Delete(ctx, sess, 42, ""); !errors.Is(err, domain.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}

	conf, err := f.svc.RequestDelete(ctx, sess, 42)
	if err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	if conf.ExpiresIn != 120 {
		t.Fatalf("unexpected expiry %d", conf.ExpiresIn)
	}
	if err := f.svc.Delete(ctx, sess, 42, conf.Token); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.svc.Delete(ctx, sess, 42, conf.Token); !errors.Is(err, domain.ErrConfirmationRequired) {
		t.Fatalf("token must be single-use, got %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected one deletion, got %d", deleted)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != domain.AuditDelete {
		t.Fatalf("unexpected audit %+v", f.audit.entries)
	}
}

func TestUserService_Delete_Refusals(t *testing.T) {
	f := newUserServiceFixture(&stubDirectory{})
	ctx := context.Background()

	if _, err := f.svc.RequestDelete(ctx, sessionAs(domain.RoleAdmin, 42), 42); !errors.Is(err, domain.ErrSelfDelete) {
		t.Fatalf("expected ErrSelfDelete, got %v", err)
	}
	if _, err := f.svc.RequestDelete(ctx, sessionAs(domain.RoleModerator, 1), 42); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUserService_OpenForm_Edit(t *testing.T) {
	u := target()
	u.Role = domain.RoleModerator
	dir := &stubDirectory{
		getUserFn: func(context.Context, ports.Credentials, int64) (*domain.User, error) { return u, nil },
		listOrgsFn: func(context.Context, ports.Credentials) ([]domain.Organization, error) {
			return []domain.Organization{{ID: 1, Name: "HQ"}}, nil
		},
		listUsersFn: func(context.Context, ports.Credentials) ([]domain.User, error) {
			return []domain.User{{ID: 42, Role: domain.RoleModerator}, {ID: 3, Role: domain.RoleUser}}, nil
		},
	}
	f := newUserServiceFixture(dir)

	snap, err := f.svc.OpenForm(context.Background(), sessionAs(domain.RoleAdmin, 1), 42, "")
	if err != nil {
		t.Fatalf("OpenForm: %v", err)
	}
	if snap.Mode != userform.Editing || snap.Capability != policy.CapabilityFullAdmin || snap.UserID != 42 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(snap.Organizations) != 1 || len(snap.Candidates) != 1 || snap.Candidates[0].ID != 3 {
		t.Fatalf("unexpected options %+v / %+v", snap.Organizations, snap.Candidates)
	}
}

func TestUserService_OpenForm_SlowLoadsDegradeToEmpty(t *testing.T) {
	dir := &stubDirectory{listOrgsFn: func(ctx context.Context, _ ports.Credentials) ([]domain.Organization, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	f := newUserServiceFixture(dir)

	snap, err := f.svc.OpenForm(context.Background(), sessionAs(domain.RoleAdmin, 1), 0, "")
	if err != nil {
		t.Fatalf("OpenForm: %v", err)
	}
	if snap.Mode != userform.Creating || snap.Organizations == nil || len(snap.Organizations) != 0 {
		t.Fatalf("expected an empty organization set, got %+v", snap.Organizations)
	}
	if snap.Values.Role != domain.RoleUser || !snap.Values.RequirePasswordChange {
		t.Fatalf("unexpected create defaults %+v", snap.Values)
	}
}

func TestUserService_OpenForm_ModeratorCannotOpenCreate(t *testing.T) {
	f := newUserServiceFixture(&stubDirectory{})

	if _, err := f.svc.OpenForm(context.Background(), sessionAs(domain.RoleModerator, 1), 0, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUserService_OpenForm_CreateModeratorLoadsCandidates(t *testing.T) {
	dir := &stubDirectory{
		listOrgsFn: func(context.Context, ports.Credentials) ([]domain.Organization, error) { return nil, nil },
		listUsersFn: func(context.Context, ports.Credentials) ([]domain.User, error) {
			return []domain.User{{ID: 5, Role: domain.RoleModerator}, {ID: 3, Role: domain.RoleUser}}, nil
		},
	}
	f := newUserServiceFixture(dir)

	snap, err := f.svc.OpenForm(context.Background(), sessionAs(domain.RoleAdmin, 1), 0, domain.RoleModerator)
	if err != nil {
		t.Fatalf("OpenForm: %v", err)
	}
	if snap.Values.Role != domain.RoleModerator {
		t.Fatalf("expected preselected moderator role, got %q", snap.Values.Role)
	}
	if len(snap.Candidates) != 1 || snap.Candidates[0].ID != 3 {
		t.Fatalf("expected plain users as candidates, got %+v", snap.Candidates)
	}
}

func TestUserService_OpenForm_RoleIgnoredWithoutRoleCapability(t *testing.T) {
	u := target()
	u.Role = domain.RoleUser
	calls := 0
	dir := &stubDirectory{
		getUserFn: func(context.Context, ports.Credentials, int64) (*domain.User, error) { return u, nil },
		listUsersFn: func(context.Context, ports.Credentials) ([]domain.User, error) {
			calls++
			return nil, nil
		},
	}
	f := newUserServiceFixture(dir)

	snap, err := f.svc.OpenForm(context.Background(), sessionAs(domain.RoleModerator, 1), 42, domain.RoleModerator)
	if err != nil {
		t.Fatalf("OpenForm: %v", err)
	}
	if snap.Values.Role != domain.RoleUser || calls != 0 {
		t.Fatalf("moderator preselected a role: %q (%d loads)", snap.Values.Role, calls)
	}
}

func TestUserService_History(t *testing.T) {
	f := newUserServiceFixture(&stubDirectory{})
	f.audit.Record(domain.AuditEntry{Action: domain.AuditUpdate, TargetID: 42})
	f.audit.Record(domain.AuditEntry{Action: domain.AuditUpdate, TargetID: 7})

	entries, err := f.svc.History(context.Background(), sessionAs(domain.RoleAdmin, 1), 42, 10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("unexpected history %+v, %v", entries, err)
	}
}
