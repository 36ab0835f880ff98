package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/reportcentral/console/internal/api/metrics"
	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/listing"
	"github.com/reportcentral/console/internal/core/policy"
	"github.com/reportcentral/console/internal/core/ports"
	"github.com/reportcentral/console/internal/core/userform"
)

const defaultFormWait = 3 * time.Second

// UserService runs user administration on behalf of the session's actor.
type UserService struct {
	dir      ports.UserDirectory
	store    ports.SessionStore
	cache    ports.ListingCache
	confirms ports.DeleteConfirmations
	audit    ports.AuditSink
	history  ports.AuditRepository
	formWait time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

var _ ports.UserService = (*UserService)(nil)

// UserServiceOption configures a UserService.
type UserServiceOption func(*UserService)

// WithFormWait bounds how long OpenForm waits for the form's reference data.
func WithFormWait(d time.Duration) UserServiceOption {
	return func(s *UserService) {
		if d > 0 {
			s.formWait = d
		}
	}
}

// WithClock overrides the clock used for quick filters and audit entries.
func WithClock(now func() time.Time) UserServiceOption {
	return func(s *UserService) { s.now = now }
}

func NewUserService(
	dir ports.UserDirectory,
	store ports.SessionStore,
	cache ports.ListingCache,
	confirms ports.DeleteConfirmations,
	audit ports.AuditSink,
	history ports.AuditRepository,
	log zerolog.Logger,
	opts ...UserServiceOption,
) *UserService {
	s := &UserService{
		dir:      dir,
		store:    store,
		cache:    cache,
		confirms: confirms,
		audit:    audit,
		history:  history,
		formWait: defaultFormWait,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// capability resolves the actor's capability set. A session without a
// profile is unauthorized; a role without one is forbidden.
func (s *UserService) capability(sess *domain.Session) (policy.Capability, error) {
	role := sess.Role()
	if role == nil {
		return policy.CapabilityNone, domain.ErrUnauthorized
	}
	c := policy.CapabilityFor(*role)
	if !c.CanEdit() {
		return c, domain.ErrForbidden
	}
	return c, nil
}

func (s *UserService) gateway(sess *domain.Session) *directoryGateway {
	return &directoryGateway{dir: s.dir, creds: credentialsFor(sess, s.store)}
}

// List projects the user collection. The collection is served from the
// session's listing cache and fetched on a miss.
func (s *UserService) List(ctx context.Context, sess *domain.Session, q listing.Query) (*ports.UserListResult, error) {
	if _, err := s.capability(sess); err != nil {
		return nil, err
	}

	users, err := s.cache.Get(ctx, sess.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("listing cache read failed")
		users = nil
	}
	if users == nil {
		users, err = s.dir.ListUsers(ctx, credentialsFor(sess, s.store))
		if err != nil {
			return nil, err
		}
		if err := s.cache.Put(ctx, sess.ID, users); err != nil {
			s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("listing cache write failed")
		}
	}

	if q.Now.IsZero() {
		q.Now = s.now()
	}
	return &ports.UserListResult{
		Page:       listing.Project(users, q),
		Stats:      listing.Summarize(users),
		RoleLabels: listing.RoleLabels(),
	}, nil
}

func (s *UserService) Get(ctx context.Context, sess *domain.Session, id int64) (*domain.User, error) {
	if _, err := s.capability(sess); err != nil {
		return nil, err
	}
	return s.dir.GetUser(ctx, credentialsFor(sess, s.store), id)
}

// OpenForm builds the form for id (or an empty create form when id is 0)
// and waits a bounded time for its reference data. Sets that did not load
// in time are returned empty. A full admin may preselect role so that the
// moderator candidate pool is loaded with the form.
func (s *UserService) OpenForm(ctx context.Context, sess *domain.Session, id int64, role domain.Role) (*ports.FormSnapshot, error) {
	c, err := s.capability(sess)
	if err != nil {
		return nil, err
	}
	gw := s.gateway(sess)

	var form *userform.Form
	if id == 0 {
		if !c.CanCreate() {
			return nil, domain.ErrForbidden
		}
		form = userform.NewCreate(c, userform.WithLogger(s.log))
	} else {
		u, err := s.dir.GetUser(ctx, gw.creds, id)
		if err != nil {
			return nil, err
		}
		form = userform.NewEdit(c, *u, userform.WithLogger(s.log))
	}
	if role != "" && c == policy.CapabilityFullAdmin {
		form.Edit(func(v *userform.Values) { v.Role = role })
	}

	mountCtx, cancel := context.WithTimeout(ctx, s.formWait)
	defer cancel()
	done := form.Mount(mountCtx, gw)
	select {
	case <-done:
	case <-mountCtx.Done():
		s.log.Warn().Int64("user_id", id).Msg("form reference data not loaded in time")
	}
	form.Dispose()

	opts := form.Options()
	snap := &ports.FormSnapshot{
		Mode:          form.Mode(),
		Capability:    c,
		UserID:        id,
		Values:        form.Values(),
		Organizations: nonNilOrgs(opts.Organizations),
		Candidates:    nonNilUsers(opts.Candidates),
	}
	return snap, nil
}

// Create submits a creation form filled by edit.
func (s *UserService) Create(ctx context.Context, sess *domain.Session, edit userform.Edit) (*domain.User, error) {
	c, err := s.capability(sess)
	if err != nil {
		return nil, err
	}
	gw := s.gateway(sess)

	form := userform.NewCreate(c, userform.WithLogger(s.log), userform.OnSuccess(s.refresh(ctx, sess)))
	form.Edit(edit)

	saved, err := form.Submit(ctx, gw)
	s.observe(domain.AuditCreate, err)
	if err != nil {
		return nil, err
	}

	s.record(sess, domain.AuditCreate, saved.ID, nil)
	s.log.Info().Int64("user_id", saved.ID).Int64("actor_id", sess.ActorID()).Msg("user created")
	return saved, nil
}

// Update loads the user, applies edit and sends the resulting sparse patch.
func (s *UserService) Update(ctx context.Context, sess *domain.Session, id int64, edit userform.Edit) (*domain.User, error) {
	c, err := s.capability(sess)
	if err != nil {
		return nil, err
	}
	gw := s.gateway(sess)

	current, err := s.dir.GetUser(ctx, gw.creds, id)
	if err != nil {
		return nil, err
	}

	form := userform.NewEdit(c, *current, userform.WithLogger(s.log), userform.OnSuccess(s.refresh(ctx, sess)))
	form.Edit(edit)

	saved, err := form.Submit(ctx, gw)
	s.observe(domain.AuditUpdate, err)
	if err != nil {
		return nil, err
	}

	s.record(sess, domain.AuditUpdate, id, gw.sent)
	s.log.Info().
		Int64("user_id", id).
		Int64("actor_id", sess.ActorID()).
		Strs("fields", gw.sent).
		Msg("user updated")
	return saved, nil
}

// RequestDelete issues the single-use token Delete requires.
func (s *UserService) RequestDelete(ctx context.Context, sess *domain.Session, id int64) (*ports.DeleteConfirmation, error) {
	if err := s.canDelete(sess, id); err != nil {
		return nil, err
	}
	token, ttl, err := s.confirms.Issue(ctx, sess.ID, id)
	if err != nil {
		return nil, err
	}
	return &ports.DeleteConfirmation{Token: token, ExpiresIn: int(ttl.Seconds())}, nil
}

// Delete removes the user once token is confirmed.
func (s *UserService) Delete(ctx context.Context, sess *domain.Session, id int64, token string) error {
	if err := s.canDelete(sess, id); err != nil {
		return err
	}

	ok, err := s.confirms.Consume(ctx, sess.ID, id, token)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrConfirmationRequired
	}

	err = s.dir.DeleteUser(ctx, credentialsFor(sess, s.store), id)
	s.observe(domain.AuditDelete, err)
	if err != nil {
		return err
	}

	s.refresh(ctx, sess)(nil)
	s.record(sess, domain.AuditDelete, id, nil)
	s.log.Info().Int64("user_id", id).Int64("actor_id", sess.ActorID()).Msg("user deleted")
	return nil
}

func (s *UserService) canDelete(sess *domain.Session, id int64) error {
	c, err := s.capability(sess)
	if err != nil {
		return err
	}
	if !c.CanDelete() {
		return domain.ErrForbidden
	}
	if id == sess.ActorID() {
		return domain.ErrSelfDelete
	}
	return nil
}

func (s *UserService) Organizations(ctx context.Context, sess *domain.Session) ([]domain.Organization, error) {
	if _, err := s.capability(sess); err != nil {
		return nil, err
	}
	return s.dir.ListOrganizations(ctx, credentialsFor(sess, s.store))
}

// History returns the newest audit entries recorded for a user.
func (s *UserService) History(ctx context.Context, sess *domain.Session, id int64, limit int) ([]domain.AuditEntry, error) {
	if _, err := s.capability(sess); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTarget(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("user history: %w", err)
	}
	return entries, nil
}

// refresh returns the success callback that drops the session's cached
// listing so the next List refetches.
func (s *UserService) refresh(ctx context.Context, sess *domain.Session) func(*domain.User) {
	return func(*domain.User) {
		if err := s.cache.Invalidate(ctx, sess.ID); err != nil {
			s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("listing cache invalidation failed")
		}
	}
}

func (s *UserService) record(sess *domain.Session, action domain.AuditAction, target int64, fields []string) {
	entry := domain.AuditEntry{
		Action:   action,
		ActorID:  sess.ActorID(),
		TargetID: target,
		Fields:   fields,
		At:       s.now().UTC(),
	}
	if sess.Profile != nil {
		entry.ActorUsername = sess.Profile.Username
	}
	s.audit.Record(entry)
}

func (s *UserService) observe(action domain.AuditAction, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrValidation):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	metrics.UserMutationsTotal.WithLabelValues(string(action), outcome).Inc()
}

func nonNilOrgs(v []domain.Organization) []domain.Organization {
	if v == nil {
		return []domain.Organization{}
	}
	return v
}

func nonNilUsers(v []domain.User) []domain.User {
	if v == nil {
		return []domain.User{}
	}
	return v
}
