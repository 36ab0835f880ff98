package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements sign-in, sign-out and the actor's own account.
type AuthService struct {
	dir   ports.UserDirectory
	store ports.SessionStore
	log   zerolog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(dir ports.UserDirectory, store ports.SessionStore, log zerolog.Logger) *AuthService {
	return &AuthService{dir: dir, store: store, log: log}
}

// Login authenticates against the backend and opens a new session holding
// the token and the returned profile.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, *ports.LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, nil, &domain.ValidationError{Message: "username and password are required"}
	}

	res, err := s.dir.Login(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	sess := &domain.Session{ID: uuid.NewString(), Token: res.Token, Profile: res.User}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().
		Int64("user_id", res.User.ID).
		Str("role", string(res.User.Role)).
		Msg("user logged in")
	return sess, res, nil
}

// Logout clears the stored session. Clearing an unknown session succeeds.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.Clear(ctx, sessionID)
}

// Me refreshes the cached profile from the backend. A rejected token leaves
// the session cleared and no profile behind.
func (s *AuthService) Me(ctx context.Context, sess *domain.Session) (*domain.User, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthorized
	}

	u, err := s.dir.Me(ctx, credentialsFor(sess, s.store))
	if err != nil {
		return nil, err
	}

	sess.Profile = u
	if err := s.store.Save(ctx, sess); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to cache refreshed profile")
	}
	return u, nil
}

// ChangePassword changes the actor's password and refreshes the profile so
// the require_password_change flag is current.
func (s *AuthService) ChangePassword(ctx context.Context, sess *domain.Session, in ports.ChangePasswordInput) (*domain.User, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	switch {
	case in.OldPassword == "":
		return nil, &domain.ValidationError{Message: "old_password is required"}
	case len(in.NewPassword) < minPasswordLength:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("new_password must be at least %d characters", minPasswordLength)}
	case in.NewPassword != in.ConfirmPassword:
		return nil, &domain.ValidationError{Message: "passwords do not match"}
	}

	if err := s.dir.ChangePassword(ctx, credentialsFor(sess, s.store), in); err != nil {
		return nil, err
	}
	return s.Me(ctx, sess)
}
