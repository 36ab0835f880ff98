// Package directory is the HTTP client of the user directory backend. It
// attaches the session's bearer token, decodes the response envelopes and
// turns failures into the domain error taxonomy.
package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/ports"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultReadRetries = 2
	maxErrorBody       = 64 << 10

	// DefaultLogoutReason is used when a forced logout carries no reason.
	DefaultLogoutReason = "Session expired"
)

// Config captures the settings for reaching the backend.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	ReadRetries int
}

// Client implements ports.UserDirectory over HTTP. Reads are retried within
// a bounded budget; mutations are sent exactly once.
type Client struct {
	base   *url.URL
	writes *http.Client
	reads  *retryablehttp.Client
	log    zerolog.Logger
}

var _ ports.UserDirectory = (*Client)(nil)

// New validates cfg and builds a Client. Defaults are applied for a zero
// timeout; a negative retry budget disables retries.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("directory base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("directory base url: unsupported scheme %q", base.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.ReadRetries
	if retries == 0 {
		retries = defaultReadRetries
	}
	if retries < 0 {
		retries = 0
	}

	writes := &http.Client{Timeout: timeout}

	reads := retryablehttp.NewClient()
	reads.HTTPClient = &http.Client{Timeout: timeout}
	reads.RetryMax = retries
	reads.RetryWaitMin = 100 * time.Millisecond
	reads.RetryWaitMax = time.Second
	reads.Logger = leveledLogger{log: log}
	// the last response is handed back as is so its status and body can be
	// classified like any other
	reads.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{base: base, writes: writes, reads: reads, log: log}, nil
}

// ── Auth ──────────────────────────────────────────────────────────────────────

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token                 string       `json:"token"`
	User                  *domain.User `json:"user"`
	RequirePasswordChange bool         `json:"require_password_change"`
}

// Login exchanges credentials for a token. It is the only unauthenticated
// call; a 401 here is a plain rejection.
func (c *Client) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	var out loginResponse
	err := c.do(ctx, call{
		op:     "login",
		public: true,
		method: http.MethodPost,
		path:   "/auth/login",
		body:   loginRequest{Username: username, Password: password},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	if out.Token == "" || out.User == nil {
		return nil, &domain.APIError{Status: http.StatusBadGateway, Message: "login response without token or user"}
	}
	return &ports.LoginResult{
		Token:                 out.Token,
		User:                  out.User,
		RequirePasswordChange: out.RequirePasswordChange || out.User.RequirePasswordChange,
	}, nil
}

// Me fetches the profile bound to the token.
func (c *Client) Me(ctx context.Context, creds ports.Credentials) (*domain.User, error) {
	var out userEnvelope
	if err := c.do(ctx, call{op: "me", method: http.MethodGet, path: "/auth/me", creds: creds, out: &out}); err != nil {
		return nil, err
	}
	return out.get()
}

// ChangePassword changes the actor's own password.
func (c *Client) ChangePassword(ctx context.Context, creds ports.Credentials, in ports.ChangePasswordInput) error {
	return c.do(ctx, call{op: "change_password", method: http.MethodPost, path: "/auth/change-password", creds: creds, body: in})
}

// ── Users ─────────────────────────────────────────────────────────────────────

type userEnvelope struct {
	User *domain.User `json:"user"`
}

func (e userEnvelope) get() (*domain.User, error) {
	if e.User == nil {
		return nil, &domain.APIError{Status: http.StatusBadGateway, Message: "response without user"}
	}
	return e.User, nil
}

type usersEnvelope struct {
	Users []domain.User `json:"users"`
}

type organizationsEnvelope struct {
	Organizations []domain.Organization `json:"organizations"`
}

// ListUsers returns the whole user collection. A missing list is empty.
func (c *Client) ListUsers(ctx context.Context, creds ports.Credentials) ([]domain.User, error) {
	var out usersEnvelope
	if err := c.do(ctx, call{op: "list_users", method: http.MethodGet, path: "/users", creds: creds, out: &out}); err != nil {
		return nil, err
	}
	if out.Users == nil {
		return []domain.User{}, nil
	}
	return out.Users, nil
}

func (c *Client) GetUser(ctx context.Context, creds ports.Credentials, id int64) (*domain.User, error) {
	var out userEnvelope
	if err := c.do(ctx, call{op: "get_user", method: http.MethodGet, path: userPath(id), creds: creds, out: &out}); err != nil {
		return nil, err
	}
	return out.get()
}

func (c *Client) CreateUser(ctx context.Context, creds ports.Credentials, req domain.CreateUserRequest) (*domain.User, error) {
	var out userEnvelope
	if err := c.do(ctx, call{op: "create_user", method: http.MethodPost, path: "/users", creds: creds, body: req, out: &out}); err != nil {
		return nil, err
	}
	return out.get()
}

func (c *Client) UpdateUser(ctx context.Context, creds ports.Credentials, id int64, patch domain.UserPatch) (*domain.User, error) {
	var out userEnvelope
	if err := c.do(ctx, call{op: "update_user", method: http.MethodPut, path: userPath(id), creds: creds, body: patch, out: &out}); err != nil {
		return nil, err
	}
	return out.get()
}

func (c *Client) DeleteUser(ctx context.Context, creds ports.Credentials, id int64) error {
	return c.do(ctx, call{op: "delete_user", method: http.MethodDelete, path: userPath(id), creds: creds})
}

// ListOrganizations returns the organizations that may be granted.
func (c *Client) ListOrganizations(ctx context.Context, creds ports.Credentials) ([]domain.Organization, error) {
	var out organizationsEnvelope
	if err := c.do(ctx, call{op: "list_organizations", method: http.MethodGet, path: "/users/organizations", creds: creds, out: &out}); err != nil {
		return nil, err
	}
	if out.Organizations == nil {
		return []domain.Organization{}, nil
	}
	return out.Organizations, nil
}

func userPath(id int64) string {
	return fmt.Sprintf("/users/%d", id)
}
