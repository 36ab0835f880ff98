package service

import (
	"context"
	"sync"

	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/ports"
	"github.com/reportcentral/console/internal/core/userform"
)

// sessionCredentials lends a session's token to the directory client and
// clears the session when the backend rejects it.
type sessionCredentials struct {
	mu    sync.Mutex
	sess  *domain.Session
	store ports.SessionStore
}

func credentialsFor(sess *domain.Session, store ports.SessionStore) *sessionCredentials {
	return &sessionCredentials{sess: sess, store: store}
}

func (c *sessionCredentials) BearerToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return ""
	}
	return c.sess.Token
}

// Invalidate drops token and profile together, in memory and in the store.
func (c *sessionCredentials) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	if c.sess == nil {
		c.mu.Unlock()
		return nil
	}
	c.sess.Clear()
	id := c.sess.ID
	c.mu.Unlock()
	return c.store.Clear(ctx, id)
}

// directoryGateway adapts the directory to the form engine's Saver and
// Loader, acting with one session's credentials.
type directoryGateway struct {
	dir   ports.UserDirectory
	creds ports.Credentials
	// sent lists the fields of the last update, for the audit trail.
	sent []string
}

var (
	_ userform.Saver  = (*directoryGateway)(nil)
	_ userform.Loader = (*directoryGateway)(nil)
)

func (g *directoryGateway) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	return g.dir.CreateUser(ctx, g.creds, req)
}

func (g *directoryGateway) Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	g.sent = patch.Fields()
	return g.dir.UpdateUser(ctx, g.creds, id, patch)
}

func (g *directoryGateway) Organizations(ctx context.Context) ([]domain.Organization, error) {
	return g.dir.ListOrganizations(ctx, g.creds)
}

func (g *directoryGateway) Users(ctx context.Context) ([]domain.User, error) {
	return g.dir.ListUsers(ctx, g.creds)
}
