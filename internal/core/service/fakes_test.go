package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Directory stub
// ---------------------------------------------------------------------------

type stubDirectory struct {
	loginFn          func(ctx context.Context, username, password string) (*ports.LoginResult, error)
	meFn             func(ctx context.Context, creds ports.Credentials) (*domain.User, error)
	changePasswordFn func(ctx context.Context, creds ports.Credentials, in ports.ChangePasswordInput) error
	listUsersFn      func(ctx context.Context, creds ports.Credentials) ([]domain.User, error)
	getUserFn        func(ctx context.Context, creds ports.Credentials, id int64) (*domain.User, error)
	createUserFn     func(ctx context.Context, creds ports.Credentials, req domain.CreateUserRequest) (*domain.User, error)
	updateUserFn     func(ctx context.Context, creds ports.Credentials, id int64, patch domain.UserPatch) (*domain.User, error)
	deleteUserFn     func(ctx context.Context, creds ports.Credentials, id int64) error
	listOrgsFn       func(ctx context.Context, creds ports.Credentials) ([]domain.Organization, error)

	mu        sync.Mutex
	listCalls int
}

func (d *stubDirectory) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	return d.loginFn(ctx, username, password)
}

func (d *stubDirectory) Me(ctx context.Context, creds ports.Credentials) (*domain.User, error) {
	return d.meFn(ctx, creds)
}

func (d *stubDirectory) ChangePassword(ctx context.Context, creds ports.Credentials, in ports.ChangePasswordInput) error {
	return d.changePasswordFn(ctx, creds, in)
}

func (d *stubDirectory) ListUsers(ctx context.Context, creds ports.Credentials) ([]domain.User, error) {
	d.mu.Lock()
	d.listCalls++
	d.mu.Unlock()
	if d.listUsersFn == nil {
		return []domain.User{}, nil
	}
	return d.listUsersFn(ctx, creds)
}

func (d *stubDirectory) GetUser(ctx context.Context, creds ports.Credentials, id int64) (*domain.User, error) {
	return d.getUserFn(ctx, creds, id)
}

func (d *stubDirectory) CreateUser(ctx context.Context, creds ports.Credentials, req domain.CreateUserRequest) (*domain.User, error) {
	return d.createUserFn(ctx, creds, req)
}

func (d *stubDirectory) UpdateUser(ctx context.Context, creds ports.Credentials, id int64, patch domain.UserPatch) (*domain.User, error) {
	return d.updateUserFn(ctx, creds, id, patch)
}

func (d *stubDirectory) DeleteUser(ctx context.Context, creds ports.Credentials, id int64) error {
	return d.deleteUserFn(ctx, creds, id)
}

func (d *stubDirectory) ListOrganizations(ctx context.Context, creds ports.Credentials) ([]domain.Organization, error) {
	if d.listOrgsFn == nil {
		return []domain.Organization{}, nil
	}
	return d.listOrgsFn(ctx, creds)
}

// ---------------------------------------------------------------------------
// In-memory ports
// ---------------------------------------------------------------------------

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	cleared  []string
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string]domain.Session)}
}

func (m *memorySessions) Load(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return &domain.Session{ID: id}, nil
	}
	return &s, nil
}

func (m *memorySessions) Save(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memorySessions) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	m.cleared = append(m.cleared, id)
	return nil
}

type memoryCache struct {
	mu          sync.Mutex
	users       map[string][]domain.User
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{users: make(map[string][]domain.User)}
}

func (m *memoryCache) Get(_ context.Context, id string) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *memoryCache) Put(_ context.Context, id string, users []domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = users
	return nil
}

func (m *memoryCache) Invalidate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	m.invalidated++
	return nil
}

type memoryConfirms struct {
	tokens map[string]string
}

func newMemoryConfirms() *memoryConfirms {
	return &memoryConfirms{tokens: make(map[string]string)}
}

func confirmKey(sessionID string, userID int64) string {
	return sessionID + ":" + strconv.FormatInt(userID, 10)
}

func (m *memoryConfirms) Issue(_ context.Context, sessionID string, userID int64) (string, time.Duration, error) {
	token := "tok-" + confirmKey(sessionID, userID)
	m.tokens[confirmKey(sessionID, userID)] = token
	return token, 2 * time.Minute, nil
}

func (m *memoryConfirms) Consume(_ context.Context, sessionID string, userID int64, token string) (bool, error) {
	k := confirmKey(sessionID, userID)
	stored, ok := m.tokens[k]
	delete(m.tokens, k)
	return ok && stored == token, nil
}

type memoryAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (m *memoryAudit) Record(e domain.AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *memoryAudit) Insert(_ context.Context, e *domain.AuditEntry) error {
	m.Record(*e)
	return nil
}

func (m *memoryAudit) ListByTarget(_ context.Context, id int64, _ int) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range m.entries {
		if e.TargetID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func sessionAs(role domain.Role, id int64) *domain.Session {
	return &domain.Session{
		ID:      "sess-1",
		Token:   "tok",
		Profile: &domain.User{ID: id, Username: "actor", Role: role},
	}
}
