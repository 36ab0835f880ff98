package ports

import (
	"context"

	"github.com/reportcentral/console/internal/core/domain"
)

// Credentials is the bearer identity a directory call acts with. Invalidate
// is called when the backend rejects the token; it clears the session.
type Credentials interface {
	BearerToken() string
	Invalidate(ctx context.Context) error
}

// LoginResult is the backend's answer to a successful login.
type LoginResult struct {
	Token                 string
	User                  *domain.User
	RequirePasswordChange bool
}

// ChangePasswordInput carries the self-service password change.
type ChangePasswordInput struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// UserDirectory is the backend that owns users and organizations. Every call
// except Login acts with the supplied credentials.
type UserDirectory interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Me(ctx context.Context, creds Credentials) (*domain.User, error)
	ChangePassword(ctx context.Context, creds Credentials, in ChangePasswordInput) error

	ListUsers(ctx context.Context, creds Credentials) ([]domain.User, error)
	GetUser(ctx context.Context, creds Credentials, id int64) (*domain.User, error)
	CreateUser(ctx context.Context, creds Credentials, req domain.CreateUserRequest) (*domain.User, error)
	// UpdateUser sends the sparse patch as is.
	UpdateUser(ctx context.Context, creds Credentials, id int64, patch domain.UserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, creds Credentials, id int64) error
	ListOrganizations(ctx context.Context, creds Credentials) ([]domain.Organization, error)
}
