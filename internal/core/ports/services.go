package ports

import (
	"context"

	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/listing"
	"github.com/reportcentral/console/internal/core/policy"
	"github.com/reportcentral/console/internal/core/userform"
)

// AuthService handles sign-in and the signed-in actor's own account.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.Session, *LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	Me(ctx context.Context, s *domain.Session) (*domain.User, error)
	ChangePassword(ctx context.Context, s *domain.Session, in ChangePasswordInput) (*domain.User, error)
}

// UserListResult is one listing page plus header stats over the whole
// collection.
type UserListResult struct {
	listing.Page
	Stats      listing.Stats          `json:"stats"`
	RoleLabels map[domain.Role]string `json:"role_labels"`
}

// FormSnapshot is the initial state of the administration form.
type FormSnapshot struct {
	Mode          userform.Mode         `json:"mode"`
	Capability    policy.Capability     `json:"capability"`
	UserID        int64                 `json:"user_id,omitempty"`
	Values        userform.Values       `json:"values"`
	Organizations []domain.Organization `json:"organizations"`
	Candidates    []domain.User         `json:"candidates"`
}

// DeleteConfirmation authorizes one deletion within ExpiresIn seconds.
type DeleteConfirmation struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// UserService runs the administration use cases for the session's actor.
type UserService interface {
	List(ctx context.Context, s *domain.Session, q listing.Query) (*UserListResult, error)
	Get(ctx context.Context, s *domain.Session, id int64) (*domain.User, error)
	// OpenForm returns the create form when id is 0. A non-empty role
	// preselects the role field for actors allowed to assign roles.
	OpenForm(ctx context.Context, s *domain.Session, id int64, role domain.Role) (*FormSnapshot, error)
	Create(ctx context.Context, s *domain.Session, edit userform.Edit) (*domain.User, error)
	Update(ctx context.Context, s *domain.Session, id int64, edit userform.Edit) (*domain.User, error)
	RequestDelete(ctx context.Context, s *domain.Session, id int64) (*DeleteConfirmation, error)
	Delete(ctx context.Context, s *domain.Session, id int64, token string) error
	Organizations(ctx context.Context, s *domain.Session) ([]domain.Organization, error)
	History(ctx context.Context, s *domain.Session, id int64, limit int) ([]domain.AuditEntry, error)
}
