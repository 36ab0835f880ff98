package userform

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/policy"
)

// Loader fetches the reference data shown by the form.
type Loader interface {
	Organizations(ctx context.Context) ([]domain.Organization, error)
	Users(ctx context.Context) ([]domain.User, error)
}

// Mount starts the reference-data loads and returns immediately. The
// returned channel is closed once every load has finished. Loads never block
// editing; a failed load is logged and leaves its set empty.
func (f *Form) Mount(ctx context.Context, l Loader) <-chan struct{} {
	f.mu.Lock()
	withCandidates := f.capability == policy.CapabilityFullAdmin && f.values.Role == domain.RoleModerator
	f.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		orgs, err := l.Organizations(ctx)
		if err != nil {
			f.log.Warn().Err(err).Msg("failed to load organizations")
			return nil
		}
		f.apply(func(o *Options) { o.Organizations = orgs })
		return nil
	})

	if withCandidates {
		g.Go(func() error {
			users, err := l.Users(ctx)
			if err != nil {
				f.log.Warn().Err(err).Msg("failed to load candidate users")
				return nil
			}
			f.apply(func(o *Options) { o.Candidates = f.candidates(users) })
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	return done
}

// candidates keeps plain users other than the one being edited.
func (f *Form) candidates(users []domain.User) []domain.User {
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.Role != domain.RoleUser {
			continue
		}
		if f.original != nil && u.ID == f.original.ID {
			continue
		}
		out = append(out, u)
	}
	return out
}

func (f *Form) apply(fn func(*Options)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed {
		return
	}
	fn(&f.options)
}
