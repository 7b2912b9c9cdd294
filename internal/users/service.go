package users

import (
	"context"
	"time"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	DeactivateUser(ctx context.Context, id int64, at time.Time) error
}

// Service handles user profile logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Get returns the profile of the given user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// Deactivate marks the account inactive. The flag is terminal: there is no
// reactivation path.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.DeactivateUser(ctx, id, s.now())
}
