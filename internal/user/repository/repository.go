package repository

import (
	"context"
	"errors"

	"github.com/devnla/backend-express/internal/user/domain"
)

type Repository interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	Create(ctx context.Context, data domain.CreateData) (domain.User, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// IsBusinessOutcome reports whether err is an expected answer from the store
// rather than a failure of the store itself.
func IsBusinessOutcome(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrEmailAlreadyExists)
}
