package service

import (
	"errors"

	commonerrors "github.com/devnla/backend-express/internal/common/errors"
	userrepo "github.com/devnla/backend-express/internal/user/repository"
)

// classifyStoreError turns an adapter error into exactly one domain error.
// Anything else, an open circuit included, means the store is unavailable.
func classifyStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, userrepo.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, userrepo.ErrEmailAlreadyExists):
		return ErrDuplicateEmail
	default:
		return ErrStoreUnavailable.WithCause(err)
	}
}

func newInternalError(cause error) commonerrors.DomainError {
	return ErrInternal.WithCause(cause)
}
