package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/devnla/backend-express/internal/common/constants"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare reports a plain mismatch as (false, nil). Any other
	// outcome, such as a malformed stored hash, is returned as an error.
	Compare(hash string, password string) (bool, error)
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < constants.BcryptCost {
		cost = constants.BcryptCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	cost := h.cost
	if cost == 0 {
		cost = constants.BcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hash), nil
}

// Compare never matches a password longer than bcrypt's 72-byte input,
// since bcrypt would only look at its prefix. The comparison still runs so
// an overlong candidate costs the same as any other.
func (h *BcryptHasher) Compare(hash string, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, fmt.Errorf("bcrypt compare: %w", err)
	}
	if len(password) > constants.PasswordMaxLength {
		return false, nil
	}
	return err == nil, nil
}
