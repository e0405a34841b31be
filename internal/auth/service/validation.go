package service

import (
	"fmt"
	"strings"

	"github.com/devnla/backend-express/internal/common/constants"
)

// normalizeEmail makes uniqueness and lookups case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateRegisterInput guards only what the hasher and the store cannot
// accept; field formats are checked at the HTTP boundary.
func validateRegisterInput(input RegisterInput) error {
	switch {
	case input.Email == "":
		return ErrValidation.WithCause(fmt.Errorf("email is required"))
	case input.Password == "":
		return ErrValidation.WithCause(fmt.Errorf("password is required"))
	case len(input.Password) > constants.PasswordMaxLength:
		return ErrValidation.WithCause(fmt.Errorf("password exceeds %d bytes", constants.PasswordMaxLength))
	case strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "":
		return ErrValidation.WithCause(fmt.Errorf("first and last name are required"))
	}
	return nil
}
