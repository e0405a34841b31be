package service

import (
	"net/http"

	commonerrors "github.com/devnla/backend-express/internal/common/errors"
)

var (
	ErrValidation = commonerrors.ErrValidation

	ErrDuplicateEmail = commonerrors.NewDomainError(
		"USER_ALREADY_EXISTS",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"User already exists",
	)

	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"Invalid credentials",
	)

	ErrUserNotFound = commonerrors.NewDomainError(
		"USER_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"User not found",
	)

	ErrStoreUnavailable = commonerrors.NewDomainError(
		"STORE_UNAVAILABLE",
		commonerrors.CategoryExternal,
		http.StatusInternalServerError,
		"Database connection not available",
	)

	ErrConfiguration = commonerrors.ErrConfiguration

	ErrInvalidToken = commonerrors.ErrInvalidToken

	ErrInternal = commonerrors.ErrInternalError
)
