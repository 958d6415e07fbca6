package model

import apperrors "bus-tracker/internal/shared/errors"

var (
	ErrUserNotFound        = apperrors.NewNotFoundError("user")
	ErrUsernameTaken       = apperrors.NewConflictError("username already exists")
	ErrInvalidCredentials  = apperrors.NewAuthenticationError("invalid credentials")
	ErrInvalidRegistration = apperrors.NewValidationError("username, password and role are required")
	ErrSessionNotFound     = apperrors.NewNotFoundError("session")
	ErrCookieInvalid       = apperrors.NewAuthenticationError("session cookie is invalid")
)
