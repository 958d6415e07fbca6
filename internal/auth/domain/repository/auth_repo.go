package repository

import (
	"context"

	"bus-tracker/internal/auth/domain/model"
)

// UserRepository is the credential store
type UserRepository interface {
	// CreateUser inserts user and fills in its ID. A username that already
	// exists yields model.ErrUsernameTaken; the store enforces uniqueness.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// SessionStore maps opaque session tokens to session records
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	// Get returns model.ErrSessionNotFound for unknown or expired tokens.
	Get(ctx context.Context, token string) (*model.Session, error)
	// Destroy removes the session; an unknown token is not an error.
	Destroy(ctx context.Context, token string) error
}
