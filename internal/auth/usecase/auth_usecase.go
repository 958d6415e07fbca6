package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"bus-tracker/internal/auth/domain/model"
	"bus-tracker/internal/auth/domain/repository"
	apperrors "bus-tracker/internal/shared/errors"
	"bus-tracker/internal/shared/eventbus"
	"bus-tracker/internal/shared/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const maxBcryptPasswordLen = 72

// AuthUsecaseInterface defines the contract for authentication use cases.
type AuthUsecaseInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req LoginRequest) (*model.Session, error)
	Logout(ctx context.Context, token string) error
	ResolveSession(ctx context.Context, token string) (*model.Session, error)
}

// RegisterRequest represents the registration form
type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

// LoginRequest represents the login form
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Options tunes an AuthUsecase
type Options struct {
	BcryptCost int
	SessionTTL time.Duration
}

// AuthUsecase implements the authentication logic.
type AuthUsecase struct {
	users     repository.UserRepository
	sessions  repository.SessionStore
	events    eventbus.Publisher
	log       logger.Logger
	opts      Options
	now       func() time.Time
	newToken  func() string
	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthUsecase creates a new instance of AuthUsecase. events may be nil.
func NewAuthUsecase(
	users repository.UserRepository,
	sessions repository.SessionStore,
	events eventbus.Publisher,
	log logger.Logger,
	opts Options,
) *AuthUsecase {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	return &AuthUsecase{
		users:    users,
		sessions: sessions,
		events:   events,
		log:      log.WithComponent("auth"),
		opts:     opts,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// Register creates a user with a bcrypt hash of the supplied password.
// A taken username yields model.ErrUsernameTaken whether it is found by the
// lookup or rejected by the store's unique index.
func (uc *AuthUsecase) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, model.ErrInvalidRegistration
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, model.ErrInvalidRegistration
	}

	existing, err := uc.users.GetUserByUsername(ctx, req.Username)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, storeError("failed to check existing user", err)
	}
	if existing != nil {
		return nil, model.ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword(bcryptInput(req.Password), uc.opts.BcryptCost)
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to hash password")
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    uc.now().UTC(),
	}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, model.ErrUsernameTaken) {
			return nil, model.ErrUsernameTaken
		}
		return nil, storeError("failed to create user", err)
	}

	uc.publish(ctx, eventbus.Event{
		Type:       eventbus.EventTypeUserRegistered,
		ActorID:    user.ID,
		SubjectID:  user.ID,
		Attributes: map[string]string{"role": role.String()},
		Timestamp:  uc.now().UTC(),
	})
	return user, nil
}

// Login verifies credentials and opens a session. Every credential failure
// is reported as model.ErrInvalidCredentials.
func (uc *AuthUsecase) Login(ctx context.Context, req LoginRequest) (*model.Session, error) {
	user, err := uc.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			uc.burnCompare(req.Password)
			return nil, model.ErrInvalidCredentials
		}
		return nil, storeError("failed to get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), bcryptInput(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	now := uc.now().UTC()
	session := &model.Session{
		Token:     uc.newToken(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.opts.SessionTTL),
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		return nil, storeError("failed to create session", err)
	}

	uc.publish(ctx, eventbus.NewEvent(eventbus.EventTypeUserAuthenticated, user.ID, user.ID))
	return session, nil
}

// Logout destroys the session behind token. Unknown or empty tokens succeed.
func (uc *AuthUsecase) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := uc.sessions.Get(ctx, token)
	if err != nil && !errors.Is(err, model.ErrSessionNotFound) {
		uc.log.WithContext(ctx).Warnf("Session lookup before logout failed: %v", err)
	}

	if err := uc.sessions.Destroy(ctx, token); err != nil {
		return storeError("failed to destroy session", err)
	}

	if session != nil {
		uc.publish(ctx, eventbus.NewEvent(eventbus.EventTypeUserLoggedOut, session.UserID, session.UserID))
	}
	return nil
}

// ResolveSession returns the live session for token
func (uc *AuthUsecase) ResolveSession(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, model.ErrSessionNotFound
	}
	return uc.sessions.Get(ctx, token)
}

// burnCompare spends one bcrypt comparison so unknown usernames take as long
// as wrong passwords.
func (uc *AuthUsecase) burnCompare(password string) {
	uc.dummyOnce.Do(func() {
		uc.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("bus-tracker-dummy"), uc.opts.BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(uc.dummyHash, bcryptInput(password))
}

func storeError(message string, err error) error {
	return apperrors.NewInfrastructureError(message).WithCause(err).WithComponent("auth")
}

// bcryptInput caps a password at the 72 bytes bcrypt reads. Longer passwords
// are accepted and only their first 72 bytes count.
func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > maxBcryptPasswordLen {
		b = b[:maxBcryptPasswordLen]
	}
	return b
}

func (uc *AuthUsecase) publish(ctx context.Context, event eventbus.Event) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, event); err != nil {
		uc.log.WithContext(ctx).Errorf("Failed to publish %s: %v", event.Type, err)
	}
}

// Ensure AuthUsecase implements AuthUsecaseInterface
var _ AuthUsecaseInterface = (*AuthUsecase)(nil)
