package auth

import (
	"fmt"

	authhttp "bus-tracker/internal/auth/adapter/http"
	"bus-tracker/internal/auth/adapter/security"
	"bus-tracker/internal/auth/config"
	"bus-tracker/internal/auth/domain/model"
	"bus-tracker/internal/auth/domain/repository"
	"bus-tracker/internal/auth/usecase"
	"bus-tracker/internal/shared/eventbus"
	"bus-tracker/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// AuthModule represents the complete authentication module
type AuthModule struct {
	handler    *authhttp.AuthHTTPHandler
	middleware *authhttp.AuthMiddleware
	config     *config.Config
}

// NewAuthModule creates a new authentication module instance. The caller owns
// the stores and picks their backend.
func NewAuthModule(
	users repository.UserRepository,
	sessions repository.SessionStore,
	events eventbus.Publisher,
	log logger.Logger,
	cfg *config.Config,
) (*AuthModule, error) {
	signer, err := security.NewJWTCookieSigner(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie signer: %w", err)
	}

	authUsecase := usecase.NewAuthUsecase(users, sessions, events, log, usecase.Options{
		BcryptCost: cfg.BcryptCost,
		SessionTTL: cfg.SessionTTL,
	})

	handler := authhttp.NewAuthHTTPHandler(authUsecase, signer, authhttp.CookieOptions{
		Name:     cfg.CookieName,
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		MaxAge:   cfg.SessionTTL,
		Secure:   cfg.CookieSecure,
		HTTPOnly: cfg.CookieHTTPOnly,
		SameSite: cfg.CookieSameSite,
	}, log)

	return &AuthModule{
		handler:    handler,
		middleware: authhttp.NewAuthMiddleware(authUsecase, signer, cfg.CookieName, log),
		config:     cfg,
	}, nil
}

// RegisterRoutes registers the session loader and the public auth routes.
// It must run before any role-guarded routes are added.
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	router.Use(am.middleware.SecurityHeaders())
	router.Use(am.middleware.LoadSession())
	am.handler.SetupAuthRoutes(router, am.middleware.RateLimiter(am.config.LoginRateLimit))
}

// Guard returns the authorization guard for role
func (am *AuthModule) Guard(role model.Role) fiber.Handler {
	return am.middleware.RequireRole(role)
}

// Stop performs cleanup when the module is shut down
func (am *AuthModule) Stop() error {
	return nil
}
