package http

import (
	"time"

	"bus-tracker/internal/auth/domain/model"
	"bus-tracker/internal/auth/domain/repository"
	"bus-tracker/internal/auth/usecase"
	apperrors "bus-tracker/internal/shared/errors"
	"bus-tracker/internal/shared/logger"
	"bus-tracker/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

const (
	localsSession      = "session"
	localsResolved     = "session_resolved"
	localsResolveError = "session_error"
)

// AuthMiddleware attaches sessions to requests and guards role-scoped routes
type AuthMiddleware struct {
	usecase    usecase.AuthUsecaseInterface
	signer     repository.CookieSigner
	cookieName string
	log        logger.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(uc usecase.AuthUsecaseInterface, signer repository.CookieSigner, cookieName string, log logger.Logger) *AuthMiddleware {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &AuthMiddleware{
		usecase:    uc,
		signer:     signer,
		cookieName: cookieName,
		log:        log.WithComponent("auth-middleware"),
	}
}

// LoadSession resolves the session cookie, if any, and makes the session
// available to later handlers. A missing, forged or expired cookie leaves the
// request anonymous. So does a store failure, which RequireRole later turns
// into a server error on guarded routes only.
func (m *AuthMiddleware) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, _ = m.resolve(c)
		return c.Next()
	}
}

// RequireRole admits only requests whose session has role. Everyone else,
// anonymous or holding the other role, gets the same redirect to the landing page.
func (m *AuthMiddleware) RequireRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := m.resolve(c)
		if err != nil {
			return err
		}
		if session == nil || session.UserID == "" || session.Role != role {
			return c.Redirect("/")
		}
		return c.Next()
	}
}

// RateLimiter throttles credential endpoints per client IP
func (m *AuthMiddleware) RateLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many attempts. Please try again later.")
		},
	})
}

// SecurityHeaders adds security headers
func (m *AuthMiddleware) SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}

// resolve loads the session once per request and caches the outcome in locals
func (m *AuthMiddleware) resolve(c *fiber.Ctx) (*model.Session, error) {
	if done, _ := c.Locals(localsResolved).(bool); done {
		if err, _ := c.Locals(localsResolveError).(error); err != nil {
			return nil, err
		}
		session, _ := c.Locals(localsSession).(*model.Session)
		return session, nil
	}
	c.Locals(localsResolved, true)

	token := m.tokenFromCookie(c)
	if token == "" {
		return nil, nil
	}

	session, err := m.usecase.ResolveSession(c.UserContext(), token)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		m.log.WithContext(c.UserContext()).Errorf("Failed to resolve session: %v", err)
		c.Locals(localsResolveError, err)
		return nil, err
	}

	c.Locals(localsSession, session)
	ctx := utils.WithUserID(c.UserContext(), session.UserID)
	ctx = utils.WithRole(ctx, session.Role.String())
	c.SetUserContext(ctx)
	return session, nil
}

// tokenFromCookie returns the verified session token, or "" when the cookie is
// absent or does not verify
func (m *AuthMiddleware) tokenFromCookie(c *fiber.Ctx) string {
	value := c.Cookies(m.cookieName)
	if value == "" {
		return ""
	}
	token, err := m.signer.Verify(value)
	if err != nil {
		m.log.WithContext(c.UserContext()).Debugf("Ignoring session cookie: %v", err)
		return ""
	}
	return token
}

// CurrentSession returns the session attached to the request, if any
func CurrentSession(c *fiber.Ctx) (*model.Session, bool) {
	session, ok := c.Locals(localsSession).(*model.Session)
	return session, ok && session != nil
}
