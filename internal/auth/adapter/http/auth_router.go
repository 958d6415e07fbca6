package http

import (
	"errors"
	"time"

	"bus-tracker/internal/auth/domain/model"
	"bus-tracker/internal/auth/domain/repository"
	"bus-tracker/internal/auth/usecase"
	apperrors "bus-tracker/internal/shared/errors"
	"bus-tracker/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

const (
	msgUsernameTaken       = "Username already exists. Please choose another one."
	msgInvalidRegistration = "Please enter a username, a password and pick a role."
)

// CookieOptions describes the session cookie
type CookieOptions struct {
	Name     string
	Path     string
	Domain   string
	MaxAge   time.Duration
	Secure   bool
	HTTPOnly bool
	SameSite string
}

// AuthHTTPHandler handles the landing, signup, login and logout pages
type AuthHTTPHandler struct {
	usecase usecase.AuthUsecaseInterface
	signer  repository.CookieSigner
	cookie  CookieOptions
	log     logger.Logger
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(uc usecase.AuthUsecaseInterface, signer repository.CookieSigner, cookie CookieOptions, log logger.Logger) *AuthHTTPHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &AuthHTTPHandler{
		usecase: uc,
		signer:  signer,
		cookie:  cookie,
		log:     log.WithComponent("auth-http"),
	}
}

// SetupAuthRoutes registers the public pages and credential endpoints.
// limit, when non-nil, guards POST /register and POST /login.
func (h *AuthHTTPHandler) SetupAuthRoutes(router fiber.Router, limit fiber.Handler) {
	router.Get("/", h.Landing)
	router.Get("/signup", h.SignupPage)
	router.Get("/login", h.LoginPage)
	router.Get("/logout", h.Logout)

	if limit != nil {
		router.Post("/register", limit, h.Register)
		router.Post("/login", limit, h.Login)
		return
	}
	router.Post("/register", h.Register)
	router.Post("/login", h.Login)
}

// Landing renders the landing page
func (h *AuthHTTPHandler) Landing(c *fiber.Ctx) error {
	data := fiber.Map{"Title": "Campus Bus Tracker", "Role": ""}
	if session, ok := CurrentSession(c); ok {
		data["Role"] = session.Role.String()
	}
	return c.Render("index", data)
}

// SignupPage renders the registration form
func (h *AuthHTTPHandler) SignupPage(c *fiber.Ctx) error {
	return c.Render("signup", fiber.Map{"Title": "Sign up", "Username": ""})
}

// LoginPage renders the login form
func (h *AuthHTTPHandler) LoginPage(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{"Title": "Log in"})
}

// Register handles user registration
func (h *AuthHTTPHandler) Register(c *fiber.Ctx) error {
	var req usecase.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}

	_, err := h.usecase.Register(c.UserContext(), req)
	switch {
	case err == nil:
		return c.Redirect("/login")
	case apperrors.IsConflict(err):
		return c.Render("signup", fiber.Map{"Title": "Sign up", "Error": msgUsernameTaken, "Username": req.Username})
	case apperrors.IsValidation(err):
		return c.Render("signup", fiber.Map{"Title": "Sign up", "Error": msgInvalidRegistration, "Username": req.Username})
	default:
		h.log.WithContext(c.UserContext()).Errorf("Error registering user: %v", err)
		return err
	}
}

// Login handles user login and redirects by role
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	var req usecase.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}

	session, err := h.usecase.Login(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			return c.Redirect("/login")
		}
		return err
	}

	// Drop whatever session the browser held before this login.
	if previous, ok := CurrentSession(c); ok {
		if err := h.usecase.Logout(c.UserContext(), previous.Token); err != nil {
			h.log.WithContext(c.UserContext()).Warnf("Failed to drop previous session: %v", err)
		}
	}

	value, err := h.signer.Sign(session.Token)
	if err != nil {
		return err
	}
	h.setCookie(c, value)

	switch session.Role {
	case model.RoleDriver:
		return c.Redirect("/driver/dashboard")
	case model.RoleStudent:
		return c.Redirect("/student/dashboard")
	}
	return c.Redirect("/login")
}

// Logout destroys the current session, if any, and returns to the landing page
func (h *AuthHTTPHandler) Logout(c *fiber.Ctx) error {
	if session, ok := CurrentSession(c); ok {
		if err := h.usecase.Logout(c.UserContext(), session.Token); err != nil {
			return err
		}
	}
	h.clearCookie(c)
	return c.Redirect("/")
}

func (h *AuthHTTPHandler) setCookie(c *fiber.Ctx, value string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		Expires:  time.Now().Add(h.cookie.MaxAge),
		Secure:   h.cookie.Secure,
		HTTPOnly: h.cookie.HTTPOnly,
		SameSite: h.cookie.SameSite,
	})
}

func (h *AuthHTTPHandler) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cookie.Secure,
		HTTPOnly: h.cookie.HTTPOnly,
		SameSite: h.cookie.SameSite,
	})
}
