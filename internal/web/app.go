package web

import (
	"errors"
	"time"

	apperrors "bus-tracker/internal/shared/errors"
	"bus-tracker/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	msgNotFound      = "Page not found"
	msgInternalError = "Internal Server Error"
)

// Options configures the HTTP application
type Options struct {
	AppName      string
	Logger       logger.Logger
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewApp builds the fiber application with the page templates, the error
// handler and the request-scoped middleware every route relies on. Routes are
// added by the caller, followed by RegisterFallback.
func NewApp(opts Options) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.AppName == "" {
		opts.AppName = "Campus Bus Tracker"
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 60 * time.Second
	}

	app := fiber.New(fiber.Config{
		AppName:               opts.AppName,
		Views:                 NewViewEngine(),
		ViewsLayout:           DefaultLayout,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		IdleTimeout:           opts.IdleTimeout,
		DisableStartupMessage: true,
		// Form values, params, headers and cookies outlive the handler in
		// stores and sessions, so they must not alias fasthttp's buffers.
		Immutable:    true,
		ErrorHandler: ErrorHandler(opts.Logger),
	})

	app.Use(MethodOverride())
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{ContextKey: requestIDLocal}))
	app.Use(RequestContext())
	app.Use(AccessLog(opts.Logger))
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   StaticFS(),
		MaxAge: 3600,
	}))

	return app
}

// ErrorHandler answers "Page not found" for 404s and a generic message for
// everything else. Server errors are logged, never shown.
func ErrorHandler(log logger.Logger) fiber.ErrorHandler {
	log = log.WithComponent("http")
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)
		message := utils.StatusMessage(code)
		switch {
		case code == fiber.StatusNotFound:
			message = msgNotFound
		case code >= fiber.StatusInternalServerError:
			appErr := apperrors.WrapError(err, msgInternalError)
			log.WithContext(c.UserContext()).WithFields(map[string]interface{}{
				"error_type": string(appErr.Type),
				"component":  appErr.Component,
			}).Errorf("HTTP Error: %v", err)
			message = msgInternalError
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(code).SendString(message)
	}
}

// NotFound is the terminal handler for unmatched requests
func NotFound(c *fiber.Ctx) error {
	return fiber.ErrNotFound
}

// RegisterFallback routes every request no earlier route answered to NotFound,
// whatever its method. Call it after all other routes.
func RegisterFallback(app *fiber.App) {
	app.All("*", NotFound)
}

func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return apperrors.StatusCode(err)
}
