package web

import (
	"strings"
	"time"

	"bus-tracker/internal/shared/logger"
	"bus-tracker/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	// MethodOverrideParam is the query or form field carrying the real method
	MethodOverrideParam = "_method"
	// MethodOverrideHeader is the header alternative to MethodOverrideParam
	MethodOverrideHeader = "X-HTTP-Method-Override"

	requestIDLocal = "requestid"
)

// MethodOverride lets HTML forms reach PUT, PATCH and DELETE routes by posting
// with a _method field. Only POST requests are rewritten. It must be registered
// before any route so the router resumes at the same position in the new
// method's stack.
func MethodOverride() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}
		method := c.Get(MethodOverrideHeader)
		if method == "" {
			method = c.Query(MethodOverrideParam)
		}
		if method == "" {
			method = c.FormValue(MethodOverrideParam)
		}
		switch method = strings.ToUpper(strings.TrimSpace(method)); method {
		case fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
			c.Method(method)
		}
		return c.Next()
	}
}

// RequestContext copies the request ID into the user context for logging
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rid, ok := c.Locals(requestIDLocal).(string); ok && rid != "" {
			c.SetUserContext(utils.WithRequestID(c.UserContext(), rid))
		}
		return c.Next()
	}
}

// AccessLog writes one entry per request once the handler chain has finished
func AccessLog(log logger.Logger) fiber.Handler {
	log = log.WithComponent("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusFor(err)
		}
		entry := log.WithContext(c.UserContext()).WithFields(map[string]interface{}{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  status,
			"latency": time.Since(start).String(),
		})
		if status >= fiber.StatusInternalServerError {
			entry.Warn("request failed")
		} else {
			entry.Debug("request handled")
		}
		return err
	}
}
