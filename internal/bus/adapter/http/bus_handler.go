package http

import (
	"bus-tracker/internal/bus/domain/model"
	"bus-tracker/internal/bus/domain/service"
	"bus-tracker/internal/bus/usecase"
	apperrors "bus-tracker/internal/shared/errors"
	"bus-tracker/internal/shared/logger"
	"bus-tracker/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	driverDashboard = "/driver/dashboard"
	msgInvalidBus   = "Please enter both a bus name and its timings."
)

// BusHTTPHandler serves the driver bus pages and the student dashboard
type BusHTTPHandler struct {
	usecase usecase.BusUsecaseInterface
	log     logger.Logger
}

// NewBusHTTPHandler creates a new bus HTTP handler
func NewBusHTTPHandler(uc usecase.BusUsecaseInterface, log logger.Logger) *BusHTTPHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &BusHTTPHandler{
		usecase: uc,
		log:     log.WithComponent("bus-http"),
	}
}

// SetupBusRoutes registers the bus routes behind the given role guards
func (h *BusHTTPHandler) SetupBusRoutes(router fiber.Router, driverOnly, studentOnly fiber.Handler) {
	router.Get("/driver/dashboard", driverOnly, h.DriverDashboard)
	router.Get("/driver/bus/add", driverOnly, h.AddBusPage)
	router.Post("/driver/bus", driverOnly, h.CreateBus)
	router.Get("/driver/bus/:id/edit", driverOnly, h.EditBusPage)
	router.Put("/driver/bus/:id", driverOnly, h.UpdateBus)
	router.Delete("/driver/bus/:id", driverOnly, h.DeleteBus)

	router.Get("/student/dashboard", studentOnly, h.StudentDashboard)
}

// DriverDashboard lists the acting driver's buses
func (h *BusHTTPHandler) DriverDashboard(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	buses, err := h.usecase.ListForDriver(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return c.Render("driver-dashboard", fiber.Map{
		"Title": "Your buses",
		"Role":  actor.Role,
		"Buses": buses,
	})
}

// AddBusPage renders the empty add form
func (h *BusHTTPHandler) AddBusPage(c *fiber.Ctx) error {
	return c.Render("add-bus", fiber.Map{"Title": "Add a bus", "Role": roleFrom(c), "BusName": "", "Timings": ""})
}

// CreateBus stores a bus owned by the acting driver
func (h *BusHTTPHandler) CreateBus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req usecase.BusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}

	if _, err := h.usecase.Create(c.UserContext(), actor.UserID, req); err != nil {
		if apperrors.IsValidation(err) {
			return c.Render("add-bus", fiber.Map{
				"Title":   "Add a bus",
				"Role":    actor.Role,
				"Error":   msgInvalidBus,
				"BusName": req.BusName,
				"Timings": req.Timings,
			})
		}
		h.log.WithContext(c.UserContext()).Errorf("Error creating bus: %v", err)
		return err
	}
	return c.Redirect(driverDashboard)
}

// EditBusPage renders the edit form pre-filled with the bus
func (h *BusHTTPHandler) EditBusPage(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	bus, err := h.usecase.GetForEdit(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Render("edit-bus", fiber.Map{"Title": "Edit bus", "Role": actor.Role, "Bus": bus})
}

// UpdateBus overwrites a bus's name and timings
func (h *BusHTTPHandler) UpdateBus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req usecase.BusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}

	id := c.Params("id")
	if _, err := h.usecase.Update(c.UserContext(), actor, id, req); err != nil {
		if apperrors.IsValidation(err) {
			return c.Render("edit-bus", fiber.Map{
				"Title": "Edit bus",
				"Role":  actor.Role,
				"Error": msgInvalidBus,
				"Bus":   &model.Bus{ID: id, BusName: req.BusName, Timings: req.Timings},
			})
		}
		return err
	}
	return c.Redirect(driverDashboard)
}

// DeleteBus removes a bus
func (h *BusHTTPHandler) DeleteBus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.usecase.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.Redirect(driverDashboard)
}

// StudentDashboard lists every bus
func (h *BusHTTPHandler) StudentDashboard(c *fiber.Ctx) error {
	buses, err := h.usecase.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.Render("student-dashboard", fiber.Map{
		"Title": "All buses",
		"Role":  roleFrom(c),
		"Buses": buses,
	})
}

// actorFrom reads the identity the role guard placed on the request context
func actorFrom(c *fiber.Ctx) (service.Actor, error) {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{UserID: userID, Role: roleFrom(c)}, nil
}

func roleFrom(c *fiber.Ctx) string {
	role, _ := utils.GetRoleFromContext(c.UserContext())
	return role
}
