package bus

import (
	"fmt"

	bushttp "bus-tracker/internal/bus/adapter/http"
	"bus-tracker/internal/bus/config"
	"bus-tracker/internal/bus/domain/repository"
	"bus-tracker/internal/bus/domain/service"
	"bus-tracker/internal/bus/usecase"
	"bus-tracker/internal/shared/eventbus"
	"bus-tracker/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// BusModule represents the complete bus module
type BusModule struct {
	handler *bushttp.BusHTTPHandler
}

// NewBusModule creates a new bus module instance
func NewBusModule(repo repository.BusRepository, events eventbus.Publisher, log logger.Logger, cfg *config.Config) (*BusModule, error) {
	policy, err := service.NewOwnershipPolicy(cfg.AccessPolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to compile bus access policy: %w", err)
	}
	if log != nil {
		log.Infof("Bus access policy: %s", policy.Expression())
	}

	busUsecase := usecase.NewBusUsecase(repo, policy, events, log)

	return &BusModule{
		handler: bushttp.NewBusHTTPHandler(busUsecase, log),
	}, nil
}

// RegisterRoutes registers the driver and student routes behind their guards
func (bm *BusModule) RegisterRoutes(router fiber.Router, driverOnly, studentOnly fiber.Handler) {
	bm.handler.SetupBusRoutes(router, driverOnly, studentOnly)
}

// Stop performs cleanup when the module is shut down
func (bm *BusModule) Stop() error {
	return nil
}
