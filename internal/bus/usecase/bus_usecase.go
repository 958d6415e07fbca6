package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"bus-tracker/internal/bus/domain/model"
	"bus-tracker/internal/bus/domain/repository"
	"bus-tracker/internal/bus/domain/service"
	apperrors "bus-tracker/internal/shared/errors"
	"bus-tracker/internal/shared/eventbus"
	"bus-tracker/internal/shared/logger"
)

// BusUsecaseInterface defines the driver and student operations on buses
type BusUsecaseInterface interface {
	ListForDriver(ctx context.Context, driverID string) ([]*model.Bus, error)
	Create(ctx context.Context, driverID string, req BusRequest) (*model.Bus, error)
	GetForEdit(ctx context.Context, actor service.Actor, id string) (*model.Bus, error)
	Update(ctx context.Context, actor service.Actor, id string, req BusRequest) (*model.Bus, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
	ListAll(ctx context.Context) ([]*model.Bus, error)
}

// BusRequest is the add and edit form
type BusRequest struct {
	BusName string `json:"busName" form:"busName"`
	Timings string `json:"timings" form:"timings"`
}

func (r BusRequest) normalized() BusRequest {
	return BusRequest{
		BusName: strings.TrimSpace(r.BusName),
		Timings: strings.TrimSpace(r.Timings),
	}
}

// BusUsecase implements BusUsecaseInterface
type BusUsecase struct {
	repo   repository.BusRepository
	policy *service.OwnershipPolicy
	events eventbus.Publisher
	log    logger.Logger
	now    func() time.Time
}

// NewBusUsecase creates a new bus usecase. events may be nil.
func NewBusUsecase(repo repository.BusRepository, policy *service.OwnershipPolicy, events eventbus.Publisher, log logger.Logger) *BusUsecase {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &BusUsecase{
		repo:   repo,
		policy: policy,
		events: events,
		log:    log.WithComponent("bus"),
		now:    time.Now,
	}
}

// ListForDriver returns the buses owned by driverID
func (uc *BusUsecase) ListForDriver(ctx context.Context, driverID string) ([]*model.Bus, error) {
	if driverID == "" {
		return []*model.Bus{}, nil
	}
	buses, err := uc.repo.FindByDriver(ctx, driverID)
	if err != nil {
		return nil, storeError("failed to list buses for driver", err)
	}
	return buses, nil
}

// Create stores a bus owned by driverID
func (uc *BusUsecase) Create(ctx context.Context, driverID string, req BusRequest) (*model.Bus, error) {
	if driverID == "" {
		return nil, errors.New("driver id is required")
	}
	req = req.normalized()
	bus := &model.Bus{
		BusName:  req.BusName,
		Timings:  req.Timings,
		DriverID: driverID,
	}
	if err := bus.Validate(); err != nil {
		return nil, err
	}

	if err := uc.repo.Create(ctx, bus); err != nil {
		return nil, storeError("failed to create bus", err)
	}

	uc.publish(ctx, eventbus.EventTypeBusCreated, driverID, bus)
	return bus, nil
}

// GetForEdit returns the bus behind id if actor may edit it
func (uc *BusUsecase) GetForEdit(ctx context.Context, actor service.Actor, id string) (*model.Bus, error) {
	return uc.authorized(ctx, actor, id)
}

// Update overwrites the name and timings of the bus behind id. Ownership is
// checked before the form so a foreign id never reveals a validation error.
func (uc *BusUsecase) Update(ctx context.Context, actor service.Actor, id string, req BusRequest) (*model.Bus, error) {
	if _, err := uc.authorized(ctx, actor, id); err != nil {
		return nil, err
	}

	req = req.normalized()
	candidate := model.Bus{BusName: req.BusName, Timings: req.Timings}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	bus, err := uc.repo.UpdateByID(ctx, id, req.BusName, req.Timings)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, model.ErrBusNotFound
		}
		return nil, storeError("failed to update bus", err)
	}

	uc.publish(ctx, eventbus.EventTypeBusUpdated, actor.UserID, bus)
	return bus, nil
}

// Delete removes the bus behind id
func (uc *BusUsecase) Delete(ctx context.Context, actor service.Actor, id string) error {
	bus, err := uc.authorized(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := uc.repo.DeleteByID(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			return model.ErrBusNotFound
		}
		return storeError("failed to delete bus", err)
	}

	uc.publish(ctx, eventbus.EventTypeBusDeleted, actor.UserID, bus)
	return nil
}

// ListAll returns every bus regardless of owner
func (uc *BusUsecase) ListAll(ctx context.Context) ([]*model.Bus, error) {
	buses, err := uc.repo.FindAll(ctx)
	if err != nil {
		return nil, storeError("failed to list buses", err)
	}
	return buses, nil
}

// authorized loads the bus and applies the ownership policy. A denial is
// reported as model.ErrBusNotFound so foreign ids are indistinguishable
// from missing ones.
func (uc *BusUsecase) authorized(ctx context.Context, actor service.Actor, id string) (*model.Bus, error) {
	bus, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, model.ErrBusNotFound
		}
		return nil, storeError("failed to get bus", err)
	}

	allowed, err := uc.policy.Allows(actor, bus)
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to evaluate bus access policy")
	}
	if !allowed {
		uc.log.WithContext(ctx).Infof("Denied access to bus %s for user %s", id, actor.UserID)
		return nil, model.ErrBusNotFound
	}
	return bus, nil
}

func (uc *BusUsecase) publish(ctx context.Context, eventType, actorID string, bus *model.Bus) {
	if uc.events == nil {
		return
	}
	event := eventbus.NewEvent(eventType, actorID, bus.ID)
	event.Attributes = map[string]string{"bus_name": bus.BusName, "driver_id": bus.DriverID}
	event.Timestamp = uc.now().UTC()
	if err := uc.events.Publish(ctx, event); err != nil {
		uc.log.WithContext(ctx).Errorf("Failed to publish %s: %v", eventType, err)
	}
}

func storeError(message string, err error) error {
	return apperrors.NewInfrastructureError(message).WithCause(err).WithComponent("bus")
}

var _ BusUsecaseInterface = (*BusUsecase)(nil)
