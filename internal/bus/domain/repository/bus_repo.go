package repository

import (
	"context"

	"bus-tracker/internal/bus/domain/model"
)

// BusRepository persists buses. Lookups by an id that does not exist, or is
// not a valid id for the backend, return model.ErrBusNotFound.
type BusRepository interface {
	Create(ctx context.Context, bus *model.Bus) error
	FindAll(ctx context.Context) ([]*model.Bus, error)
	FindByID(ctx context.Context, id string) (*model.Bus, error)
	FindByDriver(ctx context.Context, driverID string) ([]*model.Bus, error)
	// UpdateByID overwrites the name and timings only; the owner never changes.
	UpdateByID(ctx context.Context, id string, busName, timings string) (*model.Bus, error)
	DeleteByID(ctx context.Context, id string) error
}
