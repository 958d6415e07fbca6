package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bus-tracker/internal/bus/domain/model"
	"bus-tracker/internal/bus/domain/repository"
)

// MemoryBusRepository is an in-memory BusRepository for tests
type MemoryBusRepository struct {
	mu    sync.Mutex
	seq   int
	order []string
	buses map[string]*model.Bus
}

// NewMemoryBusRepository creates an empty repository
func NewMemoryBusRepository() *MemoryBusRepository {
	return &MemoryBusRepository{buses: make(map[string]*model.Bus)}
}

func (r *MemoryBusRepository) Create(ctx context.Context, bus *model.Bus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	bus.ID = fmt.Sprintf("bus-%d", r.seq)
	now := time.Now().UTC()
	bus.CreatedAt, bus.UpdatedAt = now, now
	cp := *bus
	r.buses[bus.ID] = &cp
	r.order = append(r.order, bus.ID)
	return nil
}

func (r *MemoryBusRepository) FindAll(ctx context.Context) ([]*model.Bus, error) {
	return r.filter(func(*model.Bus) bool { return true }), nil
}

func (r *MemoryBusRepository) FindByID(ctx context.Context, id string) (*model.Bus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bus, ok := r.buses[id]
	if !ok {
		return nil, model.ErrBusNotFound
	}
	cp := *bus
	return &cp, nil
}

func (r *MemoryBusRepository) FindByDriver(ctx context.Context, driverID string) ([]*model.Bus, error) {
	return r.filter(func(b *model.Bus) bool { return b.DriverID == driverID }), nil
}

func (r *MemoryBusRepository) UpdateByID(ctx context.Context, id string, busName, timings string) (*model.Bus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bus, ok := r.buses[id]
	if !ok {
		return nil, model.ErrBusNotFound
	}
	bus.BusName = busName
	bus.Timings = timings
	bus.UpdatedAt = time.Now().UTC()
	cp := *bus
	return &cp, nil
}

func (r *MemoryBusRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.buses[id]; !ok {
		return model.ErrBusNotFound
	}
	delete(r.buses, id)
	return nil
}

// Len returns the number of stored buses
func (r *MemoryBusRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buses)
}

// filter returns copies in insertion order
func (r *MemoryBusRepository) filter(keep func(*model.Bus) bool) []*model.Bus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Bus, 0, len(r.buses))
	for _, id := range r.order {
		b, ok := r.buses[id]
		if ok && keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

var _ repository.BusRepository = (*MemoryBusRepository)(nil)
