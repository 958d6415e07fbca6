package model

import (
	"strings"
	"time"

	apperrors "bus-tracker/internal/shared/errors"
)

var (
	// ErrBusNotFound covers missing ids, malformed ids and buses the actor may not touch
	ErrBusNotFound = apperrors.NewNotFoundError("bus")
	// ErrInvalidBus is returned when a bus name or timings is blank
	ErrInvalidBus = apperrors.NewValidationError("bus name and timings are required")
)

// Bus is a driver-owned route with a free-text timetable
type Bus struct {
	ID        string    `json:"id"`
	BusName   string    `json:"busName"`
	Timings   string    `json:"timings"`
	DriverID  string    `json:"driverId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the user-editable fields
func (b *Bus) Validate() error {
	if strings.TrimSpace(b.BusName) == "" || strings.TrimSpace(b.Timings) == "" {
		return ErrInvalidBus
	}
	return nil
}
