package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrAuthDenied     = errors.New("access denied")
	ErrInvalidReading = errors.New("invalid telemetry reading")

	// StateConflict family: illegal trip transitions. Callers may retry
	// after correcting state.
	ErrStateConflict     = errors.New("state conflict")
	ErrTripNotPlanned    = fmt.Errorf("%w: only planned trips can be modified", ErrStateConflict)
	ErrTripNotInProgress = fmt.Errorf("%w: trip is not in progress", ErrStateConflict)
	ErrTripFinished      = fmt.Errorf("%w: trip is already completed or cancelled", ErrStateConflict)
	ErrVehicleRequired   = fmt.Errorf("%w: vehicle must be assigned before starting trip", ErrStateConflict)
	ErrVehicleBusy       = fmt.Errorf("%w: vehicle already has an active trip", ErrStateConflict)
	ErrDriverBusy        = fmt.Errorf("%w: driver already has an active trip", ErrStateConflict)
	ErrVehicleInactive   = fmt.Errorf("%w: vehicle is not active", ErrStateConflict)

	ErrSubscriptionDenied = errors.New("subscription denied")
)
