package domain

import (
	"context"
	"time"
)

type TrackerRepository interface {
	GetByID(ctx context.Context, trackerID int64) (*Tracker, error)
	GetByVehicleID(ctx context.Context, vehicleID int64) (*Tracker, error)
}

type VehicleRepository interface {
	GetByID(ctx context.Context, vehicleID int64) (*Vehicle, error)
	GetForCompany(ctx context.Context, vehicleID, companyID int64) (*Vehicle, error)
	UpdateLastPosition(ctx context.Context, vehicleID int64, data SensorData) error
}

type TripRepository interface {
	GetByID(ctx context.Context, tripID int64) (*Trip, error)
	GetForCompany(ctx context.Context, tripID, companyID int64) (*Trip, error)
	Create(ctx context.Context, trip *Trip) (int64, error)
	UpdatePlanned(ctx context.Context, trip *Trip) error
	FindActiveByVehicle(ctx context.Context, vehicleID int64) (*Trip, error)
	HasActiveForDriver(ctx context.Context, driverID int64) (bool, error)
	// FindOverlapping returns trips for the vehicle whose active window
	// could overlap [minTs, maxTs], ordered by actual start ascending.
	FindOverlapping(ctx context.Context, vehicleID int64, minTs, maxTs time.Time) ([]Trip, error)
	Start(ctx context.Context, tripID int64, at time.Time) error
	Finish(ctx context.Context, tripID int64, status TripStatus, at time.Time) error
}

type SensorDataRepository interface {
	Insert(ctx context.Context, data *SensorData) error
	InsertBatch(ctx context.Context, batch []SensorData) error
	SeriesByTrip(ctx context.Context, tripID int64) ([]SensorData, error)
}

type ChannelRepository interface {
	GetByToken(ctx context.Context, publicToken string) (*TrackingChannel, error)
	GetForCompany(ctx context.Context, channelID, companyID int64) (*TrackingChannel, error)
	TokensByTripID(ctx context.Context, tripID int64) ([]string, error)
	AssignTrip(ctx context.Context, channelID int64, tripID *int64) error
}

type DriverRepository interface {
	ExistsInCompany(ctx context.Context, driverID, companyID int64) (bool, error)
}

// TripMappingCache is a best-effort TTL cache; errors and misses both fall
// back to the repositories.
type TripMappingCache interface {
	Get(ctx context.Context, trackerID int64) (*TripMapping, error)
	Set(ctx context.Context, trackerID int64, mapping TripMapping) error
	Invalidate(ctx context.Context, trackerID int64) error
}

// Broadcaster fans events out to realtime subscribers. All calls are
// fire-and-forget.
type Broadcaster interface {
	// BroadcastTelemetry emits to the trip and company rooms and a reduced
	// position update to the channel rooms. With a nil tripID only the
	// company room (map view) is notified.
	BroadcastTelemetry(tripID *int64, companyID int64, channelTokens []string, data SensorData)
	BroadcastTripStatusChange(tripID, companyID int64, channelTokens []string, status TripStatus)
	BroadcastChannelReassigned(channelToken string, newTripID *int64)
}
