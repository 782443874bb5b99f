package domain

import "time"

type TripStatus string

const (
	TripPlanned    TripStatus = "PLANNED"
	TripInProgress TripStatus = "IN_PROGRESS"
	TripCompleted  TripStatus = "COMPLETED"
	TripCancelled  TripStatus = "CANCELLED"
)

// Tracker is the identity of a physical device credentialed to publish
// telemetry for one vehicle. The device secret is stored as a bcrypt hash.
type Tracker struct {
	ID               int64
	Name             string
	DeviceSecretHash string
	VehicleID        *int64
	CompanyID        int64
}

type Vehicle struct {
	ID        int64
	CompanyID int64
	Name      string
	IsActive  bool

	// Breadcrumb state: last known telemetry kept outside any trip, used
	// when no trip is active.
	LastLatitude    *float64
	LastLongitude   *float64
	LastSpeed       *float64
	LastBearing     *float64
	LastTemperature *float64
	LastHumidity    *float64
	LastUpdateTime  *time.Time
}

type Trip struct {
	ID               int64
	CompanyID        int64
	Status           TripStatus
	Name             string
	Description      *string
	ContactInfo      *string
	AssignedDriverID *int64
	VehicleID        *int64
	PlannedStart     *time.Time
	ActualStart      *time.Time
	EndTime          *time.Time
	StartAddress     string
	StartLatitude    float64
	StartLongitude   float64
	FinishAddress    string
	FinishLatitude   float64
	FinishLongitude  float64
}

// SensorData is one immutable telemetry point bound to a trip. Append-only.
type SensorData struct {
	ID          int64      `json:"-"`
	TripID      int64      `json:"tripId"`
	Datetime    time.Time  `json:"datetime"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Speed       *float64   `json:"speed,omitempty"`
	Bearing     *float64   `json:"bearing,omitempty"`
	Temperature *float64   `json:"temperature,omitempty"`
	Humidity    *float64   `json:"humidity,omitempty"`
}

// TrackingChannel is a public, unauthenticated viewing surface bound to at
// most one trip at a time.
type TrackingChannel struct {
	ID             int64
	PublicToken    string
	CompanyID      int64
	AssignedTripID *int64
}

// Reading is the wire format of a single telemetry message.
type Reading struct {
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Speed       *float64 `json:"speed,omitempty"`
	Bearing     *float64 `json:"bearing,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Datetime    string   `json:"datetime"`
}

// TripMapping is the ephemeral tracker -> active trip association kept in
// the cache. Advisory only: consumers must re-check VehicleID against the
// tracker before trusting TripID.
type TripMapping struct {
	VehicleID int64 `json:"vehicleId"`
	TripID    int64 `json:"tripId"`
	CompanyID int64 `json:"companyId"`
}

// TelemetryResult is what ingestion hands to the broadcast layer. TripID is
// nil when the reading only updated the vehicle breadcrumb state.
type TelemetryResult struct {
	TripID    *int64
	CompanyID int64
	Data      SensorData
}
