package api

import (
	"encoding/json"
	"time"

	"fleettrack/internal/domain"
	"fleettrack/internal/trip/app"
)

// optionalID distinguishes an absent field from an explicit null, so an
// update body can clear an assignment with "driverId": null.
type optionalID struct {
	set   bool
	value *int64
}

func (o *optionalID) UnmarshalJSON(b []byte) error {
	o.set = true
	if string(b) == "null" {
		o.value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.value = &v
	return nil
}

type createTripRequest struct {
	Name            string     `json:"name"`
	Description     *string    `json:"description,omitempty"`
	ContactInfo     *string    `json:"contactInfo,omitempty"`
	PlannedStart    *time.Time `json:"plannedStart,omitempty"`
	DriverID        *int64     `json:"driverId,omitempty"`
	VehicleID       *int64     `json:"vehicleId,omitempty"`
	StartAddress    string     `json:"startAddress"`
	StartLatitude   float64    `json:"startLatitude"`
	StartLongitude  float64    `json:"startLongitude"`
	FinishAddress   string     `json:"finishAddress"`
	FinishLatitude  float64    `json:"finishLatitude"`
	FinishLongitude float64    `json:"finishLongitude"`
}

type updateTripRequest struct {
	Name            *string    `json:"name,omitempty"`
	Description     *string    `json:"description,omitempty"`
	ContactInfo     *string    `json:"contactInfo,omitempty"`
	DriverID        optionalID `json:"driverId"`
	VehicleID       optionalID `json:"vehicleId"`
	PlannedStart    *time.Time `json:"plannedStart,omitempty"`
	StartAddress    *string    `json:"startAddress,omitempty"`
	StartLatitude   *float64   `json:"startLatitude,omitempty"`
	StartLongitude  *float64   `json:"startLongitude,omitempty"`
	FinishAddress   *string    `json:"finishAddress,omitempty"`
	FinishLatitude  *float64   `json:"finishLatitude,omitempty"`
	FinishLongitude *float64   `json:"finishLongitude,omitempty"`
}

// assignRequest carries an id or an explicit null for unassignment.
type assignRequest struct {
	DriverID  *int64 `json:"driverId,omitempty"`
	VehicleID *int64 `json:"vehicleId,omitempty"`
}

type assignChannelRequest struct {
	TripID *int64 `json:"tripId"`
}

type tripResponse struct {
	TripID          int64             `json:"tripId"`
	CompanyID       int64             `json:"companyId"`
	Status          domain.TripStatus `json:"status"`
	Name            string            `json:"name"`
	Description     *string           `json:"description,omitempty"`
	ContactInfo     *string           `json:"contactInfo,omitempty"`
	DriverID        *int64            `json:"driverId,omitempty"`
	VehicleID       *int64            `json:"vehicleId,omitempty"`
	PlannedStart    *time.Time        `json:"plannedStart,omitempty"`
	ActualStart     *time.Time        `json:"actualStart,omitempty"`
	EndTime         *time.Time        `json:"endTime,omitempty"`
	StartAddress    string            `json:"startAddress"`
	StartLatitude   float64           `json:"startLatitude"`
	StartLongitude  float64           `json:"startLongitude"`
	FinishAddress   string            `json:"finishAddress"`
	FinishLatitude  float64           `json:"finishLatitude"`
	FinishLongitude float64           `json:"finishLongitude"`
	TrackPolyline   *string           `json:"trackPolyline,omitempty"`
}

type channelResponse struct {
	ChannelID      int64  `json:"channelId"`
	PublicToken    string `json:"publicToken"`
	AssignedTripID *int64 `json:"assignedTripId"`
}

func toTripResponse(detail *app.TripDetail) tripResponse {
	t := detail.Trip
	return tripResponse{
		TripID:          t.ID,
		CompanyID:       t.CompanyID,
		Status:          t.Status,
		Name:            t.Name,
		Description:     t.Description,
		ContactInfo:     t.ContactInfo,
		DriverID:        t.AssignedDriverID,
		VehicleID:       t.VehicleID,
		PlannedStart:    t.PlannedStart,
		ActualStart:     t.ActualStart,
		EndTime:         t.EndTime,
		StartAddress:    t.StartAddress,
		StartLatitude:   t.StartLatitude,
		StartLongitude:  t.StartLongitude,
		FinishAddress:   t.FinishAddress,
		FinishLatitude:  t.FinishLatitude,
		FinishLongitude: t.FinishLongitude,
		TrackPolyline:   detail.TrackPolyline,
	}
}
