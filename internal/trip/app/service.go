package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twpayne/go-polyline"

	"fleettrack/internal/domain"
	"fleettrack/internal/shared/util"
)

// TripService owns the trip lifecycle state machine. It is the only writer
// of trip status; ingestion and the realtime gateway consume the state it
// produces.
type TripService struct {
	trips       domain.TripRepository
	drivers     domain.DriverRepository
	vehicles    domain.VehicleRepository
	sensors     domain.SensorDataRepository
	channels    domain.ChannelRepository
	cache       CacheInvalidator
	broadcaster domain.Broadcaster
	logger      *util.Logger
}

// CacheInvalidator drops the trip-mapping cache entry for a vehicle's
// tracker so the next ingestion re-resolves the active trip.
type CacheInvalidator interface {
	InvalidateVehicleTripCache(ctx context.Context, vehicleID int64)
}

func NewTripService(
	trips domain.TripRepository,
	drivers domain.DriverRepository,
	vehicles domain.VehicleRepository,
	sensors domain.SensorDataRepository,
	channels domain.ChannelRepository,
	cache CacheInvalidator,
	broadcaster domain.Broadcaster,
	logger *util.Logger,
) *TripService {
	return &TripService{
		trips:       trips,
		drivers:     drivers,
		vehicles:    vehicles,
		sensors:     sensors,
		channels:    channels,
		cache:       cache,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// TripDetail is the full trip projection returned by the REST surface,
// including the encoded track path of its sensor series.
type TripDetail struct {
	Trip          domain.Trip
	TrackPolyline *string
}

type CreateTripInput struct {
	Name            string
	Description     *string
	ContactInfo     *string
	PlannedStart    *time.Time
	DriverID        *int64
	VehicleID       *int64
	StartAddress    string
	StartLatitude   float64
	StartLongitude  float64
	FinishAddress   string
	FinishLatitude  float64
	FinishLongitude float64
}

type UpdateTripInput struct {
	Name            *string
	Description     *string
	ContactInfo     *string
	PlannedStart    *time.Time
	DriverID        **int64
	VehicleID       **int64
	StartAddress    *string
	StartLatitude   *float64
	StartLongitude  *float64
	FinishAddress   *string
	FinishLatitude  *float64
	FinishLongitude *float64
}

func (s *TripService) FindOne(ctx context.Context, tripID, companyID int64) (*TripDetail, error) {
	trip, err := s.trips.GetForCompany(ctx, tripID, companyID)
	if err != nil {
		return nil, err
	}

	series, err := s.sensors.SeriesByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	detail := &TripDetail{Trip: *trip}
	if len(series) > 0 {
		coords := make([][]float64, 0, len(series))
		for _, point := range series {
			coords = append(coords, []float64{point.Latitude, point.Longitude})
		}
		encoded := string(polyline.EncodeCoords(coords))
		detail.TrackPolyline = &encoded
	}
	return detail, nil
}

func (s *TripService) Create(ctx context.Context, companyID int64, input CreateTripInput) (*TripDetail, error) {
	instance := "TripService.Create"

	if input.DriverID != nil {
		if err := s.validateDriver(ctx, *input.DriverID, companyID); err != nil {
			return nil, err
		}
	}
	if input.VehicleID != nil {
		if err := s.validateVehicle(ctx, *input.VehicleID, companyID); err != nil {
			return nil, err
		}
	}

	trip := &domain.Trip{
		CompanyID:        companyID,
		Status:           domain.TripPlanned,
		Name:             input.Name,
		Description:      input.Description,
		ContactInfo:      input.ContactInfo,
		AssignedDriverID: input.DriverID,
		VehicleID:        input.VehicleID,
		PlannedStart:     input.PlannedStart,
		StartAddress:     input.StartAddress,
		StartLatitude:    input.StartLatitude,
		StartLongitude:   input.StartLongitude,
		FinishAddress:    input.FinishAddress,
		FinishLatitude:   input.FinishLatitude,
		FinishLongitude:  input.FinishLongitude,
	}

	id, err := s.trips.Create(ctx, trip)
	if err != nil {
		s.logger.Error(instance, err)
		return nil, err
	}

	s.logger.OK(instance, fmt.Sprintf("trip created [trip_id=%d, company_id=%d]", id, companyID))
	return s.FindOne(ctx, id, companyID)
}

func (s *TripService) Update(ctx context.Context, tripID, companyID int64, input UpdateTripInput) (*TripDetail, error) {
	trip, err := s.trips.GetForCompany(ctx, tripID, companyID)
	if err != nil {
		return nil, err
	}
	if trip.Status != domain.TripPlanned {
		return nil, domain.ErrTripNotPlanned
	}

	if input.DriverID != nil {
		if *input.DriverID != nil {
			if err := s.validateDriver(ctx, **input.DriverID, companyID); err != nil {
				return nil, err
			}
		}
		trip.AssignedDriverID = *input.DriverID
	}
	if input.VehicleID != nil {
		if *input.VehicleID != nil {
			if err := s.validateVehicle(ctx, **input.VehicleID, companyID); err != nil {
				return nil, err
			}
		}
		trip.VehicleID = *input.VehicleID
	}

	if input.Name != nil {
		trip.Name = *input.Name
	}
	if input.Description != nil {
		trip.Description = input.Description
	}
	if input.ContactInfo != nil {
		trip.ContactInfo = input.ContactInfo
	}
	if input.PlannedStart != nil {
		trip.PlannedStart = input.PlannedStart
	}
	if input.StartAddress != nil {
		trip.StartAddress = *input.StartAddress
	}
	if input.StartLatitude != nil {
		trip.StartLatitude = *input.StartLatitude
	}
	if input.StartLongitude != nil {
		trip.StartLongitude = *input.StartLongitude
	}
	if input.FinishAddress != nil {
		trip.FinishAddress = *input.FinishAddress
	}
	if input.FinishLatitude != nil {
		trip.FinishLatitude = *input.FinishLatitude
	}
	if input.FinishLongitude != nil {
		trip.FinishLongitude = *input.FinishLongitude
	}

	if err := s.trips.UpdatePlanned(ctx, trip); err != nil {
		return nil, err
	}
	return s.FindOne(ctx, tripID, companyID)
}

func (s *TripService) AssignDriver(ctx context.Context, tripID, companyID int64, driverID *int64) (*TripDetail, error) {
	return s.Update(ctx, tripID, companyID, UpdateTripInput{DriverID: &driverID})
}

func (s *TripService) AssignVehicle(ctx context.Context, tripID, companyID int64, vehicleID *int64) (*TripDetail, error) {
	return s.Update(ctx, tripID, companyID, UpdateTripInput{VehicleID: &vehicleID})
}

// Start moves a PLANNED trip to IN_PROGRESS. A vehicle must be assigned and
// neither the vehicle nor an assigned driver may already be on an active
// trip. The storage layer's partial unique indexes backstop the pre-checks,
// so a constraint violation surfaces as the same conflict error.
func (s *TripService) Start(ctx context.Context, tripID, companyID int64) (*TripDetail, error) {
	instance := "TripService.Start"

	trip, err := s.trips.GetForCompany(ctx, tripID, companyID)
	if err != nil {
		return nil, err
	}
	if trip.Status != domain.TripPlanned {
		return nil, domain.ErrTripNotPlanned
	}
	if trip.VehicleID == nil {
		return nil, domain.ErrVehicleRequired
	}

	if active, err := s.trips.FindActiveByVehicle(ctx, *trip.VehicleID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	} else if active != nil {
		return nil, domain.ErrVehicleBusy
	}

	if trip.AssignedDriverID != nil {
		busy, err := s.trips.HasActiveForDriver(ctx, *trip.AssignedDriverID)
		if err != nil {
			return nil, err
		}
		if busy {
			return nil, domain.ErrDriverBusy
		}
	}

	if err := s.trips.Start(ctx, tripID, time.Now().UTC()); err != nil {
		return nil, err
	}

	s.cache.InvalidateVehicleTripCache(ctx, *trip.VehicleID)
	s.broadcastStatus(ctx, tripID, companyID, domain.TripInProgress)

	s.logger.OK(instance, fmt.Sprintf("trip started [trip_id=%d, vehicle_id=%d]", tripID, *trip.VehicleID))
	return s.FindOne(ctx, tripID, companyID)
}

// End moves an IN_PROGRESS trip to COMPLETED.
func (s *TripService) End(ctx context.Context, tripID, companyID int64) (*TripDetail, error) {
	instance := "TripService.End"

	trip, err := s.trips.GetForCompany(ctx, tripID, companyID)
	if err != nil {
		return nil, err
	}
	if trip.Status != domain.TripInProgress {
		return nil, domain.ErrTripNotInProgress
	}

	if err := s.trips.Finish(ctx, tripID, domain.TripCompleted, time.Now().UTC()); err != nil {
		return nil, err
	}

	if trip.VehicleID != nil {
		s.cache.InvalidateVehicleTripCache(ctx, *trip.VehicleID)
	}
	s.broadcastStatus(ctx, tripID, companyID, domain.TripCompleted)

	s.logger.OK(instance, fmt.Sprintf("trip completed [trip_id=%d]", tripID))
	return s.FindOne(ctx, tripID, companyID)
}

// Cancel is allowed from PLANNED or IN_PROGRESS; terminal states reject it.
func (s *TripService) Cancel(ctx context.Context, tripID, companyID int64) (*TripDetail, error) {
	instance := "TripService.Cancel"

	trip, err := s.trips.GetForCompany(ctx, tripID, companyID)
	if err != nil {
		return nil, err
	}
	if trip.Status == domain.TripCompleted || trip.Status == domain.TripCancelled {
		return nil, domain.ErrTripFinished
	}

	if err := s.trips.Finish(ctx, tripID, domain.TripCancelled, time.Now().UTC()); err != nil {
		return nil, err
	}

	// Only an in-progress trip can have a live cache entry pointing at it.
	if trip.Status == domain.TripInProgress && trip.VehicleID != nil {
		s.cache.InvalidateVehicleTripCache(ctx, *trip.VehicleID)
	}
	s.broadcastStatus(ctx, tripID, companyID, domain.TripCancelled)

	s.logger.OK(instance, fmt.Sprintf("trip cancelled [trip_id=%d]", tripID))
	return s.FindOne(ctx, tripID, companyID)
}

// ReassignChannel points a public tracking link at a different trip (or
// none) and tells current viewers to refresh their subscription target.
func (s *TripService) ReassignChannel(ctx context.Context, channelID, companyID int64, tripID *int64) (*domain.TrackingChannel, error) {
	channel, err := s.channels.GetForCompany(ctx, channelID, companyID)
	if err != nil {
		return nil, err
	}

	if tripID != nil {
		if _, err := s.trips.GetForCompany(ctx, *tripID, companyID); err != nil {
			return nil, err
		}
	}

	if err := s.channels.AssignTrip(ctx, channelID, tripID); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastChannelReassigned(channel.PublicToken, tripID)

	channel.AssignedTripID = tripID
	return channel, nil
}

func (s *TripService) broadcastStatus(ctx context.Context, tripID, companyID int64, status domain.TripStatus) {
	instance := "TripService.broadcastStatus"

	tokens, err := s.channels.TokensByTripID(ctx, tripID)
	if err != nil {
		s.logger.Warn(instance, fmt.Sprintf("channel token lookup failed for trip %d: %v", tripID, err))
	}
	s.broadcaster.BroadcastTripStatusChange(tripID, companyID, tokens, status)
}

func (s *TripService) validateDriver(ctx context.Context, driverID, companyID int64) error {
	exists, err := s.drivers.ExistsInCompany(ctx, driverID, companyID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: driver does not belong to company", domain.ErrNotFound)
	}
	return nil
}

func (s *TripService) validateVehicle(ctx context.Context, vehicleID, companyID int64) error {
	vehicle, err := s.vehicles.GetForCompany(ctx, vehicleID, companyID)
	if err != nil {
		return err
	}
	if !vehicle.IsActive {
		return domain.ErrVehicleInactive
	}
	return nil
}
