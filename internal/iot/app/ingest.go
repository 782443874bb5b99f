package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"fleettrack/internal/domain"
	"fleettrack/internal/shared/validation"
)

// SaveTelemetry resolves the active trip for the tracker's vehicle and
// persists the reading as a sensor row, or falls back to updating the
// vehicle breadcrumb state when no trip is active. Returns nil when the
// tracker is not bound to a vehicle.
func (s *IotService) SaveTelemetry(ctx context.Context, tracker *domain.Tracker, reading domain.Reading) (*domain.TelemetryResult, error) {
	if tracker.VehicleID == nil {
		return nil, nil
	}

	ts, err := validation.ValidateReading(reading)
	if err != nil {
		return nil, err
	}

	mapping := s.activeTripData(ctx, tracker.ID, *tracker.VehicleID)

	if mapping != nil {
		data := toSensorData(mapping.TripID, reading, ts)
		if err := s.sensors.Insert(ctx, &data); err != nil {
			return nil, err
		}
		tripID := mapping.TripID
		return &domain.TelemetryResult{TripID: &tripID, CompanyID: mapping.CompanyID, Data: data}, nil
	}

	vehicle, err := s.vehicles.GetByID(ctx, *tracker.VehicleID)
	if err != nil {
		return nil, err
	}

	data := toSensorData(0, reading, ts)
	if err := s.vehicles.UpdateLastPosition(ctx, vehicle.ID, data); err != nil {
		return nil, err
	}

	return &domain.TelemetryResult{TripID: nil, CompanyID: vehicle.CompanyID, Data: data}, nil
}

// SaveBatchTelemetry assigns buffered readings to the trips whose windows
// contain them, persists the matched rows in one bulk write, then re-runs
// the single-point path with the chronologically last reading so cache and
// breadcrumb state reflect the end of the batch.
func (s *IotService) SaveBatchTelemetry(ctx context.Context, tracker *domain.Tracker, batch []domain.Reading) (*domain.TelemetryResult, error) {
	instance := "IotService.SaveBatchTelemetry"

	if tracker.VehicleID == nil || len(batch) == 0 {
		return nil, nil
	}

	type timedReading struct {
		reading domain.Reading
		ts      time.Time
	}

	valid := make([]timedReading, 0, len(batch))
	for _, reading := range batch {
		ts, err := validation.ValidateReading(reading)
		if err != nil {
			s.logger.Warn(instance, fmt.Sprintf("dropping reading from tracker %d: %v", tracker.ID, err))
			continue
		}
		valid = append(valid, timedReading{reading: reading, ts: ts})
	}
	if len(valid) == 0 {
		return nil, domain.ErrInvalidReading
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].ts.Before(valid[j].ts) })

	minTs := valid[0].ts
	maxTs := valid[len(valid)-1].ts

	trips, err := s.trips.FindOverlapping(ctx, *tracker.VehicleID, minTs, maxTs)
	if err != nil {
		return nil, err
	}

	findTripForTimestamp := func(ts time.Time) *domain.Trip {
		for i := range trips {
			trip := &trips[i]
			if trip.ActualStart == nil || ts.Before(*trip.ActualStart) {
				continue
			}
			if trip.EndTime == nil || !ts.After(*trip.EndTime) {
				return trip
			}
		}
		return nil
	}

	var rows []domain.SensorData
	for _, tr := range valid {
		trip := findTripForTimestamp(tr.ts)
		if trip == nil {
			continue
		}
		rows = append(rows, toSensorData(trip.ID, tr.reading, tr.ts))
	}

	if len(rows) > 0 {
		if err := s.sensors.InsertBatch(ctx, rows); err != nil {
			return nil, err
		}
	}

	return s.SaveTelemetry(ctx, tracker, valid[len(valid)-1].reading)
}

// activeTripData resolves the tracker's active trip through the cache,
// falling back to the registry on miss, staleness or cache failure. The
// cache is advisory: a mapping written for a different vehicle binding is
// ignored.
func (s *IotService) activeTripData(ctx context.Context, trackerID, vehicleID int64) *domain.TripMapping {
	instance := "IotService.activeTripData"

	cached, err := s.cache.Get(ctx, trackerID)
	if err != nil {
		s.logger.Warn(instance, fmt.Sprintf("cache get failed for tracker %d: %v", trackerID, err))
	}
	if cached != nil && cached.VehicleID == vehicleID {
		return cached
	}

	trip, err := s.trips.FindActiveByVehicle(ctx, vehicleID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error(instance, err)
		}
		return nil
	}

	mapping := domain.TripMapping{
		VehicleID: vehicleID,
		TripID:    trip.ID,
		CompanyID: trip.CompanyID,
	}

	if err := s.cache.Set(ctx, trackerID, mapping); err != nil {
		s.logger.Warn(instance, fmt.Sprintf("cache set failed for tracker %d: %v", trackerID, err))
	}

	return &mapping
}

func (s *IotService) ChannelTokensByTripID(ctx context.Context, tripID int64) ([]string, error) {
	return s.channels.TokensByTripID(ctx, tripID)
}

// InvalidateVehicleTripCache drops the cached mapping for the tracker bound
// to the vehicle, bounding staleness after a trip transition. Best-effort.
func (s *IotService) InvalidateVehicleTripCache(ctx context.Context, vehicleID int64) {
	instance := "IotService.InvalidateVehicleTripCache"

	tracker, err := s.trackers.GetByVehicleID(ctx, vehicleID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn(instance, fmt.Sprintf("tracker lookup failed for vehicle %d: %v", vehicleID, err))
		}
		return
	}

	if err := s.cache.Invalidate(ctx, tracker.ID); err != nil {
		s.logger.Warn(instance, fmt.Sprintf("cache invalidate failed for tracker %d: %v", tracker.ID, err))
	}
}

func toSensorData(tripID int64, reading domain.Reading, ts time.Time) domain.SensorData {
	return domain.SensorData{
		TripID:      tripID,
		Datetime:    ts,
		Latitude:    reading.Latitude,
		Longitude:   reading.Longitude,
		Speed:       reading.Speed,
		Bearing:     reading.Bearing,
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
	}
}
