package app

import (
	"context"

	"fleettrack/internal/domain"
	"fleettrack/internal/shared/models"
	"fleettrack/internal/shared/util"
)

// IotService owns device authentication for the ingestion transport, the
// topic ACL, and telemetry-to-trip resolution.
type IotService struct {
	broker   models.BrokerConfig
	cache    domain.TripMappingCache
	trackers domain.TrackerRepository
	vehicles domain.VehicleRepository
	trips    domain.TripRepository
	sensors  domain.SensorDataRepository
	channels domain.ChannelRepository
	logger   *util.Logger
}

func NewIotService(
	broker models.BrokerConfig,
	cache domain.TripMappingCache,
	trackers domain.TrackerRepository,
	vehicles domain.VehicleRepository,
	trips domain.TripRepository,
	sensors domain.SensorDataRepository,
	channels domain.ChannelRepository,
	logger *util.Logger,
) *IotService {
	return &IotService{
		broker:   broker,
		cache:    cache,
		trackers: trackers,
		vehicles: vehicles,
		trips:    trips,
		sensors:  sensors,
		channels: channels,
		logger:   logger,
	}
}

func (s *IotService) GetTracker(ctx context.Context, trackerID int64) (*domain.Tracker, error) {
	return s.trackers.GetByID(ctx, trackerID)
}
