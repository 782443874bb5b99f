package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fleettrack/internal/domain"
	"fleettrack/internal/shared/util"
)

type fakeTripRepo struct {
	trips        map[int64]*domain.Trip
	activeByVeh  map[int64]*domain.Trip
	driverBusy   map[int64]bool
	overlapping  []domain.Trip
	startedAt    *time.Time
	finishedWith domain.TripStatus
}

func newFakeTripRepo(trips ...*domain.Trip) *fakeTripRepo {
	f := &fakeTripRepo{
		trips:       make(map[int64]*domain.Trip),
		activeByVeh: make(map[int64]*domain.Trip),
		driverBusy:  make(map[int64]bool),
	}
	for _, tr := range trips {
		f.trips[tr.ID] = tr
	}
	return f
}

func (f *fakeTripRepo) GetByID(ctx context.Context, tripID int64) (*domain.Trip, error) {
	tr, ok := f.trips[tripID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return tr, nil
}

func (f *fakeTripRepo) GetForCompany(ctx context.Context, tripID, companyID int64) (*domain.Trip, error) {
	tr, ok := f.trips[tripID]
	if !ok || tr.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	cp := *tr
	return &cp, nil
}

func (f *fakeTripRepo) Create(ctx context.Context, trip *domain.Trip) (int64, error) {
	trip.ID = int64(len(f.trips) + 1)
	f.trips[trip.ID] = trip
	return trip.ID, nil
}

func (f *fakeTripRepo) UpdatePlanned(ctx context.Context, trip *domain.Trip) error {
	f.trips[trip.ID] = trip
	return nil
}

func (f *fakeTripRepo) FindActiveByVehicle(ctx context.Context, vehicleID int64) (*domain.Trip, error) {
	tr, ok := f.activeByVeh[vehicleID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return tr, nil
}

func (f *fakeTripRepo) HasActiveForDriver(ctx context.Context, driverID int64) (bool, error) {
	return f.driverBusy[driverID], nil
}

func (f *fakeTripRepo) FindOverlapping(ctx context.Context, vehicleID int64, minTs, maxTs time.Time) ([]domain.Trip, error) {
	return f.overlapping, nil
}

func (f *fakeTripRepo) Start(ctx context.Context, tripID int64, at time.Time) error {
	tr, ok := f.trips[tripID]
	if !ok || tr.Status != domain.TripPlanned {
		return domain.ErrTripNotPlanned
	}
	tr.Status = domain.TripInProgress
	tr.ActualStart = &at
	f.startedAt = &at
	return nil
}

func (f *fakeTripRepo) Finish(ctx context.Context, tripID int64, status domain.TripStatus, at time.Time) error {
	tr, ok := f.trips[tripID]
	if !ok {
		return domain.ErrNotFound
	}
	tr.Status = status
	tr.EndTime = &at
	f.finishedWith = status
	return nil
}

type fakeDriverRepo struct {
	known map[int64]int64 // driverID -> companyID
}

func (f *fakeDriverRepo) ExistsInCompany(ctx context.Context, driverID, companyID int64) (bool, error) {
	c, ok := f.known[driverID]
	return ok && c == companyID, nil
}

type fakeVehicleRepo struct {
	vehicles map[int64]*domain.Vehicle
}

func (f *fakeVehicleRepo) GetByID(ctx context.Context, vehicleID int64) (*domain.Vehicle, error) {
	v, ok := f.vehicles[vehicleID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (f *fakeVehicleRepo) GetForCompany(ctx context.Context, vehicleID, companyID int64) (*domain.Vehicle, error) {
	v, ok := f.vehicles[vehicleID]
	if !ok || v.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (f *fakeVehicleRepo) UpdateLastPosition(ctx context.Context, vehicleID int64, data domain.SensorData) error {
	return nil
}

type fakeSensorRepo struct {
	series []domain.SensorData
}

func (f *fakeSensorRepo) Insert(ctx context.Context, data *domain.SensorData) error { return nil }
func (f *fakeSensorRepo) InsertBatch(ctx context.Context, batch []domain.SensorData) error {
	return nil
}
func (f *fakeSensorRepo) SeriesByTrip(ctx context.Context, tripID int64) ([]domain.SensorData, error) {
	return f.series, nil
}

type fakeChannelRepo struct {
	channels map[int64]*domain.TrackingChannel
	tokens   []string
	assigned map[int64]*int64
}

func (f *fakeChannelRepo) GetByToken(ctx context.Context, publicToken string) (*domain.TrackingChannel, error) {
	for _, c := range f.channels {
		if c.PublicToken == publicToken {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeChannelRepo) GetForCompany(ctx context.Context, channelID, companyID int64) (*domain.TrackingChannel, error) {
	c, ok := f.channels[channelID]
	if !ok || c.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeChannelRepo) TokensByTripID(ctx context.Context, tripID int64) ([]string, error) {
	return f.tokens, nil
}

func (f *fakeChannelRepo) AssignTrip(ctx context.Context, channelID int64, tripID *int64) error {
	if f.assigned == nil {
		f.assigned = make(map[int64]*int64)
	}
	f.assigned[channelID] = tripID
	return nil
}

type fakeInvalidator struct {
	invalidated []int64
}

func (f *fakeInvalidator) InvalidateVehicleTripCache(ctx context.Context, vehicleID int64) {
	f.invalidated = append(f.invalidated, vehicleID)
}

type fakeBroadcaster struct {
	statusEvents     []domain.TripStatus
	reassignedTokens []string
	telemetryCalls   int
}

func (f *fakeBroadcaster) BroadcastTelemetry(tripID *int64, companyID int64, channelTokens []string, data domain.SensorData) {
	f.telemetryCalls++
}

func (f *fakeBroadcaster) BroadcastTripStatusChange(tripID, companyID int64, channelTokens []string, status domain.TripStatus) {
	f.statusEvents = append(f.statusEvents, status)
}

func (f *fakeBroadcaster) BroadcastChannelReassigned(channelToken string, newTripID *int64) {
	f.reassignedTokens = append(f.reassignedTokens, channelToken)
}

type tripFixture struct {
	service     *TripService
	trips       *fakeTripRepo
	invalidator *fakeInvalidator
	broadcaster *fakeBroadcaster
	channels    *fakeChannelRepo
}

func newTripFixture(trips ...*domain.Trip) *tripFixture {
	repo := newFakeTripRepo(trips...)
	invalidator := &fakeInvalidator{}
	broadcaster := &fakeBroadcaster{}
	channels := &fakeChannelRepo{channels: make(map[int64]*domain.TrackingChannel)}
	vehicles := &fakeVehicleRepo{vehicles: map[int64]*domain.Vehicle{
		10: {ID: 10, CompanyID: 1, IsActive: true},
		11: {ID: 11, CompanyID: 1, IsActive: false},
	}}
	drivers := &fakeDriverRepo{known: map[int64]int64{5: 1}}

	service := NewTripService(repo, drivers, vehicles, &fakeSensorRepo{}, channels, invalidator, broadcaster, util.New())
	return &tripFixture{
		service:     service,
		trips:       repo,
		invalidator: invalidator,
		broadcaster: broadcaster,
		channels:    channels,
	}
}

func plannedTrip(id int64) *domain.Trip {
	vehicleID := int64(10)
	driverID := int64(5)
	return &domain.Trip{
		ID:               id,
		CompanyID:        1,
		Status:           domain.TripPlanned,
		Name:             "morning route",
		VehicleID:        &vehicleID,
		AssignedDriverID: &driverID,
	}
}

func TestStartMovesPlannedTripToInProgress(t *testing.T) {
	f := newTripFixture(plannedTrip(1))

	detail, err := f.service.Start(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assert.Equal(t, domain.TripInProgress, detail.Trip.Status)
	assert.NotNil(t, detail.Trip.ActualStart)
	assert.Equal(t, []int64{10}, f.invalidator.invalidated)
	assert.Equal(t, []domain.TripStatus{domain.TripInProgress}, f.broadcaster.statusEvents)
}

func TestStartRejectsTripWithoutVehicle(t *testing.T) {
	trip := plannedTrip(1)
	trip.VehicleID = nil
	f := newTripFixture(trip)

	_, err := f.service.Start(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrVehicleRequired)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestStartRejectsBusyVehicle(t *testing.T) {
	f := newTripFixture(plannedTrip(1))
	f.trips.activeByVeh[10] = &domain.Trip{ID: 99, Status: domain.TripInProgress}

	_, err := f.service.Start(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrVehicleBusy)
	assert.Empty(t, f.invalidator.invalidated)
}

func TestStartRejectsBusyDriver(t *testing.T) {
	f := newTripFixture(plannedTrip(1))
	f.trips.driverBusy[5] = true

	_, err := f.service.Start(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrDriverBusy)
}

func TestStartRejectsNonPlannedTrip(t *testing.T) {
	trip := plannedTrip(1)
	trip.Status = domain.TripCompleted
	f := newTripFixture(trip)

	_, err := f.service.Start(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrTripNotPlanned)
}

func TestStartHidesOtherCompanysTrip(t *testing.T) {
	f := newTripFixture(plannedTrip(1))

	_, err := f.service.Start(context.Background(), 1, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEndRequiresInProgress(t *testing.T) {
	f := newTripFixture(plannedTrip(1))

	_, err := f.service.End(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrTripNotInProgress)
}

func TestEndCompletesActiveTrip(t *testing.T) {
	trip := plannedTrip(1)
	trip.Status = domain.TripInProgress
	f := newTripFixture(trip)

	detail, err := f.service.End(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assert.Equal(t, domain.TripCompleted, detail.Trip.Status)
	assert.NotNil(t, detail.Trip.EndTime)
	assert.Equal(t, []int64{10}, f.invalidator.invalidated)
}

func TestCancelRejectsFinishedTrip(t *testing.T) {
	for _, status := range []domain.TripStatus{domain.TripCompleted, domain.TripCancelled} {
		trip := plannedTrip(1)
		trip.Status = status
		f := newTripFixture(trip)

		_, err := f.service.Cancel(context.Background(), 1, 1)
		assert.ErrorIs(t, err, domain.ErrTripFinished)
	}
}

func TestCancelPlannedTripSkipsCacheInvalidation(t *testing.T) {
	f := newTripFixture(plannedTrip(1))

	detail, err := f.service.Cancel(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assert.Equal(t, domain.TripCancelled, detail.Trip.Status)
	assert.Empty(t, f.invalidator.invalidated)
	assert.Equal(t, []domain.TripStatus{domain.TripCancelled}, f.broadcaster.statusEvents)
}

func TestCancelInProgressTripInvalidatesCache(t *testing.T) {
	trip := plannedTrip(1)
	trip.Status = domain.TripInProgress
	f := newTripFixture(trip)

	_, err := f.service.Cancel(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, []int64{10}, f.invalidator.invalidated)
}

func TestUpdateRejectsNonPlannedTrip(t *testing.T) {
	trip := plannedTrip(1)
	trip.Status = domain.TripInProgress
	f := newTripFixture(trip)

	name := "renamed"
	_, err := f.service.Update(context.Background(), 1, 1, UpdateTripInput{Name: &name})
	assert.ErrorIs(t, err, domain.ErrTripNotPlanned)
}

func TestAssignVehicleRejectsInactiveVehicle(t *testing.T) {
	f := newTripFixture(plannedTrip(1))

	inactive := int64(11)
	_, err := f.service.AssignVehicle(context.Background(), 1, 1, &inactive)
	assert.ErrorIs(t, err, domain.ErrVehicleInactive)
}

func TestAssignDriverRejectsUnknownDriver(t *testing.T) {
	f := newTripFixture(plannedTrip(1))

	unknown := int64(404)
	_, err := f.service.AssignDriver(context.Background(), 1, 1, &unknown)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssignDriverClearsAssignment(t *testing.T) {
	f := newTripFixture(plannedTrip(1))

	detail, err := f.service.AssignDriver(context.Background(), 1, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Nil(t, detail.Trip.AssignedDriverID)
}

func TestReassignChannelBroadcastsToCurrentViewers(t *testing.T) {
	f := newTripFixture(plannedTrip(1))
	f.channels.channels[7] = &domain.TrackingChannel{ID: 7, PublicToken: "tok-abc", CompanyID: 1}

	tripID := int64(1)
	channel, err := f.service.ReassignChannel(context.Background(), 7, 1, &tripID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assert.Equal(t, []string{"tok-abc"}, f.broadcaster.reassignedTokens)
	assert.Equal(t, &tripID, channel.AssignedTripID)
	assert.Equal(t, &tripID, f.channels.assigned[7])
}

func TestReassignChannelRejectsForeignTrip(t *testing.T) {
	f := newTripFixture(plannedTrip(1))
	f.channels.channels[7] = &domain.TrackingChannel{ID: 7, PublicToken: "tok-abc", CompanyID: 2}

	tripID := int64(1)
	_, err := f.service.ReassignChannel(context.Background(), 7, 1, &tripID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindOneEncodesTrackPolyline(t *testing.T) {
	f := newTripFixture(plannedTrip(1))
	sensorRepo := &fakeSensorRepo{series: []domain.SensorData{
		{Latitude: 38.5, Longitude: -120.2},
		{Latitude: 40.7, Longitude: -120.95},
		{Latitude: 43.252, Longitude: -126.453},
	}}
	f.service.sensors = sensorRepo

	detail, err := f.service.FindOne(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if detail.TrackPolyline == nil {
		t.Fatal("expected encoded track")
	}
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", *detail.TrackPolyline)
}

func TestFindOneWithoutSeriesHasNoTrack(t *testing.T) {
	f := newTripFixture(plannedTrip(1))

	detail, err := f.service.FindOne(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Nil(t, detail.TrackPolyline)
}

func TestCreateValidatesReferences(t *testing.T) {
	f := newTripFixture()

	badDriver := int64(404)
	_, err := f.service.Create(context.Background(), 1, CreateTripInput{Name: "x", DriverID: &badDriver})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.service.Create(context.Background(), 1, CreateTripInput{Name: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
