package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleettrack/internal/domain"
)

// The schema carries partial unique indexes uniq_active_trip_per_vehicle on
// trips(vehicle_id) WHERE status = 'IN_PROGRESS' and
// uniq_active_trip_per_driver on trips(assigned_driver_id) WHERE
// status = 'IN_PROGRESS'. They close the check-then-set race between two
// concurrent starts across process instances.
type TripRepo struct {
	db *pgxpool.Pool
}

func NewTripRepo(db *pgxpool.Pool) *TripRepo {
	return &TripRepo{db: db}
}

const tripColumns = `
	trip_id, company_id, status, name, description, contact_info,
	assigned_driver_id, vehicle_id,
	planned_start_datetime, actual_start_datetime, end_datetime,
	start_address, start_latitude, start_longitude,
	finish_address, finish_latitude, finish_longitude
`

func (r *TripRepo) GetByID(ctx context.Context, tripID int64) (*domain.Trip, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE trip_id = $1
	`, tripID)
	return scanTrip(row)
}

func (r *TripRepo) GetForCompany(ctx context.Context, tripID, companyID int64) (*domain.Trip, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE trip_id = $1 AND company_id = $2
	`, tripID, companyID)
	return scanTrip(row)
}

func (r *TripRepo) Create(ctx context.Context, trip *domain.Trip) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO trips (
			company_id, status, name, description, contact_info,
			assigned_driver_id, vehicle_id, planned_start_datetime,
			start_address, start_latitude, start_longitude,
			finish_address, finish_latitude, finish_longitude,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		RETURNING trip_id
	`, trip.CompanyID, trip.Status, trip.Name, trip.Description, trip.ContactInfo,
		trip.AssignedDriverID, trip.VehicleID, trip.PlannedStart,
		trip.StartAddress, trip.StartLatitude, trip.StartLongitude,
		trip.FinishAddress, trip.FinishLatitude, trip.FinishLongitude,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert trip failed: %w", err)
	}
	return id, nil
}

// UpdatePlanned rewrites the editable fields of a trip that is still
// PLANNED. The status guard lives in the query so a concurrent start cannot
// slip an edit onto an active trip.
func (r *TripRepo) UpdatePlanned(ctx context.Context, trip *domain.Trip) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE trips
		SET name = $2,
		    description = $3,
		    contact_info = $4,
		    assigned_driver_id = $5,
		    vehicle_id = $6,
		    planned_start_datetime = $7,
		    start_address = $8,
		    start_latitude = $9,
		    start_longitude = $10,
		    finish_address = $11,
		    finish_latitude = $12,
		    finish_longitude = $13,
		    updated_at = NOW()
		WHERE trip_id = $1 AND status = 'PLANNED'
	`, trip.ID, trip.Name, trip.Description, trip.ContactInfo, trip.AssignedDriverID,
		trip.VehicleID, trip.PlannedStart,
		trip.StartAddress, trip.StartLatitude, trip.StartLongitude,
		trip.FinishAddress, trip.FinishLatitude, trip.FinishLongitude)
	if err != nil {
		return fmt.Errorf("update trip failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrTripNotPlanned
	}
	return nil
}

func (r *TripRepo) FindActiveByVehicle(ctx context.Context, vehicleID int64) (*domain.Trip, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE vehicle_id = $1 AND status = 'IN_PROGRESS'
	`, vehicleID)
	return scanTrip(row)
}

func (r *TripRepo) HasActiveForDriver(ctx context.Context, driverID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM trips
			WHERE assigned_driver_id = $1 AND status = 'IN_PROGRESS'
		)
	`, driverID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *TripRepo) FindOverlapping(ctx context.Context, vehicleID int64, minTs, maxTs time.Time) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE vehicle_id = $1
		  AND actual_start_datetime <= $3
		  AND (end_datetime IS NULL OR end_datetime >= $2)
		ORDER BY actual_start_datetime ASC
	`, vehicleID, minTs, maxTs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *trip)
	}
	return trips, rows.Err()
}

func (r *TripRepo) Start(ctx context.Context, tripID int64, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE trips
		SET status = 'IN_PROGRESS',
		    actual_start_datetime = $2,
		    updated_at = NOW()
		WHERE trip_id = $1 AND status = 'PLANNED'
	`, tripID, at)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "uniq_active_trip_per_driver" {
				return domain.ErrDriverBusy
			}
			return domain.ErrVehicleBusy
		}
		return fmt.Errorf("start trip failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrTripNotPlanned
	}
	return nil
}

func (r *TripRepo) Finish(ctx context.Context, tripID int64, status domain.TripStatus, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE trips
		SET status = $2,
		    end_datetime = $3,
		    updated_at = NOW()
		WHERE trip_id = $1
	`, tripID, status, at)
	if err != nil {
		return fmt.Errorf("finish trip failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var t domain.Trip
	err := row.Scan(&t.ID, &t.CompanyID, &t.Status, &t.Name, &t.Description,
		&t.ContactInfo, &t.AssignedDriverID, &t.VehicleID,
		&t.PlannedStart, &t.ActualStart, &t.EndTime,
		&t.StartAddress, &t.StartLatitude, &t.StartLongitude,
		&t.FinishAddress, &t.FinishLatitude, &t.FinishLongitude)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
