package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleettrack/internal/domain"
)

type TrackerRepo struct {
	db *pgxpool.Pool
}

func NewTrackerRepo(db *pgxpool.Pool) *TrackerRepo {
	return &TrackerRepo{db: db}
}

func (r *TrackerRepo) GetByID(ctx context.Context, trackerID int64) (*domain.Tracker, error) {
	row := r.db.QueryRow(ctx, `
		SELECT tracker_id, name, device_secret_hash, vehicle_id, company_id
		FROM trackers
		WHERE tracker_id = $1
	`, trackerID)

	var t domain.Tracker
	err := row.Scan(&t.ID, &t.Name, &t.DeviceSecretHash, &t.VehicleID, &t.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TrackerRepo) GetByVehicleID(ctx context.Context, vehicleID int64) (*domain.Tracker, error) {
	row := r.db.QueryRow(ctx, `
		SELECT tracker_id, name, device_secret_hash, vehicle_id, company_id
		FROM trackers
		WHERE vehicle_id = $1
	`, vehicleID)

	var t domain.Tracker
	err := row.Scan(&t.ID, &t.Name, &t.DeviceSecretHash, &t.VehicleID, &t.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
