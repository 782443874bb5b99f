package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleettrack/internal/domain"
)

type VehicleRepo struct {
	db *pgxpool.Pool
}

func NewVehicleRepo(db *pgxpool.Pool) *VehicleRepo {
	return &VehicleRepo{db: db}
}

const vehicleColumns = `
	vehicle_id, company_id, name, is_active,
	last_latitude, last_longitude, last_speed, last_bearing,
	last_temperature, last_humidity, last_update_time
`

func (r *VehicleRepo) GetByID(ctx context.Context, vehicleID int64) (*domain.Vehicle, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles
		WHERE vehicle_id = $1
	`, vehicleID)
	return scanVehicle(row)
}

func (r *VehicleRepo) GetForCompany(ctx context.Context, vehicleID, companyID int64) (*domain.Vehicle, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles
		WHERE vehicle_id = $1 AND company_id = $2
	`, vehicleID, companyID)
	return scanVehicle(row)
}

// UpdateLastPosition overwrites the vehicle breadcrumb state in place. Used
// only when no trip is active for the vehicle.
func (r *VehicleRepo) UpdateLastPosition(ctx context.Context, vehicleID int64, data domain.SensorData) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE vehicles
		SET last_latitude = $2,
		    last_longitude = $3,
		    last_speed = $4,
		    last_bearing = $5,
		    last_temperature = $6,
		    last_humidity = $7,
		    last_update_time = $8
		WHERE vehicle_id = $1
	`, vehicleID, data.Latitude, data.Longitude, data.Speed, data.Bearing,
		data.Temperature, data.Humidity, data.Datetime)
	if err != nil {
		return fmt.Errorf("update vehicle position failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanVehicle(row pgx.Row) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := row.Scan(&v.ID, &v.CompanyID, &v.Name, &v.IsActive,
		&v.LastLatitude, &v.LastLongitude, &v.LastSpeed, &v.LastBearing,
		&v.LastTemperature, &v.LastHumidity, &v.LastUpdateTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}
