package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleettrack/internal/domain"
)

type SensorDataRepo struct {
	db *pgxpool.Pool
}

func NewSensorDataRepo(db *pgxpool.Pool) *SensorDataRepo {
	return &SensorDataRepo{db: db}
}

func (r *SensorDataRepo) Insert(ctx context.Context, data *domain.SensorData) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO sensor_data (
			trip_id, datetime, latitude, longitude,
			speed, bearing, temperature, humidity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING sensor_data_id
	`, data.TripID, data.Datetime, data.Latitude, data.Longitude,
		data.Speed, data.Bearing, data.Temperature, data.Humidity,
	).Scan(&data.ID)
	if err != nil {
		return fmt.Errorf("insert sensor data failed: %w", err)
	}
	return nil
}

func (r *SensorDataRepo) InsertBatch(ctx context.Context, batch []domain.SensorData) error {
	if len(batch) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(batch))
	for _, data := range batch {
		rows = append(rows, []interface{}{
			data.TripID, data.Datetime, data.Latitude, data.Longitude,
			data.Speed, data.Bearing, data.Temperature, data.Humidity,
		})
	}

	_, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"sensor_data"},
		[]string{"trip_id", "datetime", "latitude", "longitude", "speed", "bearing", "temperature", "humidity"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("bulk insert sensor data failed: %w", err)
	}
	return nil
}

func (r *SensorDataRepo) SeriesByTrip(ctx context.Context, tripID int64) ([]domain.SensorData, error) {
	rows, err := r.db.Query(ctx, `
		SELECT sensor_data_id, trip_id, datetime, latitude, longitude,
		       speed, bearing, temperature, humidity
		FROM sensor_data
		WHERE trip_id = $1
		ORDER BY datetime ASC
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []domain.SensorData
	for rows.Next() {
		var d domain.SensorData
		if err := rows.Scan(&d.ID, &d.TripID, &d.Datetime, &d.Latitude, &d.Longitude,
			&d.Speed, &d.Bearing, &d.Temperature, &d.Humidity); err != nil {
			return nil, err
		}
		series = append(series, d)
	}
	return series, rows.Err()
}
