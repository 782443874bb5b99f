package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleettrack/internal/domain"
)

type ChannelRepo struct {
	db *pgxpool.Pool
}

func NewChannelRepo(db *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{db: db}
}

func (r *ChannelRepo) GetByToken(ctx context.Context, publicToken string) (*domain.TrackingChannel, error) {
	row := r.db.QueryRow(ctx, `
		SELECT tracking_channel_id, public_token, company_id, assigned_trip_id
		FROM tracking_channels
		WHERE public_token = $1
	`, publicToken)
	return scanChannel(row)
}

func (r *ChannelRepo) GetForCompany(ctx context.Context, channelID, companyID int64) (*domain.TrackingChannel, error) {
	row := r.db.QueryRow(ctx, `
		SELECT tracking_channel_id, public_token, company_id, assigned_trip_id
		FROM tracking_channels
		WHERE tracking_channel_id = $1 AND company_id = $2
	`, channelID, companyID)
	return scanChannel(row)
}

func (r *ChannelRepo) TokensByTripID(ctx context.Context, tripID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT public_token
		FROM tracking_channels
		WHERE assigned_trip_id = $1
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (r *ChannelRepo) AssignTrip(ctx context.Context, channelID int64, tripID *int64) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE tracking_channels
		SET assigned_trip_id = $2
		WHERE tracking_channel_id = $1
	`, channelID, tripID)
	if err != nil {
		return fmt.Errorf("assign channel trip failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanChannel(row pgx.Row) (*domain.TrackingChannel, error) {
	var c domain.TrackingChannel
	err := row.Scan(&c.ID, &c.PublicToken, &c.CompanyID, &c.AssignedTripID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
