package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DriverRepo struct {
	db *pgxpool.Pool
}

func NewDriverRepo(db *pgxpool.Pool) *DriverRepo {
	return &DriverRepo{db: db}
}

func (r *DriverRepo) ExistsInCompany(ctx context.Context, driverID, companyID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM drivers
			WHERE driver_id = $1 AND company_id = $2 AND deleted_at IS NULL
		)
	`, driverID, companyID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
