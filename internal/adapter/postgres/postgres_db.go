package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/google/uuid"
)

// BikeRepository reads the bikes table, which is owned by the bike service
// and shared with this one for ownership checks.
type BikeRepository struct {
	db *sql.DB
}

func NewBikeRepository(db *sql.DB) *BikeRepository {
	return &BikeRepository{
		db,
	}
}

func (r *BikeRepository) GetOwnedBike(ctx context.Context, bikeID, ownerID uuid.UUID) (*domain.Bike, error) {
	query := `SELECT user_id, bike_id, bike_name, type, model, created_at, updated_at
              FROM bikes WHERE bike_id = $1 AND user_id = $2`

	bike := &domain.Bike{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, bikeID, ownerID).Scan(
		&bike.UserID,
		&bike.BikeID,
		&bike.BikeName,
		&bike.Type,
		&bike.Model,
		&bike.CreatedAt,
		&bike.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: bike not found", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return bike, nil
}

func (r *BikeRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
