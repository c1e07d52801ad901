package ports

import (
	"context"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/google/uuid"
)

// BikeRepository resolves bike ownership. It returns domain.ErrNotFound when
// the bike does not exist or belongs to another user.
type BikeRepository interface {
	GetOwnedBike(ctx context.Context, bikeID, ownerID uuid.UUID) (*domain.Bike, error)
	Ping(ctx context.Context) error
}
