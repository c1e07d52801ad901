package ports

import (
	"context"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ComponentRepository interface {
	CreateComponent(ctx context.Context, component *domain.Component) (*domain.Component, error)
	// GetOwnedComponent and LockOwnedComponent verify the full ownership
	// triple; the latter also takes a row lock for the enclosing transaction.
	GetOwnedComponent(ctx context.Context, ref domain.ComponentRef) (*domain.Component, error)
	LockOwnedComponent(ctx context.Context, ref domain.ComponentRef) (*domain.Component, error)
	ListComponents(ctx context.Context, filter domain.ComponentFilter) ([]*domain.Component, error)
	CountComponents(ctx context.Context, filter domain.ComponentFilter) (int, error)
	UpdateComponent(ctx context.Context, component *domain.Component) (*domain.Component, error)
	DeleteComponent(ctx context.Context, componentID uuid.UUID) error
}

// EventRepository is the append-only component history.
type EventRepository interface {
	RecordEvent(ctx context.Context, event *domain.ComponentEvent) error
	History(ctx context.Context, ref domain.ComponentRef) ([]*domain.ComponentEvent, error)
	LatestEvent(ctx context.Context, componentID uuid.UUID, eventType domain.EventType) (*domain.ComponentEvent, error)
	// PurgeComponent is reserved for hard deletes.
	PurgeComponent(ctx context.Context, componentID uuid.UUID) (int64, error)
}

type ComponentTypeRepository interface {
	FindTypeByKey(ctx context.Context, key string) (*domain.ComponentType, error)
	ListTypes(ctx context.Context) ([]*domain.ComponentType, error)
}

// OdometerReader returns nil without error when no reading is known.
type OdometerReader interface {
	FindLatestDistance(ctx context.Context, bikeID uuid.UUID) (*decimal.Decimal, error)
	FindDistanceAtOrBefore(ctx context.Context, bikeID uuid.UUID, date time.Time) (*decimal.Decimal, error)
}

// Transactor runs fn in one transaction; repositories called with the ctx
// passed to fn join it. Any error returned by fn rolls everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
