package ports

import (
	"context"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ComponentService interface {
	GetComponent(ctx context.Context, ref domain.ComponentRef, opts domain.ViewOptions) (*domain.ComponentView, error)
	ListComponents(ctx context.Context, bikeID, ownerID uuid.UUID, activeOnly bool, opts domain.ViewOptions) ([]*domain.ComponentView, error)
	PageComponents(ctx context.Context, filter domain.ComponentFilter, opts domain.ViewOptions) (*domain.ComponentPage, error)
	UpdateComponent(ctx context.Context, ref domain.ComponentRef, update domain.ComponentUpdate) (*domain.Component, error)
	History(ctx context.Context, ref domain.ComponentRef) ([]*domain.ComponentEvent, error)
}

type LifecycleService interface {
	Install(ctx context.Context, bikeID, ownerID uuid.UUID, req domain.InstallRequest) (*domain.Component, error)
	UpdateInstallationInfo(ctx context.Context, ref domain.ComponentRef, installedAt *time.Time, installedDistance *decimal.Decimal) (*domain.Component, error)
	SoftDelete(ctx context.Context, ref domain.ComponentRef, at *time.Time, distance *decimal.Decimal) error
	Restore(ctx context.Context, ref domain.ComponentRef, at *time.Time) error
	HardDelete(ctx context.Context, ref domain.ComponentRef, at *time.Time) error
	Replace(ctx context.Context, ref domain.ComponentRef, at *time.Time, distance *decimal.Decimal, overrides domain.ComponentOverrides) (*domain.Component, error)
}

type MetricsService interface {
	MetricsFor(ctx context.Context, bikeID, ownerID uuid.UUID, activeOnly bool, opts domain.ViewOptions) ([]*domain.ComponentView, error)
}

type CatalogService interface {
	ListTypes(ctx context.Context) ([]*domain.ComponentType, error)
	FindType(ctx context.Context, key string) (*domain.ComponentType, error)
}
