package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"
	"github.com/sm8ta/webike_component_microservice/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WearEvaluator decorates loaded components with their wear metrics.
type WearEvaluator interface {
	Evaluate(ctx context.Context, bikeID uuid.UUID, components []*domain.Component, opts domain.ViewOptions) ([]*domain.ComponentView, error)
}

// MetricsService answers "how worn is this component now". It never writes.
type MetricsService struct {
	bikeRepo      ports.BikeRepository
	componentRepo ports.ComponentRepository
	eventRepo     ports.EventRepository
	odometer      ports.OdometerReader
	catalog       ports.CatalogService
	logger        ports.LoggerPort
	metrics       ports.MetricsPort
	thresholds    domain.Thresholds
	now           func() time.Time
}

func NewMetricsService(
	bikeRepo ports.BikeRepository,
	componentRepo ports.ComponentRepository,
	eventRepo ports.EventRepository,
	odometer ports.OdometerReader,
	catalog ports.CatalogService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
	thresholds domain.Thresholds,
) *MetricsService {
	return &MetricsService{
		bikeRepo:      bikeRepo,
		componentRepo: componentRepo,
		eventRepo:     eventRepo,
		odometer:      odometer,
		catalog:       catalog,
		logger:        logger,
		metrics:       metrics,
		thresholds:    thresholds,
		now:           time.Now,
	}
}

func (s *MetricsService) MetricsFor(ctx context.Context, bikeID, ownerID uuid.UUID, activeOnly bool, opts domain.ViewOptions) ([]*domain.ComponentView, error) {
	if _, err := s.bikeRepo.GetOwnedBike(ctx, bikeID, ownerID); err != nil {
		s.logger.Warn("Metrics requested for unresolved bike", map[string]interface{}{
			"error":    err.Error(),
			"bike_id":  bikeID,
			"owner_id": ownerID,
		})
		return nil, err
	}

	components, err := s.componentRepo.ListComponents(ctx, domain.ComponentFilter{
		BikeID:     bikeID,
		OwnerID:    ownerID,
		ActiveOnly: activeOnly,
		SortBy:     domain.SortInstalledAt,
		Desc:       true,
	})
	if err != nil {
		s.logger.Error("Failed to load components for metrics", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	views, err := s.Evaluate(ctx, bikeID, components, opts)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Computed component metrics", map[string]interface{}{
		"bike_id":          bikeID,
		"components_count": len(views),
		"active_only":      activeOnly,
	})

	return views, nil
}

// Evaluate resolves the applicable distance for each component and runs it
// through the wear calculator. Removed components use the distance frozen at
// removal time; opts.CurrentDistance only replaces the live reading.
func (s *MetricsService) Evaluate(ctx context.Context, bikeID uuid.UUID, components []*domain.Component, opts domain.ViewOptions) ([]*domain.ComponentView, error) {
	thresholds := s.thresholds.Override(opts.WarnAt, opts.CriticalAt)
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	r := &distanceResolver{svc: s, bikeID: bikeID, explicit: opts.CurrentDistance}
	lifespans := make(map[string]*decimal.Decimal)
	now := s.now()

	views := make([]*domain.ComponentView, 0, len(components))
	for _, c := range components {
		end, err := r.endDistance(ctx, c)
		if err != nil {
			return nil, err
		}

		catalogLifespan, seen := lifespans[c.TypeKey]
		if !seen {
			catalogLifespan, err = s.catalogLifespan(ctx, c.TypeKey)
			if err != nil {
				return nil, err
			}
			lifespans[c.TypeKey] = catalogLifespan
		}

		view := &domain.ComponentView{
			Component:    c,
			State:        c.State(),
			EndDistance:  end,
			LifetimeDays: c.LifetimeDays(now),
		}
		if wear := domain.ComputeWear(c.InstalledDistance, end, c.LifespanOverride, catalogLifespan); wear != nil {
			status := domain.Classify(*wear, thresholds)
			view.Wear = wear
			view.Status = &status
			s.metrics.RecordWearStatus(status)
		}
		views = append(views, view)
	}

	return views, nil
}

// catalogLifespan treats a type that no longer resolves as having no default
// lifespan. Any other catalog failure is returned.
func (s *MetricsService) catalogLifespan(ctx context.Context, typeKey string) (*decimal.Decimal, error) {
	componentType, err := s.catalog.FindType(ctx, typeKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve lifespan for %q: %w", typeKey, err)
	}
	return componentType.DefaultLifespan, nil
}

type distanceResolver struct {
	svc      *MetricsService
	bikeID   uuid.UUID
	explicit *decimal.Decimal

	latest       *decimal.Decimal
	latestLoaded bool
}

func (r *distanceResolver) endDistance(ctx context.Context, c *domain.Component) (*decimal.Decimal, error) {
	if c.IsActive() {
		if r.explicit != nil {
			return r.explicit, nil
		}
		return r.latestDistance(ctx)
	}

	removalDate := c.RemovedAt.UTC()
	frozen, err := r.svc.odometer.FindDistanceAtOrBefore(ctx, r.bikeID, removalDate)
	if err != nil {
		return nil, fmt.Errorf("failed to read odometer at removal: %w", err)
	}
	if frozen != nil {
		return frozen, nil
	}

	removal, err := r.svc.eventRepo.LatestEvent(ctx, c.ID, domain.EventRemoved)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return removal.Distance, nil
}

func (r *distanceResolver) latestDistance(ctx context.Context) (*decimal.Decimal, error) {
	if r.latestLoaded {
		return r.latest, nil
	}
	latest, err := r.svc.odometer.FindLatestDistance(ctx, r.bikeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest odometer: %w", err)
	}
	r.latest, r.latestLoaded = latest, true
	return latest, nil
}
