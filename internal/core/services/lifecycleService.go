package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"
	"github.com/sm8ta/webike_component_microservice/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LifecycleService drives the ACTIVE/REMOVED state machine. Every transition
// re-resolves ownership and writes the component row and its history in one
// transaction.
type LifecycleService struct {
	tx            ports.Transactor
	bikeRepo      ports.BikeRepository
	componentRepo ports.ComponentRepository
	eventRepo     ports.EventRepository
	odometer      ports.OdometerReader
	catalog       ports.CatalogService
	publisher     ports.EventPublisher
	metrics       ports.MetricsPort
	logger        ports.LoggerPort
	validate      *validator.Validate
	now           func() time.Time
}

func NewLifecycleService(
	tx ports.Transactor,
	bikeRepo ports.BikeRepository,
	componentRepo ports.ComponentRepository,
	eventRepo ports.EventRepository,
	odometer ports.OdometerReader,
	catalog ports.CatalogService,
	publisher ports.EventPublisher,
	metrics ports.MetricsPort,
	logger ports.LoggerPort,
	validate *validator.Validate,
) *LifecycleService {
	return &LifecycleService{
		tx:            tx,
		bikeRepo:      bikeRepo,
		componentRepo: componentRepo,
		eventRepo:     eventRepo,
		odometer:      odometer,
		catalog:       catalog,
		publisher:     publisher,
		metrics:       metrics,
		logger:        logger,
		validate:      validate,
		now:           time.Now,
	}
}

// journal collects the events written inside one transaction so they can be
// announced once it commits.
type journal struct {
	repo   ports.EventRepository
	events []*domain.ComponentEvent
}

func (j *journal) record(ctx context.Context, event *domain.ComponentEvent) error {
	if err := j.repo.RecordEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record %s event: %w", event.Type, err)
	}
	j.events = append(j.events, event)
	return nil
}

func (s *LifecycleService) run(ctx context.Context, op string, fn func(ctx context.Context, j *journal) error) error {
	j := &journal{repo: s.eventRepo}
	if err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return fn(ctx, j)
	}); err != nil {
		s.logger.Error("Lifecycle operation failed", map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
		})
		return err
	}

	for _, event := range j.events {
		s.metrics.RecordLifecycleEvent(event.Type)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish component event", map[string]interface{}{
				"event_id":     event.ID,
				"event_type":   event.Type,
				"component_id": event.ComponentID,
				"error":        err.Error(),
			})
		}
	}
	return nil
}

func (s *LifecycleService) Install(ctx context.Context, bikeID, ownerID uuid.UUID, req domain.InstallRequest) (*domain.Component, error) {
	if err := s.validate.Struct(req); err != nil {
		s.logger.Error("Install validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	position, err := domain.ParsePosition(req.Position)
	if err != nil {
		return nil, err
	}

	componentType, err := s.catalog.FindType(ctx, req.TypeKey)
	if err != nil {
		s.logger.Warn("Install with unresolved component type", map[string]interface{}{
			"type_key": req.TypeKey,
			"error":    err.Error(),
		})
		return nil, err
	}

	installedAt := s.now()
	if req.InstalledAt != nil {
		installedAt = *req.InstalledAt
	}

	component := &domain.Component{
		ID:                uuid.New(),
		BikeID:            bikeID,
		TypeKey:           componentType.Key,
		TypeName:          componentType.Name,
		Label:             req.Label,
		Position:          position,
		InstalledAt:       installedAt,
		InstalledDistance: req.InstalledDistance,
		LifespanOverride:  req.LifespanOverride,
		Price:             req.Price,
		Currency:          req.Currency,
		Shop:              req.Shop,
		ReceiptRef:        req.ReceiptRef,
	}
	if err := component.CheckInvariants(); err != nil {
		return nil, err
	}

	var created *domain.Component
	err = s.run(ctx, "install", func(ctx context.Context, j *journal) error {
		if _, err := s.bikeRepo.GetOwnedBike(ctx, bikeID, ownerID); err != nil {
			return err
		}
		created, err = s.componentRepo.CreateComponent(ctx, component)
		if err != nil {
			return err
		}
		return j.record(ctx, domain.NewComponentEvent(created, ownerID, domain.EventInstalled, created.InstalledAt, created.InstalledDistance))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Component installed", map[string]interface{}{
		"component_id": created.ID,
		"bike_id":      bikeID,
		"type_key":     created.TypeKey,
	})

	return created, nil
}

func (s *LifecycleService) UpdateInstallationInfo(ctx context.Context, ref domain.ComponentRef, installedAt *time.Time, installedDistance *decimal.Decimal) (*domain.Component, error) {
	if installedAt == nil && installedDistance == nil {
		return nil, fmt.Errorf("%w: installed_at or installed_distance is required", domain.ErrValidation)
	}
	if err := domain.NonNegative("installed_distance", installedDistance); err != nil {
		return nil, err
	}

	var updated *domain.Component
	err := s.run(ctx, "update_installation", func(ctx context.Context, j *journal) error {
		component, err := s.componentRepo.LockOwnedComponent(ctx, ref)
		if err != nil {
			return err
		}
		if installedAt != nil {
			component.InstalledAt = *installedAt
		}
		if installedDistance != nil {
			component.InstalledDistance = installedDistance
		}
		if err := component.CheckInvariants(); err != nil {
			return err
		}

		updated, err = s.componentRepo.UpdateComponent(ctx, component)
		if err != nil {
			return err
		}
		return j.record(ctx, domain.NewComponentEvent(updated, ref.OwnerID, domain.EventUpdated, s.now(), updated.InstalledDistance))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Installation info updated", map[string]interface{}{
		"component_id": ref.ComponentID,
	})

	return updated, nil
}

// SoftDelete closes an active component. Repeating it is a no-op.
func (s *LifecycleService) SoftDelete(ctx context.Context, ref domain.ComponentRef, at *time.Time, distance *decimal.Decimal) error {
	if err := domain.NonNegative("distance", distance); err != nil {
		return err
	}

	return s.run(ctx, "soft_delete", func(ctx context.Context, j *journal) error {
		component, err := s.componentRepo.LockOwnedComponent(ctx, ref)
		if err != nil {
			return err
		}
		if !component.IsActive() {
			s.logger.Debug("Component already removed", map[string]interface{}{
				"component_id": component.ID,
			})
			return nil
		}
		return s.close(ctx, j, component, ref.OwnerID, s.at(at), distance, false)
	})
}

// close marks component removed and records REMOVED. Without an explicit
// distance the removal distance is resolved from the odometer, on the removal
// date or, when latest is set, from the newest reading.
func (s *LifecycleService) close(ctx context.Context, j *journal, component *domain.Component, userID uuid.UUID, at time.Time, distance *decimal.Decimal, latest bool) error {
	if at.Before(component.InstalledAt) {
		return fmt.Errorf("%w: removal must not precede installation", domain.ErrValidation)
	}

	if distance == nil {
		var err error
		if latest {
			distance, err = s.odometer.FindLatestDistance(ctx, component.BikeID)
		} else {
			distance, err = s.odometer.FindDistanceAtOrBefore(ctx, component.BikeID, at.UTC())
		}
		if err != nil {
			return fmt.Errorf("failed to resolve removal distance: %w", err)
		}
	}

	component.RemovedAt = &at
	if _, err := s.componentRepo.UpdateComponent(ctx, component); err != nil {
		return err
	}
	return j.record(ctx, domain.NewComponentEvent(component, userID, domain.EventRemoved, at, distance))
}

// Restore reactivates a removed component. Repeating it is a no-op.
func (s *LifecycleService) Restore(ctx context.Context, ref domain.ComponentRef, at *time.Time) error {
	return s.run(ctx, "restore", func(ctx context.Context, j *journal) error {
		component, err := s.componentRepo.LockOwnedComponent(ctx, ref)
		if err != nil {
			return err
		}
		if component.IsActive() {
			return nil
		}

		component.RemovedAt = nil
		if _, err := s.componentRepo.UpdateComponent(ctx, component); err != nil {
			return err
		}
		return j.record(ctx, domain.NewComponentEvent(component, ref.OwnerID, domain.EventRestored, s.at(at), nil))
	})
}

// HardDelete permanently removes a component that was already soft-deleted,
// together with its history. The HARD_DELETED marker is written first and
// swept with the rest; it survives only as the published notification.
func (s *LifecycleService) HardDelete(ctx context.Context, ref domain.ComponentRef, at *time.Time) error {
	var purged int64
	err := s.run(ctx, "hard_delete", func(ctx context.Context, j *journal) error {
		component, err := s.componentRepo.LockOwnedComponent(ctx, ref)
		if err != nil {
			return err
		}
		if component.IsActive() {
			return fmt.Errorf("%w: component must be removed before it can be hard-deleted", domain.ErrConflict)
		}

		if err := j.record(ctx, domain.NewComponentEvent(component, ref.OwnerID, domain.EventHardDeleted, s.at(at), nil)); err != nil {
			return err
		}
		purged, err = s.eventRepo.PurgeComponent(ctx, component.ID)
		if err != nil {
			return err
		}
		return s.componentRepo.DeleteComponent(ctx, component.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Component hard-deleted", map[string]interface{}{
		"component_id":  ref.ComponentID,
		"events_purged": purged,
	})
	return nil
}

// Replace closes the old component (if still active) and installs its
// successor in a single transaction.
func (s *LifecycleService) Replace(ctx context.Context, ref domain.ComponentRef, at *time.Time, distance *decimal.Decimal, overrides domain.ComponentOverrides) (*domain.Component, error) {
	for field, v := range map[string]*decimal.Decimal{
		"distance":          distance,
		"price":             overrides.Price,
		"lifespan_override": overrides.LifespanOverride,
	} {
		if err := domain.NonNegative(field, v); err != nil {
			return nil, err
		}
	}
	if overrides.Currency != nil && len(*overrides.Currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code", domain.ErrValidation)
	}

	when := s.at(at)

	var successor *domain.Component
	err := s.run(ctx, "replace", func(ctx context.Context, j *journal) error {
		if _, err := s.bikeRepo.GetOwnedBike(ctx, ref.BikeID, ref.OwnerID); err != nil {
			return err
		}
		old, err := s.componentRepo.LockOwnedComponent(ctx, ref)
		if err != nil {
			return err
		}

		if old.IsActive() {
			if err := s.close(ctx, j, old, ref.OwnerID, when, distance, true); err != nil {
				return err
			}
		}

		installedDistance, err := s.successorDistance(ctx, old, distance)
		if err != nil {
			return err
		}

		next := old.Successor(when, installedDistance, overrides)
		if err := next.CheckInvariants(); err != nil {
			return err
		}
		successor, err = s.componentRepo.CreateComponent(ctx, next)
		if err != nil {
			return err
		}
		return j.record(ctx, domain.NewComponentEvent(successor, ref.OwnerID, domain.EventInstalled, when, successor.InstalledDistance))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Component replaced", map[string]interface{}{
		"old_component_id": ref.ComponentID,
		"new_component_id": successor.ID,
		"bike_id":          ref.BikeID,
	})

	return successor, nil
}

// successorDistance prefers the explicit distance, then the latest reading,
// then the old component's own installed distance.
func (s *LifecycleService) successorDistance(ctx context.Context, old *domain.Component, explicit *decimal.Decimal) (*decimal.Decimal, error) {
	if explicit != nil {
		return explicit, nil
	}
	latest, err := s.odometer.FindLatestDistance(ctx, old.BikeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest odometer: %w", err)
	}
	if latest != nil {
		return latest, nil
	}
	return old.InstalledDistance, nil
}

func (s *LifecycleService) at(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return s.now()
}
