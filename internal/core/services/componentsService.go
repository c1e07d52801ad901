package services

import (
	"context"
	"fmt"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"
	"github.com/sm8ta/webike_component_microservice/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxPageSize = 100

// ComponentService owns the read paths and plain attribute edits. State
// transitions go through LifecycleService.
type ComponentService struct {
	bikeRepo      ports.BikeRepository
	componentRepo ports.ComponentRepository
	eventRepo     ports.EventRepository
	wear          WearEvaluator
	logger        ports.LoggerPort
	validate      *validator.Validate
}

func NewComponentService(
	bikeRepo ports.BikeRepository,
	componentRepo ports.ComponentRepository,
	eventRepo ports.EventRepository,
	wear WearEvaluator,
	logger ports.LoggerPort,
	validate *validator.Validate,
) *ComponentService {
	return &ComponentService{
		bikeRepo:      bikeRepo,
		componentRepo: componentRepo,
		eventRepo:     eventRepo,
		wear:          wear,
		logger:        logger,
		validate:      validate,
	}
}

func (s *ComponentService) GetComponent(ctx context.Context, ref domain.ComponentRef, opts domain.ViewOptions) (*domain.ComponentView, error) {
	component, err := s.componentRepo.GetOwnedComponent(ctx, ref)
	if err != nil {
		s.logger.Error("Failed to get component", map[string]interface{}{
			"error":        err.Error(),
			"component_id": ref.ComponentID,
			"bike_id":      ref.BikeID,
		})
		return nil, err
	}

	views, err := s.wear.Evaluate(ctx, ref.BikeID, []*domain.Component{component}, opts)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Retrieved component", map[string]interface{}{
		"component_id": ref.ComponentID,
		"bike_id":      ref.BikeID,
	})

	return views[0], nil
}

func (s *ComponentService) ListComponents(ctx context.Context, bikeID, ownerID uuid.UUID, activeOnly bool, opts domain.ViewOptions) ([]*domain.ComponentView, error) {
	if _, err := s.bikeRepo.GetOwnedBike(ctx, bikeID, ownerID); err != nil {
		s.logger.Warn("Component list for unresolved bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
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
		s.logger.Error("Failed to get components", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	views, err := s.wear.Evaluate(ctx, bikeID, components, opts)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Retrieved components for bike", map[string]interface{}{
		"bike_id":          bikeID,
		"components_count": len(views),
	})

	return views, nil
}

// PageComponents pages over filter.Limit-sized windows; filter.Offset must be
// a multiple of the limit.
func (s *ComponentService) PageComponents(ctx context.Context, filter domain.ComponentFilter, opts domain.ViewOptions) (*domain.ComponentPage, error) {
	if filter.Limit <= 0 || filter.Limit > maxPageSize {
		return nil, fmt.Errorf("%w: size must be within 1..%d", domain.ErrValidation, maxPageSize)
	}
	if filter.Offset < 0 {
		return nil, fmt.Errorf("%w: page must not be negative", domain.ErrValidation)
	}

	if _, err := s.bikeRepo.GetOwnedBike(ctx, filter.BikeID, filter.OwnerID); err != nil {
		return nil, err
	}

	total, err := s.componentRepo.CountComponents(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count components", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": filter.BikeID,
		})
		return nil, err
	}

	components, err := s.componentRepo.ListComponents(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to page components", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": filter.BikeID,
		})
		return nil, err
	}

	views, err := s.wear.Evaluate(ctx, filter.BikeID, components, opts)
	if err != nil {
		return nil, err
	}

	direction := "DESC"
	if !filter.Desc {
		direction = "ASC"
	}

	return &domain.ComponentPage{
		Content:       views,
		Page:          filter.Offset / filter.Limit,
		Size:          filter.Limit,
		TotalElements: total,
		TotalPages:    (total + filter.Limit - 1) / filter.Limit,
		Sort:          fmt.Sprintf("%s,%s", filter.SortBy, direction),
	}, nil
}

// UpdateComponent edits descriptive attributes. It is not a lifecycle
// transition and writes no history.
func (s *ComponentService) UpdateComponent(ctx context.Context, ref domain.ComponentRef, update domain.ComponentUpdate) (*domain.Component, error) {
	if err := s.validate.Struct(update); err != nil {
		s.logger.Error("Component validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	component, err := s.componentRepo.GetOwnedComponent(ctx, ref)
	if err != nil {
		return nil, err
	}

	if update.Position != nil {
		position, err := domain.ParsePosition(*update.Position)
		if err != nil {
			return nil, err
		}
		component.Position = position
	}
	if update.Label != nil {
		component.Label = update.Label
	}
	if update.LifespanOverride != nil {
		component.LifespanOverride = update.LifespanOverride
	}
	if update.Price != nil {
		component.Price = update.Price
	}
	if update.Currency != nil {
		component.Currency = update.Currency
	}
	if update.Shop != nil {
		component.Shop = update.Shop
	}
	if update.ReceiptRef != nil {
		component.ReceiptRef = update.ReceiptRef
	}

	if err := component.CheckInvariants(); err != nil {
		return nil, err
	}

	updatedComponent, err := s.componentRepo.UpdateComponent(ctx, component)
	if err != nil {
		s.logger.Error("Failed to update component", map[string]interface{}{
			"error":        err.Error(),
			"component_id": ref.ComponentID,
		})
		return nil, err
	}

	s.logger.Info("Component updated successfully", map[string]interface{}{
		"component_id": ref.ComponentID,
	})

	return updatedComponent, nil
}

// History returns the component's events in ascending chronological order.
func (s *ComponentService) History(ctx context.Context, ref domain.ComponentRef) ([]*domain.ComponentEvent, error) {
	if _, err := s.componentRepo.GetOwnedComponent(ctx, ref); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.History(ctx, ref)
	if err != nil {
		s.logger.Error("Failed to read component history", map[string]interface{}{
			"error":        err.Error(),
			"component_id": ref.ComponentID,
		})
		return nil, err
	}

	return events, nil
}
