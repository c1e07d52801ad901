package ports

import (
	"context"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"
)

// EventPublisher announces committed lifecycle events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.ComponentEvent) error
	Close() error
}
