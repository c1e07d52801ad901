package ports

import (
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/gin-gonic/gin"
)

type MetricsPort interface {
	RecordMetrics(c *gin.Context, start time.Time)
	RecordLifecycleEvent(eventType domain.EventType)
	RecordWearStatus(status domain.WearStatus)
}
