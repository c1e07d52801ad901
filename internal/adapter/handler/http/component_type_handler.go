package http

import (
	"net/http"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/ports"

	"github.com/gin-gonic/gin"
)

type ComponentTypeHandler struct {
	catalog ports.CatalogService
	logger  ports.LoggerPort
	metrics ports.MetricsPort
}

func NewComponentTypeHandler(catalog ports.CatalogService, logger ports.LoggerPort, metrics ports.MetricsPort) *ComponentTypeHandler {
	return &ComponentTypeHandler{
		catalog: catalog,
		logger:  logger,
		metrics: metrics,
	}
}

// @Summary Типы компонентов
// @Description Справочник типов, отсортирован по названию
// @Tags component-types
// @Security BearerAuth
// @Produce json
// @Success 200 {object} successResponse "Справочник"
// @Failure 500 {object} errorResponse "Внутренняя ошибка сервера"
// @Router /component-types [get]
func (h *ComponentTypeHandler) ListTypes(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	types, err := h.catalog.ListTypes(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list component types", map[string]interface{}{
			"error": err.Error(),
		})
		handleServiceError(c, err, "Component types not found")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", types)
}
