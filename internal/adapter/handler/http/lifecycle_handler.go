package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type InstallationRequest struct {
	InstalledAt       *time.Time       `json:"installed_at,omitempty" example:"2025-04-01T10:00:00Z"`
	InstalledDistance *decimal.Decimal `json:"installed_distance,omitempty" swaggertype:"number" example:"1250"`
}

type RemoveRequest struct {
	At       *time.Time       `json:"at,omitempty" example:"2025-09-01T10:00:00Z"`
	Distance *decimal.Decimal `json:"distance,omitempty" swaggertype:"number" example:"3100"`
}

type RestoreRequest struct {
	At *time.Time `json:"at,omitempty" example:"2025-09-02T10:00:00Z"`
}

type ReplaceRequest struct {
	At               *time.Time       `json:"at,omitempty" example:"2025-09-01T10:00:00Z"`
	Distance         *decimal.Decimal `json:"distance,omitempty" swaggertype:"number" example:"3100"`
	Label            *string          `json:"label,omitempty" example:"KMC X11 new"`
	Price            *decimal.Decimal `json:"price,omitempty" swaggertype:"number" example:"41.00"`
	Currency         *string          `json:"currency,omitempty" example:"EUR"`
	LifespanOverride *decimal.Decimal `json:"lifespan_override,omitempty" swaggertype:"number" example:"2500"`
	Shop             *string          `json:"shop,omitempty" example:"Bike Shop"`
	ReceiptRef       *string          `json:"receipt_ref,omitempty" example:"INV-2025-010"`
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// @Summary Изменить данные установки
// @Description Дата и пробег установки, пишет событие UPDATED
// @Tags lifecycle
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param bikeId path string true "ID байка"
// @Param id path string true "ID компонента"
// @Param request body InstallationRequest true "Данные установки"
// @Success 200 {object} successResponse "Данные обновлены"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 404 {object} errorResponse "Компонент не найден"
// @Router /bikes/{bikeId}/components/{id}/installation [put]
func (h *ComponentHandler) UpdateInstallation(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ref, err := componentRef(c, payload)
	if err != nil {
		handleServiceError(c, err, "Component not found")
		return
	}

	var req InstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	updated, err := h.lifecycleService.UpdateInstallationInfo(c.Request.Context(), ref, req.InstalledAt, req.InstalledDistance)
	if err != nil {
		handleServiceError(c, err, "Component not found")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Installation info updated", updated)
}

// @Summary Снять компонент
// @Description Мягкое удаление; повторный вызов ничего не меняет
// @Tags lifecycle
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param bikeId path string true "ID байка"
// @Param id path string true "ID компонента"
// @Param request body RemoveRequest false "Дата и пробег снятия"
// @Success 200 {object} successResponse "Компонент снят"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 404 {object} errorResponse "Компонент не найден"
// @Router /bikes/{bikeId}/components/{id} [delete]
func (h *ComponentHandler) RemoveComponent(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to RemoveComponent", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ref, err := componentRef(c, payload)
	if err != nil {
		handleServiceError(c, err, "Component not found")
		return
	}

	var req RemoveRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if err := h.lifecycleService.SoftDelete(c.Request.Context(), ref, req.At, req.Distance); err != nil {
		handleServiceError(c, err, "Component not found")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Component removed", nil)
}

// @Summary Вернуть компонент
// @Description Отмена снятия; повторный вызов ничего не меняет
// @Tags lifecycle
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param bikeId path string true "ID байка"
// @Param id path string true "ID компонента"
// @Param request body RestoreRequest false "Дата возврата"
// @Success 200 {object} successResponse "Компонент возвращен"
// @Failure 404 {object} errorResponse "Компонент не найден"
// @Router /bikes/{bikeId}/components/{id}/restore [post]
func (h *ComponentHandler) RestoreComponent(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ref, err := componentRef(c, payload)
	if err != nil {
		handleServiceError(c, err, "Component not found")
		return
	}

	var req RestoreRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if err := h.lifecycleService.Restore(c.Request.Context(), ref, req.At); err != nil {
		handleServiceError(c, err, "Component not found")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Component restored", nil)
}

// @Summary Удалить компонент навсегда
// @Description Только для снятого компонента; история удаляется вместе с ним
// @Tags lifecycle
// @Security BearerAuth
// @Produce json
// @Param bikeId path string true "ID байка"
// @Param id path string true "ID компонента"
// @Success 200 {object} successResponse "Компонент удален"
// @Failure 404 {object} errorResponse "Компонент не найден"
// @Failure 409 {object} errorResponse "Компонент еще установлен"
// @Router /bikes/{bikeId}/components/{id}/hard [delete]
func (h *ComponentHandler) HardDeleteComponent(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to HardDeleteComponent", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ref, err := componentRef(c, payload)
	if err != nil {
		handleServiceError(c, err, "Component not found")
		return
	}

	if err := h.lifecycleService.HardDelete(c.Request.Context(), ref, nil); err != nil {
		handleServiceError(c, err, "Component not found")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Component deleted", nil)
}

// @Summary Заменить компонент
// @Description Снимает старый компонент и ставит новый того же типа в одной транзакции
// @Tags lifecycle
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param bikeId path string true "ID байка"
// @Param id path string true "ID компонента"
// @Param request body ReplaceRequest false "Параметры замены"
// @Success 201 {object} successResponse "Новый компонент"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 404 {object} errorResponse "Компонент не найден"
// @Router /bikes/{bikeId}/components/{id}/replace [post]
func (h *ComponentHandler) ReplaceComponent(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ref, err := componentRef(c, payload)
	if err != nil {
		handleServiceError(c, err, "Component not found")
		return
	}

	var req ReplaceRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	successor, err := h.lifecycleService.Replace(c.Request.Context(), ref, req.At, req.Distance, domain.ComponentOverrides{
		Label:            req.Label,
		Price:            req.Price,
		Currency:         req.Currency,
		LifespanOverride: req.LifespanOverride,
		Shop:             req.Shop,
		ReceiptRef:       req.ReceiptRef,
	})
	if err != nil {
		h.logger.Error("Failed to replace component", map[string]interface{}{
			"error":        err.Error(),
			"component_id": ref.ComponentID,
		})
		handleServiceError(c, err, "Component not found")
		return
	}

	newSuccessResponse(c, http.StatusCreated, "Component replaced", successor)
}
