package http

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"
	"github.com/sm8ta/webike_component_microservice/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ComponentHandler struct {
	componentService ports.ComponentService
	lifecycleService ports.LifecycleService
	metricsService   ports.MetricsService
	logger           ports.LoggerPort
	metrics          ports.MetricsPort
}

type InstallComponentRequest struct {
	TypeKey           string           `json:"type_key" binding:"required" example:"chain"`
	Label             *string          `json:"label,omitempty" example:"KMC X11"`
	Position          string           `json:"position,omitempty" example:"REAR"`
	InstalledAt       *time.Time       `json:"installed_at,omitempty" example:"2025-04-01T10:00:00Z"`
	InstalledDistance *decimal.Decimal `json:"installed_distance,omitempty" swaggertype:"number" example:"1200"`
	LifespanOverride  *decimal.Decimal `json:"lifespan_override,omitempty" swaggertype:"number" example:"2500"`
	Price             *decimal.Decimal `json:"price,omitempty" swaggertype:"number" example:"39.90"`
	Currency          *string          `json:"currency,omitempty" example:"EUR"`
	Shop              *string          `json:"shop,omitempty" example:"Bike Shop"`
	ReceiptRef        *string          `json:"receipt_ref,omitempty" example:"INV-2025-001"`
}

type UpdateComponentRequest struct {
	Label            *string          `json:"label,omitempty" example:"KMC X11"`
	Position         *string          `json:"position,omitempty" example:"FRONT"`
	LifespanOverride *decimal.Decimal `json:"lifespan_override,omitempty" swaggertype:"number" example:"3000"`
	Price            *decimal.Decimal `json:"price,omitempty" swaggertype:"number" example:"42.50"`
	Currency         *string          `json:"currency,omitempty" example:"EUR"`
	Shop             *string          `json:"shop,omitempty" example:"Bike Shop"`
	ReceiptRef       *string          `json:"receipt_ref,omitempty" example:"INV-2025-002"`
}

func NewComponentHandler(
	componentService ports.ComponentService,
	lifecycleService ports.LifecycleService,
	metricsService ports.MetricsService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *ComponentHandler {
	return &ComponentHandler{
		componentService: componentService,
		lifecycleService: lifecycleService,
		metricsService:   metricsService,
		logger:           logger,
		metrics:          metrics,
	}
}

// @Summary Установить компонент
// @Description Установка нового компонента на байк
// @Tags components
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param bikeId path string true "ID байка"
// @Param request body InstallComponentRequest true "Данные компонента"
// @Success 201 {object} successResponse "Компонент установлен"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 404 {object} errorResponse "Байк или тип не найден"
// @Router /bikes/{bikeId}/components [post]
func (h *ComponentHandler) InstallComponent(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to InstallComponent", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	bikeID, err := parseUUIDParam(c, "bikeId")
	if err != nil {
		handleServiceError(c, err, "Bike not found")
		return
	}

	var req InstallComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in install component", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	component, err := h.lifecycleService.Install(c.Request.Context(), bikeID, payload.UserID, domain.InstallRequest{
		TypeKey:           req.TypeKey,
		Label:             req.Label,
		Position:          req.Position,
		InstalledAt:       req.InstalledAt,
		InstalledDistance: req.InstalledDistance,
		LifespanOverride:  req.LifespanOverride,
		Price:             req.Price,
		Currency:          req.Currency,
		Shop:              req.Shop,
		ReceiptRef:        req.ReceiptRef,
	})
	if err != nil {
		h.logger.Error("Failed to install component", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		handleServiceError(c, err, "Bike or component type not found")
		return
	}

	newSuccessResponse(c, http.StatusCreated, "Component installed", component)
}

// @Summary Список компонентов
// @Description Компоненты байка с опциональным износом
// @Tags components
// @Security BearerAuth
// @Produce json
// @Param bikeId path string true "ID байка"
// @Param activeOnly query bool false "Только активные"
// @Param currentDistance query number false "Текущий пробег"
// @Param warnAt query int false "Порог WARN, %"
// @Param criticalAt query int false "Порог CRITICAL, %"
// @Success 200 {object} successResponse "Список компонентов"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /bikes/{bikeId}/components [get]
func (h *ComponentHandler) ListComponents(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	bikeID, err := parseUUIDParam(c, "bikeId")
	if err != nil {
		handleServiceError(c, err, "Bike not found")
		return
	}
	activeOnly, err := queryBool(c, "activeOnly")
	if err != nil {
		handleServiceError(c, err, "")
		return
	}
	opts, err := viewOptions(c)
	if err != nil {
		handleServiceError(c, err, "")
		return
	}

	views, err := h.componentService.ListComponents(c.Request.Context(), bikeID, payload.UserID, activeOnly, opts)
	if err != nil {
		handleServiceError(c, err, "Bike not found")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", views)
}

// @Summary Постраничный список компонентов
// @Description Фильтры typeKey, position, labelLike; сортировка field,DIR
// @Tags components
// @Security BearerAuth
// @Produce json
// @Param bikeId path string true "ID байка"
// @Param activeOnly query bool false "Только активные"
// @Param typeKey query string false "Тип"
// @Param position query string false "Позиция"
// @Param labelLike query string false "Подстрока метки"
// @Param sort query string false "installedAt|typeKey|position|label,ASC|DESC"
// @Param page query int false "Страница с 0"
// @Param size query int false "Размер страницы"
// @Success 200 {object} successResponse "Страница компонентов"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /bikes/{bikeId}/components/page [get]
func (h *ComponentHandler) PageComponents(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filter, err := pageFilter(c, payload)
	if err != nil {
		handleServiceError(c, err, "Bike not found")
		return
	}
	opts, err := viewOptions(c)
	if err != nil {
		handleServiceError(c, err, "")
		return
	}

	page, err := h.componentService.PageComponents(c.Request.Context(), filter, opts)
	if err != nil {
		handleServiceError(c, err, "Bike not found")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", page)
}

func pageFilter(c *gin.Context, payload *domain.TokenPayload) (domain.ComponentFilter, error) {
	var filter domain.ComponentFilter

	bikeID, err := parseUUIDParam(c, "bikeId")
	if err != nil {
		return filter, err
	}
	activeOnly, err := queryBool(c, "activeOnly")
	if err != nil {
		return filter, err
	}
	page, err := queryInt(c, "page", 0)
	if err != nil {
		return filter, err
	}
	size, err := queryInt(c, "size", 20)
	if err != nil {
		return filter, err
	}

	var position domain.Position
	if raw := strings.TrimSpace(c.Query("position")); raw != "" {
		if position, err = domain.ParsePosition(raw); err != nil {
			return filter, err
		}
	}

	if size > 0 && page > math.MaxInt/size {
		return filter, fmt.Errorf("%w: page is out of range", domain.ErrValidation)
	}

	sortBy, desc := domain.ParseSort(c.Query("sort"))

	filter = domain.ComponentFilter{
		BikeID:     bikeID,
		OwnerID:    payload.UserID,
		ActiveOnly: activeOnly,
		TypeKey:    strings.TrimSpace(c.Query("typeKey")),
		Position:   position,
		LabelLike:  strings.TrimSpace(c.Query("labelLike")),
		SortBy:     sortBy,
		Desc:       desc,
		Limit:      size,
		Offset:     page * size,
	}
	if page < 0 {
		filter.Offset = -1
	}
	return filter, nil
}

// @Summary Износ компонентов
// @Description Метрики износа всех компонентов байка
// @Tags components
// @Security BearerAuth
// @Produce json
// @Param bikeId path string true "ID байка"
// @Param activeOnly query bool false "Только активные"
// @Param warnAt query int false "Порог WARN, %"
// @Param criticalAt query int false "Порог CRITICAL, %"
// @Success 200 {object} successResponse "Метрики"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /bikes/{bikeId}/components/metrics [get]
func (h *ComponentHandler) ComponentMetrics(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	bikeID, err := parseUUIDParam(c, "bikeId")
	if err != nil {
		handleServiceError(c, err, "Bike not found")
		return
	}
	activeOnly, err := queryBool(c, "activeOnly")
	if err != nil {
		handleServiceError(c, err, "")
		return
	}
	opts, err := viewOptions(c)
	if err != nil {
		handleServiceError(c, err, "")
		return
	}

	views, err := h.metricsService.MetricsFor(c.Request.Context(), bikeID, payload.UserID, activeOnly, opts)
	if err != nil {
		h.logger.Error("Failed to compute component metrics", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		handleServiceError(c, err, "Bike not found")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", views)
}

// @Summary Получить компонент
// @Description Компонент по ID с опциональным износом
// @Tags components
// @Security BearerAuth
// @Produce json
// @Param bikeId path string true "ID байка"
// @Param id path string true "ID компонента"
// @Param currentDistance query number false "Текущий пробег"
// @Param warnAt query int false "Порог WARN, %"
// @Param criticalAt query int false "Порог CRITICAL, %"
// @Success 200 {object} successResponse "Компонент найден"
// @Failure 404 {object} errorResponse "Компонент не найден"
// @Router /bikes/{bikeId}/components/{id} [get]
func (h *ComponentHandler) GetComponent(c *gin.Context) {
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
	opts, err := viewOptions(c)
	if err != nil {
		handleServiceError(c, err, "")
		return
	}

	view, err := h.componentService.GetComponent(c.Request.Context(), ref, opts)
	if err != nil {
		handleServiceError(c, err, "Component not found")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", view)
}

// @Summary Обновить компонент
// @Description Изменение атрибутов компонента, не меняет жизненный цикл
// @Tags components
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param bikeId path string true "ID байка"
// @Param id path string true "ID компонента"
// @Param request body UpdateComponentRequest true "Данные для обновления"
// @Success 200 {object} successResponse "Компонент обновлен"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 404 {object} errorResponse "Компонент не найден"
// @Router /bikes/{bikeId}/components/{id} [put]
func (h *ComponentHandler) UpdateComponent(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to UpdateComponent", map[string]interface{}{
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

	var req UpdateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in update component", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	updated, err := h.componentService.UpdateComponent(c.Request.Context(), ref, domain.ComponentUpdate{
		Label:            req.Label,
		Position:         req.Position,
		LifespanOverride: req.LifespanOverride,
		Price:            req.Price,
		Currency:         req.Currency,
		Shop:             req.Shop,
		ReceiptRef:       req.ReceiptRef,
	})
	if err != nil {
		handleServiceError(c, err, "Component not found")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Component updated", updated)
}

// @Summary История компонента
// @Description События жизненного цикла по возрастанию времени
// @Tags components
// @Security BearerAuth
// @Produce json
// @Param bikeId path string true "ID байка"
// @Param id path string true "ID компонента"
// @Success 200 {object} successResponse "История"
// @Failure 404 {object} errorResponse "Компонент не найден"
// @Router /bikes/{bikeId}/components/{id}/history [get]
func (h *ComponentHandler) ComponentHistory(c *gin.Context) {
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

	events, err := h.componentService.History(c.Request.Context(), ref)
	if err != nil {
		handleServiceError(c, err, "Component not found")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", events)
}
