package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type errorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Component not found"`
}

type successResponse struct {
	Success bool        `json:"success" example:"true"`
	Message string      `json:"message" example:"Success"`
	Data    interface{} `json:"data,omitempty"`
}

func newErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, errorResponse{
		Success: false,
		Message: message,
	})
}

func newSuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, successResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func getAuthPayload(c *gin.Context, key string) (*domain.TokenPayload, bool) {
	value, exists := c.Get(key)
	if !exists {
		return nil, false
	}
	payload, ok := value.(*domain.TokenPayload)
	return payload, ok
}

// handleServiceError maps domain errors onto status codes. Unexpected errors
// never leak their text to the client.
func handleServiceError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		newErrorResponse(c, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrConflict):
		newErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrValidation):
		newErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		newErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", domain.ErrValidation, name)
	}
	return id, nil
}

// componentRef resolves the :bikeId/:id path pair against the caller.
func componentRef(c *gin.Context, payload *domain.TokenPayload) (domain.ComponentRef, error) {
	bikeID, err := parseUUIDParam(c, "bikeId")
	if err != nil {
		return domain.ComponentRef{}, err
	}
	componentID, err := parseUUIDParam(c, "id")
	if err != nil {
		return domain.ComponentRef{}, err
	}
	return domain.ComponentRef{
		ComponentID: componentID,
		BikeID:      bikeID,
		OwnerID:     payload.UserID,
	}, nil
}

func viewOptions(c *gin.Context) (domain.ViewOptions, error) {
	var opts domain.ViewOptions

	if raw := c.Query("currentDistance"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return opts, fmt.Errorf("%w: currentDistance must be a non-negative number", domain.ErrValidation)
		}
		opts.CurrentDistance = &d
	}

	var err error
	if opts.WarnAt, err = optionalInt(c, "warnAt"); err != nil {
		return opts, err
	}
	if opts.CriticalAt, err = optionalInt(c, "criticalAt"); err != nil {
		return opts, err
	}
	return opts, nil
}

func optionalInt(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return &v, nil
}

func queryBool(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", domain.ErrValidation, name)
	}
	return v, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	v, err := optionalInt(c, name)
	if err != nil || v == nil {
		return def, err
	}
	return *v, nil
}
