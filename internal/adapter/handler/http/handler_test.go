package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/config"
	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validToken = "valid-token"

var testUserID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

type stubTokenService struct{}

func (stubTokenService) VerifyToken(token string) (*domain.TokenPayload, error) {
	if token != validToken {
		return nil, errors.New("bad token")
	}
	return &domain.TokenPayload{ID: uuid.New(), UserID: testUserID, Role: domain.AppUser}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubComponentService struct {
	get     func(ref domain.ComponentRef, opts domain.ViewOptions) (*domain.ComponentView, error)
	list    func(bikeID uuid.UUID, activeOnly bool) ([]*domain.ComponentView, error)
	page    func(filter domain.ComponentFilter) (*domain.ComponentPage, error)
	update  func(ref domain.ComponentRef, update domain.ComponentUpdate) (*domain.Component, error)
	history func(ref domain.ComponentRef) ([]*domain.ComponentEvent, error)
}

func (s *stubComponentService) GetComponent(_ context.Context, ref domain.ComponentRef, opts domain.ViewOptions) (*domain.ComponentView, error) {
	return s.get(ref, opts)
}

func (s *stubComponentService) ListComponents(_ context.Context, bikeID, _ uuid.UUID, activeOnly bool, _ domain.ViewOptions) ([]*domain.ComponentView, error) {
	return s.list(bikeID, activeOnly)
}

func (s *stubComponentService) PageComponents(_ context.Context, filter domain.ComponentFilter, _ domain.ViewOptions) (*domain.ComponentPage, error) {
	return s.page(filter)
}

func (s *stubComponentService) UpdateComponent(_ context.Context, ref domain.ComponentRef, update domain.ComponentUpdate) (*domain.Component, error) {
	return s.update(ref, update)
}

func (s *stubComponentService) History(_ context.Context, ref domain.ComponentRef) ([]*domain.ComponentEvent, error) {
	return s.history(ref)
}

type stubLifecycleService struct {
	install    func(bikeID, ownerID uuid.UUID, req domain.InstallRequest) (*domain.Component, error)
	softDelete func(ref domain.ComponentRef, at *time.Time, distance *decimal.Decimal) error
	restore    func(ref domain.ComponentRef) error
	hardDelete func(ref domain.ComponentRef) error
	replace    func(ref domain.ComponentRef, distance *decimal.Decimal, o domain.ComponentOverrides) (*domain.Component, error)
}

func (s *stubLifecycleService) Install(_ context.Context, bikeID, ownerID uuid.UUID, req domain.InstallRequest) (*domain.Component, error) {
	return s.install(bikeID, ownerID, req)
}

func (s *stubLifecycleService) UpdateInstallationInfo(_ context.Context, ref domain.ComponentRef, _ *time.Time, _ *decimal.Decimal) (*domain.Component, error) {
	return &domain.Component{ID: ref.ComponentID}, nil
}

func (s *stubLifecycleService) SoftDelete(_ context.Context, ref domain.ComponentRef, at *time.Time, distance *decimal.Decimal) error {
	return s.softDelete(ref, at, distance)
}

func (s *stubLifecycleService) Restore(_ context.Context, ref domain.ComponentRef, _ *time.Time) error {
	return s.restore(ref)
}

func (s *stubLifecycleService) HardDelete(_ context.Context, ref domain.ComponentRef, _ *time.Time) error {
	return s.hardDelete(ref)
}

func (s *stubLifecycleService) Replace(_ context.Context, ref domain.ComponentRef, _ *time.Time, distance *decimal.Decimal, o domain.ComponentOverrides) (*domain.Component, error) {
	return s.replace(ref, distance, o)
}

type stubMetricsService struct{}

func (stubMetricsService) MetricsFor(context.Context, uuid.UUID, uuid.UUID, bool, domain.ViewOptions) ([]*domain.ComponentView, error) {
	return []*domain.ComponentView{}, nil
}

type stubCatalog struct{ err error }

func (s stubCatalog) ListTypes(context.Context) ([]*domain.ComponentType, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.ComponentType{{Key: "chain", Name: "Chain", Unit: "km"}}, nil
}

func (s stubCatalog) FindType(context.Context, string) (*domain.ComponentType, error) {
	return nil, domain.ErrNotFound
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

func (nopLogger) DebugGRPC(context.Context, string, map[string]interface{}) {}
func (nopLogger) InfoGRPC(context.Context, string, map[string]interface{})  {}
func (nopLogger) WarnGRPC(context.Context, string, map[string]interface{})  {}
func (nopLogger) ErrorGRPC(context.Context, string, map[string]interface{}) {}

type nopMetrics struct{}

func (nopMetrics) RecordMetrics(*gin.Context, time.Time)  {}
func (nopMetrics) RecordLifecycleEvent(domain.EventType) {}
func (nopMetrics) RecordWearStatus(domain.WearStatus)    {}

func newTestRouter(t *testing.T, cs *stubComponentService, ls *stubLifecycleService, catalog stubCatalog, health stubPinger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	componentHandler := NewComponentHandler(cs, ls, stubMetricsService{}, nopLogger{}, nopMetrics{})
	typeHandler := NewComponentTypeHandler(catalog, nopLogger{}, nopMetrics{})

	router, err := NewRouter(&config.HTTP{Env: "test"}, "test", stubTokenService{}, health, componentHandler, typeHandler)
	require.NoError(t, err)
	return router.Engine()
}

func doRequest(engine *gin.Engine, method, path, body string, auth bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+validToken)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthRequired(t *testing.T) {
	engine := newTestRouter(t, &stubComponentService{}, &stubLifecycleService{}, stubCatalog{}, stubPinger{})
	path := fmt.Sprintf("/bikes/%s/components", uuid.New())

	w := doRequest(engine, http.MethodGet, path, "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Basic abc")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/component-types", nil)
	req.Header.Set("Authorization", "Bearer expired")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token", decodeBody(t, w)["message"])
}

func TestInstallComponentHandler(t *testing.T) {
	bikeID := uuid.New()
	ls := &stubLifecycleService{
		install: func(gotBike, owner uuid.UUID, req domain.InstallRequest) (*domain.Component, error) {
			if req.TypeKey == "saddle" {
				return nil, fmt.Errorf("%w: component type", domain.ErrNotFound)
			}
			assert.Equal(t, bikeID, gotBike)
			assert.Equal(t, testUserID, owner)
			assert.True(t, req.InstalledDistance.Equal(decimal.NewFromInt(1200)))
			return &domain.Component{ID: uuid.New(), BikeID: gotBike, TypeKey: req.TypeKey, Position: domain.PositionRear}, nil
		},
	}
	engine := newTestRouter(t, &stubComponentService{}, ls, stubCatalog{}, stubPinger{})
	path := fmt.Sprintf("/bikes/%s/components", bikeID)

	w := doRequest(engine, http.MethodPost, path, `{"type_key":"chain","installed_distance":1200}`, true)
	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "chain", body["data"].(map[string]interface{})["type_key"])

	w = doRequest(engine, http.MethodPost, path, `{"type_key":"saddle"}`, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(engine, http.MethodPost, path, `{"label":"no type"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(engine, http.MethodPost, "/bikes/not-a-uuid/components", `{"type_key":"chain"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLifecycleHandlers(t *testing.T) {
	bikeID, componentID := uuid.New(), uuid.New()
	base := fmt.Sprintf("/bikes/%s/components/%s", bikeID, componentID)

	var removedWith *decimal.Decimal
	ls := &stubLifecycleService{
		softDelete: func(ref domain.ComponentRef, _ *time.Time, distance *decimal.Decimal) error {
			assert.Equal(t, domain.ComponentRef{ComponentID: componentID, BikeID: bikeID, OwnerID: testUserID}, ref)
			removedWith = distance
			return nil
		},
		restore: func(domain.ComponentRef) error { return nil },
		hardDelete: func(domain.ComponentRef) error {
			return fmt.Errorf("%w: component must be removed first", domain.ErrConflict)
		},
		replace: func(ref domain.ComponentRef, _ *decimal.Decimal, o domain.ComponentOverrides) (*domain.Component, error) {
			if o.Currency != nil && *o.Currency == "EURO" {
				return nil, fmt.Errorf("%w: currency", domain.ErrValidation)
			}
			return &domain.Component{ID: uuid.New(), BikeID: ref.BikeID}, nil
		},
	}
	engine := newTestRouter(t, &stubComponentService{}, ls, stubCatalog{}, stubPinger{})

	w := doRequest(engine, http.MethodDelete, base, "", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, removedWith)

	w = doRequest(engine, http.MethodDelete, base, `{"distance":3100}`, true)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, removedWith)
	assert.True(t, removedWith.Equal(decimal.NewFromInt(3100)))

	w = doRequest(engine, http.MethodPost, base+"/restore", "", true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(engine, http.MethodDelete, base+"/hard", "", true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(engine, http.MethodPost, base+"/replace", "", true)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(engine, http.MethodPost, base+"/replace", `{"currency":"EURO"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(engine, http.MethodPost, base+"/replace", `{"distance":`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReadHandlers(t *testing.T) {
	bikeID, componentID := uuid.New(), uuid.New()
	base := fmt.Sprintf("/bikes/%s/components", bikeID)

	var gotFilter domain.ComponentFilter
	cs := &stubComponentService{
		get: func(ref domain.ComponentRef, opts domain.ViewOptions) (*domain.ComponentView, error) {
			if ref.ComponentID != componentID {
				return nil, domain.ErrNotFound
			}
			require.NotNil(t, opts.CurrentDistance)
			c := &domain.Component{ID: componentID}
			return &domain.ComponentView{Component: c, State: c.State()}, nil
		},
		list: func(uuid.UUID, bool) ([]*domain.ComponentView, error) {
			return nil, errors.New("connection reset")
		},
		page: func(filter domain.ComponentFilter) (*domain.ComponentPage, error) {
			gotFilter = filter
			if filter.Offset < 0 {
				return nil, fmt.Errorf("%w: page", domain.ErrValidation)
			}
			return &domain.ComponentPage{Content: []*domain.ComponentView{}, Page: 1, Size: filter.Limit}, nil
		},
		history: func(domain.ComponentRef) ([]*domain.ComponentEvent, error) {
			return []*domain.ComponentEvent{{Type: domain.EventInstalled}}, nil
		},
	}
	engine := newTestRouter(t, cs, &stubLifecycleService{}, stubCatalog{}, stubPinger{})

	w := doRequest(engine, http.MethodGet, fmt.Sprintf("%s/%s?currentDistance=2500", base, componentID), "", true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(engine, http.MethodGet, fmt.Sprintf("%s/%s", base, uuid.New()), "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Component not found", decodeBody(t, w)["message"])

	w = doRequest(engine, http.MethodGet, fmt.Sprintf("%s/%s?currentDistance=-1", base, componentID), "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(engine, http.MethodGet, base, "", true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, w)["message"])

	w = doRequest(engine, http.MethodGet, base+"/page?page=1&size=5&sort=typeKey,ASC&position=front&activeOnly=true", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, gotFilter.Limit)
	assert.Equal(t, 5, gotFilter.Offset)
	assert.Equal(t, domain.SortTypeKey, gotFilter.SortBy)
	assert.False(t, gotFilter.Desc)
	assert.Equal(t, domain.PositionFront, gotFilter.Position)
	assert.True(t, gotFilter.ActiveOnly)

	w = doRequest(engine, http.MethodGet, base+"/page?page=-1", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the offset for this page does not fit in an int
	gotFilter = domain.ComponentFilter{}
	w = doRequest(engine, http.MethodGet, base+"/page?page=4611686018427387904&size=5", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, gotFilter.Limit)

	w = doRequest(engine, http.MethodGet, base+"/page?position=middle", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(engine, http.MethodGet, base+"/metrics?warnAt=abc", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(engine, http.MethodGet, base+"/metrics", "", true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(engine, http.MethodGet, fmt.Sprintf("%s/%s/history", base, componentID), "", true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestComponentTypesAndHealth(t *testing.T) {
	engine := newTestRouter(t, &stubComponentService{}, &stubLifecycleService{}, stubCatalog{}, stubPinger{})

	w := doRequest(engine, http.MethodGet, "/component-types", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].([]interface{})
	assert.Len(t, data, 1)

	w = doRequest(engine, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, w.Code)

	engine = newTestRouter(t, &stubComponentService{}, &stubLifecycleService{}, stubCatalog{}, stubPinger{err: errors.New("down")})
	w = doRequest(engine, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
