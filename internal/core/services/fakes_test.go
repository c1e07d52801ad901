package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"
	"github.com/sm8ta/webike_component_microservice/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type reading struct {
	bikeID   uuid.UUID
	date     time.Time
	distance decimal.Decimal
}

// memStore implements every repository port in memory. WithinTransaction
// snapshots the mutable state and restores it when fn fails.
type memStore struct {
	mu         sync.Mutex
	bikes      map[uuid.UUID]uuid.UUID
	components map[uuid.UUID]domain.Component
	events     []domain.ComponentEvent
	types      map[string]domain.ComponentType
	readings   []reading

	failCreate  error
	failTypes   error
	typeLookups int
}

func newMemStore() *memStore {
	lifespan := decimal.NewFromInt(3000)
	interval := decimal.NewFromInt(500)
	pads := decimal.NewFromInt(2500)
	return &memStore{
		bikes:      make(map[uuid.UUID]uuid.UUID),
		components: make(map[uuid.UUID]domain.Component),
		types: map[string]domain.ComponentType{
			"chain":      {Key: "chain", Name: "Chain", Unit: "km", DefaultLifespan: &lifespan, DefaultServiceInterval: &interval},
			"brake_pads": {Key: "brake_pads", Name: "Brake pads", Unit: "km", DefaultLifespan: &pads},
			"fork":       {Key: "fork", Name: "Fork", Unit: "km"},
		},
	}
}

func (m *memStore) addBike(owner uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.bikes[id] = owner
	return id
}

func (m *memStore) addReading(bikeID uuid.UUID, date time.Time, km int64) {
	m.readings = append(m.readings, reading{bikeID: bikeID, date: date, distance: decimal.NewFromInt(km)})
}

// component returns a copy of the stored row, or nil.
func (m *memStore) component(id uuid.UUID) *domain.Component {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.components[id]
	if !ok {
		return nil
	}
	return &c
}

func (m *memStore) eventsOf(componentID uuid.UUID, t domain.EventType) []domain.ComponentEvent {
	var out []domain.ComponentEvent
	for _, e := range m.events {
		if e.ComponentID == componentID && (t == "" || e.Type == t) {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	components := make(map[uuid.UUID]domain.Component, len(m.components))
	for k, v := range m.components {
		components[k] = v
	}
	events := append([]domain.ComponentEvent(nil), m.events...)
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.components, m.events = components, events
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) GetOwnedBike(_ context.Context, bikeID, ownerID uuid.UUID) (*domain.Bike, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.bikes[bikeID]
	if !ok || owner != ownerID {
		return nil, fmt.Errorf("%w: bike", domain.ErrNotFound)
	}
	return &domain.Bike{BikeID: bikeID, UserID: owner}, nil
}

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) CreateComponent(_ context.Context, c *domain.Component) (*domain.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return nil, m.failCreate
	}
	if _, ok := m.bikes[c.BikeID]; !ok {
		return nil, fmt.Errorf("%w: bike does not exist", domain.ErrNotFound)
	}
	stored := *c
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.components[c.ID] = stored
	out := stored
	return &out, nil
}

func (m *memStore) GetOwnedComponent(_ context.Context, ref domain.ComponentRef) (*domain.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.components[ref.ComponentID]
	if !ok || c.BikeID != ref.BikeID || m.bikes[c.BikeID] != ref.OwnerID {
		return nil, fmt.Errorf("%w: component", domain.ErrNotFound)
	}
	return &c, nil
}

func (m *memStore) LockOwnedComponent(ctx context.Context, ref domain.ComponentRef) (*domain.Component, error) {
	return m.GetOwnedComponent(ctx, ref)
}

func (m *memStore) ListComponents(_ context.Context, f domain.ComponentFilter) ([]*domain.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Component
	for _, c := range m.components {
		if c.BikeID != f.BikeID || m.bikes[c.BikeID] != f.OwnerID {
			continue
		}
		if f.ActiveOnly && !c.IsActive() {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].InstalledAt.After(out[j].InstalledAt)
	})
	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		end := f.Offset + f.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[f.Offset:end]
	}
	return out, nil
}

func (m *memStore) CountComponents(ctx context.Context, f domain.ComponentFilter) (int, error) {
	f.Limit, f.Offset = 0, 0
	all, err := m.ListComponents(ctx, f)
	return len(all), err
}

func (m *memStore) UpdateComponent(_ context.Context, c *domain.Component) (*domain.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.components[c.ID]; !ok {
		return nil, fmt.Errorf("%w: component", domain.ErrNotFound)
	}
	stored := *c
	stored.UpdatedAt = time.Now()
	m.components[c.ID] = stored
	out := stored
	return &out, nil
}

func (m *memStore) DeleteComponent(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.components[id]; !ok {
		return fmt.Errorf("%w: component", domain.ErrNotFound)
	}
	delete(m.components, id)
	return nil
}

func (m *memStore) RecordEvent(_ context.Context, e *domain.ComponentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *e
	stored.RecordedAt = time.Now()
	m.events = append(m.events, stored)
	return nil
}

func (m *memStore) History(_ context.Context, ref domain.ComponentRef) ([]*domain.ComponentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ComponentEvent
	for _, e := range m.events {
		if e.ComponentID == ref.ComponentID {
			e := e
			out = append(out, &e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (m *memStore) LatestEvent(_ context.Context, componentID uuid.UUID, t domain.EventType) (*domain.ComponentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.ComponentEvent
	for _, e := range m.events {
		if e.ComponentID == componentID && e.Type == t {
			if latest == nil || !e.At.Before(latest.At) {
				e := e
				latest = &e
			}
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: event", domain.ErrNotFound)
	}
	return latest, nil
}

func (m *memStore) PurgeComponent(_ context.Context, componentID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0:0]
	var purged int64
	for _, e := range m.events {
		if e.ComponentID == componentID {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return purged, nil
}

func (m *memStore) FindTypeByKey(_ context.Context, key string) (*domain.ComponentType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typeLookups++
	if m.failTypes != nil {
		return nil, m.failTypes
	}
	t, ok := m.types[key]
	if !ok {
		return nil, fmt.Errorf("%w: component type %q", domain.ErrNotFound, key)
	}
	return &t, nil
}

func (m *memStore) ListTypes(context.Context) ([]*domain.ComponentType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typeLookups++
	out := make([]*domain.ComponentType, 0, len(m.types))
	for _, t := range m.types {
		t := t
		out = append(out, &t)
	}
	return out, nil
}

func (m *memStore) FindLatestDistance(_ context.Context, bikeID uuid.UUID) (*decimal.Decimal, error) {
	return m.readingAt(bikeID, nil), nil
}

func (m *memStore) FindDistanceAtOrBefore(_ context.Context, bikeID uuid.UUID, date time.Time) (*decimal.Decimal, error) {
	return m.readingAt(bikeID, &date), nil
}

func (m *memStore) readingAt(bikeID uuid.UUID, date *time.Time) *decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *reading
	for i := range m.readings {
		r := &m.readings[i]
		if r.bikeID != bikeID {
			continue
		}
		if date != nil && r.date.After(*date) {
			continue
		}
		if best == nil || r.date.After(best.date) {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	d := best.distance
	return &d
}

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(key string) ([]byte, error) {
	v, ok := c.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(key string) error {
	delete(c.data, key)
	return nil
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

type recordingMetrics struct {
	lifecycle []domain.EventType
	statuses  []domain.WearStatus
}

func (r *recordingMetrics) RecordMetrics(*gin.Context, time.Time) {}

func (r *recordingMetrics) RecordLifecycleEvent(t domain.EventType) {
	r.lifecycle = append(r.lifecycle, t)
}

func (r *recordingMetrics) RecordWearStatus(s domain.WearStatus) {
	r.statuses = append(r.statuses, s)
}

type recordingPublisher struct {
	published []domain.ComponentEvent
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, e *domain.ComponentEvent) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, *e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []domain.EventType {
	out := make([]domain.EventType, 0, len(p.published))
	for _, e := range p.published {
		out = append(out, e.Type)
	}
	return out
}

var errBoom = errors.New("boom")
