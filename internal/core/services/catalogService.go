package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"
	"github.com/sm8ta/webike_component_microservice/internal/core/ports"
)

const catalogCacheTTL = 15 * time.Minute

// CatalogService serves the read-only component type catalog through the cache.
type CatalogService struct {
	typeRepo ports.ComponentTypeRepository
	logger   ports.LoggerPort
	cache    ports.CachePort
}

func NewCatalogService(
	typeRepo ports.ComponentTypeRepository,
	logger ports.LoggerPort,
	cache ports.CachePort,
) *CatalogService {
	return &CatalogService{
		typeRepo: typeRepo,
		logger:   logger,
		cache:    cache,
	}
}

func (s *CatalogService) ListTypes(ctx context.Context) ([]*domain.ComponentType, error) {
	const cacheKey = "component_types"

	var cached []*domain.ComponentType
	if s.fromCache(cacheKey, &cached) {
		return cached, nil
	}

	types, err := s.typeRepo.ListTypes(ctx)
	if err != nil {
		s.logger.Error("Failed to list component types", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	sort.SliceStable(types, func(i, j int) bool {
		return strings.ToLower(types[i].Name) < strings.ToLower(types[j].Name)
	})

	s.toCache(cacheKey, types)
	return types, nil
}

func (s *CatalogService) FindType(ctx context.Context, key string) (*domain.ComponentType, error) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return nil, fmt.Errorf("%w: type key is required", domain.ErrValidation)
	}

	cacheKey := fmt.Sprintf("component_type:%s", normalized)
	var cached domain.ComponentType
	if s.fromCache(cacheKey, &cached) {
		return &cached, nil
	}

	componentType, err := s.typeRepo.FindTypeByKey(ctx, normalized)
	if err != nil {
		s.logger.Warn("Component type lookup failed", map[string]interface{}{
			"error":    err.Error(),
			"type_key": normalized,
		})
		return nil, err
	}

	s.toCache(cacheKey, componentType)
	return componentType, nil
}

func (s *CatalogService) fromCache(key string, dst interface{}) bool {
	data, err := s.cache.Get(key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("Dropping unreadable cache entry", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
		return false
	}
	return true
}

func (s *CatalogService) toCache(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("Failed to marshal value for cache", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
		return
	}
	if err := s.cache.Set(key, data, catalogCacheTTL); err != nil {
		s.logger.Warn("Failed to cache value", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
	}
}
