package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ComponentTypeRepository reads the read-only type catalog.
type ComponentTypeRepository struct {
	db *sql.DB
}

func NewComponentTypeRepository(db *sql.DB) *ComponentTypeRepository {
	return &ComponentTypeRepository{db: db}
}

func (r *ComponentTypeRepository) FindTypeByKey(ctx context.Context, key string) (*domain.ComponentType, error) {
	query := `SELECT key, name, unit, default_lifespan, default_service_interval
		FROM component_types WHERE lower(key) = lower($1)`

	componentType, err := scanType(conn(ctx, r.db).QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: component type %q not found", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to get component type: %w", err)
	}
	return componentType, nil
}

func (r *ComponentTypeRepository) ListTypes(ctx context.Context) ([]*domain.ComponentType, error) {
	query := `SELECT key, name, unit, default_lifespan, default_service_interval
		FROM component_types ORDER BY lower(name)`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]*domain.ComponentType, 0)
	for rows.Next() {
		componentType, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, componentType)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return types, nil
}

func scanType(row rowScanner) (*domain.ComponentType, error) {
	var (
		t                 domain.ComponentType
		lifespan, service decimal.NullDecimal
	)
	if err := row.Scan(&t.Key, &t.Name, &t.Unit, &lifespan, &service); err != nil {
		return nil, err
	}
	t.DefaultLifespan = nullDecimal(lifespan)
	t.DefaultServiceInterval = nullDecimal(service)
	return &t, nil
}
