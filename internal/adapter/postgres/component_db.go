package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const componentColumns = `c.id, c.bike_id, c.type_key, c.type_name, c.label, c.position, c.installed_at, c.removed_at,
	c.installed_distance, c.lifespan_override, c.price, c.currency, c.shop, c.receipt_ref, c.created_at, c.updated_at`

type ComponentRepository struct {
	db *sql.DB
}

func NewComponentRepository(db *sql.DB) *ComponentRepository {
	return &ComponentRepository{db: db}
}

func (r *ComponentRepository) CreateComponent(ctx context.Context, component *domain.Component) (*domain.Component, error) {
	query := `INSERT INTO components (id, bike_id, type_key, type_name, label, position, installed_at, removed_at,
		installed_distance, lifespan_override, price, currency, shop, receipt_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		component.ID,
		component.BikeID,
		component.TypeKey,
		component.TypeName,
		component.Label,
		component.Position,
		component.InstalledAt,
		component.RemovedAt,
		component.InstalledDistance,
		component.LifespanOverride,
		component.Price,
		component.Currency,
		component.Shop,
		component.ReceiptRef,
	).Scan(
		&component.CreatedAt,
		&component.UpdatedAt,
	)
	if err != nil {
		return nil, mapWriteError(err, "component")
	}

	return component, nil
}

func (r *ComponentRepository) GetOwnedComponent(ctx context.Context, ref domain.ComponentRef) (*domain.Component, error) {
	return r.getOwned(ctx, ref, "")
}

// LockOwnedComponent must run inside a transaction for the lock to outlive
// the statement.
func (r *ComponentRepository) LockOwnedComponent(ctx context.Context, ref domain.ComponentRef) (*domain.Component, error) {
	return r.getOwned(ctx, ref, " FOR UPDATE OF c")
}

func (r *ComponentRepository) getOwned(ctx context.Context, ref domain.ComponentRef, suffix string) (*domain.Component, error) {
	query := `SELECT ` + componentColumns + `
		FROM components c
		JOIN bikes b ON b.bike_id = c.bike_id
		WHERE c.id = $1 AND c.bike_id = $2 AND b.user_id = $3` + suffix

	component, err := scanComponent(conn(ctx, r.db).QueryRowContext(ctx, query, ref.ComponentID, ref.BikeID, ref.OwnerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: component not found", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get component: %w", err)
	}
	return component, nil
}

func (r *ComponentRepository) ListComponents(ctx context.Context, filter domain.ComponentFilter) ([]*domain.Component, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + componentColumns + `
		FROM components c
		JOIN bikes b ON b.bike_id = c.bike_id` + where + orderClause(filter)

	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	components := make([]*domain.Component, 0)
	for rows.Next() {
		component, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		components = append(components, component)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return components, nil
}

func (r *ComponentRepository) CountComponents(ctx context.Context, filter domain.ComponentFilter) (int, error) {
	where, args := filterClause(filter)
	query := `SELECT COUNT(*) FROM components c JOIN bikes b ON b.bike_id = c.bike_id` + where

	var total int
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count components: %w", err)
	}
	return total, nil
}

// UpdateComponent writes the full row. Callers load, mutate and save.
func (r *ComponentRepository) UpdateComponent(ctx context.Context, component *domain.Component) (*domain.Component, error) {
	query := `UPDATE components
		SET
			label = $1,
			position = $2,
			installed_at = $3,
			removed_at = $4,
			installed_distance = $5,
			lifespan_override = $6,
			price = $7,
			currency = $8,
			shop = $9,
			receipt_ref = $10,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $11
		RETURNING updated_at`

	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		component.Label,
		component.Position,
		component.InstalledAt,
		component.RemovedAt,
		component.InstalledDistance,
		component.LifespanOverride,
		component.Price,
		component.Currency,
		component.Shop,
		component.ReceiptRef,
		component.ID,
	).Scan(&component.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: component not found", domain.ErrNotFound)
		}
		return nil, mapWriteError(err, "component")
	}

	return component, nil
}

func (r *ComponentRepository) DeleteComponent(ctx context.Context, componentID uuid.UUID) error {
	query := `DELETE FROM components WHERE id = $1`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, componentID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: component not found", domain.ErrNotFound)
	}

	return nil
}

func filterClause(f domain.ComponentFilter) (string, []interface{}) {
	conds := []string{"c.bike_id = $1", "b.user_id = $2"}
	args := []interface{}{f.BikeID, f.OwnerID}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ActiveOnly {
		conds = append(conds, "c.removed_at IS NULL")
	}
	if f.TypeKey != "" {
		add("lower(c.type_key) = lower($%d)", f.TypeKey)
	}
	if f.Position != "" {
		add("c.position = $%d", string(f.Position))
	}
	if f.LabelLike != "" {
		add("c.label ILIKE $%d", "%"+escapeLike(f.LabelLike)+"%")
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

var sortColumns = map[domain.SortField]string{
	domain.SortInstalledAt: "c.installed_at",
	domain.SortTypeKey:     "c.type_key",
	domain.SortPosition:    "c.position",
	domain.SortLabel:       "c.label",
}

func orderClause(f domain.ComponentFilter) string {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = sortColumns[domain.SortInstalledAt]
	}
	direction := "ASC"
	if f.Desc {
		direction = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, c.id %s", column, direction, direction)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanComponent(row rowScanner) (*domain.Component, error) {
	var (
		c                                  domain.Component
		label, currency, shop, receiptRef  sql.NullString
		removedAt                          sql.NullTime
		installedDistance, lifespan, price decimal.NullDecimal
	)

	err := row.Scan(
		&c.ID,
		&c.BikeID,
		&c.TypeKey,
		&c.TypeName,
		&label,
		&c.Position,
		&c.InstalledAt,
		&removedAt,
		&installedDistance,
		&lifespan,
		&price,
		&currency,
		&shop,
		&receiptRef,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Label = nullString(label)
	c.Currency = nullString(currency)
	c.Shop = nullString(shop)
	c.ReceiptRef = nullString(receiptRef)
	if removedAt.Valid {
		t := removedAt.Time
		c.RemovedAt = &t
	}
	c.InstalledDistance = nullDecimal(installedDistance)
	c.LifespanOverride = nullDecimal(lifespan)
	c.Price = nullDecimal(price)

	return &c, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func mapWriteError(err error, entity string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23502":
			return fmt.Errorf("%w: required field is missing", domain.ErrValidation)
		case "23503":
			return fmt.Errorf("%w: bike does not exist", domain.ErrNotFound)
		case "23505":
			return fmt.Errorf("%w: %s already exists", domain.ErrConflict, entity)
		case "23514":
			return fmt.Errorf("%w: %s violates a check constraint", domain.ErrValidation, entity)
		case "22003":
			return fmt.Errorf("%w: numeric value out of range", domain.ErrValidation)
		case "22P02":
			return fmt.Errorf("%w: invalid value", domain.ErrValidation)
		}
	}
	return fmt.Errorf("error writing %s: %w", entity, err)
}
