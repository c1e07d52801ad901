package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Position string

const (
	PositionFront Position = "FRONT"
	PositionRear  Position = "REAR"
	PositionLeft  Position = "LEFT"
	PositionRight Position = "RIGHT"
	PositionAny   Position = "ANY"
)

// ParsePosition accepts any letter case; an empty string yields REAR.
func ParsePosition(raw string) (Position, error) {
	if strings.TrimSpace(raw) == "" {
		return PositionRear, nil
	}
	p := Position(strings.ToUpper(strings.TrimSpace(raw)))
	switch p {
	case PositionFront, PositionRear, PositionLeft, PositionRight, PositionAny:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown position %q", ErrValidation, raw)
}

// ComponentState is derived from RemovedAt; see Component.State.
type ComponentState string

const (
	StateActive  ComponentState = "ACTIVE"
	StateRemoved ComponentState = "REMOVED"
)

type Component struct {
	ID                uuid.UUID        `json:"id"`
	BikeID            uuid.UUID        `json:"bike_id" validate:"required"`
	TypeKey           string           `json:"type_key" validate:"required,max=64"`
	TypeName          string           `json:"type_name" validate:"max=128"`
	Label             *string          `json:"label,omitempty" validate:"omitempty,max=200"`
	Position          Position         `json:"position" validate:"required,oneof=FRONT REAR LEFT RIGHT ANY"`
	InstalledAt       time.Time        `json:"installed_at" validate:"required"`
	RemovedAt         *time.Time       `json:"removed_at,omitempty"`
	InstalledDistance *decimal.Decimal `json:"installed_distance,omitempty"`
	LifespanOverride  *decimal.Decimal `json:"lifespan_override,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	Currency          *string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	Shop              *string          `json:"shop,omitempty" validate:"omitempty,max=200"`
	ReceiptRef        *string          `json:"receipt_ref,omitempty" validate:"omitempty,max=500"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (c *Component) State() ComponentState {
	if c.RemovedAt != nil {
		return StateRemoved
	}
	return StateActive
}

func (c *Component) IsActive() bool {
	return c.State() == StateActive
}

// CheckInvariants validates the numeric and temporal rules the store relies on.
func (c *Component) CheckInvariants() error {
	if c.RemovedAt != nil && c.RemovedAt.Before(c.InstalledAt) {
		return fmt.Errorf("%w: removed_at must not precede installed_at", ErrValidation)
	}
	if err := NonNegative("installed_distance", c.InstalledDistance); err != nil {
		return err
	}
	if err := NonNegative("lifespan_override", c.LifespanOverride); err != nil {
		return err
	}
	return NonNegative("price", c.Price)
}

// NonNegative rejects a present negative value; nil passes.
func NonNegative(field string, d *decimal.Decimal) error {
	if d != nil && d.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", ErrValidation, field)
	}
	return nil
}

// LifetimeDays counts whole days from installation to removal, or to now for
// active components.
func (c *Component) LifetimeDays(now time.Time) int64 {
	end := now
	if c.RemovedAt != nil {
		end = *c.RemovedAt
	}
	if end.Before(c.InstalledAt) {
		return 0
	}
	return int64(end.Sub(c.InstalledAt) / (24 * time.Hour))
}

// ComponentOverrides are the caller-supplied values that take precedence over
// the inherited ones when a component is replaced.
type ComponentOverrides struct {
	Label            *string
	Price            *decimal.Decimal
	Currency         *string
	LifespanOverride *decimal.Decimal
	Shop             *string
	ReceiptRef       *string
}

// Successor builds the replacement for c, installed at the given moment and
// distance. Type, bike and position are inherited.
func (c *Component) Successor(at time.Time, installedDistance *decimal.Decimal, o ComponentOverrides) *Component {
	return &Component{
		ID:                uuid.New(),
		BikeID:            c.BikeID,
		TypeKey:           c.TypeKey,
		TypeName:          c.TypeName,
		Label:             firstString(o.Label, c.Label),
		Position:          c.Position,
		InstalledAt:       at,
		InstalledDistance: installedDistance,
		LifespanOverride:  firstDecimal(o.LifespanOverride, c.LifespanOverride),
		Price:             firstDecimal(o.Price, c.Price),
		Currency:          firstString(o.Currency, c.Currency),
		Shop:              firstString(o.Shop, c.Shop),
		ReceiptRef:        firstString(o.ReceiptRef, c.ReceiptRef),
	}
}

func firstString(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstDecimal(vals ...*decimal.Decimal) *decimal.Decimal {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// ComponentFilter drives list and page queries. BikeID and OwnerID are always
// applied together.
type ComponentFilter struct {
	BikeID     uuid.UUID
	OwnerID    uuid.UUID
	ActiveOnly bool
	TypeKey    string
	Position   Position
	LabelLike  string
	SortBy     SortField
	Desc       bool
	Limit      int
	Offset     int
}

type SortField string

const (
	SortInstalledAt SortField = "installedAt"
	SortTypeKey     SortField = "typeKey"
	SortPosition    SortField = "position"
	SortLabel       SortField = "label"
)

// ParseSort reads "field,DIR". Unknown fields fall back to installedAt and the
// direction defaults to DESC.
func ParseSort(raw string) (SortField, bool) {
	if strings.TrimSpace(raw) == "" {
		return SortInstalledAt, true
	}
	parts := strings.SplitN(raw, ",", 2)
	field := SortInstalledAt
	switch strings.ToLower(strings.TrimSpace(parts[0])) {
	case "typekey":
		field = SortTypeKey
	case "position":
		field = SortPosition
	case "label":
		field = SortLabel
	}
	desc := true
	if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[1]), "ASC") {
		desc = false
	}
	return field, desc
}

func (f SortField) String() string { return string(f) }
