package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bike is the slice of the bike record the component service needs to
// resolve ownership. Bike CRUD lives in a separate service.
type Bike struct {
	UserID    uuid.UUID `json:"user_id"`
	BikeID    uuid.UUID `json:"bike_id"`
	BikeName  string    `json:"bike_name"`
	Type      BikeType  `json:"type"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BikeType string

const (
	BMX  BikeType = "bmx"
	MTB  BikeType = "mtb"
	Road BikeType = "road"
)

type ComponentType struct {
	Key                    string           `json:"key"`
	Name                   string           `json:"name"`
	Unit                   string           `json:"unit"`
	DefaultLifespan        *decimal.Decimal `json:"default_lifespan,omitempty"`
	DefaultServiceInterval *decimal.Decimal `json:"default_service_interval,omitempty"`
}
