package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComponentRef is the (component, bike, owner) triple every operation is
// resolved against.
type ComponentRef struct {
	ComponentID uuid.UUID
	BikeID      uuid.UUID
	OwnerID     uuid.UUID
}

type InstallRequest struct {
	TypeKey           string           `validate:"required,max=64"`
	Label             *string          `validate:"omitempty,max=200"`
	Position          string           `validate:"omitempty,oneof=FRONT REAR LEFT RIGHT ANY front rear left right any"`
	InstalledAt       *time.Time
	InstalledDistance *decimal.Decimal
	LifespanOverride  *decimal.Decimal
	Price             *decimal.Decimal
	Currency          *string `validate:"omitempty,len=3"`
	Shop              *string `validate:"omitempty,max=200"`
	ReceiptRef        *string `validate:"omitempty,max=500"`
}

// ComponentUpdate carries attribute edits. Nil fields are left untouched.
// Installation data is changed through the lifecycle service instead.
type ComponentUpdate struct {
	Label            *string `validate:"omitempty,max=200"`
	Position         *string `validate:"omitempty,oneof=FRONT REAR LEFT RIGHT ANY front rear left right any"`
	LifespanOverride *decimal.Decimal
	Price            *decimal.Decimal
	Currency         *string `validate:"omitempty,len=3"`
	Shop             *string `validate:"omitempty,max=200"`
	ReceiptRef       *string `validate:"omitempty,max=500"`
}

// ViewOptions tune how wear is derived for read paths. CurrentDistance only
// applies to active components.
type ViewOptions struct {
	CurrentDistance *decimal.Decimal
	WarnAt          *int
	CriticalAt      *int
}

type ComponentPage struct {
	Content       []*ComponentView `json:"content"`
	Page          int              `json:"page"`
	Size          int              `json:"size"`
	TotalElements int              `json:"total_elements"`
	TotalPages    int              `json:"total_pages"`
	Sort          string           `json:"sort"`
}
