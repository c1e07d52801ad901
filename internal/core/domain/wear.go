package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type WearStatus string

const (
	WearOK       WearStatus = "OK"
	WearWarn     WearStatus = "WARN"
	WearCritical WearStatus = "CRITICAL"
	WearExpired  WearStatus = "EXPIRED"
)

var hundred = decimal.NewFromInt(100)

type WearMetrics struct {
	Lifespan    decimal.Decimal `json:"lifespan"`
	Used        decimal.Decimal `json:"used"`
	Remaining   decimal.Decimal `json:"remaining"`
	PercentWear int             `json:"percent_wear"`
}

type Thresholds struct {
	WarnAt     int `json:"warn_at"`
	CriticalAt int `json:"critical_at"`
}

var DefaultThresholds = Thresholds{WarnAt: 80, CriticalAt: 95}

func (t Thresholds) Validate() error {
	if t.WarnAt < 0 || t.WarnAt > 100 || t.CriticalAt < 0 || t.CriticalAt > 100 {
		return fmt.Errorf("%w: thresholds must be within 0..100", ErrValidation)
	}
	if t.WarnAt > t.CriticalAt {
		return fmt.Errorf("%w: warn threshold must not exceed critical threshold", ErrValidation)
	}
	return nil
}

// Override returns t with the non-nil request values applied.
func (t Thresholds) Override(warnAt, criticalAt *int) Thresholds {
	if warnAt != nil {
		t.WarnAt = *warnAt
	}
	if criticalAt != nil {
		t.CriticalAt = *criticalAt
	}
	return t
}

// ComputeWear derives usage from the installed and current distances. It
// returns nil when either distance is unknown or no lifespan is available.
func ComputeWear(installed, current, lifespanOverride, catalogLifespan *decimal.Decimal) *WearMetrics {
	if installed == nil || current == nil {
		return nil
	}
	lifespan := lifespanOverride
	if lifespan == nil {
		lifespan = catalogLifespan
	}
	if lifespan == nil {
		return nil
	}

	used := decimal.Max(decimal.Zero, current.Sub(*installed))
	remaining := decimal.Max(decimal.Zero, lifespan.Sub(used))

	percent := 0
	if lifespan.IsPositive() {
		// Round is half away from zero, which is half-up for non-negative values.
		// Clamp before IntPart, which wraps past int64.
		p := used.Mul(hundred).Div(*lifespan).Round(0)
		percent = int(decimal.Min(p, hundred).IntPart())
	}

	return &WearMetrics{
		Lifespan:    *lifespan,
		Used:        used,
		Remaining:   remaining,
		PercentWear: percent,
	}
}

// Classify maps metrics onto a status. A non-positive lifespan with no usage
// stays OK at 0 %; any usage against it is EXPIRED because nothing remains.
func Classify(m WearMetrics, t Thresholds) WearStatus {
	switch {
	case m.PercentWear >= 100:
		return WearExpired
	case !m.Remaining.IsPositive() && m.Used.IsPositive():
		return WearExpired
	case m.PercentWear >= t.CriticalAt:
		return WearCritical
	case m.PercentWear >= t.WarnAt:
		return WearWarn
	default:
		return WearOK
	}
}

// ComponentView is a component decorated with the derived wear data. Wear and
// Status stay nil when they cannot be computed.
type ComponentView struct {
	*Component
	State        ComponentState   `json:"state"`
	EndDistance  *decimal.Decimal `json:"end_distance,omitempty"`
	LifetimeDays int64            `json:"lifetime_days"`
	Wear         *WearMetrics     `json:"wear"`
	Status       *WearStatus      `json:"status"`
}
