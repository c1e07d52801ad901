package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OdometerRepository reads daily cumulative distances. Ingestion happens
// elsewhere; this side never writes.
type OdometerRepository struct {
	db *sql.DB
}

func NewOdometerRepository(db *sql.DB) *OdometerRepository {
	return &OdometerRepository{db: db}
}

func (r *OdometerRepository) FindLatestDistance(ctx context.Context, bikeID uuid.UUID) (*decimal.Decimal, error) {
	query := `SELECT distance FROM odometer_readings
		WHERE bike_id = $1
		ORDER BY reading_date DESC
		LIMIT 1`

	return r.distance(ctx, query, bikeID)
}

// FindDistanceAtOrBefore compares calendar dates, so any time of day on the
// given date matches that day's reading.
func (r *OdometerRepository) FindDistanceAtOrBefore(ctx context.Context, bikeID uuid.UUID, date time.Time) (*decimal.Decimal, error) {
	query := `SELECT distance FROM odometer_readings
		WHERE bike_id = $1 AND reading_date <= $2::date
		ORDER BY reading_date DESC
		LIMIT 1`

	return r.distance(ctx, query, bikeID, date.UTC().Format("2006-01-02"))
}

func (r *OdometerRepository) distance(ctx context.Context, query string, args ...interface{}) (*decimal.Decimal, error) {
	var d decimal.Decimal
	err := conn(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read odometer: %w", err)
	}
	return &d, nil
}
