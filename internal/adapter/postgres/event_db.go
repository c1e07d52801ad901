package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventRepository is insert-only apart from PurgeComponent.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) RecordEvent(ctx context.Context, event *domain.ComponentEvent) error {
	query := `INSERT INTO component_events (id, component_id, bike_id, user_id, event_type, at, distance)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING recorded_at`

	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		event.ID,
		event.ComponentID,
		event.BikeID,
		event.UserID,
		event.Type,
		event.At,
		event.Distance,
	).Scan(&event.RecordedAt)
	if err != nil {
		return mapWriteError(err, "component event")
	}
	return nil
}

// History lists events oldest first. Ownership is re-checked through the
// bikes join.
func (r *EventRepository) History(ctx context.Context, ref domain.ComponentRef) ([]*domain.ComponentEvent, error) {
	query := `SELECT e.id, e.component_id, e.bike_id, e.user_id, e.event_type, e.at, e.distance, e.recorded_at
		FROM component_events e
		JOIN bikes b ON b.bike_id = e.bike_id
		WHERE e.component_id = $1 AND e.bike_id = $2 AND b.user_id = $3
		ORDER BY e.at ASC, e.recorded_at ASC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, ref.ComponentID, ref.BikeID, ref.OwnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.ComponentEvent, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepository) LatestEvent(ctx context.Context, componentID uuid.UUID, eventType domain.EventType) (*domain.ComponentEvent, error) {
	query := `SELECT id, component_id, bike_id, user_id, event_type, at, distance, recorded_at
		FROM component_events
		WHERE component_id = $1 AND event_type = $2
		ORDER BY at DESC, recorded_at DESC
		LIMIT 1`

	event, err := scanEvent(conn(ctx, r.db).QueryRowContext(ctx, query, componentID, eventType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no %s event", domain.ErrNotFound, eventType)
		}
		return nil, fmt.Errorf("failed to get latest event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) PurgeComponent(ctx context.Context, componentID uuid.UUID) (int64, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM component_events WHERE component_id = $1`, componentID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge component history: %w", err)
	}
	return result.RowsAffected()
}

func scanEvent(row rowScanner) (*domain.ComponentEvent, error) {
	var (
		event    domain.ComponentEvent
		distance decimal.NullDecimal
	)
	err := row.Scan(
		&event.ID,
		&event.ComponentID,
		&event.BikeID,
		&event.UserID,
		&event.Type,
		&event.At,
		&distance,
		&event.RecordedAt,
	)
	if err != nil {
		return nil, err
	}
	event.Distance = nullDecimal(distance)
	return &event, nil
}
