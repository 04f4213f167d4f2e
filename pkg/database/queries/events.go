package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tutorlane/marketpulse/pkg/models"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Insert(ctx context.Context, event *models.Event) error {
	var data []byte
	if event.Data != nil {
		var err error
		data, err = json.Marshal(event.Data)
		if err != nil {
			return err
		}
	}

	var marketID interface{}
	if event.MarketID != "" {
		marketID = event.MarketID
	}

	query := `
		INSERT INTO events (event_id, market_id, type, severity, message, data, trace_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, marketID, event.Type, event.Severity,
		event.Message, data, event.TraceID, event.Timestamp,
	)
	return err
}

type StoredEvent struct {
	ID        int64                `json:"id"`
	EventID   string               `json:"event_id"`
	MarketID  *string              `json:"market_id,omitempty"`
	Type      models.EventType     `json:"type"`
	Severity  models.EventSeverity `json:"severity"`
	Message   string               `json:"message"`
	Data      json.RawMessage      `json:"data,omitempty"`
	TraceID   *string              `json:"trace_id,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

func (r *EventRepository) GetRecent(ctx context.Context, marketID string, limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows *sql.Rows
	var err error
	if marketID == "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, event_id, market_id, type, severity, message, data, trace_id, created_at
			FROM events ORDER BY created_at DESC LIMIT $1`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, event_id, market_id, type, severity, message, data, trace_id, created_at
			FROM events WHERE market_id = $1 ORDER BY created_at DESC LIMIT $2`, marketID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		err := rows.Scan(
			&e.ID, &e.EventID, &e.MarketID, &e.Type, &e.Severity,
			&e.Message, &e.Data, &e.TraceID, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
