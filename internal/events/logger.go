package events

import (
	"context"

	"github.com/tutorlane/marketpulse/internal/logger"
	"github.com/tutorlane/marketpulse/pkg/database"
	"github.com/tutorlane/marketpulse/pkg/database/queries"
	"github.com/tutorlane/marketpulse/pkg/models"
)

// EventLogger drains the bus, mirrors every event into the structured log
// and persists an audit row for each one.
type EventLogger struct {
	events    *queries.EventRepository
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewEventLogger(db *database.DB, eventChan <-chan *models.Event) *EventLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventLogger{
		events:    queries.NewEventRepository(db.DB),
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (l *EventLogger) Start() {
	go l.run()
}

func (l *EventLogger) Stop() {
	l.cancel()
}

func (l *EventLogger) run() {
	for {
		select {
		case <-l.ctx.Done():
			return
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		}
	}
}

func (l *EventLogger) processEvent(event *models.Event) {
	entry := logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"market_id":  event.MarketID,
		"severity":   event.Severity,
		"trace_id":   event.TraceID,
	})

	switch event.Severity {
	case models.EventSeverityCritical:
		entry.Error(event.Message)
	case models.EventSeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}

	if err := l.events.Insert(l.ctx, event); err != nil {
		logger.Errorf("Failed to persist event: %v", err)
	}
}
