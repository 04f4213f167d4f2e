package models

import "time"

type EventType string

const (
	EventTypeSnapshotCollected      EventType = "snapshot_collected"
	EventTypeForecastGenerated      EventType = "forecast_generated"
	EventTypeRecommendationsUpdated EventType = "recommendations_updated"
	EventTypeAnomalyDetected        EventType = "anomaly_detected"
	EventTypeAlert                  EventType = "alert"
	EventTypeError                  EventType = "error"
)

type EventSeverity string

const (
	EventSeverityInfo     EventSeverity = "info"
	EventSeverityWarning  EventSeverity = "warning"
	EventSeverityCritical EventSeverity = "critical"
)

// Event represents an internal system event
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Severity  EventSeverity `json:"severity"`
	MarketID  string        `json:"market_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
	Data      interface{}   `json:"data,omitempty"`
	TraceID   string        `json:"trace_id,omitempty"`
}

func NewEvent(eventType EventType, marketID, message string) *Event {
	return &Event{
		ID:        NewUUID(),
		Type:      eventType,
		Severity:  EventSeverityInfo,
		MarketID:  marketID,
		Timestamp: time.Now(),
		Message:   message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}

func (e *Event) WithTraceID(traceID string) *Event {
	e.TraceID = traceID
	return e
}
