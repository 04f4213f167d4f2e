package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorlane/marketpulse/pkg/models"
)

func receiveEvent(t *testing.T, ch <-chan *models.Event) *models.Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventBus_SubscribeByType(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	forecasts := bus.Subscribe(models.EventTypeForecastGenerated)

	bus.Publish(models.NewEvent(models.EventTypeAnomalyDetected, "algebra", "spike"))
	bus.Publish(models.NewEvent(models.EventTypeForecastGenerated, "algebra", "forecast ready"))

	event := receiveEvent(t, forecasts)
	assert.Equal(t, models.EventTypeForecastGenerated, event.Type)
	assert.Equal(t, "algebra", event.MarketID)

	// The anomaly event never reached this subscriber.
	select {
	case extra := <-forecasts:
		t.Fatalf("unexpected event: %s", extra.Type)
	default:
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	all := bus.SubscribeAll()

	types := []models.EventType{
		models.EventTypeSnapshotCollected,
		models.EventTypeForecastGenerated,
		models.EventTypeRecommendationsUpdated,
		models.EventTypeAnomalyDetected,
		models.EventTypeAlert,
		models.EventTypeError,
	}
	for _, eventType := range types {
		bus.Publish(models.NewEvent(eventType, "algebra", "test"))
	}

	for _, expected := range types {
		event := receiveEvent(t, all)
		assert.Equal(t, expected, event.Type)
	}
}

func TestEventBus_DropsWhenSubscriberFull(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	alerts := bus.Subscribe(models.EventTypeAlert)

	// Second publish must not block even though the buffer is full.
	bus.Publish(models.NewEvent(models.EventTypeAlert, "algebra", "first"))
	bus.Publish(models.NewEvent(models.EventTypeAlert, "algebra", "second"))

	event := receiveEvent(t, alerts)
	assert.Equal(t, "first", event.Message)
}

func TestEventBus_Close(t *testing.T) {
	bus := NewEventBus(10)

	typed := bus.Subscribe(models.EventTypeAlert)
	all := bus.SubscribeAll()

	bus.Close()

	_, ok := <-typed
	assert.False(t, ok)
	_, ok = <-all
	assert.False(t, ok)

	// Publishing and closing again after Close are no-ops.
	bus.Publish(models.NewEvent(models.EventTypeAlert, "algebra", "late"))
	bus.Close()
}

func TestEventBus_DefaultBufferSize(t *testing.T) {
	bus := NewEventBus(0)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeAlert)
	require.Equal(t, 100, cap(ch))
}
