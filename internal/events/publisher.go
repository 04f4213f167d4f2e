package events

import (
	"github.com/tutorlane/marketpulse/pkg/models"
)

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) SnapshotCollected(marketID string, record *models.HistoricalRecord) {
	event := models.NewEvent(models.EventTypeSnapshotCollected, marketID, "Snapshot collected").
		WithData(record)
	p.publish(event)
}

func (p *Publisher) ForecastGenerated(marketID string, predictions []models.Prediction) {
	event := models.NewEvent(models.EventTypeForecastGenerated, marketID, "Forecast generated").
		WithData(predictions)

	for i := range predictions {
		if predictions[i].ImbalanceRisk == models.RiskCritical {
			event.WithSeverity(models.EventSeverityCritical)
			break
		}
		if predictions[i].ImbalanceRisk == models.RiskHigh {
			event.WithSeverity(models.EventSeverityWarning)
		}
	}

	p.publish(event)
}

func (p *Publisher) RecommendationsUpdated(marketID string, summary models.RecommendationSummary) {
	event := models.NewEvent(models.EventTypeRecommendationsUpdated, marketID, "Recommendations updated").
		WithData(summary)

	if summary.BySeverity[models.SeverityCritical] > 0 {
		event.WithSeverity(models.EventSeverityCritical)
	} else if summary.BySeverity[models.SeverityHigh] > 0 {
		event.WithSeverity(models.EventSeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) AnomalyDetected(marketID string, result *models.AnomalyResult) {
	event := models.NewEvent(models.EventTypeAnomalyDetected, marketID, "Anomaly detected in demand series").
		WithSeverity(models.EventSeverityWarning).
		WithData(result)
	p.publish(event)
}

func (p *Publisher) Alert(marketID string, severity models.EventSeverity, message string, data interface{}) {
	event := models.NewEvent(models.EventTypeAlert, marketID, message).
		WithSeverity(severity).
		WithData(data)
	p.publish(event)
}

func (p *Publisher) Error(marketID string, message string, err error) {
	event := models.NewEvent(models.EventTypeError, marketID, message).
		WithSeverity(models.EventSeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
