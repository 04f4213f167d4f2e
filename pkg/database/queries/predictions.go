package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/tutorlane/marketpulse/pkg/models"
)

type PredictionRepository struct {
	db *sql.DB
}

func NewPredictionRepository(db *sql.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// ReplaceForecast drops the previous forecast for the market and stores the
// new batch in one transaction, so readers never see a half-written horizon.
func (r *PredictionRepository) ReplaceForecast(ctx context.Context, marketID string, predictions []models.Prediction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM predictions WHERE market_id = $1`, marketID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO predictions
			(market_id, time, hour, day_of_week, predicted_volume, predicted_available,
			 predicted_ratio, confidence, imbalance_risk, lower_bound, upper_bound)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range predictions {
		p := &predictions[i]
		_, err := stmt.ExecContext(ctx,
			marketID, p.Timestamp, p.Hour, p.DayOfWeek,
			p.PredictedVolume, p.PredictedAvailable, p.PredictedRatio,
			p.Confidence, p.ImbalanceRisk, p.LowerBound, p.UpperBound,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetForecast returns the stored forecast ascending by time.
func (r *PredictionRepository) GetForecast(ctx context.Context, marketID string) ([]models.Prediction, error) {
	query := `
		SELECT id, market_id, time, hour, day_of_week, predicted_volume, predicted_available,
		       predicted_ratio, confidence, imbalance_risk, lower_bound, upper_bound
		FROM predictions
		WHERE market_id = $1
		ORDER BY time ASC`

	rows, err := r.db.QueryContext(ctx, query, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// GetAtRisk returns high and critical hours in the stored forecast.
func (r *PredictionRepository) GetAtRisk(ctx context.Context, marketID string) ([]models.Prediction, error) {
	query := `
		SELECT id, market_id, time, hour, day_of_week, predicted_volume, predicted_available,
		       predicted_ratio, confidence, imbalance_risk, lower_bound, upper_bound
		FROM predictions
		WHERE market_id = $1 AND imbalance_risk IN ($2, $3)
		ORDER BY time ASC`

	rows, err := r.db.QueryContext(ctx, query, marketID, models.RiskHigh, models.RiskCritical)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPredictions(rows)
}

func (r *PredictionRepository) GetRange(ctx context.Context, marketID string, from, to time.Time) ([]models.Prediction, error) {
	query := `
		SELECT id, market_id, time, hour, day_of_week, predicted_volume, predicted_available,
		       predicted_ratio, confidence, imbalance_risk, lower_bound, upper_bound
		FROM predictions
		WHERE market_id = $1 AND time >= $2 AND time <= $3
		ORDER BY time ASC`

	rows, err := r.db.QueryContext(ctx, query, marketID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPredictions(rows)
}

func scanPredictions(rows *sql.Rows) ([]models.Prediction, error) {
	var predictions []models.Prediction
	for rows.Next() {
		var p models.Prediction
		err := rows.Scan(
			&p.ID, &p.MarketID, &p.Timestamp, &p.Hour, &p.DayOfWeek,
			&p.PredictedVolume, &p.PredictedAvailable, &p.PredictedRatio,
			&p.Confidence, &p.ImbalanceRisk, &p.LowerBound, &p.UpperBound,
		)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}
