package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tutorlane/marketpulse/pkg/models"
)

type RecommendationRepository struct {
	db *sql.DB
}

func NewRecommendationRepository(db *sql.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// ReplaceBatch swaps the stored recommendations for a market with a freshly
// generated batch. The full recommendation travels as a JSONB payload; the
// indexed columns exist for filtering and ordering only.
func (r *RecommendationRepository) ReplaceBatch(ctx context.Context, marketID string, generatedAt time.Time, recommendations []models.Recommendation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recommendations WHERE market_id = $1`, marketID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recommendations (market_id, rec_id, type, severity, priority, payload, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range recommendations {
		rec := &recommendations[i]
		payload, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		_, err = stmt.ExecContext(ctx,
			marketID, rec.ID, rec.Type, rec.Severity, rec.Priority, payload, generatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetLatest returns the stored batch ordered by priority descending.
func (r *RecommendationRepository) GetLatest(ctx context.Context, marketID string, limit int) ([]models.Recommendation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT payload
		FROM recommendations
		WHERE market_id = $1
		ORDER BY priority DESC, id ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, marketID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecommendations(rows)
}

// GetBySeverity filters the stored batch, still priority descending.
func (r *RecommendationRepository) GetBySeverity(ctx context.Context, marketID string, severity models.Severity) ([]models.Recommendation, error) {
	query := `
		SELECT payload
		FROM recommendations
		WHERE market_id = $1 AND severity = $2
		ORDER BY priority DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, marketID, severity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecommendations(rows)
}

func (r *RecommendationRepository) GetGeneratedAt(ctx context.Context, marketID string) (time.Time, error) {
	var generatedAt time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT generated_at FROM recommendations WHERE market_id = $1 ORDER BY id LIMIT 1`,
		marketID,
	).Scan(&generatedAt)

	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	return generatedAt, err
}

func scanRecommendations(rows *sql.Rows) ([]models.Recommendation, error) {
	var recommendations []models.Recommendation
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}

		var rec models.Recommendation
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, err
		}
		recommendations = append(recommendations, rec)
	}
	return recommendations, rows.Err()
}
