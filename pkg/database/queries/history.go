package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/tutorlane/marketpulse/pkg/models"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Insert upserts one hourly record. Re-ingesting the same hour overwrites
// the previous observation.
func (r *HistoryRepository) Insert(ctx context.Context, marketID string, record *models.HistoricalRecord) error {
	query := `
		INSERT INTO market_history
			(market_id, time, hour, day_of_week, session_volume, available_tutors, active_tutors, supply_demand_ratio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (market_id, time) DO UPDATE SET
			session_volume = EXCLUDED.session_volume,
			available_tutors = EXCLUDED.available_tutors,
			active_tutors = EXCLUDED.active_tutors,
			supply_demand_ratio = EXCLUDED.supply_demand_ratio`

	_, err := r.db.ExecContext(ctx, query,
		marketID, record.Timestamp, record.Hour, record.DayOfWeek,
		record.SessionVolume, record.AvailableTutors, record.ActiveTutors,
		record.SupplyDemandRatio,
	)
	return err
}

func (r *HistoryRepository) InsertBatch(ctx context.Context, marketID string, records []models.HistoricalRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO market_history
			(market_id, time, hour, day_of_week, session_volume, available_tutors, active_tutors, supply_demand_ratio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (market_id, time) DO UPDATE SET
			session_volume = EXCLUDED.session_volume,
			available_tutors = EXCLUDED.available_tutors,
			active_tutors = EXCLUDED.active_tutors,
			supply_demand_ratio = EXCLUDED.supply_demand_ratio`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		_, err := stmt.ExecContext(ctx,
			marketID, rec.Timestamp, rec.Hour, rec.DayOfWeek,
			rec.SessionVolume, rec.AvailableTutors, rec.ActiveTutors,
			rec.SupplyDemandRatio,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRange returns records between from and to inclusive, ascending by time.
// The forecaster depends on that ordering.
func (r *HistoryRepository) GetRange(ctx context.Context, marketID string, from, to time.Time) ([]models.HistoricalRecord, error) {
	query := `
		SELECT time, hour, day_of_week, session_volume, available_tutors, active_tutors, supply_demand_ratio
		FROM market_history
		WHERE market_id = $1 AND time >= $2 AND time <= $3
		ORDER BY time ASC`

	rows, err := r.db.QueryContext(ctx, query, marketID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistory(rows)
}

// GetRecent returns the latest limit records, ascending by time.
func (r *HistoryRepository) GetRecent(ctx context.Context, marketID string, limit int) ([]models.HistoricalRecord, error) {
	if limit <= 0 {
		limit = 168
	}

	query := `
		SELECT time, hour, day_of_week, session_volume, available_tutors, active_tutors, supply_demand_ratio
		FROM (
			SELECT time, hour, day_of_week, session_volume, available_tutors, active_tutors, supply_demand_ratio
			FROM market_history
			WHERE market_id = $1
			ORDER BY time DESC
			LIMIT $2
		) recent
		ORDER BY time ASC`

	rows, err := r.db.QueryContext(ctx, query, marketID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistory(rows)
}

func (r *HistoryRepository) GetLatest(ctx context.Context, marketID string) (*models.HistoricalRecord, error) {
	query := `
		SELECT time, hour, day_of_week, session_volume, available_tutors, active_tutors, supply_demand_ratio
		FROM market_history
		WHERE market_id = $1
		ORDER BY time DESC
		LIMIT 1`

	var rec models.HistoricalRecord
	err := r.db.QueryRowContext(ctx, query, marketID).Scan(
		&rec.Timestamp, &rec.Hour, &rec.DayOfWeek,
		&rec.SessionVolume, &rec.AvailableTutors, &rec.ActiveTutors,
		&rec.SupplyDemandRatio,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func (r *HistoryRepository) DeleteOlderThan(ctx context.Context, marketID string, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM market_history WHERE market_id = $1 AND time < $2`,
		marketID, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanHistory(rows *sql.Rows) ([]models.HistoricalRecord, error) {
	var records []models.HistoricalRecord
	for rows.Next() {
		var rec models.HistoricalRecord
		err := rows.Scan(
			&rec.Timestamp, &rec.Hour, &rec.DayOfWeek,
			&rec.SessionVolume, &rec.AvailableTutors, &rec.ActiveTutors,
			&rec.SupplyDemandRatio,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
