package queries

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tutorlane/marketpulse/pkg/models"
)

var ErrMarketNotFound = errors.New("market not found")

type MarketRepository struct {
	db *sql.DB
}

func NewMarketRepository(db *sql.DB) *MarketRepository {
	return &MarketRepository{db: db}
}

func (r *MarketRepository) Create(ctx context.Context, market *models.Market) error {
	configJSON, err := market.ConfigJSON()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO markets (id, name, subject, status, config, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.ExecContext(ctx, query,
		market.ID, market.Name, market.Subject, market.Status,
		configJSON, market.UserID, market.CreatedAt, market.UpdatedAt,
	)
	return err
}

func (r *MarketRepository) GetByID(ctx context.Context, id string) (*models.Market, error) {
	query := `
		SELECT id, name, subject, status, config, user_id, created_at, updated_at
		FROM markets WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *MarketRepository) GetByName(ctx context.Context, name string) (*models.Market, error) {
	query := `
		SELECT id, name, subject, status, config, user_id, created_at, updated_at
		FROM markets WHERE name = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, name))
}

func (r *MarketRepository) List(ctx context.Context) ([]*models.Market, error) {
	query := `
		SELECT id, name, subject, status, config, user_id, created_at, updated_at
		FROM markets ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markets []*models.Market
	for rows.Next() {
		market, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		markets = append(markets, market)
	}

	return markets, rows.Err()
}

func (r *MarketRepository) ListActive(ctx context.Context) ([]*models.Market, error) {
	query := `
		SELECT id, name, subject, status, config, user_id, created_at, updated_at
		FROM markets WHERE status = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, models.MarketStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markets []*models.Market
	for rows.Next() {
		market, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		markets = append(markets, market)
	}

	return markets, rows.Err()
}

func (r *MarketRepository) UpdateStatus(ctx context.Context, id string, status models.MarketStatus) error {
	query := `UPDATE markets SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMarketNotFound
	}

	return nil
}

func (r *MarketRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM markets WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMarketNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *MarketRepository) scanOne(row *sql.Row) (*models.Market, error) {
	market, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrMarketNotFound
	}
	return market, err
}

func (r *MarketRepository) scanRow(scanner rowScanner) (*models.Market, error) {
	var market models.Market
	var configJSON []byte

	err := scanner.Scan(
		&market.ID, &market.Name, &market.Subject, &market.Status,
		&configJSON, &market.UserID, &market.CreatedAt, &market.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := market.ParseConfig(configJSON); err != nil {
		return nil, err
	}

	return &market, nil
}
