package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository persists beverages and price histories in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func priceTable(series PriceSeries) string {
	if series == SeriesSale {
		return "sale_prices"
	}
	return "purchase_prices"
}

// Beverage fetches one beverage by id.
func (r *PostgresRepository) Beverage(ctx context.Context, id string) (Beverage, error) {
	if r == nil || r.pool == nil {
		return Beverage{}, fmt.Errorf("catalog repo not initialised")
	}
	const query = `SELECT id, name, content, bottle_type FROM beverages WHERE id = $1`
	var b Beverage
	if err := r.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.Name, &b.Content, &b.BottleType); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Beverage{}, ErrBeverageNotFound
		}
		return Beverage{}, err
	}
	return b, nil
}

// Beverages lists all beverages ordered by id.
func (r *PostgresRepository) Beverages(ctx context.Context) ([]Beverage, error) {
	const query = `SELECT id, name, content, bottle_type FROM beverages ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Beverage
	for rows.Next() {
		var b Beverage
		if err := rows.Scan(&b.ID, &b.Name, &b.Content, &b.BottleType); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBeverage inserts a beverage; an existing id is left untouched.
func (r *PostgresRepository) CreateBeverage(ctx context.Context, b Beverage) error {
	const query = `
		INSERT INTO beverages (id, name, content, bottle_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, b.ID, b.Name, b.Content, string(b.BottleType))
	return err
}

// Prices returns the price history for one beverage, newest first.
func (r *PostgresRepository) Prices(ctx context.Context, series PriceSeries, beverageID string) ([]PriceRecord, error) {
	query := fmt.Sprintf(`
		SELECT beverage_id, price, deposit, valid_from
		FROM %s WHERE beverage_id = $1
		ORDER BY valid_from DESC`, priceTable(series))
	rows, err := r.pool.Query(ctx, query, beverageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceRecord
	for rows.Next() {
		var rec PriceRecord
		if err := rows.Scan(&rec.BeverageID, &rec.Price, &rec.Deposit, &rec.ValidFrom); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// InsertPrice adds one price record. The unique index on
// (beverage_id, valid_from) enforces the no-duplicate-effective-date
// invariant.
func (r *PostgresRepository) InsertPrice(ctx context.Context, series PriceSeries, rec PriceRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (beverage_id, price, deposit, valid_from)
		VALUES ($1, $2, $3, $4)`, priceTable(series))
	_, err := r.pool.Exec(ctx, query, rec.BeverageID, rec.Price, rec.Deposit, rec.ValidFrom)
	return err
}

// SetPriceValidFrom re-dates an existing record.
func (r *PostgresRepository) SetPriceValidFrom(ctx context.Context, series PriceSeries, beverageID string, oldValidFrom, newValidFrom time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET valid_from = $3
		WHERE beverage_id = $1 AND valid_from = $2`, priceTable(series))
	tag, err := r.pool.Exec(ctx, query, beverageID, oldValidFrom, newValidFrom)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPriceNotFound
	}
	return nil
}
