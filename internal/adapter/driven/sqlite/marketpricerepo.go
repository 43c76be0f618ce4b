package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MarketPriceStore = (*MarketPriceRepo)(nil)

// arrivalDateLayout is the storage layout for market_prices.arrival_date.
const arrivalDateLayout = "2006-01-02"

// MarketPriceRepo is the SQLite implementation of the MarketPriceStore port interface.
type MarketPriceRepo struct {
	db *DB
}

// NewMarketPriceRepo creates a new MarketPriceRepo backed by the given DB.
func NewMarketPriceRepo(db *DB) *MarketPriceRepo {
	return &MarketPriceRepo{db: db}
}

// Upsert stores all quotes in a single transaction.
func (r *MarketPriceRepo) Upsert(ctx context.Context, prices []model.MarketPrice) error {
	if len(prices) == 0 {
		return nil
	}

	const query = `
		INSERT INTO market_prices (
			commodity, variety, state, district, market,
			min_price, max_price, modal_price, arrival_date, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(commodity, market, variety, arrival_date) DO UPDATE SET
			state = excluded.state,
			district = excluded.district,
			min_price = excluded.min_price,
			max_price = excluded.max_price,
			modal_price = excluded.modal_price,
			fetched_at = excluded.fetched_at`

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("prepare market price upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range prices {
			fetchedAt := p.FetchedAt
			if fetchedAt.IsZero() {
				fetchedAt = time.Now().UTC()
			}
			_, err := stmt.ExecContext(ctx,
				p.Commodity, p.Variety, p.State, p.District, p.Market,
				p.MinPrice, p.MaxPrice, p.ModalPrice,
				p.ArrivalDate.UTC().Format(arrivalDateLayout), formatTime(fetchedAt),
			)
			if err != nil {
				return fmt.Errorf("upsert market price %s@%s: %w", p.Commodity, p.Market, err)
			}
		}
		return nil
	})
}

// Latest returns quotes from the commodity's most recent arrival date.
func (r *MarketPriceRepo) Latest(ctx context.Context, commodity, state string) ([]model.MarketPrice, error) {
	const query = `
		SELECT id, commodity, variety, state, district, market,
		       min_price, max_price, modal_price, arrival_date, fetched_at
		FROM market_prices
		WHERE commodity = ?
		  AND (? = '' OR state = ?)
		  AND arrival_date = (
			SELECT MAX(arrival_date) FROM market_prices
			WHERE commodity = ? AND (? = '' OR state = ?)
		  )
		ORDER BY modal_price DESC, market`

	commodity = strings.TrimSpace(commodity)
	state = strings.TrimSpace(state)

	rows, err := r.db.Reader.QueryContext(ctx, query, commodity, state, state, commodity, state, state)
	if err != nil {
		return nil, fmt.Errorf("latest market prices for %s: %w", commodity, err)
	}
	defer rows.Close()

	prices := []model.MarketPrice{}
	for rows.Next() {
		var p model.MarketPrice
		var arrival, fetchedAt string
		if err := rows.Scan(
			&p.ID, &p.Commodity, &p.Variety, &p.State, &p.District, &p.Market,
			&p.MinPrice, &p.MaxPrice, &p.ModalPrice, &arrival, &fetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan market price: %w", err)
		}

		p.ArrivalDate, err = time.Parse(arrivalDateLayout, arrival)
		if err != nil {
			return nil, fmt.Errorf("parse arrival_date: %w", err)
		}
		p.FetchedAt, err = parseTime(fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("parse fetched_at: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market prices: %w", err)
	}

	return prices, nil
}

// TouchLookup records the latest lookup time for a commodity.
func (r *MarketPriceRepo) TouchLookup(ctx context.Context, commodity string, at time.Time) error {
	const query = `
		INSERT INTO commodity_lookups (commodity, last_lookup_at) VALUES (?, ?)
		ON CONFLICT(commodity) DO UPDATE SET last_lookup_at = excluded.last_lookup_at`

	if _, err := r.db.Writer.ExecContext(ctx, query, strings.TrimSpace(commodity), formatTime(at)); err != nil {
		return fmt.Errorf("touch lookup %s: %w", commodity, err)
	}
	return nil
}

// LastLookups returns the last lookup time keyed by commodity name.
func (r *MarketPriceRepo) LastLookups(ctx context.Context) (map[string]time.Time, error) {
	const query = `SELECT commodity, last_lookup_at FROM commodity_lookups`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list commodity lookups: %w", err)
	}
	defer rows.Close()

	lookups := make(map[string]time.Time)
	for rows.Next() {
		var commodity, at string
		if err := rows.Scan(&commodity, &at); err != nil {
			return nil, fmt.Errorf("scan commodity lookup: %w", err)
		}
		t, err := parseTime(at)
		if err != nil {
			return nil, fmt.Errorf("parse last_lookup_at: %w", err)
		}
		lookups[commodity] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commodity lookups: %w", err)
	}

	return lookups, nil
}
