// Package benchmarks maintains the local benchmark ETF price store. Adjusted
// closes are synced from the data service and queried point-in-time by the
// backtest engine; the adjusted series already folds in splits and
// distributions, so benchmark returns are plain price returns.
package benchmarks

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// AdjClose is one adjusted-close observation.
type AdjClose struct {
	Date     time.Time
	AdjClose float64
}

// Repository reads and writes etf_prices in benchmarks.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a benchmarks repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "benchmarks").Logger(),
	}
}

// AdjCloseAsOf returns the last adjusted close <= asOf, or nil when the
// series has no observation in range.
func (r *Repository) AdjCloseAsOf(symbol string, asOf time.Time) (*float64, error) {
	row := r.db.QueryRow(
		"SELECT adj_close FROM etf_prices WHERE symbol = ? AND price_date <= ? ORDER BY price_date DESC LIMIT 1",
		normalizeSymbol(symbol), asOf.Format(dateLayout),
	)

	var adjClose float64
	err := row.Scan(&adjClose)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query adjusted close: %w", err)
	}
	return &adjClose, nil
}

// Known reports whether any price history exists for the symbol.
func (r *Repository) Known(symbol string) (bool, error) {
	row := r.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM etf_prices WHERE symbol = ?)",
		normalizeSymbol(symbol),
	)

	var known bool
	if err := row.Scan(&known); err != nil {
		return false, fmt.Errorf("failed to check benchmark history: %w", err)
	}
	return known, nil
}

// Symbols returns the benchmark symbols with stored history, sorted.
func (r *Repository) Symbols() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT symbol FROM etf_prices ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmark symbols: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan benchmark symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// LatestDate returns the most recent stored price date for a symbol, or nil
// when no history exists. The sync job resumes from here.
func (r *Repository) LatestDate(symbol string) (*time.Time, error) {
	row := r.db.QueryRow(
		"SELECT MAX(price_date) FROM etf_prices WHERE symbol = ?",
		normalizeSymbol(symbol),
	)

	var raw sql.NullString
	if err := row.Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to query latest benchmark date: %w", err)
	}
	if !raw.Valid {
		return nil, nil
	}
	date, err := time.Parse(dateLayout, raw.String)
	if err != nil {
		return nil, fmt.Errorf("invalid benchmark date %q: %w", raw.String, err)
	}
	return &date, nil
}

// Upsert stores a batch of adjusted closes for a symbol.
func (r *Repository) Upsert(symbol string, prices []AdjClose) error {
	if len(prices) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT OR REPLACE INTO etf_prices (symbol, price_date, adj_close) VALUES (?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	symbol = normalizeSymbol(symbol)
	for _, p := range prices {
		if _, err := stmt.Exec(symbol, p.Date.Format(dateLayout), p.AdjClose); err != nil {
			return fmt.Errorf("failed to upsert price for %s: %w", symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price upsert: %w", err)
	}

	r.log.Debug().Str("symbol", symbol).Int("prices", len(prices)).Msg("Upserted benchmark prices")
	return nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
