// Package universe maintains the sector membership dataset backing the
// backtest engine: which symbols belong to which GICS-style sector.
package universe

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Repository reads and writes sector membership in universe.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a universe repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "universe").Logger(),
	}
}

// SectorSymbols returns the symbols belonging to a sector, sorted. An unknown
// sector returns an empty slice, not an error. Sector names match
// case-insensitively so "technology" and "Technology" address the same
// universe.
func (r *Repository) SectorSymbols(sector string) ([]string, error) {
	rows, err := r.db.Query(
		"SELECT symbol FROM sector_members WHERE LOWER(sector) = LOWER(?) ORDER BY symbol",
		strings.TrimSpace(sector),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sector members: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan sector member: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// Sectors returns all known sector names, sorted.
func (r *Repository) Sectors() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT sector FROM sector_members ORDER BY sector")
	if err != nil {
		return nil, fmt.Errorf("failed to query sectors: %w", err)
	}
	defer rows.Close()

	sectors := []string{}
	for rows.Next() {
		var sector string
		if err := rows.Scan(&sector); err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		sectors = append(sectors, sector)
	}
	return sectors, rows.Err()
}

// ReplaceSector swaps a sector's membership atomically. Used by the
// membership sync to apply a fresh constituents list.
func (r *Repository) ReplaceSector(sector string, symbols []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sector_members WHERE LOWER(sector) = LOWER(?)", sector); err != nil {
		return fmt.Errorf("failed to clear sector %s: %w", sector, err)
	}
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO sector_members (sector, symbol) VALUES (?, ?)",
			sector, symbol,
		); err != nil {
			return fmt.Errorf("failed to insert member %s: %w", symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sector replacement: %w", err)
	}

	r.log.Info().Str("sector", sector).Int("symbols", len(symbols)).Msg("Replaced sector membership")
	return nil
}
