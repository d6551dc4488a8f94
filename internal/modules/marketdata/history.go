// Package marketdata stores daily closes and derives realized volatility from them.
package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/mcpricer/internal/database"
	"github.com/aristath/mcpricer/internal/domain"
)

// DailyClose is one closing price
type DailyClose struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}

// HistoryRepository provides access to historical closes
type HistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// AddCloses upserts closes for an ISIN in a single transaction
func (h *HistoryRepository) AddCloses(isin string, closes []DailyClose) error {
	for _, c := range closes {
		if _, err := time.Parse(time.DateOnly, c.Date); err != nil {
			return fmt.Errorf("%w: invalid date %q", domain.ErrInvalidConfig, c.Date)
		}
		if !(c.Close > 0) {
			return fmt.Errorf("%w: close on %s must be positive", domain.ErrInvalidConfig, c.Date)
		}
	}

	err := database.WithTransaction(h.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO daily_prices (isin, date, close) VALUES (?, ?, ?)
			ON CONFLICT(isin, date) DO UPDATE SET close = excluded.close
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range closes {
			if _, err := stmt.Exec(isin, c.Date, c.Close); err != nil {
				return fmt.Errorf("failed to insert close for %s: %w", c.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.log.Debug().Str("isin", isin).Int("count", len(closes)).Msg("Stored daily closes")
	return nil
}

// GetCloses returns up to limit most recent closes in chronological order.
// limit <= 0 returns the full history.
func (h *HistoryRepository) GetCloses(isin string, limit int) ([]DailyClose, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := h.db.Query(`
		SELECT date, close
		FROM daily_prices
		WHERE isin = ?
		ORDER BY date DESC
		LIMIT ?
	`, isin, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var closes []DailyClose
	for rows.Next() {
		var c DailyClose
		if err := rows.Scan(&c.Date, &c.Close); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		closes = append(closes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	// oldest first
	for i, j := 0, len(closes)-1; i < j; i, j = i+1, j-1 {
		closes[i], closes[j] = closes[j], closes[i]
	}
	return closes, nil
}
