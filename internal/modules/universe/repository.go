package universe

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnderlyingNotFound is returned when no record matches an ISIN
var ErrUnderlyingNotFound = errors.New("underlying not found")

const underlyingColumns = `id, isin, name, symbol, exchange, type, description, created_at`

// Repository handles underlying database operations
type Repository struct {
	universeDB *sql.DB // universe.db - underlyings table
	log        zerolog.Logger
}

// NewRepository creates a new underlying repository
func NewRepository(universeDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		universeDB: universeDB,
		log:        log.With().Str("repo", "underlying").Logger(),
	}
}

// Add inserts an underlying. A record with the same ISIN is left untouched and
// Add reports false.
func (r *Repository) Add(u *Underlying) (bool, error) {
	if err := u.Validate(); err != nil {
		return false, err
	}

	result, err := r.universeDB.Exec(`
		INSERT INTO underlyings (`+underlyingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(isin) DO NOTHING
	`, u.ID, NormalizeISIN(u.ISIN), u.Name, u.Symbol, u.Exchange, u.Type, u.Description, u.CreatedAt.Unix())
	if err != nil {
		return false, fmt.Errorf("failed to insert underlying: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		r.log.Info().Str("isin", u.ISIN).Msg("Underlying already exists")
		return false, nil
	}

	r.log.Info().Str("isin", u.ISIN).Str("name", u.Name).Msg("Underlying added")
	return true, nil
}

// Get returns the underlying for an ISIN
func (r *Repository) Get(isin string) (*Underlying, error) {
	row := r.universeDB.QueryRow("SELECT "+underlyingColumns+" FROM underlyings WHERE isin = ?", NormalizeISIN(isin))

	u, err := scanUnderlying(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnderlyingNotFound, NormalizeISIN(isin))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying: %w", err)
	}
	return u, nil
}

// GetMany returns underlyings in the order requested. Any missing ISIN fails the call.
func (r *Repository) GetMany(isins []string) ([]*Underlying, error) {
	out := make([]*Underlying, 0, len(isins))
	for _, isin := range isins {
		u, err := r.Get(isin)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// List returns every underlying ordered by ISIN
func (r *Repository) List() ([]*Underlying, error) {
	rows, err := r.universeDB.Query("SELECT " + underlyingColumns + " FROM underlyings ORDER BY isin")
	if err != nil {
		return nil, fmt.Errorf("failed to query underlyings: %w", err)
	}
	defer rows.Close()

	var out []*Underlying
	for rows.Next() {
		u, err := scanUnderlying(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan underlying: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating underlyings: %w", err)
	}
	return out, nil
}

// Remove deletes the underlying for an ISIN and reports whether one existed
func (r *Repository) Remove(isin string) (bool, error) {
	result, err := r.universeDB.Exec("DELETE FROM underlyings WHERE isin = ?", NormalizeISIN(isin))
	if err != nil {
		return false, fmt.Errorf("failed to delete underlying: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		r.log.Info().Str("isin", NormalizeISIN(isin)).Msg("Underlying removed")
	}
	return n > 0, nil
}

// Count returns the number of stored underlyings
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.universeDB.QueryRow("SELECT COUNT(*) FROM underlyings").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count underlyings: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUnderlying(s scanner) (*Underlying, error) {
	var u Underlying
	var createdAt int64
	if err := s.Scan(&u.ID, &u.ISIN, &u.Name, &u.Symbol, &u.Exchange, &u.Type, &u.Description, &createdAt); err != nil {
		return nil, err
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}
