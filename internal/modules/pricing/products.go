package pricing

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/mcpricer/internal/modules/payoff"
)

// ErrProductNotFound is returned when no product matches an id
var ErrProductNotFound = errors.New("product not found")

// Product is a saved pricing request
type Product struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Request   PricingRequest `json:"request"`
	CreatedAt time.Time      `json:"created_at"`
}

// ValuationRecord is one stored revaluation of a product
type ValuationRecord struct {
	ID         string             `json:"id"`
	ProductID  string             `json:"product_id"`
	ValuedAt   time.Time          `json:"valued_at"`
	Paths      int                `json:"paths"`
	DurationMs int64              `json:"duration_ms"`
	Results    []payoff.Valuation `json:"results"`
}

// storedValuation is the msgpack layout of one valuation
type storedValuation struct {
	Date      int64   `msgpack:"d"`
	Requested int64   `msgpack:"r"`
	Price     float64 `msgpack:"p"`
	Std       float64 `msgpack:"s"`
}

// ProductRepository handles product and valuation persistence
type ProductRepository struct {
	pricingDB *sql.DB // pricing.db - products and valuations tables
	log       zerolog.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(pricingDB *sql.DB, log zerolog.Logger) *ProductRepository {
	return &ProductRepository{
		pricingDB: pricingDB,
		log:       log.With().Str("repo", "product").Logger(),
	}
}

// Create stores a new product
func (r *ProductRepository) Create(name string, req *PricingRequest) (*Product, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pricing request: %w", err)
	}

	p := &Product{
		ID:        uuid.New().String(),
		Name:      name,
		Request:   *req,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	_, err = r.pricingDB.Exec(
		"INSERT INTO products (id, name, request, created_at) VALUES (?, ?, ?, ?)",
		p.ID, p.Name, string(body), p.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	r.log.Info().Str("product_id", p.ID).Str("name", name).Msg("Product saved")
	return p, nil
}

// Get returns a product by id
func (r *ProductRepository) Get(id string) (*Product, error) {
	row := r.pricingDB.QueryRow("SELECT id, name, request, created_at FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// List returns all products, oldest first
func (r *ProductRepository) List() ([]*Product, error) {
	rows, err := r.pricingDB.Query("SELECT id, name, request, created_at FROM products ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return out, nil
}

// AddValuation records a pricing result against a product
func (r *ProductRepository) AddValuation(productID string, result *PricingResult) (*ValuationRecord, error) {
	rec := &ValuationRecord{
		ID:         uuid.New().String(),
		ProductID:  productID,
		ValuedAt:   time.Now().UTC(),
		Paths:      result.Paths,
		DurationMs: result.DurationMs,
		Results:    result.Valuations,
	}

	stored := make([]storedValuation, len(rec.Results))
	for i, v := range rec.Results {
		stored[i] = storedValuation{
			Date:      v.Date.Unix(),
			Requested: v.Requested.Unix(),
			Price:     v.Price,
			Std:       v.Std,
		}
	}
	blob, err := msgpack.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode valuation results: %w", err)
	}

	_, err = r.pricingDB.Exec(`
		INSERT INTO valuations (id, product_id, valued_at, paths, duration_ms, results)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, productID, rec.ValuedAt.UnixMilli(), rec.Paths, rec.DurationMs, blob)
	if err != nil {
		return nil, fmt.Errorf("failed to insert valuation: %w", err)
	}

	return rec, nil
}

// GetValuations returns up to limit most recent valuations of a product, newest first.
// limit <= 0 returns all of them.
func (r *ProductRepository) GetValuations(productID string, limit int) ([]*ValuationRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.pricingDB.Query(`
		SELECT id, product_id, valued_at, paths, duration_ms, results
		FROM valuations
		WHERE product_id = ?
		ORDER BY valued_at DESC
		LIMIT ?
	`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query valuations: %w", err)
	}
	defer rows.Close()

	var out []*ValuationRecord
	for rows.Next() {
		var rec ValuationRecord
		var valuedAt int64
		var blob []byte
		if err := rows.Scan(&rec.ID, &rec.ProductID, &valuedAt, &rec.Paths, &rec.DurationMs, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan valuation: %w", err)
		}
		rec.ValuedAt = time.UnixMilli(valuedAt).UTC()

		var stored []storedValuation
		if err := msgpack.Unmarshal(blob, &stored); err != nil {
			return nil, fmt.Errorf("failed to decode valuation %s: %w", rec.ID, err)
		}
		rec.Results = make([]payoff.Valuation, len(stored))
		for i, sv := range stored {
			rec.Results[i] = payoff.Valuation{
				Date:      time.Unix(sv.Date, 0).UTC(),
				Requested: time.Unix(sv.Requested, 0).UTC(),
				Estimate:  payoff.Estimate{Price: sv.Price, Std: sv.Std},
			}
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating valuations: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s scanner) (*Product, error) {
	var p Product
	var body string
	var createdAt int64
	if err := s.Scan(&p.ID, &p.Name, &body, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(body), &p.Request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pricing request: %w", err)
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &p, nil
}
