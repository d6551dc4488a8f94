// Package universe holds the reference data of the underlyings that products can be written on.
package universe

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/mcpricer/internal/domain"
)

const (
	// ISINLength is the exact length of an ISIN code
	ISINLength = 12
	// MaxSymbolLength bounds ticker symbols
	MaxSymbolLength = 10
)

// Exchanges maps supported market identifier codes to display names
var Exchanges = map[string]string{
	"XNYS": "New York Stock Exchange",
	"XNAS": "Nasdaq US",
	"XSHG": "Shanghai Stock Exchange",
	"XJPX": "Japan Exchange Group",
	"XHKG": "Hong Kong Stock Exchange",
	"XAMS": "Euronext Amsterdam",
	"XBRU": "Euronext Brussels",
	"XMSM": "Euronext Dublin",
	"XLIS": "Euronext Lisbon",
	"XMIL": "Euronext Milan",
	"XOSL": "Euronext Oslo",
	"XPAR": "Euronext Paris",
}

// Types lists the supported instrument types
var Types = []string{"EQUITY", "BOND", "FUND", "ETF", "COMMODITY", "CURRENCY"}

// Underlying is a reference record for a tradable instrument.
type Underlying struct {
	ID          string    `json:"id"`
	ISIN        string    `json:"isin"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	Exchange    string    `json:"exchange"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewUnderlying validates the fields and normalizes them to upper case.
// A fresh id is generated; description is kept verbatim.
func NewUnderlying(name, symbol, exchange, isin, typ, description string) (*Underlying, error) {
	u := &Underlying{
		ID:          uuid.New().String(),
		ISIN:        isin,
		Name:        name,
		Symbol:      symbol,
		Exchange:    exchange,
		Type:        typ,
		Description: description,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	u.ISIN = NormalizeISIN(u.ISIN)
	u.Name = strings.ToUpper(u.Name)
	u.Symbol = strings.ToUpper(u.Symbol)
	return u, nil
}

// Validate checks symbol length, ISIN length, type and exchange.
// Type and exchange must already be upper case.
func (u *Underlying) Validate() error {
	if len(u.Symbol) > MaxSymbolLength {
		return fmt.Errorf("%w: symbol must be at most %d characters long", domain.ErrInvalidConfig, MaxSymbolLength)
	}
	if len(strings.TrimSpace(u.ISIN)) != ISINLength {
		return fmt.Errorf("%w: ISIN must be %d characters long", domain.ErrInvalidConfig, ISINLength)
	}
	if !validType(u.Type) {
		return fmt.Errorf("%w: type %q is not valid, must be one of %v", domain.ErrInvalidConfig, u.Type, Types)
	}
	if _, ok := Exchanges[u.Exchange]; !ok {
		return fmt.Errorf("%w: exchange %q is not recognized, must be one of %v",
			domain.ErrInvalidConfig, u.Exchange, exchangeCodes())
	}
	return nil
}

// Info is a one-line human description
func (u *Underlying) Info() string {
	return fmt.Sprintf("%s (%s) listed on %s in the %s market with ISIN %s.",
		u.Name, u.Symbol, u.Exchange, u.Type, u.ISIN)
}

// NormalizeISIN trims and upper-cases an ISIN for lookups
func NormalizeISIN(isin string) string {
	return strings.ToUpper(strings.TrimSpace(isin))
}

func validType(t string) bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}

func exchangeCodes() []string {
	codes := make([]string, 0, len(Exchanges))
	for code := range Exchanges {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
