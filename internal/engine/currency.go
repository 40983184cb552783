package engine

import (
	"time"

	"feature-service/internal/models"
)

const rateDateLayout = "2006-01-02"

type rateKey struct {
	currency string
	date     string
}

// RateTable indexes FX rates by (currency, date) for exact-date lookups.
type RateTable struct {
	rates map[rateKey]float64
}

// NewRateTable builds the lookup index from the FX-rate relation.
func NewRateTable(rows []models.FxRate) *RateTable {
	rates := make(map[rateKey]float64, len(rows))
	for _, r := range rows {
		key := rateKey{currency: r.CurrencyCode, date: r.RateDate.UTC().Format(rateDateLayout)}
		rates[key] = r.Rate
	}
	return &RateTable{rates: rates}
}

// Resolve returns the rate for a currency on a date, falling back to the
// order's own stored rate. Zero rates are treated as unresolved to guard
// the division in Normalize.
func (t *RateTable) Resolve(currency string, date time.Time, orderRate *float64) (float64, bool) {
	key := rateKey{currency: currency, date: date.UTC().Format(rateDateLayout)}
	if rate, ok := t.rates[key]; ok && rate != 0 {
		return rate, true
	}
	if orderRate != nil && *orderRate != 0 {
		return *orderRate, true
	}
	return 0, false
}

// Normalize converts a local-currency amount to the base currency as
// amount / rate, returning nil when no rate is resolvable. Every monetary
// read in the pipeline goes through this one function; training and scoring
// data see identical conversions.
func (t *RateTable) Normalize(amount float64, currency string, date time.Time, orderRate *float64) *float64 {
	rate, ok := t.Resolve(currency, date, orderRate)
	if !ok {
		return nil
	}
	return Float(amount / rate)
}
