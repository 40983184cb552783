// Package schema is the single versioned definition of the customer feature
// table. The aggregator, the store, and the external training and scoring
// stages all validate against this one structure; any column drift is a
// breaking change and must fail loudly, never be coerced.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Version of the feature schema. Bump on any change to the column set or
// the semantics of an existing column.
const Version = 1

// ErrSchemaViolation indicates the materialized output does not match the
// expected column set. Fatal: the run must abort before publication.
var ErrSchemaViolation = errors.New("feature schema violation")

// windowTokens name the bounded lookback windows, shortest first.
var windowTokens = []string{"15d", "30d", "3m", "6m", "12m"}

var identityColumns = []string{
	"externalcustomerkey",
	"as_of_date",
	"first_order_date",
	"last_order_date",
	"days_since_last_order",
}

var leakageColumns = []string{
	"discount_abs_lifetime_eur",
	"discount_rate_lifetime",
	"share_of_orders_with_discount",
	"share_of_items_discounted",
	"avg_discount_per_order",
	"max_discount_single_order",
}

var unitPriceColumns = []string{
	"unit_price_min_eur",
	"unit_price_avg_eur",
	"unit_price_max_eur",
}

var dimensionColumns = []string{
	"country",
	"gender",
	"shops_included",
}

// modelDropColumns are kept in the table but excluded from model inputs in
// addition to identity and leakage columns.
var modelDropColumns = []string{
	"gender",
	"shops_included",
}

var columns = buildColumns()

func buildColumns() []string {
	cols := make([]string, 0, 64)
	cols = append(cols, identityColumns...)
	for _, tok := range append(windowTokens, "lifetime") {
		cols = append(cols,
			"orders_"+tok,
			"revenue_eur_"+tok,
			"items_"+tok,
			"aov_eur_"+tok,
			"avg_items_per_order_"+tok,
			"refund_rate_"+tok,
		)
	}
	cols = append(cols, leakageColumns...)
	cols = append(cols, unitPriceColumns...)
	cols = append(cols, dimensionColumns...)
	return cols
}

// Columns returns the full ordered column list of the feature table.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// LeakageColumns returns the discount/financial columns that are used to
// derive the training label and must never reach model inputs.
func LeakageColumns() []string {
	out := make([]string, len(leakageColumns))
	copy(out, leakageColumns)
	return out
}

// ModelInputColumns returns the ordered column allow-list shared by the
// training and scoring stages: everything except identity, date, leakage
// and dropped dimension columns.
func ModelInputColumns() []string {
	drop := make(map[string]bool)
	for _, c := range identityColumns {
		drop[c] = true
	}
	for _, c := range leakageColumns {
		drop[c] = true
	}
	for _, c := range modelDropColumns {
		drop[c] = true
	}

	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if !drop[c] {
			out = append(out, c)
		}
	}
	return out
}

// Fingerprint returns a stable digest of the schema version and ordered
// column list. Consumers compare fingerprints at every stage boundary.
func Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "v%d\n", Version)
	h.Write([]byte(strings.Join(columns, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}

// Validate compares an actual ordered column list against the schema and
// returns ErrSchemaViolation on any mismatch.
func Validate(actual []string) error {
	if len(actual) != len(columns) {
		return fmt.Errorf("%w: expected %d columns, got %d", ErrSchemaViolation, len(columns), len(actual))
	}
	for i, c := range columns {
		if actual[i] != c {
			return fmt.Errorf("%w: column %d is %q, expected %q", ErrSchemaViolation, i, actual[i], c)
		}
	}
	return nil
}
