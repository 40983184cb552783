package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnsLayout(t *testing.T) {
	cols := Columns()

	// 5 identity + 6 windows x 6 metrics + 6 leakage + 3 unit price + 3 dimension
	assert.Len(t, cols, 53)

	assert.Equal(t, "externalcustomerkey", cols[0])
	assert.Equal(t, "as_of_date", cols[1])
	assert.Equal(t, "orders_15d", cols[5])
	assert.Equal(t, "refund_rate_lifetime", cols[40])
	assert.Equal(t, "shops_included", cols[len(cols)-1])

	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		assert.False(t, seen[c], "duplicate column %s", c)
		seen[c] = true
	}
}

func TestFingerprintStable(t *testing.T) {
	fp := Fingerprint()
	require.Len(t, fp, 64)
	assert.Equal(t, fp, Fingerprint())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Columns()))

	short := Columns()[:10]
	err := Validate(short)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaViolation)

	swapped := Columns()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	err = Validate(swapped)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaViolation)
}

func TestModelInputColumnsExcludeLeakage(t *testing.T) {
	inputs := ModelInputColumns()

	excluded := make(map[string]bool)
	for _, c := range LeakageColumns() {
		excluded[c] = true
	}
	excluded["externalcustomerkey"] = true
	excluded["as_of_date"] = true
	excluded["first_order_date"] = true
	excluded["last_order_date"] = true
	excluded["days_since_last_order"] = true
	excluded["gender"] = true
	excluded["shops_included"] = true

	for _, c := range inputs {
		assert.False(t, excluded[c], "model input contains excluded column %s", c)
	}
	assert.Len(t, inputs, 53-len(excluded))
	assert.Contains(t, inputs, "revenue_eur_12m")
	assert.Contains(t, inputs, "country")
	assert.Contains(t, inputs, "unit_price_avg_eur")
}
