package engine

import (
	"testing"
	"time"

	"feature-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateTableResolve(t *testing.T) {
	day := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	table := NewRateTable([]models.FxRate{
		{CurrencyCode: "SEK", RateDate: day, Rate: 11.5},
	})

	rate, ok := table.Resolve("SEK", day, nil)
	assert.True(t, ok)
	assert.Equal(t, 11.5, rate)

	// no exact-date rate, fall back to the order's stored rate
	rate, ok = table.Resolve("SEK", day.AddDate(0, 0, 1), Float(11.2))
	assert.True(t, ok)
	assert.Equal(t, 11.2, rate)

	// nothing resolvable
	_, ok = table.Resolve("SEK", day.AddDate(0, 0, 1), nil)
	assert.False(t, ok)
}

func TestRateTableZeroRatesUnresolved(t *testing.T) {
	day := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	table := NewRateTable([]models.FxRate{
		{CurrencyCode: "SEK", RateDate: day, Rate: 0},
	})

	// a zero table rate falls through to the order rate
	rate, ok := table.Resolve("SEK", day, Float(11.2))
	assert.True(t, ok)
	assert.Equal(t, 11.2, rate)

	// a zero order rate is unresolved too
	_, ok = table.Resolve("SEK", day, Float(0))
	assert.False(t, ok)
}

func TestNormalizeDividesByRate(t *testing.T) {
	day := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	table := NewRateTable([]models.FxRate{
		{CurrencyCode: "SEK", RateDate: day, Rate: 10},
	})

	got := table.Normalize(115, "SEK", day, nil)
	require.NotNil(t, got)
	assert.Equal(t, 11.5, *got)

	assert.Nil(t, table.Normalize(115, "NOK", day, nil))
}
