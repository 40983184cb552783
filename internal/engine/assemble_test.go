package engine

import (
	"testing"
	"time"

	"feature-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One order, one product line of 100 net with a 20 coupon at rate 1.0:
// revenue is net of discount, the discount rate uses the gross denominator.
func TestAssembleSingleDiscountedOrder(t *testing.T) {
	asOf := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	day := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)

	orders := []models.RawOrder{
		{OrderID: 1, OrderNumber: "A-1", Shop: "de", OrderDate: day},
	}
	econ := []OrderEconomics{
		{OrderID: 1, ItemType: models.ItemTypeProduct, Quantity: 1, NetBase: Float(100), DiscountBase: Float(20)},
	}

	orderRollups := RollupOrders(orders, econ, nil)
	shops, unresolved, _ := RollupShops(orderRollups, map[string]string{"A-1": "c1"}, asOf)
	require.Equal(t, int64(0), unresolved)
	customers := RollupCustomers(shops)

	records, err := AssembleFeatures(customers, nil, asOf)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]

	assert.Equal(t, 100.0, *rec.RevenueEurLifetime)
	assert.Equal(t, 20.0, *rec.DiscountAbsLifetimeEur)
	assert.InDelta(t, 20.0/120.0, *rec.DiscountRateLifetime, 1e-9)
	assert.GreaterOrEqual(t, *rec.DiscountRateLifetime, 0.0)
	assert.LessOrEqual(t, *rec.DiscountRateLifetime, 1.0)
	assert.Equal(t, 1.0, *rec.ShareOfOrdersWithDiscount)
	assert.Equal(t, 1.0, *rec.ShareOfItemsDiscounted)

	// no dimension row: sentinel attributes, never a dropped record
	assert.Equal(t, AttributeUndefined, rec.Country)
	assert.Equal(t, AttributeUndefined, rec.Gender)
	assert.Equal(t, asOf, rec.AsOfDate)
}
