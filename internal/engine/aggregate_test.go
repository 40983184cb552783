package engine

import (
	"testing"
	"time"

	"feature-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecomposeItemsFiltersAndNormalizes(t *testing.T) {
	day := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	orders := map[int64]models.RawOrder{
		1: {OrderID: 1, CurrencyCode: "EUR", OrderDate: day},
		2: {OrderID: 2, CurrencyCode: "NOK", OrderDate: day},
	}
	rates := NewRateTable([]models.FxRate{
		{CurrencyCode: "EUR", RateDate: day, Rate: 1},
	})

	items := []models.OrderItem{
		{OrderID: 1, ItemType: models.ItemTypeProduct, Quantity: 2, NetTotalPrice: 100, CouponDiscount: -20},
		{OrderID: 1, ItemType: models.ItemTypeShipping, Quantity: 1, NetTotalPrice: 5},
		{OrderID: 1, ItemType: "gift_wrap", Quantity: 1, NetTotalPrice: 3},
		{OrderID: 2, ItemType: models.ItemTypeProduct, Quantity: 1, NetTotalPrice: 500},
		{OrderID: 99, ItemType: models.ItemTypeProduct, Quantity: 1, NetTotalPrice: 10},
	}

	econ, missing := DecomposeItems(items, orders, rates)

	// gift_wrap and the orphaned item are dropped entirely
	require.Len(t, econ, 3)
	assert.Equal(t, int64(1), missing)

	// stored negative coupon comes out as a non-negative amount
	require.NotNil(t, econ[0].DiscountBase)
	assert.Equal(t, 20.0, *econ[0].DiscountBase)
	assert.Equal(t, 100.0, *econ[0].NetBase)

	// the NOK item has no resolvable rate
	assert.Nil(t, econ[2].NetBase)
	assert.Equal(t, int64(1), econ[2].Quantity)
}

func TestRollupOrdersEconomics(t *testing.T) {
	day := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	orders := []models.RawOrder{
		{OrderID: 1, OrderNumber: "A-1", Shop: "de", OrderDate: day},
	}
	econ := []OrderEconomics{
		{OrderID: 1, ItemType: models.ItemTypeProduct, Quantity: 2, NetBase: Float(100), DiscountBase: Float(20)},
		{OrderID: 1, ItemType: models.ItemTypeShipping, Quantity: 1, NetBase: Float(5)},
	}

	rollups := RollupOrders(orders, econ, nil)
	require.Len(t, rollups, 1)
	r := rollups[0]

	require.NotNil(t, r.RevenueNet)
	assert.Equal(t, 105.0, *r.RevenueNet)
	assert.Equal(t, 20.0, *r.Discount)
	assert.Equal(t, int64(2), r.ProductQty)
	assert.Equal(t, int64(2), r.DiscountedQty)
	assert.Equal(t, 50.0, *r.UnitPriceAvg)
	assert.Equal(t, 50.0, *r.UnitPriceMin)
	assert.Equal(t, 50.0, *r.UnitPriceMax)
	assert.False(t, r.Refunded)
}

func TestRollupOrdersUnknownMoneyNilsWholeOrder(t *testing.T) {
	day := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	orders := []models.RawOrder{
		{OrderID: 1, OrderNumber: "A-1", Shop: "de", OrderDate: day},
	}
	// one priced and one unpriced line of the same order
	econ := []OrderEconomics{
		{OrderID: 1, ItemType: models.ItemTypeProduct, Quantity: 1, NetBase: Float(100), DiscountBase: Float(10)},
		{OrderID: 1, ItemType: models.ItemTypeProduct, Quantity: 2, NetBase: nil},
	}

	rollups := RollupOrders(orders, econ, nil)
	require.Len(t, rollups, 1)
	r := rollups[0]

	assert.Nil(t, r.RevenueNet)
	assert.Nil(t, r.Discount)
	assert.Nil(t, r.UnitPriceAvg)
	assert.Equal(t, int64(0), r.DiscountedQty)
	// quantities stay counted so order/item counts remain comparable
	assert.Equal(t, int64(3), r.ProductQty)
}

func TestRollupShopsWindows(t *testing.T) {
	asOf := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	rollups := []OrderRollup{
		{OrderID: 1, OrderNumber: "A-1", Shop: "de", OrderDate: time.Date(2024, 6, 25, 0, 0, 0, 0, time.UTC),
			RevenueNet: Float(100), Discount: Float(10), ProductQty: 1},
		{OrderID: 2, OrderNumber: "A-2", Shop: "de", OrderDate: time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
			RevenueNet: Float(50), ProductQty: 2, Refunded: true},
		{OrderID: 3, OrderNumber: "A-3", Shop: "de", OrderDate: time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
			RevenueNet: Float(25), ProductQty: 1},
		{OrderID: 4, OrderNumber: "A-4", Shop: "de", OrderDate: asOf,
			RevenueNet: Float(40), ProductQty: 1},
	}
	links := map[string]string{"A-1": "c1", "A-2": "c1", "A-3": "c1"}

	shops, unresolved, unattributed := RollupShops(rollups, links, asOf)

	assert.Equal(t, int64(1), unresolved)
	require.NotNil(t, unattributed)
	assert.Equal(t, 40.0, *unattributed)

	require.Len(t, shops, 1)
	s := shops["c1\x00de"]
	require.NotNil(t, s)

	assert.Equal(t, int64(1), s.Windows[window15d].Orders)
	assert.Equal(t, int64(1), s.Windows[window30d].Orders)
	assert.Equal(t, int64(2), s.Windows[window3m].Orders)
	assert.Equal(t, int64(2), s.Windows[window6m].Orders)
	assert.Equal(t, int64(2), s.Windows[window12m].Orders)
	assert.Equal(t, int64(3), s.Windows[windowLifetime].Orders)

	// shorter windows are always subsets of longer ones
	for w := window15d; w < windowLifetime; w++ {
		assert.LessOrEqual(t, s.Windows[w].Orders, s.Windows[w+1].Orders)
	}

	assert.Equal(t, 175.0, *s.Windows[windowLifetime].Revenue)
	assert.Equal(t, int64(1), s.Windows[window3m].RefundOrders)
	assert.Equal(t, int64(1), s.Windows[windowLifetime].DiscountedOrders)
	assert.Equal(t, 10.0, *s.Windows[windowLifetime].MaxOrderDiscount)

	assert.Equal(t, time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC), s.FirstOrderDate)
	assert.Equal(t, time.Date(2024, 6, 25, 0, 0, 0, 0, time.UTC), s.LastOrderDate)
}

func TestRollupCustomersMeanOfMeans(t *testing.T) {
	shopA := &ShopRollup{
		CustomerKey:    "c1",
		Shop:           "a",
		FirstOrderDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		LastOrderDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalQty:       2,
		DiscountedQty:  1,
		UnitPriceAvg:   Float(10),
		UnitPriceMin:   Float(5),
		UnitPriceMax:   Float(12),
	}
	shopA.Windows[windowLifetime] = WindowAgg{Orders: 2, Revenue: Float(100), Items: 2}

	shopB := &ShopRollup{
		CustomerKey:    "c1",
		Shop:           "b",
		FirstOrderDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		LastOrderDate:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		TotalQty:       4,
		DiscountedQty:  4,
		UnitPriceAvg:   Float(20),
		UnitPriceMin:   Float(8),
		UnitPriceMax:   Float(30),
	}
	shopB.Windows[windowLifetime] = WindowAgg{Orders: 3, Revenue: Float(200), Items: 4}

	shops := map[string]*ShopRollup{
		"c1\x00a": shopA,
		"c1\x00b": shopB,
	}

	customers := RollupCustomers(shops)
	require.Len(t, customers, 1)
	c := customers["c1"]
	require.NotNil(t, c)

	assert.Equal(t, int64(2), c.Shops)
	assert.Equal(t, int64(5), c.Windows[windowLifetime].Orders)
	assert.Equal(t, 300.0, *c.Windows[windowLifetime].Revenue)

	// per-shop averages are combined as a mean of means, not re-weighted
	assert.Equal(t, 15.0, *c.UnitPriceAvg)
	assert.Equal(t, 0.75, *c.ShareOfItemsDiscounted)

	assert.Equal(t, 5.0, *c.UnitPriceMin)
	assert.Equal(t, 30.0, *c.UnitPriceMax)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), c.FirstOrderDate)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), c.LastOrderDate)
}
