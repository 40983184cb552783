package engine

import (
	"context"
	"testing"
	"time"

	"feature-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *models.SourceSnapshot {
	asOf := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	return &models.SourceSnapshot{
		AsOfDate: asOf,
		Orders: []models.RawOrder{
			{OrderID: 1, OrderNumber: "A-1", Shop: "de", OrderDate: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
				CurrencyCode: "EUR", State: models.OrderStateCompleted},
			{OrderID: 2, OrderNumber: "A-2", Shop: "de", OrderDate: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
				CurrencyCode: "SEK", State: models.OrderStateCompleted},
			{OrderID: 3, OrderNumber: "A-3", Shop: "de", OrderDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				CurrencyCode: "EUR", OrderFxRate: Float(1), State: models.OrderStateCompleted},
			// excluded: test order, non-terminal state, dated after as-of
			{OrderID: 4, OrderNumber: "A-4", Shop: "de", OrderDate: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
				CurrencyCode: "EUR", State: models.OrderStateCompleted, TestFlag: true},
			{OrderID: 5, OrderNumber: "A-5", Shop: "de", OrderDate: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
				CurrencyCode: "EUR", State: "pending"},
			{OrderID: 6, OrderNumber: "A-6", Shop: "de", OrderDate: time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC),
				CurrencyCode: "EUR", State: models.OrderStateCompleted},
		},
		Items: []models.OrderItem{
			{OrderID: 1, ItemType: models.ItemTypeProduct, Quantity: 2, NetTotalPrice: 100, CouponDiscount: -20},
			{OrderID: 1, ItemType: models.ItemTypeShipping, Quantity: 1, NetTotalPrice: 5},
			{OrderID: 2, ItemType: models.ItemTypeProduct, Quantity: 1, NetTotalPrice: 500},
			{OrderID: 3, ItemType: models.ItemTypeProduct, Quantity: 1, NetTotalPrice: 50},
		},
		Rates: []models.FxRate{
			{CurrencyCode: "EUR", RateDate: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), Rate: 1},
		},
		Events: []models.InteractionEvent{
			{EventTime: time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC), InteractionType: models.InteractionTypeOrder,
				RelatedOrderNumber: "A-1", ExternalCustomerKey: "cust-1"},
			{EventTime: time.Date(2023, 1, 15, 12, 0, 0, 0, time.UTC), InteractionType: models.InteractionTypeOrder,
				RelatedOrderNumber: "A-2", ExternalCustomerKey: "cust-1"},
		},
		Customers: []models.CustomerAttributes{
			{ExternalCustomerKey: "cust-1", Country: "SE"},
			{ExternalCustomerKey: "cust-2", Country: "DE", Gender: "f"},
		},
	}
}

func TestEngineRun(t *testing.T) {
	eng := New(0)
	result, err := eng.Run(context.Background(), testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.Report.OrdersRead)
	assert.Equal(t, int64(2), result.Report.OrdersAggregated)
	assert.Equal(t, int64(1), result.Report.UnresolvedOrders)
	require.NotNil(t, result.Report.UnattributedRevenue)
	assert.Equal(t, 50.0, *result.Report.UnattributedRevenue)
	assert.Equal(t, int64(1), result.Report.MissingRateItems)
	assert.Equal(t, int64(2), result.Report.CustomersEmitted)

	require.Len(t, result.Records, 2)
	assert.Equal(t, "cust-1", result.Records[0].ExternalCustomerKey)
	assert.Equal(t, "cust-2", result.Records[1].ExternalCustomerKey)
}

func TestEngineRunCustomerWithOrders(t *testing.T) {
	eng := New(0)
	result, err := eng.Run(context.Background(), testSnapshot())
	require.NoError(t, err)

	rec := result.Records[0]
	require.Equal(t, "cust-1", rec.ExternalCustomerKey)

	assert.Equal(t, int64(1), rec.Orders15d)
	assert.Equal(t, int64(1), rec.Orders12m)
	assert.Equal(t, int64(2), rec.OrdersLifetime)

	// the SEK order has no resolvable rate: counted, monetary excluded
	require.NotNil(t, rec.RevenueEurLifetime)
	assert.Equal(t, 105.0, *rec.RevenueEurLifetime)
	assert.Equal(t, int64(2), rec.Items15d)
	assert.Equal(t, int64(3), rec.ItemsLifetime)
	assert.Equal(t, 52.5, *rec.AovEurLifetime)

	assert.Equal(t, 20.0, *rec.DiscountAbsLifetimeEur)
	assert.InDelta(t, 20.0/125.0, *rec.DiscountRateLifetime, 1e-9)
	assert.Equal(t, 0.5, *rec.ShareOfOrdersWithDiscount)
	assert.InDelta(t, 2.0/3.0, *rec.ShareOfItemsDiscounted, 1e-9)
	assert.Equal(t, 20.0, *rec.AvgDiscountPerOrder)
	assert.Equal(t, 20.0, *rec.MaxDiscountSingleOrder)

	assert.Equal(t, 50.0, *rec.UnitPriceMinEur)
	assert.Equal(t, 50.0, *rec.UnitPriceAvgEur)
	assert.Equal(t, 50.0, *rec.UnitPriceMaxEur)

	assert.Equal(t, 0.0, *rec.RefundRateLifetime)

	require.NotNil(t, rec.FirstOrderDate)
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), *rec.FirstOrderDate)
	assert.Equal(t, time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), *rec.LastOrderDate)
	require.NotNil(t, rec.DaysSinceLastOrder)
	assert.Equal(t, int64(10), *rec.DaysSinceLastOrder)

	assert.Equal(t, "SE", rec.Country)
	assert.Equal(t, AttributeUndefined, rec.Gender)
	assert.Equal(t, int64(1), rec.ShopsIncluded)
}

func TestEngineRunCustomerWithoutOrders(t *testing.T) {
	eng := New(0)
	result, err := eng.Run(context.Background(), testSnapshot())
	require.NoError(t, err)

	rec := result.Records[1]
	require.Equal(t, "cust-2", rec.ExternalCustomerKey)

	// present in the dimension, no qualifying orders: zero counts, nil money
	assert.Equal(t, int64(0), rec.OrdersLifetime)
	assert.Nil(t, rec.RevenueEurLifetime)
	assert.Nil(t, rec.AovEurLifetime)
	assert.Nil(t, rec.FirstOrderDate)
	assert.Nil(t, rec.DaysSinceLastOrder)
	assert.Nil(t, rec.DiscountRateLifetime)
	assert.Equal(t, "DE", rec.Country)
	assert.Equal(t, "f", rec.Gender)
	assert.Equal(t, int64(0), rec.ShopsIncluded)
}

func TestEngineRunDeterministic(t *testing.T) {
	eng := New(0)

	first, err := eng.Run(context.Background(), testSnapshot())
	require.NoError(t, err)

	// identical snapshot with relations in reverse order
	snap := testSnapshot()
	reverse(snap.Orders)
	reverse(snap.Items)
	reverse(snap.Events)
	reverse(snap.Customers)

	second, err := eng.Run(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.Report, second.Report)
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
