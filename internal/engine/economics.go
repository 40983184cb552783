package engine

import (
	"math"

	"feature-service/internal/models"
)

// OrderEconomics is one eligible line item with its monetary fields
// converted to the base currency. Nil monetary values mean the FX rate was
// unresolvable; they propagate instead of defaulting to zero so missing
// data never turns into fabricated revenue.
type OrderEconomics struct {
	OrderID      int64
	ItemType     string
	Quantity     int64
	NetBase      *float64
	DiscountBase *float64
}

// DecomposeItems converts order items into base-currency economics records.
// Only product and shipping items participate; every other item type is
// dropped entirely. The coupon discount is the only discount field read:
// it is an absolute local-currency amount, stored negative at the source
// and emitted non-negative here. Percentage-based discount fields carry a
// different unit and are never read.
//
// The second return value counts items whose monetary fields could not be
// normalized (no exact-date rate and no stored order rate).
func DecomposeItems(items []models.OrderItem, orders map[int64]models.RawOrder, rates *RateTable) ([]OrderEconomics, int64) {
	econ := make([]OrderEconomics, 0, len(items))
	var missingRate int64

	for _, it := range items {
		if it.ItemType != models.ItemTypeProduct && it.ItemType != models.ItemTypeShipping {
			continue
		}
		order, ok := orders[it.OrderID]
		if !ok {
			// item belongs to an order filtered out of the snapshot
			continue
		}

		net := rates.Normalize(it.NetTotalPrice, order.CurrencyCode, order.OrderDate, order.OrderFxRate)
		discount := rates.Normalize(math.Abs(it.CouponDiscount), order.CurrencyCode, order.OrderDate, order.OrderFxRate)
		if net == nil {
			missingRate++
		}

		econ = append(econ, OrderEconomics{
			OrderID:      it.OrderID,
			ItemType:     it.ItemType,
			Quantity:     it.Quantity,
			NetBase:      net,
			DiscountBase: discount,
		})
	}

	return econ, missingRate
}
