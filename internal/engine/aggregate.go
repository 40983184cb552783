package engine

import (
	"sort"
	"time"

	"feature-service/internal/models"
)

// OrderRollup is the order-grain record produced by stage A. Monetary
// fields are nil when the order's FX rate was unresolvable; quantities are
// always counted so order/item counts stay comparable across orders with
// and without resolvable money.
type OrderRollup struct {
	OrderID       int64
	OrderNumber   string
	Shop          string
	OrderDate     time.Time
	ProductNet    *float64
	ShippingNet   *float64
	RevenueNet    *float64
	Discount      *float64
	ProductQty    int64
	DiscountedQty int64
	Refunded      bool
	UnitPriceAvg  *float64
	UnitPriceMin  *float64
	UnitPriceMax  *float64
}

// WindowAgg holds the per-window accumulators of stage B.
type WindowAgg struct {
	Orders           int64
	Revenue          *float64
	Items            int64
	Discount         *float64
	DiscountedOrders int64
	RefundOrders     int64
	MaxOrderDiscount *float64
}

// ShopRollup is the customer-shop grain record of stage B. Unit-price and
// discounted-quantity statistics are lifetime only.
type ShopRollup struct {
	CustomerKey    string
	Shop           string
	FirstOrderDate time.Time
	LastOrderDate  time.Time
	Windows        [windowCount]WindowAgg
	TotalQty       int64
	DiscountedQty  int64
	UnitPriceMin   *float64
	UnitPriceMax   *float64
	UnitPriceAvg   *float64

	unitAvgSum float64
	unitAvgN   int64
}

// CustomerRollup is the customer-grain record of stage C.
type CustomerRollup struct {
	CustomerKey            string
	FirstOrderDate         time.Time
	LastOrderDate          time.Time
	Windows                [windowCount]WindowAgg
	Shops                  int64
	UnitPriceMin           *float64
	UnitPriceMax           *float64
	UnitPriceAvg           *float64
	ShareOfItemsDiscounted *float64
}

// RollupOrders groups economics records to order grain (stage A). Orders
// with any unresolvable line item emit nil monetary fields as a whole: the
// FX rate is shared by every line of the order, so partial sums would only
// ever fabricate revenue.
func RollupOrders(orders []models.RawOrder, econ []OrderEconomics, refunds []models.RefundRecord) []OrderRollup {
	refunded := make(map[int64]bool, len(refunds))
	for _, r := range refunds {
		refunded[r.OrderID] = true
	}

	econByOrder := make(map[int64][]OrderEconomics, len(orders))
	for _, e := range econ {
		econByOrder[e.OrderID] = append(econByOrder[e.OrderID], e)
	}

	sorted := make([]models.RawOrder, len(orders))
	copy(sorted, orders)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OrderID < sorted[j].OrderID })

	rollups := make([]OrderRollup, 0, len(sorted))
	for _, o := range sorted {
		r := OrderRollup{
			OrderID:     o.OrderID,
			OrderNumber: o.OrderNumber,
			Shop:        o.Shop,
			OrderDate:   o.OrderDate,
			Refunded:    refunded[o.OrderID],
		}

		unknownMoney := false
		for _, e := range econByOrder[o.OrderID] {
			if e.ItemType == models.ItemTypeProduct {
				r.ProductQty += e.Quantity
			}
			if e.NetBase == nil {
				unknownMoney = true
				continue
			}
			switch e.ItemType {
			case models.ItemTypeProduct:
				r.ProductNet = addOpt(r.ProductNet, e.NetBase)
				if e.Quantity > 0 {
					unit := *e.NetBase / float64(e.Quantity)
					r.UnitPriceMin = minOpt(r.UnitPriceMin, Float(unit))
					r.UnitPriceMax = maxOpt(r.UnitPriceMax, Float(unit))
					r.UnitPriceAvg = addOpt(r.UnitPriceAvg, Float(unit))
				}
			case models.ItemTypeShipping:
				r.ShippingNet = addOpt(r.ShippingNet, e.NetBase)
			}
			r.Discount = addOpt(r.Discount, e.DiscountBase)
			if e.ItemType == models.ItemTypeProduct && e.DiscountBase != nil && *e.DiscountBase > 0 {
				r.DiscountedQty += e.Quantity
			}
		}

		if unknownMoney {
			r.ProductNet, r.ShippingNet, r.Discount = nil, nil, nil
			r.UnitPriceAvg, r.UnitPriceMin, r.UnitPriceMax = nil, nil, nil
			r.DiscountedQty = 0
		} else {
			r.RevenueNet = addOpt(r.ProductNet, r.ShippingNet)
			if r.UnitPriceAvg != nil {
				// accumulated as a sum of line unit prices above
				pricedLines := 0
				for _, e := range econByOrder[o.OrderID] {
					if e.ItemType == models.ItemTypeProduct && e.NetBase != nil && e.Quantity > 0 {
						pricedLines++
					}
				}
				r.UnitPriceAvg = Float(*r.UnitPriceAvg / float64(pricedLines))
			}
		}

		rollups = append(rollups, r)
	}

	return rollups
}

// RollupShops assigns each order to its customer via the resolved link map
// and accumulates every window bucket in a single pass over the order set
// (stage B). Orders without a link are excluded from all rollups; they are
// counted and their resolvable revenue summed so the omission is reported,
// not silent.
func RollupShops(rollups []OrderRollup, links map[string]string, asOf time.Time) (map[string]*ShopRollup, int64, *float64) {
	cutoffs := windowCutoffs(asOf)
	shops := make(map[string]*ShopRollup)

	var unresolved int64
	var unattributed *float64

	for _, r := range rollups {
		customer, ok := links[r.OrderNumber]
		if !ok {
			unresolved++
			unattributed = addOpt(unattributed, r.RevenueNet)
			continue
		}

		key := customer + "\x00" + r.Shop
		s, ok := shops[key]
		if !ok {
			s = &ShopRollup{
				CustomerKey:    customer,
				Shop:           r.Shop,
				FirstOrderDate: r.OrderDate,
				LastOrderDate:  r.OrderDate,
			}
			shops[key] = s
		}

		if r.OrderDate.Before(s.FirstOrderDate) {
			s.FirstOrderDate = r.OrderDate
		}
		if r.OrderDate.After(s.LastOrderDate) {
			s.LastOrderDate = r.OrderDate
		}

		for w := range lookbackWindows {
			if w != windowLifetime && !inWindow(r.OrderDate, cutoffs[w]) {
				continue
			}
			agg := &s.Windows[w]
			agg.Orders++
			agg.Items += r.ProductQty
			agg.Revenue = addOpt(agg.Revenue, r.RevenueNet)
			agg.Discount = addOpt(agg.Discount, r.Discount)
			agg.MaxOrderDiscount = maxOpt(agg.MaxOrderDiscount, r.Discount)
			if r.Discount != nil && *r.Discount > 0 {
				agg.DiscountedOrders++
			}
			if r.Refunded {
				agg.RefundOrders++
			}
		}

		s.TotalQty += r.ProductQty
		s.DiscountedQty += r.DiscountedQty
		s.UnitPriceMin = minOpt(s.UnitPriceMin, r.UnitPriceMin)
		s.UnitPriceMax = maxOpt(s.UnitPriceMax, r.UnitPriceMax)
		if r.UnitPriceAvg != nil {
			s.unitAvgSum += *r.UnitPriceAvg
			s.unitAvgN++
		}
	}

	for _, s := range shops {
		if s.unitAvgN > 0 {
			s.UnitPriceAvg = Float(s.unitAvgSum / float64(s.unitAvgN))
		}
	}

	return shops, unresolved, unattributed
}

// RollupCustomers merges shop rollups to customer grain (stage C): counts
// and monetary sums are added across shops, unit-price extremes take the
// overall min/max, and the shop-level averages are combined as a simple
// mean of means. Shops are folded in sorted key order so float sums are
// reproducible run to run.
func RollupCustomers(shops map[string]*ShopRollup) map[string]*CustomerRollup {
	keys := make([]string, 0, len(shops))
	for k := range shops {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	customers := make(map[string]*CustomerRollup)
	shareSum := make(map[string]float64)
	shareN := make(map[string]int64)
	avgSum := make(map[string]float64)
	avgN := make(map[string]int64)

	for _, k := range keys {
		s := shops[k]
		c, ok := customers[s.CustomerKey]
		if !ok {
			c = &CustomerRollup{
				CustomerKey:    s.CustomerKey,
				FirstOrderDate: s.FirstOrderDate,
				LastOrderDate:  s.LastOrderDate,
			}
			customers[s.CustomerKey] = c
		}

		c.Shops++
		if s.FirstOrderDate.Before(c.FirstOrderDate) {
			c.FirstOrderDate = s.FirstOrderDate
		}
		if s.LastOrderDate.After(c.LastOrderDate) {
			c.LastOrderDate = s.LastOrderDate
		}

		for w := range lookbackWindows {
			agg := &c.Windows[w]
			sagg := s.Windows[w]
			agg.Orders += sagg.Orders
			agg.Items += sagg.Items
			agg.Revenue = addOpt(agg.Revenue, sagg.Revenue)
			agg.Discount = addOpt(agg.Discount, sagg.Discount)
			agg.DiscountedOrders += sagg.DiscountedOrders
			agg.RefundOrders += sagg.RefundOrders
			agg.MaxOrderDiscount = maxOpt(agg.MaxOrderDiscount, sagg.MaxOrderDiscount)
		}

		c.UnitPriceMin = minOpt(c.UnitPriceMin, s.UnitPriceMin)
		c.UnitPriceMax = maxOpt(c.UnitPriceMax, s.UnitPriceMax)
		if s.UnitPriceAvg != nil {
			avgSum[s.CustomerKey] += *s.UnitPriceAvg
			avgN[s.CustomerKey]++
		}
		if s.TotalQty > 0 {
			shareSum[s.CustomerKey] += float64(s.DiscountedQty) / float64(s.TotalQty)
			shareN[s.CustomerKey]++
		}
	}

	for key, c := range customers {
		if n := avgN[key]; n > 0 {
			c.UnitPriceAvg = Float(avgSum[key] / float64(n))
		}
		if n := shareN[key]; n > 0 {
			c.ShareOfItemsDiscounted = Float(shareSum[key] / float64(n))
		}
	}

	return customers
}
