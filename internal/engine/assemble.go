package engine

import (
	"fmt"
	"sort"
	"time"

	"feature-service/internal/models"
)

// AttributeUndefined is the sentinel category for missing customer
// dimension attributes. Rows are never dropped for missing attributes.
const AttributeUndefined = "Undefined"

// ErrDuplicateKey indicates more than one feature record was produced for a
// customer key. This is an aggregation bug, fatal for the run.
var ErrDuplicateKey = fmt.Errorf("duplicate customer key in feature output")

// AssembleFeatures joins customer rollups with the customer dimension and
// derives all ratio fields, emitting the final fixed-schema records sorted
// by customer key. Customers present in the dimension but without any
// qualifying order are not dropped; they receive zero counts and nil
// monetary/ratio fields. Every ratio is nil when its denominator is zero
// or unknown.
func AssembleFeatures(rollups map[string]*CustomerRollup, attrs []models.CustomerAttributes, asOf time.Time) ([]models.CustomerFeatureRecord, error) {
	attrByKey := make(map[string]models.CustomerAttributes, len(attrs))
	for _, a := range attrs {
		attrByKey[a.ExternalCustomerKey] = a
	}

	keySet := make(map[string]struct{}, len(rollups)+len(attrs))
	for k := range rollups {
		keySet[k] = struct{}{}
	}
	for k := range attrByKey {
		keySet[k] = struct{}{}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[string]bool, len(keys))
	records := make([]models.CustomerFeatureRecord, 0, len(keys))

	for _, key := range keys {
		if seen[key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key)
		}
		seen[key] = true

		rec := models.CustomerFeatureRecord{
			ExternalCustomerKey: key,
			AsOfDate:            asOf,
			Country:             AttributeUndefined,
			Gender:              AttributeUndefined,
		}
		if a, ok := attrByKey[key]; ok {
			if a.Country != "" {
				rec.Country = a.Country
			}
			if a.Gender != "" {
				rec.Gender = a.Gender
			}
		}

		if c, ok := rollups[key]; ok {
			fillAggregates(&rec, c, asOf)
		}

		records = append(records, rec)
	}

	return records, nil
}

func fillAggregates(rec *models.CustomerFeatureRecord, c *CustomerRollup, asOf time.Time) {
	first, last := c.FirstOrderDate, c.LastOrderDate
	rec.FirstOrderDate = &first
	rec.LastOrderDate = &last
	days := int64(asOf.Sub(last).Hours() / 24)
	rec.DaysSinceLastOrder = &days
	rec.ShopsIncluded = c.Shops

	w := c.Windows[window15d]
	rec.Orders15d, rec.RevenueEur15d, rec.Items15d = w.Orders, w.Revenue, w.Items
	rec.AovEur15d = PerCount(w.Revenue, w.Orders)
	rec.AvgItemsPerOrder15d = CountRatio(w.Items, w.Orders)
	rec.RefundRate15d = CountRatio(w.RefundOrders, w.Orders)

	w = c.Windows[window30d]
	rec.Orders30d, rec.RevenueEur30d, rec.Items30d = w.Orders, w.Revenue, w.Items
	rec.AovEur30d = PerCount(w.Revenue, w.Orders)
	rec.AvgItemsPerOrder30d = CountRatio(w.Items, w.Orders)
	rec.RefundRate30d = CountRatio(w.RefundOrders, w.Orders)

	w = c.Windows[window3m]
	rec.Orders3m, rec.RevenueEur3m, rec.Items3m = w.Orders, w.Revenue, w.Items
	rec.AovEur3m = PerCount(w.Revenue, w.Orders)
	rec.AvgItemsPerOrder3m = CountRatio(w.Items, w.Orders)
	rec.RefundRate3m = CountRatio(w.RefundOrders, w.Orders)

	w = c.Windows[window6m]
	rec.Orders6m, rec.RevenueEur6m, rec.Items6m = w.Orders, w.Revenue, w.Items
	rec.AovEur6m = PerCount(w.Revenue, w.Orders)
	rec.AvgItemsPerOrder6m = CountRatio(w.Items, w.Orders)
	rec.RefundRate6m = CountRatio(w.RefundOrders, w.Orders)

	w = c.Windows[window12m]
	rec.Orders12m, rec.RevenueEur12m, rec.Items12m = w.Orders, w.Revenue, w.Items
	rec.AovEur12m = PerCount(w.Revenue, w.Orders)
	rec.AvgItemsPerOrder12m = CountRatio(w.Items, w.Orders)
	rec.RefundRate12m = CountRatio(w.RefundOrders, w.Orders)

	lt := c.Windows[windowLifetime]
	rec.OrdersLifetime, rec.RevenueEurLifetime, rec.ItemsLifetime = lt.Orders, lt.Revenue, lt.Items
	rec.AovEurLifetime = PerCount(lt.Revenue, lt.Orders)
	rec.AvgItemsPerOrderLifetime = CountRatio(lt.Items, lt.Orders)
	rec.RefundRateLifetime = CountRatio(lt.RefundOrders, lt.Orders)

	rec.DiscountAbsLifetimeEur = lt.Discount
	// gross-of-discount denominator: discount / (revenue + discount)
	rec.DiscountRateLifetime = Ratio(lt.Discount, addOpt(lt.Revenue, lt.Discount))
	rec.ShareOfOrdersWithDiscount = CountRatio(lt.DiscountedOrders, lt.Orders)
	rec.ShareOfItemsDiscounted = c.ShareOfItemsDiscounted
	rec.AvgDiscountPerOrder = PerCount(lt.Discount, lt.DiscountedOrders)
	rec.MaxDiscountSingleOrder = lt.MaxOrderDiscount

	rec.UnitPriceMinEur = c.UnitPriceMin
	rec.UnitPriceAvgEur = c.UnitPriceAvg
	rec.UnitPriceMaxEur = c.UnitPriceMax
}
