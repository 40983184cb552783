package engine

import (
	"context"

	"feature-service/internal/models"
	"feature-service/internal/util"

	"go.uber.org/zap"
)

// DefaultLookbackYears bounds the global horizon of the lifetime window.
const DefaultLookbackYears = 5

// Engine is the temporal customer feature aggregation engine: a pure,
// stateless batch transform from a source snapshot to the per-customer
// feature table. Two runs over the identical snapshot and as-of date
// produce identical output; the only time input is the explicit as-of date.
type Engine struct {
	lookbackYears int
	logger        *zap.Logger
}

// Result is the output of one engine run.
type Result struct {
	Records []models.CustomerFeatureRecord
	Report  models.RunReport
}

// New creates an engine. lookbackYears <= 0 selects the default horizon.
func New(lookbackYears int) *Engine {
	if lookbackYears <= 0 {
		lookbackYears = DefaultLookbackYears
	}
	return &Engine{
		lookbackYears: lookbackYears,
		logger:        util.GetLogger(),
	}
}

// Run executes the full transform: resolve order-customer links, decompose
// order economics in the base currency, roll up item -> order ->
// customer-shop -> customer, derive ratios and assemble the final records.
func (e *Engine) Run(ctx context.Context, snap *models.SourceSnapshot) (*Result, error) {
	_, span := util.StartSpan(ctx, "Engine.Run")
	defer span.End()

	asOf := snap.AsOfDate
	orders := e.filterOrders(snap)

	links := ResolveOrderCustomers(snap.Events)

	ordersByID := make(map[int64]models.RawOrder, len(orders))
	for _, o := range orders {
		ordersByID[o.OrderID] = o
	}

	rates := NewRateTable(snap.Rates)
	econ, missingRate := DecomposeItems(snap.Items, ordersByID, rates)

	orderRollups := RollupOrders(orders, econ, snap.Refunds)
	shopRollups, unresolved, unattributed := RollupShops(orderRollups, links, asOf)
	customerRollups := RollupCustomers(shopRollups)

	records, err := AssembleFeatures(customerRollups, snap.Customers, asOf)
	if err != nil {
		return nil, err
	}

	report := models.RunReport{
		OrdersRead:          int64(len(orders)),
		OrdersAggregated:    int64(len(orders)) - unresolved,
		UnresolvedOrders:    unresolved,
		UnattributedRevenue: unattributed,
		MissingRateItems:    missingRate,
		CustomersEmitted:    int64(len(records)),
	}

	util.FeatureMissingFxTotal.Add(float64(missingRate))
	util.FeatureUnresolvedOrdersTotal.Add(float64(unresolved))

	e.logger.Info("Feature aggregation completed",
		zap.Int64("orders_read", report.OrdersRead),
		zap.Int64("unresolved_orders", report.UnresolvedOrders),
		zap.Int64("missing_rate_items", report.MissingRateItems),
		zap.Int64("customers_emitted", report.CustomersEmitted))

	return &Result{Records: records, Report: report}, nil
}

// filterOrders applies the snapshot eligibility rules: non-test orders in a
// terminal state, dated inside the lookback horizon and not after as-of.
func (e *Engine) filterOrders(snap *models.SourceSnapshot) []models.RawOrder {
	horizon := snap.AsOfDate.AddDate(-e.lookbackYears, 0, 0)

	eligible := make([]models.RawOrder, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		if o.TestFlag {
			continue
		}
		if o.State != models.OrderStateCompleted && o.State != models.OrderStateRefunded {
			continue
		}
		if o.OrderDate.Before(horizon) || o.OrderDate.After(snap.AsOfDate) {
			continue
		}
		eligible = append(eligible, o)
	}
	return eligible
}
