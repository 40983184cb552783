package store

import (
	"context"
	"fmt"
	"time"

	"feature-service/internal/models"
)

// LoadSnapshot materializes the six source relations as of a date. Rows are
// ordered by their stable keys so a snapshot of identical data is identical
// slice for slice, which keeps downstream float accumulation reproducible.
func (s *Store) LoadSnapshot(ctx context.Context, asOf time.Time, lookbackYears int) (*models.SourceSnapshot, error) {
	horizon := asOf.AddDate(-lookbackYears, 0, 0)
	snap := &models.SourceSnapshot{AsOfDate: asOf}

	err := s.db.SelectContext(ctx, &snap.Orders, `
		SELECT order_id, order_number, shop, order_date, currency_code,
		       order_fx_rate, test_flag, state
		FROM orders
		WHERE test_flag = FALSE
		  AND state IN ($1, $2)
		  AND order_date >= $3 AND order_date <= $4
		ORDER BY order_id`,
		models.OrderStateCompleted, models.OrderStateRefunded, horizon, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	err = s.db.SelectContext(ctx, &snap.Items, `
		SELECT i.order_id, i.item_type, i.quantity, i.net_total_price,
		       COALESCE(i.coupon_discount, 0) AS coupon_discount
		FROM order_items i
		JOIN orders o ON o.order_id = i.order_id
		WHERE o.test_flag = FALSE
		  AND o.state IN ($1, $2)
		  AND o.order_date >= $3 AND o.order_date <= $4
		ORDER BY i.order_id, i.item_type`,
		models.OrderStateCompleted, models.OrderStateRefunded, horizon, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	err = s.db.SelectContext(ctx, &snap.Rates, `
		SELECT currency_code, rate_date, rate
		FROM fx_rates
		WHERE rate_date <= $1
		ORDER BY currency_code, rate_date`, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load fx rates: %w", err)
	}

	err = s.db.SelectContext(ctx, &snap.Events, `
		SELECT event_time, interaction_type, related_order_number, external_customer_key
		FROM interaction_events
		WHERE interaction_type = $1
		  AND related_order_number IS NOT NULL AND related_order_number <> ''
		  AND external_customer_key IS NOT NULL AND external_customer_key <> ''
		  AND event_time <= $2
		ORDER BY related_order_number, event_time, external_customer_key`,
		models.InteractionTypeOrder, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load interaction events: %w", err)
	}

	err = s.db.SelectContext(ctx, &snap.Refunds, `
		SELECT order_id FROM refunds ORDER BY order_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load refunds: %w", err)
	}

	err = s.db.SelectContext(ctx, &snap.Customers, `
		SELECT external_customer_key, COALESCE(country, '') AS country,
		       COALESCE(gender, '') AS gender
		FROM customer_attributes
		ORDER BY external_customer_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer attributes: %w", err)
	}

	return snap, nil
}
