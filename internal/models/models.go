package models

import "time"

// Item types that participate in order economics. Any other type is
// excluded from monetary decomposition entirely, not zeroed.
const (
	ItemTypeProduct  = "product"
	ItemTypeShipping = "shipping"
)

// Terminal order states eligible for aggregation
const (
	OrderStateCompleted = "completed"
	OrderStateRefunded  = "refunded"
)

// InteractionTypeOrder marks interaction events that carry an order to
// customer link.
const InteractionTypeOrder = "order"

// RawOrder represents an order row from the orders relation
type RawOrder struct {
	OrderID      int64     `db:"order_id" json:"order_id"`
	OrderNumber  string    `db:"order_number" json:"order_number"`
	Shop         string    `db:"shop" json:"shop"`
	OrderDate    time.Time `db:"order_date" json:"order_date"`
	CurrencyCode string    `db:"currency_code" json:"currency_code"`
	OrderFxRate  *float64  `db:"order_fx_rate" json:"order_fx_rate,omitempty"`
	TestFlag     bool      `db:"test_flag" json:"test_flag"`
	State        string    `db:"state" json:"state"`
}

// OrderItem represents a line item. CouponDiscount follows the source sign
// convention (negative when a coupon was applied).
type OrderItem struct {
	OrderID        int64   `db:"order_id" json:"order_id"`
	ItemType       string  `db:"item_type" json:"item_type"`
	Quantity       int64   `db:"quantity" json:"quantity"`
	NetTotalPrice  float64 `db:"net_total_price" json:"net_total_price"`
	CouponDiscount float64 `db:"coupon_discount" json:"coupon_discount"`
}

// FxRate is a sparse exchange-rate row, keyed by currency and date
type FxRate struct {
	CurrencyCode string    `db:"currency_code" json:"currency_code"`
	RateDate     time.Time `db:"rate_date" json:"rate_date"`
	Rate         float64   `db:"rate" json:"rate"`
}

// InteractionEvent is a noisy, event-sourced link between an order number
// and an external customer key
type InteractionEvent struct {
	EventTime           time.Time `db:"event_time" json:"event_time"`
	InteractionType     string    `db:"interaction_type" json:"interaction_type"`
	RelatedOrderNumber  string    `db:"related_order_number" json:"related_order_number"`
	ExternalCustomerKey string    `db:"external_customer_key" json:"external_customer_key"`
}

// RefundRecord marks an order as refunded
type RefundRecord struct {
	OrderID int64 `db:"order_id" json:"order_id"`
}

// CustomerAttributes is the customer dimension row
type CustomerAttributes struct {
	ExternalCustomerKey string `db:"external_customer_key" json:"external_customer_key"`
	Country             string `db:"country" json:"country"`
	Gender              string `db:"gender" json:"gender"`
}

// SourceSnapshot is the immutable set of input relations a feature run
// consumes. All relations are materialized as of AsOfDate; the engine never
// reads anything else.
type SourceSnapshot struct {
	AsOfDate  time.Time
	Orders    []RawOrder
	Items     []OrderItem
	Rates     []FxRate
	Events    []InteractionEvent
	Refunds   []RefundRecord
	Customers []CustomerAttributes
}

// CustomerFeatureRecord is the engine's sole externally visible output: one
// row per customer key, byte-for-byte reproducible given identical inputs
// and as-of date. Monetary and ratio fields are pointers so that "unknown"
// is never conflated with zero. Column names follow the feature schema in
// internal/schema.
type CustomerFeatureRecord struct {
	ExternalCustomerKey string     `db:"externalcustomerkey" json:"externalcustomerkey"`
	AsOfDate            time.Time  `db:"as_of_date" json:"as_of_date"`
	FirstOrderDate      *time.Time `db:"first_order_date" json:"first_order_date"`
	LastOrderDate       *time.Time `db:"last_order_date" json:"last_order_date"`
	DaysSinceLastOrder  *int64     `db:"days_since_last_order" json:"days_since_last_order"`

	Orders15d           int64    `db:"orders_15d" json:"orders_15d"`
	RevenueEur15d       *float64 `db:"revenue_eur_15d" json:"revenue_eur_15d"`
	Items15d            int64    `db:"items_15d" json:"items_15d"`
	AovEur15d           *float64 `db:"aov_eur_15d" json:"aov_eur_15d"`
	AvgItemsPerOrder15d *float64 `db:"avg_items_per_order_15d" json:"avg_items_per_order_15d"`
	RefundRate15d       *float64 `db:"refund_rate_15d" json:"refund_rate_15d"`

	Orders30d           int64    `db:"orders_30d" json:"orders_30d"`
	RevenueEur30d       *float64 `db:"revenue_eur_30d" json:"revenue_eur_30d"`
	Items30d            int64    `db:"items_30d" json:"items_30d"`
	AovEur30d           *float64 `db:"aov_eur_30d" json:"aov_eur_30d"`
	AvgItemsPerOrder30d *float64 `db:"avg_items_per_order_30d" json:"avg_items_per_order_30d"`
	RefundRate30d       *float64 `db:"refund_rate_30d" json:"refund_rate_30d"`

	Orders3m           int64    `db:"orders_3m" json:"orders_3m"`
	RevenueEur3m       *float64 `db:"revenue_eur_3m" json:"revenue_eur_3m"`
	Items3m            int64    `db:"items_3m" json:"items_3m"`
	AovEur3m           *float64 `db:"aov_eur_3m" json:"aov_eur_3m"`
	AvgItemsPerOrder3m *float64 `db:"avg_items_per_order_3m" json:"avg_items_per_order_3m"`
	RefundRate3m       *float64 `db:"refund_rate_3m" json:"refund_rate_3m"`

	Orders6m           int64    `db:"orders_6m" json:"orders_6m"`
	RevenueEur6m       *float64 `db:"revenue_eur_6m" json:"revenue_eur_6m"`
	Items6m            int64    `db:"items_6m" json:"items_6m"`
	AovEur6m           *float64 `db:"aov_eur_6m" json:"aov_eur_6m"`
	AvgItemsPerOrder6m *float64 `db:"avg_items_per_order_6m" json:"avg_items_per_order_6m"`
	RefundRate6m       *float64 `db:"refund_rate_6m" json:"refund_rate_6m"`

	Orders12m           int64    `db:"orders_12m" json:"orders_12m"`
	RevenueEur12m       *float64 `db:"revenue_eur_12m" json:"revenue_eur_12m"`
	Items12m            int64    `db:"items_12m" json:"items_12m"`
	AovEur12m           *float64 `db:"aov_eur_12m" json:"aov_eur_12m"`
	AvgItemsPerOrder12m *float64 `db:"avg_items_per_order_12m" json:"avg_items_per_order_12m"`
	RefundRate12m       *float64 `db:"refund_rate_12m" json:"refund_rate_12m"`

	OrdersLifetime           int64    `db:"orders_lifetime" json:"orders_lifetime"`
	RevenueEurLifetime       *float64 `db:"revenue_eur_lifetime" json:"revenue_eur_lifetime"`
	ItemsLifetime            int64    `db:"items_lifetime" json:"items_lifetime"`
	AovEurLifetime           *float64 `db:"aov_eur_lifetime" json:"aov_eur_lifetime"`
	AvgItemsPerOrderLifetime *float64 `db:"avg_items_per_order_lifetime" json:"avg_items_per_order_lifetime"`
	RefundRateLifetime       *float64 `db:"refund_rate_lifetime" json:"refund_rate_lifetime"`

	DiscountAbsLifetimeEur    *float64 `db:"discount_abs_lifetime_eur" json:"discount_abs_lifetime_eur"`
	DiscountRateLifetime      *float64 `db:"discount_rate_lifetime" json:"discount_rate_lifetime"`
	ShareOfOrdersWithDiscount *float64 `db:"share_of_orders_with_discount" json:"share_of_orders_with_discount"`
	ShareOfItemsDiscounted    *float64 `db:"share_of_items_discounted" json:"share_of_items_discounted"`
	AvgDiscountPerOrder       *float64 `db:"avg_discount_per_order" json:"avg_discount_per_order"`
	MaxDiscountSingleOrder    *float64 `db:"max_discount_single_order" json:"max_discount_single_order"`

	UnitPriceMinEur *float64 `db:"unit_price_min_eur" json:"unit_price_min_eur"`
	UnitPriceAvgEur *float64 `db:"unit_price_avg_eur" json:"unit_price_avg_eur"`
	UnitPriceMaxEur *float64 `db:"unit_price_max_eur" json:"unit_price_max_eur"`

	Country       string `db:"country" json:"country"`
	Gender        string `db:"gender" json:"gender"`
	ShopsIncluded int64  `db:"shops_included" json:"shops_included"`
}

// Run statuses
const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// FeatureRun tracks one materialization of the feature table
type FeatureRun struct {
	RunID             string     `db:"run_id" json:"run_id"`
	AsOfDate          time.Time  `db:"as_of_date" json:"as_of_date"`
	Status            string     `db:"status" json:"status"`
	OrdersRead        int64      `db:"orders_read" json:"orders_read"`
	OrdersAggregated  int64      `db:"orders_aggregated" json:"orders_aggregated"`
	UnresolvedOrders  int64      `db:"unresolved_orders" json:"unresolved_orders"`
	MissingRateItems  int64      `db:"missing_rate_items" json:"missing_rate_items"`
	CustomersEmitted  int64      `db:"customers_emitted" json:"customers_emitted"`
	SchemaFingerprint string     `db:"schema_fingerprint" json:"schema_fingerprint"`
	Error             string     `db:"error" json:"error,omitempty"`
	StartedAt         time.Time  `db:"started_at" json:"started_at"`
	FinishedAt        *time.Time `db:"finished_at" json:"finished_at,omitempty"`
}

// RunReport carries the degradation counters of one engine run. Omitted and
// degraded records are counted and reported, never swallowed.
type RunReport struct {
	OrdersRead          int64    `json:"orders_read"`
	OrdersAggregated    int64    `json:"orders_aggregated"`
	UnresolvedOrders    int64    `json:"unresolved_orders"`
	UnattributedRevenue *float64 `json:"unattributed_revenue,omitempty"`
	MissingRateItems    int64    `json:"missing_rate_items"`
	CustomersEmitted    int64    `json:"customers_emitted"`
}

// CustomerScore is one externally produced model score in [0,1]
type CustomerScore struct {
	ExternalCustomerKey string  `db:"external_customer_key" json:"externalcustomerkey"`
	Score               float64 `db:"score" json:"score"`
}

// CustomerSegment is the final bucketized assignment for a customer
type CustomerSegment struct {
	ExternalCustomerKey string    `db:"external_customer_key" json:"externalcustomerkey"`
	RunID               string    `db:"run_id" json:"run_id"`
	Score               float64   `db:"score" json:"score"`
	Segment             string    `db:"segment" json:"segment"`
	AssignedAt          time.Time `db:"assigned_at" json:"assigned_at"`
}
