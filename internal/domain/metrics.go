package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialMetrics is a derived, read-only aggregate over the full ledger of
// one seller. It is always recomputed from the stored records and never
// persisted as the source of truth (snapshots keep dated copies only).
type FinancialMetrics struct {
	TotalRevenue         decimal.Decimal     `json:"total_revenue"`
	TotalReturns         decimal.Decimal     `json:"total_returns"`
	TotalCosts           decimal.Decimal     `json:"total_costs"`
	TotalOrders          int                 `json:"total_orders"`
	TotalProducts        int                 `json:"total_products"`
	AverageOrderValue    decimal.Decimal     `json:"average_order_value"`
	TotalCommission      decimal.Decimal     `json:"total_commission"`
	NetProfit            decimal.Decimal     `json:"net_profit"`
	ReturnRatePercent    float64             `json:"return_rate_percent"`
	AverageDeliveryHours float64             `json:"average_delivery_hours"`
	TopProducts          []ProductRevenue    `json:"top_products"`
	RevenueByCategory    []CategoryRevenue   `json:"revenue_by_category"`
	DailyRevenue         []DailyRevenue      `json:"daily_revenue"`
	SchemePerformance    []SchemePerformance `json:"scheme_performance"`
}

// ProductRevenue is one entry of the top-products ranking (descending by
// revenue, at most five entries).
type ProductRevenue struct {
	Name     string          `json:"name"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity int             `json:"quantity"`
}

// CategoryRevenue aggregates the whole corpus by service group. Revenue is
// the absolute group sum; Percentage is its share of the sum of all absolute
// group sums.
type CategoryRevenue struct {
	Category   string          `json:"category"`
	Revenue    decimal.Decimal `json:"revenue"`
	Percentage float64         `json:"percentage"`
}

// DailyRevenue is one point of the sales trend, keyed by the accrual date
// exactly as it appeared in the ledger.
type DailyRevenue struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// SchemePerformance compares fulfillment schemes (FBO vs FBS and the like)
// over the sales view of the corpus.
type SchemePerformance struct {
	Scheme           string          `json:"scheme"`
	Revenue          decimal.Decimal `json:"revenue"`
	Orders           int             `json:"orders"`
	AvgDeliveryHours float64         `json:"avg_delivery_hours"`
}

// MetricsSnapshotEntry is a dated copy of a seller's FinancialMetrics kept by
// the snapshot scheduler.
type MetricsSnapshotEntry struct {
	ID        int64             `json:"id"`
	SellerID  string            `json:"seller_id"`
	Date      time.Time         `json:"date"`
	Metrics   *FinancialMetrics `json:"metrics"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
