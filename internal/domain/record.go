package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Canonical field keys produced by the ledger parser. The upload file headers
// are marketplace-specific (see config.Ledger); these names are what the rest
// of the system works with.
const (
	FieldAccrualID                = "accrual_id"
	FieldAccrualDate              = "accrual_date"
	FieldServiceGroup             = "service_group"
	FieldAccrualType              = "accrual_type"
	FieldSKU                      = "sku"
	FieldArticle                  = "article"
	FieldProductName              = "product_name"
	FieldQuantity                 = "quantity"
	FieldSellerPrice              = "seller_price"
	FieldTotalAmount              = "total_amount"
	FieldCommissionPercent        = "commission_percent"
	FieldLocalizationIndexPercent = "localization_index_percent"
	FieldAvgDeliveryHours         = "avg_delivery_hours"
	FieldFulfillmentScheme        = "fulfillment_scheme"
)

// SalesRecord is one line item of a marketplace financial event (sale,
// return, commission, logistics charge) owned by a single seller.
type SalesRecord struct {
	ID                       string          `json:"id" mapstructure:"-"`
	SellerID                 string          `json:"seller_id" mapstructure:"-"`
	AccrualID                string          `json:"accrual_id" mapstructure:"accrual_id"`
	AccrualDate              string          `json:"accrual_date" mapstructure:"accrual_date"`
	ServiceGroup             string          `json:"service_group" mapstructure:"service_group"`
	AccrualType              string          `json:"accrual_type" mapstructure:"accrual_type"`
	SKU                      string          `json:"sku" mapstructure:"sku"`
	Article                  string          `json:"article" mapstructure:"article"`
	ProductName              string          `json:"product_name" mapstructure:"product_name"`
	Quantity                 int             `json:"quantity" mapstructure:"quantity"`
	SellerPrice              decimal.Decimal `json:"seller_price" mapstructure:"seller_price"`
	TotalAmount              decimal.Decimal `json:"total_amount" mapstructure:"total_amount"`
	CommissionPercent        decimal.Decimal `json:"commission_percent" mapstructure:"commission_percent"`
	LocalizationIndexPercent decimal.Decimal `json:"localization_index_percent" mapstructure:"localization_index_percent"`
	AvgDeliveryHours         decimal.Decimal `json:"avg_delivery_hours" mapstructure:"avg_delivery_hours"`
	FulfillmentScheme        string          `json:"fulfillment_scheme" mapstructure:"fulfillment_scheme"`
	CreatedAt                time.Time       `json:"created_at" mapstructure:"-"`
}

// NaturalKey identifies a financial event inside one seller's ledger. The
// (seller, accrual id, accrual type) triple is the only uniqueness rule the
// ingestion gate enforces.
type NaturalKey struct {
	SellerID    string
	AccrualID   string
	AccrualType string
}

func (r *SalesRecord) NaturalKey() NaturalKey {
	return NaturalKey{
		SellerID:    r.SellerID,
		AccrualID:   r.AccrualID,
		AccrualType: r.AccrualType,
	}
}
