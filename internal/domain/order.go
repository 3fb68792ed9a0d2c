package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceFormat identifies the raw layout of a country feed. The set is closed:
// India ships flat positional CSV, the US and France ship documents with named
// fields. Each format has its own mapper into SourceOrder.
type SourceFormat string

const (
	FormatCSV  SourceFormat = "csv"
	FormatJSON SourceFormat = "json"
)

// SourceOrder is a sales order as landed in a per-country source table. The
// column layout is uniform across countries; schema variance is resolved by the
// ingest mappers. Stage* fields carry file provenance from the staged feed.
type SourceOrder struct {
	SalesOrderKey   uint64          `ch:"sales_order_key"`
	OrderID         string          `ch:"order_id"`
	CustomerName    string          `ch:"customer_name"`
	MobileKey       string          `ch:"mobile_key"`
	OrderQuantity   int32           `ch:"order_quantity"`
	UnitPrice       decimal.Decimal `ch:"unit_price"`
	PromotionCode   *string         `ch:"promotion_code"`
	OrderAmount     decimal.Decimal `ch:"final_order_amount"`
	TaxAmount       decimal.Decimal `ch:"tax_amount"`
	OrderDate       time.Time       `ch:"order_dt"`
	PaymentStatus   string          `ch:"payment_status"`
	ShippingStatus  string          `ch:"shipping_status"`
	PaymentMethod   string          `ch:"payment_method"`
	PaymentProvider string          `ch:"payment_provider"`
	ContactNumber   string          `ch:"contact_no"`
	ShippingAddress string          `ch:"shipping_address"`

	StageFileName     string    `ch:"stg_file_name"`
	StageRowNumber    uint32    `ch:"stg_row_number"`
	StageLastModified time.Time `ch:"stg_last_modified"`
}

// CuratedSalesOrder is the normalized record produced by the curated
// transformer: filtered to Paid+Delivered, enriched with country/region,
// deduplicated and currency-converted. Nil ExchangeRate means the order date
// had no matching rate row; the USD fields are nil in that case too.
type CuratedSalesOrder struct {
	SalesOrderKey    uint64           `ch:"sales_order_key"`
	OrderID          string           `ch:"order_id"`
	OrderDate        time.Time        `ch:"order_dt"`
	CustomerName     string           `ch:"customer_name"`
	MobileKey        string           `ch:"mobile_key"`
	Country          string           `ch:"country"`
	Region           string           `ch:"region"`
	OrderQuantity    int32            `ch:"order_quantity"`
	LocalCurrency    string           `ch:"local_currency"`
	LocalUnitPrice   decimal.Decimal  `ch:"local_unit_price"`
	PromotionCode    *string          `ch:"promotion_code"`
	LocalTotalAmount decimal.Decimal  `ch:"local_total_order_amt"`
	LocalTaxAmount   decimal.Decimal  `ch:"local_tax_amt"`
	ExchangeRate     *decimal.Decimal `ch:"exchange_rate"`
	USDTotalAmount   *decimal.Decimal `ch:"usd_total_order_amt"`
	USDTaxAmount     *decimal.Decimal `ch:"usd_tax_amt"`
	PaymentStatus    string           `ch:"payment_status"`
	ShippingStatus   string           `ch:"shipping_status"`
	PaymentMethod    string           `ch:"payment_method"`
	PaymentProvider  string           `ch:"payment_provider"`
	ContactNumber    string           `ch:"contact_no"`
	ShippingAddress  string           `ch:"shipping_address"`

	StageFileName     string    `ch:"stg_file_name"`
	StageRowNumber    uint32    `ch:"stg_row_number"`
	StageLastModified time.Time `ch:"stg_last_modified"`
}

// PromoCode returns the promotion code with nulls coalesced to the "NA"
// sentinel. The same sentinel is used when building the promotion-code
// dimension and when resolving fact foreign keys, otherwise the join would
// silently drop rows.
func (o CuratedSalesOrder) PromoCode() string {
	if o.PromotionCode == nil || *o.PromotionCode == "" {
		return PromoCodeNA
	}
	return *o.PromotionCode
}

// PromoCodeNA is the sentinel for an absent promotion code.
const PromoCodeNA = "NA"

// ExchangeRate is one row of the exchange-rate reference table: one rate
// column per target currency pair, keyed by date. Rates are nullable since the
// reference feed does not cover every pair on every date.
type ExchangeRate struct {
	Date    time.Time        `ch:"date"`
	USD2USD *decimal.Decimal `ch:"usd2usd"`
	USD2INR *decimal.Decimal `ch:"usd2inr"`
	USD2EU  *decimal.Decimal `ch:"usd2eu"`
}

// Rate returns the rate for the named currency-pair column. The second return
// is false when the column name is not part of the reference table.
func (r ExchangeRate) Rate(column string) (*decimal.Decimal, bool) {
	switch column {
	case "usd2usd":
		return r.USD2USD, true
	case "usd2inr":
		return r.USD2INR, true
	case "usd2eu":
		return r.USD2EU, true
	default:
		return nil, false
	}
}
