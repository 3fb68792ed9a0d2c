package clickhouse

import (
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/domain"
)

// Typed dimension repositories, one per dimension table.

func NewRegionDim(repo *Repository) *DimensionTable[domain.RegionMember] {
	return NewDimensionTable[domain.RegionMember](repo, TableRegionDim,
		"region_id_pk", "country", "region", "isactive")
}

func NewProductDim(repo *Repository) *DimensionTable[domain.ProductMember] {
	return NewDimensionTable[domain.ProductMember](repo, TableProductDim,
		"product_id_pk", "mobile_key", "brand", "model", "color", "memory", "isactive")
}

func NewPromoCodeDim(repo *Repository) *DimensionTable[domain.PromoCodeMember] {
	return NewDimensionTable[domain.PromoCodeMember](repo, TablePromoCodeDim,
		"promo_code_id_pk", "promotion_code", "country", "region", "isactive")
}

func NewCustomerDim(repo *Repository) *DimensionTable[domain.CustomerMember] {
	return NewDimensionTable[domain.CustomerMember](repo, TableCustomerDim,
		"customer_id_pk", "customer_name", "contact_no", "shipping_address",
		"country", "region", "isactive")
}

func NewPaymentDim(repo *Repository) *DimensionTable[domain.PaymentMember] {
	return NewDimensionTable[domain.PaymentMember](repo, TablePaymentDim,
		"payment_id_pk", "payment_method", "payment_provider", "country", "region", "isactive")
}

func NewDateDim(repo *Repository) *DimensionTable[domain.DateMember] {
	return NewDimensionTable[domain.DateMember](repo, TableDateDim,
		"date_id_pk", "order_dt", "order_year", "order_month", "order_quarter",
		"order_day", "order_dayofweek", "order_dayname", "day_counter",
		"order_daytype", "isactive")
}
