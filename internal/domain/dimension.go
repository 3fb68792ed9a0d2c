package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const naturalKeySep = "|"

func naturalKey(parts ...string) string {
	return strings.Join(parts, naturalKeySep)
}

// DateKeyFormat is the canonical textual form of a calendar date used as the
// date dimension's natural key.
const DateKeyFormat = "2006-01-02"

// RegionMember is a row of the region dimension, natural key (country, region).
type RegionMember struct {
	RegionID uint64 `ch:"region_id_pk"`
	Country  string `ch:"country"`
	Region   string `ch:"region"`
	IsActive bool   `ch:"isactive"`
}

func (m RegionMember) Key() string { return naturalKey(m.Country, m.Region) }

func (m RegionMember) WithSurrogate(id uint64) RegionMember {
	m.RegionID = id
	return m
}

// ProductMember is a row of the product dimension. Brand, model, color and
// memory are decomposed from the slash-delimited mobile key.
type ProductMember struct {
	ProductID uint64 `ch:"product_id_pk"`
	MobileKey string `ch:"mobile_key"`
	Brand     string `ch:"brand"`
	Model     string `ch:"model"`
	Color     string `ch:"color"`
	Memory    string `ch:"memory"`
	IsActive  bool   `ch:"isactive"`
}

func (m ProductMember) Key() string {
	return naturalKey(m.MobileKey, m.Brand, m.Model, m.Color, m.Memory)
}

func (m ProductMember) WithSurrogate(id uint64) ProductMember {
	m.ProductID = id
	return m
}

// PromoCodeMember is a row of the promotion-code dimension; absent codes are
// stored under the PromoCodeNA sentinel.
type PromoCodeMember struct {
	PromoCodeID   uint64 `ch:"promo_code_id_pk"`
	PromotionCode string `ch:"promotion_code"`
	Country       string `ch:"country"`
	Region        string `ch:"region"`
	IsActive      bool   `ch:"isactive"`
}

func (m PromoCodeMember) Key() string {
	return naturalKey(m.PromotionCode, m.Country, m.Region)
}

func (m PromoCodeMember) WithSurrogate(id uint64) PromoCodeMember {
	m.PromoCodeID = id
	return m
}

// CustomerMember is a row of the customer dimension.
type CustomerMember struct {
	CustomerID      uint64 `ch:"customer_id_pk"`
	CustomerName    string `ch:"customer_name"`
	ContactNumber   string `ch:"contact_no"`
	ShippingAddress string `ch:"shipping_address"`
	Country         string `ch:"country"`
	Region          string `ch:"region"`
	IsActive        bool   `ch:"isactive"`
}

func (m CustomerMember) Key() string {
	return naturalKey(m.CustomerName, m.ContactNumber, m.ShippingAddress, m.Country, m.Region)
}

func (m CustomerMember) WithSurrogate(id uint64) CustomerMember {
	m.CustomerID = id
	return m
}

// PaymentMember is a row of the payment dimension.
type PaymentMember struct {
	PaymentID       uint64 `ch:"payment_id_pk"`
	PaymentMethod   string `ch:"payment_method"`
	PaymentProvider string `ch:"payment_provider"`
	Country         string `ch:"country"`
	Region          string `ch:"region"`
	IsActive        bool   `ch:"isactive"`
}

func (m PaymentMember) Key() string {
	return naturalKey(m.PaymentMethod, m.PaymentProvider, m.Country, m.Region)
}

func (m PaymentMember) WithSurrogate(id uint64) PaymentMember {
	m.PaymentID = id
	return m
}

// DateMember is a row of the date dimension. Unlike the other dimensions its
// members are synthesized as a contiguous calendar rather than grouped out of
// the curated stream. DayOfWeek is the ISO ordinal (Monday=1..Sunday=7) and
// DayCounter is relative to the minimum observed order date.
type DateMember struct {
	DateID     uint64    `ch:"date_id_pk"`
	Date       time.Time `ch:"order_dt"`
	Year       int32     `ch:"order_year"`
	Month      int32     `ch:"order_month"`
	Quarter    int32     `ch:"order_quarter"`
	Day        int32     `ch:"order_day"`
	DayOfWeek  int32     `ch:"order_dayofweek"`
	DayName    string    `ch:"order_dayname"`
	DayCounter int32     `ch:"day_counter"`
	DayType    string    `ch:"order_daytype"`
	IsActive   bool      `ch:"isactive"`
}

func (m DateMember) Key() string { return m.Date.Format(DateKeyFormat) }

func (m DateMember) WithSurrogate(id uint64) DateMember {
	m.DateID = id
	return m
}

// FactRecord is a row of the sales fact table: one foreign key per dimension
// plus the measures. USD fields stay nil when the curated row had no exchange
// rate for its order date.
type FactRecord struct {
	OrderIDPK        uint64           `ch:"order_id_pk"`
	OrderCode        string           `ch:"order_code"`
	DateID           uint64           `ch:"date_id_fk"`
	RegionID         uint64           `ch:"region_id_fk"`
	CustomerID       uint64           `ch:"customer_id_fk"`
	PaymentID        uint64           `ch:"payment_id_fk"`
	ProductID        uint64           `ch:"product_id_fk"`
	PromoCodeID      uint64           `ch:"promo_code_id_fk"`
	OrderQuantity    int32            `ch:"order_quantity"`
	LocalTotalAmount decimal.Decimal  `ch:"local_total_order_amt"`
	LocalTaxAmount   decimal.Decimal  `ch:"local_tax_amt"`
	ExchangeRate     *decimal.Decimal `ch:"exchange_rate"`
	USDTotalAmount   *decimal.Decimal `ch:"usd_total_order_amt"`
	USDTaxAmount     *decimal.Decimal `ch:"usd_tax_amt"`
}
