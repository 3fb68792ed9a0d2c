package curate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/config"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/domain"
)

var testSource = config.Source{
	Code: "IN", Country: "IN", Region: "APAC", Currency: "INR",
	RateColumn: "usd2inr", SourceTable: "in_sales_order",
	CuratedTable: "curated_in_sales_order",
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func paidOrder(key uint64, orderID, date string) domain.SourceOrder {
	return domain.SourceOrder{
		SalesOrderKey:     key,
		OrderID:           orderID,
		CustomerName:      "Asha Rao",
		MobileKey:         "Apple/iPhone 15/Black/128GB",
		OrderQuantity:     1,
		UnitPrice:         dec("1000"),
		OrderAmount:       dec("1000"),
		TaxAmount:         dec("180"),
		OrderDate:         day(date),
		PaymentStatus:     "Paid",
		ShippingStatus:    "Delivered",
		PaymentMethod:     "Card",
		PaymentProvider:   "Visa",
		ContactNumber:     "9876543210",
		ShippingAddress:   "12 MG Road, Bengaluru",
		StageFileName:     "sales/source=IN/order-20230101.csv",
		StageRowNumber:    uint32(key),
		StageLastModified: day("2023-02-01"),
	}
}

func inrRate(date, rate string) domain.ExchangeRate {
	return domain.ExchangeRate{Date: day(date), USD2INR: decPtr(rate)}
}

func TestTransform_FilterKeepsOnlyPaidAndDelivered(t *testing.T) {
	tr := NewTransformer(GroupByOrderID, zap.NewNop())

	pending := paidOrder(2, "ORD-2", "2023-01-01")
	pending.PaymentStatus = "Pending"
	inTransit := paidOrder(3, "ORD-3", "2023-01-01")
	inTransit.ShippingStatus = "In Transit"

	result, err := tr.Transform(testSource,
		[]domain.SourceOrder{paidOrder(1, "ORD-1", "2023-01-01"), pending, inTransit},
		[]domain.ExchangeRate{inrRate("2023-01-01", "83")})

	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, "ORD-1", result.Orders[0].OrderID)
	assert.Equal(t, 2, result.Filtered)
}

func TestTransform_EnrichesCountryRegionCurrency(t *testing.T) {
	tr := NewTransformer(GroupByOrderID, zap.NewNop())

	result, err := tr.Transform(testSource,
		[]domain.SourceOrder{paidOrder(1, "ORD-1", "2023-01-01")},
		[]domain.ExchangeRate{inrRate("2023-01-01", "83")})

	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	got := result.Orders[0]
	assert.Equal(t, "IN", got.Country)
	assert.Equal(t, "APAC", got.Region)
	assert.Equal(t, "INR", got.LocalCurrency)
}

func TestTransform_CurrencyConversion(t *testing.T) {
	tr := NewTransformer(GroupByOrderID, zap.NewNop())

	result, err := tr.Transform(testSource,
		[]domain.SourceOrder{paidOrder(1, "ORD-1", "2023-01-01")},
		[]domain.ExchangeRate{inrRate("2023-01-01", "83")})

	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	got := result.Orders[0]
	require.NotNil(t, got.ExchangeRate)
	require.NotNil(t, got.USDTotalAmount)
	require.NotNil(t, got.USDTaxAmount)
	// 1000 / 83
	assert.True(t, got.USDTotalAmount.Round(3).Equal(dec("12.048")),
		"got %s", got.USDTotalAmount)
	// 180 / 83
	assert.True(t, got.USDTaxAmount.Round(3).Equal(dec("2.169")),
		"got %s", got.USDTaxAmount)
}

func TestTransform_MissingRateYieldsNullUSD(t *testing.T) {
	tr := NewTransformer(GroupByOrderID, zap.NewNop())

	result, err := tr.Transform(testSource,
		[]domain.SourceOrder{paidOrder(1, "ORD-1", "2023-01-05")},
		[]domain.ExchangeRate{inrRate("2023-01-01", "83")})

	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	got := result.Orders[0]
	assert.Nil(t, got.ExchangeRate)
	assert.Nil(t, got.USDTotalAmount)
	assert.Nil(t, got.USDTaxAmount)
	assert.Equal(t, 1, result.MissingRates)
}

func TestTransform_NullRateFailsStage(t *testing.T) {
	tr := NewTransformer(GroupByOrderID, zap.NewNop())

	// The rate row for the order date exists but its INR column is null.
	// Unlike an absent row, this must not flow down the null-USD path.
	nullRate := domain.ExchangeRate{Date: day("2023-01-01"), USD2USD: decPtr("1")}

	_, err := tr.Transform(testSource,
		[]domain.SourceOrder{paidOrder(1, "ORD-1", "2023-01-01")},
		[]domain.ExchangeRate{nullRate})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrArithmetic)
}

func TestTransform_ZeroRateFailsStage(t *testing.T) {
	tr := NewTransformer(GroupByOrderID, zap.NewNop())

	_, err := tr.Transform(testSource,
		[]domain.SourceOrder{paidOrder(1, "ORD-1", "2023-01-01")},
		[]domain.ExchangeRate{inrRate("2023-01-01", "0")})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrArithmetic)
}

func TestTransform_UnknownRateColumn(t *testing.T) {
	tr := NewTransformer(GroupByOrderID, zap.NewNop())

	src := testSource
	src.RateColumn = "usd2gbp"

	_, err := tr.Transform(src, nil, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownRateColumn)
}

func TestTransform_DedupKeepsLatestModified(t *testing.T) {
	tr := NewTransformer(GroupByOrderID, zap.NewNop())

	stale := paidOrder(1, "ORD-1", "2023-01-01")
	stale.StageLastModified = day("2023-02-01")
	fresh := paidOrder(2, "ORD-1", "2023-01-01")
	fresh.StageLastModified = day("2023-02-02")
	fresh.OrderAmount = dec("1100")

	result, err := tr.Transform(testSource,
		[]domain.SourceOrder{stale, fresh},
		[]domain.ExchangeRate{inrRate("2023-01-01", "83")})

	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.True(t, result.Orders[0].LocalTotalAmount.Equal(dec("1100")))
	assert.Equal(t, 1, result.Duplicates)
}

func TestTransform_GroupByOrderIDKeepsDistinctOrdersSharingADate(t *testing.T) {
	tr := NewTransformer(GroupByOrderID, zap.NewNop())

	result, err := tr.Transform(testSource,
		[]domain.SourceOrder{
			paidOrder(1, "ORD-1", "2023-01-01"),
			paidOrder(2, "ORD-2", "2023-01-01"),
		},
		[]domain.ExchangeRate{inrRate("2023-01-01", "83")})

	require.NoError(t, err)
	assert.Len(t, result.Orders, 2)
	assert.Equal(t, 0, result.Duplicates)
}

func TestTransform_GroupByOrderDateCollapsesADate(t *testing.T) {
	// Legacy grouping: one survivor per calendar date, matching the original
	// load exactly even though it collapses distinct orders.
	tr := NewTransformer(GroupByOrderDate, zap.NewNop())

	first := paidOrder(1, "ORD-1", "2023-01-01")
	first.StageLastModified = day("2023-02-01")
	second := paidOrder(2, "ORD-2", "2023-01-01")
	second.StageLastModified = day("2023-02-02")

	result, err := tr.Transform(testSource,
		[]domain.SourceOrder{first, second},
		[]domain.ExchangeRate{inrRate("2023-01-01", "83")})

	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, "ORD-2", result.Orders[0].OrderID)
	assert.Equal(t, 1, result.Duplicates)
}

func TestTransform_DedupTieBreakIsDeterministic(t *testing.T) {
	tr := NewTransformer(GroupByOrderID, zap.NewNop())

	a := paidOrder(1, "ORD-1", "2023-01-01")
	a.StageFileName = "sales/b.csv"
	b := paidOrder(2, "ORD-1", "2023-01-01")
	b.StageFileName = "sales/a.csv"

	for i := 0; i < 5; i++ {
		result, err := tr.Transform(testSource,
			[]domain.SourceOrder{a, b},
			[]domain.ExchangeRate{inrRate("2023-01-01", "83")})
		require.NoError(t, err)
		require.Len(t, result.Orders, 1)
		assert.Equal(t, "sales/a.csv", result.Orders[0].StageFileName)
	}
}

func TestParseGroupKey(t *testing.T) {
	key, err := ParseGroupKey("order_id")
	require.NoError(t, err)
	assert.Equal(t, GroupByOrderID, key)

	key, err = ParseGroupKey("order_date")
	require.NoError(t, err)
	assert.Equal(t, GroupByOrderDate, key)

	_, err = ParseGroupKey("customer_name")
	assert.Error(t, err)
}
