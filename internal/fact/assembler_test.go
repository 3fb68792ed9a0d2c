package fact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/domain"
)

type fakeFactRepo struct {
	rows      []domain.FactRecord
	appendErr error
}

func (f *fakeFactRepo) Append(_ context.Context, rows []domain.FactRecord) (int, error) {
	if f.appendErr != nil {
		return 0, f.appendErr
	}
	f.rows = append(f.rows, rows...)
	return len(rows), nil
}

type fakeSequences struct {
	next     uint64
	reserved int
}

func (s *fakeSequences) Reserve(_ context.Context, _ string, n int) (uint64, error) {
	start := s.next + 1
	s.next += uint64(n)
	s.reserved += n
	return start, nil
}

var orderDay = time.Date(2023, time.June, 10, 0, 0, 0, 0, time.UTC)

func curatedOrder(id string) domain.CuratedSalesOrder {
	promo := "DIWALI10"
	rate := decimal.NewFromInt(83)
	usd := decimal.NewFromInt(12)
	return domain.CuratedSalesOrder{
		OrderID:          id,
		OrderDate:        orderDay,
		CustomerName:     "Asha Rao",
		MobileKey:        "Samsung/Galaxy S23/Cream/256GB",
		Country:          "IN",
		Region:           "APAC",
		OrderQuantity:    2,
		PromotionCode:    &promo,
		LocalTotalAmount: decimal.NewFromInt(1000),
		LocalTaxAmount:   decimal.NewFromInt(180),
		ExchangeRate:     &rate,
		USDTotalAmount:   &usd,
		USDTaxAmount:     &usd,
		PaymentMethod:    "Card",
		PaymentProvider:  "Visa",
	}
}

func allDims() Dimensions {
	return Dimensions{
		Dates:     []domain.DateMember{{DateID: 11, Date: orderDay}},
		Regions:   []domain.RegionMember{{RegionID: 21, Country: "IN", Region: "APAC"}},
		Customers: []domain.CustomerMember{{CustomerID: 31, CustomerName: "Asha Rao", Country: "IN", Region: "APAC"}},
		Payments:  []domain.PaymentMember{{PaymentID: 41, PaymentMethod: "Card", PaymentProvider: "Visa", Country: "IN", Region: "APAC"}},
		Products:  []domain.ProductMember{{ProductID: 51, MobileKey: "Samsung/Galaxy S23/Cream/256GB"}},
		Promos: []domain.PromoCodeMember{
			{PromoCodeID: 61, PromotionCode: "DIWALI10", Country: "IN", Region: "APAC"},
			{PromoCodeID: 62, PromotionCode: "NA", Country: "IN", Region: "APAC"},
		},
	}
}

func newAssembler(repo *fakeFactRepo, seqs *fakeSequences) *Assembler {
	return NewAssembler(repo, seqs, "sales_fact_seq", zap.NewNop())
}

func TestAssemble_ResolvesAllForeignKeys(t *testing.T) {
	repo := &fakeFactRepo{}
	asm := newAssembler(repo, &fakeSequences{})

	result, err := asm.Assemble(context.Background(), []domain.CuratedSalesOrder{curatedOrder("ORD-1")}, allDims())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 0, result.DroppedTotal())

	require.Len(t, repo.rows, 1)
	row := repo.rows[0]
	assert.Equal(t, uint64(1), row.OrderIDPK)
	assert.Equal(t, "ORD-1", row.OrderCode)
	assert.Equal(t, uint64(11), row.DateID)
	assert.Equal(t, uint64(21), row.RegionID)
	assert.Equal(t, uint64(31), row.CustomerID)
	assert.Equal(t, uint64(41), row.PaymentID)
	assert.Equal(t, uint64(51), row.ProductID)
	assert.Equal(t, uint64(61), row.PromoCodeID)
	assert.True(t, row.LocalTotalAmount.Equal(decimal.NewFromInt(1000)))
	require.NotNil(t, row.ExchangeRate)
	assert.True(t, row.ExchangeRate.Equal(decimal.NewFromInt(83)))
}

func TestAssemble_NullPromoResolvesThroughSentinel(t *testing.T) {
	repo := &fakeFactRepo{}
	asm := newAssembler(repo, &fakeSequences{})

	order := curatedOrder("ORD-2")
	order.PromotionCode = nil

	result, err := asm.Assemble(context.Background(), []domain.CuratedSalesOrder{order}, allDims())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	require.Len(t, repo.rows, 1)
	assert.Equal(t, uint64(62), repo.rows[0].PromoCodeID)
}

func TestAssemble_UnresolvedKeyDropsRowWithoutError(t *testing.T) {
	cases := []struct {
		dim    string
		mutate func(*domain.CuratedSalesOrder)
	}{
		{"date", func(o *domain.CuratedSalesOrder) { o.OrderDate = orderDay.AddDate(0, 0, 1) }},
		{"customer", func(o *domain.CuratedSalesOrder) { o.CustomerName = "Unknown" }},
		{"payment", func(o *domain.CuratedSalesOrder) { o.PaymentProvider = "Mastercard" }},
		{"product", func(o *domain.CuratedSalesOrder) { o.MobileKey = "Apple/iPhone 14/Blue/128GB" }},
		{"region", func(o *domain.CuratedSalesOrder) { o.Country = "DE" }},
	}

	for _, tc := range cases {
		t.Run(tc.dim, func(t *testing.T) {
			repo := &fakeFactRepo{}
			asm := newAssembler(repo, &fakeSequences{})

			bad := curatedOrder("ORD-BAD")
			tc.mutate(&bad)
			orders := []domain.CuratedSalesOrder{curatedOrder("ORD-OK"), bad}

			result, err := asm.Assemble(context.Background(), orders, allDims())
			require.NoError(t, err)
			assert.Equal(t, 1, result.Inserted)

			if tc.dim == "region" {
				// A changed country misses the customer join first; the drop
				// lands on the first dimension in the join sequence that misses.
				assert.Equal(t, 1, result.DroppedTotal())
			} else {
				assert.Equal(t, 1, result.Dropped[tc.dim])
			}
			require.Len(t, repo.rows, 1)
			assert.Equal(t, "ORD-OK", repo.rows[0].OrderCode)
		})
	}
}

func TestAssemble_DropAttributedToFirstMissingJoin(t *testing.T) {
	asm := newAssembler(&fakeFactRepo{}, &fakeSequences{})

	// Country changed: customer, payment, promo and region all miss, but the
	// join sequence charges the customer join.
	bad := curatedOrder("ORD-3")
	bad.Country = "DE"

	result, err := asm.Assemble(context.Background(), []domain.CuratedSalesOrder{bad}, allDims())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"customer": 1}, result.Dropped)
}

func TestAssemble_NothingResolvedReservesNoKeys(t *testing.T) {
	seqs := &fakeSequences{}
	asm := newAssembler(&fakeFactRepo{}, seqs)

	result, err := asm.Assemble(context.Background(), []domain.CuratedSalesOrder{curatedOrder("ORD-4")}, Dimensions{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.DroppedTotal())
	assert.Equal(t, 0, seqs.reserved)
}

func TestAssemble_SurrogateKeysAreContiguousPerBatch(t *testing.T) {
	repo := &fakeFactRepo{}
	seqs := &fakeSequences{next: 100}
	asm := newAssembler(repo, seqs)

	orders := []domain.CuratedSalesOrder{curatedOrder("ORD-5"), curatedOrder("ORD-6"), curatedOrder("ORD-7")}
	result, err := asm.Assemble(context.Background(), orders, allDims())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Inserted)

	require.Len(t, repo.rows, 3)
	for i, row := range repo.rows {
		assert.Equal(t, uint64(101+i), row.OrderIDPK)
	}
}

func TestAssemble_AppendErrorPropagates(t *testing.T) {
	appendErr := errors.New("batch send failed")
	asm := newAssembler(&fakeFactRepo{appendErr: appendErr}, &fakeSequences{})

	_, err := asm.Assemble(context.Background(), []domain.CuratedSalesOrder{curatedOrder("ORD-8")}, allDims())
	assert.ErrorIs(t, err, appendErr)
}
