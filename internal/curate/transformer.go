package curate

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/config"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/domain"
)

// GroupKey selects the column the deduplication groups candidate rows by.
//
// The source system grouped by order date, which collapses distinct orders
// that legitimately share a date into a single surviving row. That behavior is
// kept selectable for parity, but grouping by order identifier is the default.
type GroupKey string

const (
	GroupByOrderID   GroupKey = "order_id"
	GroupByOrderDate GroupKey = "order_date"
)

// ParseGroupKey validates a configured group-key name.
func ParseGroupKey(s string) (GroupKey, error) {
	switch GroupKey(s) {
	case GroupByOrderID, GroupByOrderDate:
		return GroupKey(s), nil
	default:
		return "", fmt.Errorf("unsupported dedup group key %q (supported: order_id, order_date)", s)
	}
}

// Transformer turns a country-scoped source stream into curated sales orders:
// filter to Paid+Delivered, enrich with the source's literal country/region,
// left-outer join the exchange-rate reference on order date, deduplicate, and
// convert the local amounts to USD.
type Transformer struct {
	groupKey GroupKey
	log      *zap.Logger
}

// NewTransformer creates a transformer using the given dedup group key.
func NewTransformer(groupKey GroupKey, log *zap.Logger) *Transformer {
	return &Transformer{groupKey: groupKey, log: log}
}

// Result carries the curated rows plus the counts of everything that did not
// survive, for observability.
type Result struct {
	Orders       []domain.CuratedSalesOrder
	Filtered     int
	Duplicates   int
	MissingRates int
}

// Transform produces the curated stream for one source feed.
func (t *Transformer) Transform(src config.Source, orders []domain.SourceOrder, rates []domain.ExchangeRate) (*Result, error) {
	if _, ok := (domain.ExchangeRate{}).Rate(src.RateColumn); !ok {
		return nil, fmt.Errorf("source %s: %w: %q", src.Code, domain.ErrUnknownRateColumn, src.RateColumn)
	}

	// Retain only paid and delivered sale orders.
	kept := lo.Filter(orders, func(o domain.SourceOrder, _ int) bool {
		return o.PaymentStatus == "Paid" && o.ShippingStatus == "Delivered"
	})

	rateByDate := make(map[string]*decimal.Decimal, len(rates))
	for _, r := range rates {
		rate, _ := r.Rate(src.RateColumn)
		rateByDate[r.Date.Format(domain.DateKeyFormat)] = rate
	}

	candidates := make([]domain.CuratedSalesOrder, 0, len(kept))
	for _, o := range kept {
		// Left-outer semantics: an order date with no rate row keeps the
		// order and leaves the rate null.
		rate := rateByDate[o.OrderDate.Format(domain.DateKeyFormat)]
		candidates = append(candidates, enrich(src, o, rate))
	}

	winners, duplicates := t.dedup(candidates)

	missing := 0
	for i := range winners {
		// An order date with no rate row at all keeps null USD fields. A
		// rate row that matched but carries a null rate is a data error,
		// not a missed join.
		rate, matched := rateByDate[winners[i].OrderDate.Format(domain.DateKeyFormat)]
		if !matched {
			missing++
			continue
		}
		if rate == nil {
			return nil, fmt.Errorf("order %s on %s: null rate in column %s: %w",
				winners[i].OrderID,
				winners[i].OrderDate.Format(domain.DateKeyFormat),
				src.RateColumn, domain.ErrArithmetic)
		}
		if err := convert(&winners[i]); err != nil {
			return nil, err
		}
	}

	t.log.Info("Curated source stream",
		zap.String("source", src.Code),
		zap.Int("input_rows", len(orders)),
		zap.Int("filtered_out", len(orders)-len(kept)),
		zap.Int("duplicates_dropped", duplicates),
		zap.Int("missing_rates", missing),
		zap.Int("curated_rows", len(winners)))

	return &Result{
		Orders:       winners,
		Filtered:     len(orders) - len(kept),
		Duplicates:   duplicates,
		MissingRates: missing,
	}, nil
}

func enrich(src config.Source, o domain.SourceOrder, rate *decimal.Decimal) domain.CuratedSalesOrder {
	return domain.CuratedSalesOrder{
		SalesOrderKey:     o.SalesOrderKey,
		OrderID:           o.OrderID,
		OrderDate:         o.OrderDate,
		CustomerName:      o.CustomerName,
		MobileKey:         o.MobileKey,
		Country:           src.Country,
		Region:            src.Region,
		OrderQuantity:     o.OrderQuantity,
		LocalCurrency:     src.Currency,
		LocalUnitPrice:    o.UnitPrice,
		PromotionCode:     o.PromotionCode,
		LocalTotalAmount:  o.OrderAmount,
		LocalTaxAmount:    o.TaxAmount,
		ExchangeRate:      rate,
		PaymentStatus:     o.PaymentStatus,
		ShippingStatus:    o.ShippingStatus,
		PaymentMethod:     o.PaymentMethod,
		PaymentProvider:   o.PaymentProvider,
		ContactNumber:     o.ContactNumber,
		ShippingAddress:   o.ShippingAddress,
		StageFileName:     o.StageFileName,
		StageRowNumber:    o.StageRowNumber,
		StageLastModified: o.StageLastModified,
	}
}

// dedup keeps, per group, the candidate from the most recently modified staged
// file. Ties are broken deterministically by file name, then row number.
func (t *Transformer) dedup(candidates []domain.CuratedSalesOrder) ([]domain.CuratedSalesOrder, int) {
	groups := lo.GroupBy(candidates, func(o domain.CuratedSalesOrder) string {
		if t.groupKey == GroupByOrderDate {
			return o.OrderDate.Format(domain.DateKeyFormat)
		}
		return o.OrderID
	})

	winners := make([]domain.CuratedSalesOrder, 0, len(groups))
	duplicates := 0
	for _, group := range groups {
		best := group[0]
		for _, o := range group[1:] {
			if ranksHigher(o, best) {
				best = o
			}
		}
		duplicates += len(group) - 1
		winners = append(winners, best)
	}

	sort.Slice(winners, func(i, j int) bool {
		return winners[i].SalesOrderKey < winners[j].SalesOrderKey
	})
	return winners, duplicates
}

func ranksHigher(a, b domain.CuratedSalesOrder) bool {
	if !a.StageLastModified.Equal(b.StageLastModified) {
		return a.StageLastModified.After(b.StageLastModified)
	}
	if a.StageFileName != b.StageFileName {
		return a.StageFileName < b.StageFileName
	}
	return a.StageRowNumber < b.StageRowNumber
}

// convert derives the USD measures. A null rate never reaches here; a rate
// row that is present but zero is a data error and fails the stage rather
// than propagating nulls.
func convert(o *domain.CuratedSalesOrder) error {
	if o.ExchangeRate.IsZero() {
		return fmt.Errorf("order %s on %s: %w",
			o.OrderID, o.OrderDate.Format(domain.DateKeyFormat), domain.ErrArithmetic)
	}

	usdTotal := o.LocalTotalAmount.Div(*o.ExchangeRate)
	usdTax := o.LocalTaxAmount.Div(*o.ExchangeRate)
	o.USDTotalAmount = &usdTotal
	o.USDTaxAmount = &usdTax
	return nil
}
