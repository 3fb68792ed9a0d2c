package fact

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/domain"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/repository"
)

// Dimensions holds the fully-populated dimension tables the assembler resolves
// foreign keys against. All dimension builds must have completed and committed
// before these snapshots are taken; the assembler itself cannot tell a
// late-arriving member from a missing one.
type Dimensions struct {
	Dates     []domain.DateMember
	Regions   []domain.RegionMember
	Customers []domain.CustomerMember
	Payments  []domain.PaymentMember
	Products  []domain.ProductMember
	Promos    []domain.PromoCodeMember
}

// Result reports how many fact rows were appended and, per dimension, how
// many curated rows were dropped because their natural key resolved to no
// member. Drops are not errors (inner-join semantics) but they are counted.
type Result struct {
	Inserted int
	Dropped  map[string]int
}

// DroppedTotal sums the per-dimension drop counts.
func (r *Result) DroppedTotal() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// Assembler resolves curated rows to dimension surrogate keys and appends the
// resulting fact rows.
type Assembler struct {
	facts    repository.FactRepository
	seqs     repository.SequenceRepository
	sequence string
	log      *zap.Logger
}

// NewAssembler creates a fact assembler drawing surrogate keys from the named
// sequence.
func NewAssembler(facts repository.FactRepository, seqs repository.SequenceRepository, sequence string, log *zap.Logger) *Assembler {
	return &Assembler{facts: facts, seqs: seqs, sequence: sequence, log: log}
}

// Assemble produces and appends one fact row per curated order whose natural
// keys all resolve. Rows with any unresolved key are excluded silently, per
// dimension, and reported in the result.
func (a *Assembler) Assemble(ctx context.Context, orders []domain.CuratedSalesOrder, dims Dimensions) (*Result, error) {
	dateByKey := lo.Associate(dims.Dates, func(m domain.DateMember) (string, uint64) {
		return m.Key(), m.DateID
	})
	customerByKey := lo.Associate(dims.Customers, func(m domain.CustomerMember) (string, uint64) {
		return joinKey(m.CustomerName, m.Region, m.Country), m.CustomerID
	})
	paymentByKey := lo.Associate(dims.Payments, func(m domain.PaymentMember) (string, uint64) {
		return joinKey(m.PaymentMethod, m.PaymentProvider, m.Country, m.Region), m.PaymentID
	})
	productByKey := lo.Associate(dims.Products, func(m domain.ProductMember) (string, uint64) {
		return m.MobileKey, m.ProductID
	})
	promoByKey := lo.Associate(dims.Promos, func(m domain.PromoCodeMember) (string, uint64) {
		return joinKey(m.PromotionCode, m.Country, m.Region), m.PromoCodeID
	})
	regionByKey := lo.Associate(dims.Regions, func(m domain.RegionMember) (string, uint64) {
		return joinKey(m.Country, m.Region), m.RegionID
	})

	dropped := map[string]int{}
	resolved := make([]domain.FactRecord, 0, len(orders))

	for _, o := range orders {
		row := domain.FactRecord{
			OrderCode:        o.OrderID,
			OrderQuantity:    o.OrderQuantity,
			LocalTotalAmount: o.LocalTotalAmount,
			LocalTaxAmount:   o.LocalTaxAmount,
			ExchangeRate:     o.ExchangeRate,
			USDTotalAmount:   o.USDTotalAmount,
			USDTaxAmount:     o.USDTaxAmount,
		}

		// Join sequence mirrors the warehouse's load order: date, customer,
		// payment, product, promotion code, region. The first miss drops the
		// row and is attributed to that dimension.
		var ok bool
		if row.DateID, ok = dateByKey[o.OrderDate.Format(domain.DateKeyFormat)]; !ok {
			a.drop(dropped, "date", o)
			continue
		}
		if row.CustomerID, ok = customerByKey[joinKey(o.CustomerName, o.Region, o.Country)]; !ok {
			a.drop(dropped, "customer", o)
			continue
		}
		if row.PaymentID, ok = paymentByKey[joinKey(o.PaymentMethod, o.PaymentProvider, o.Country, o.Region)]; !ok {
			a.drop(dropped, "payment", o)
			continue
		}
		if row.ProductID, ok = productByKey[o.MobileKey]; !ok {
			a.drop(dropped, "product", o)
			continue
		}
		if row.PromoCodeID, ok = promoByKey[joinKey(o.PromoCode(), o.Country, o.Region)]; !ok {
			a.drop(dropped, "promo_code", o)
			continue
		}
		if row.RegionID, ok = regionByKey[joinKey(o.Country, o.Region)]; !ok {
			a.drop(dropped, "region", o)
			continue
		}

		resolved = append(resolved, row)
	}

	result := &Result{Dropped: dropped}
	if len(resolved) == 0 {
		a.log.Info("No fact rows to append", zap.Int("curated_rows", len(orders)))
		return result, nil
	}

	start, err := a.seqs.Reserve(ctx, a.sequence, len(resolved))
	if err != nil {
		return nil, fmt.Errorf("failed to reserve fact surrogate keys: %w", err)
	}
	for i := range resolved {
		resolved[i].OrderIDPK = start + uint64(i)
	}

	inserted, err := a.facts.Append(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to append fact rows: %w", err)
	}
	result.Inserted = inserted

	a.log.Info("Fact assembly complete",
		zap.Int("curated_rows", len(orders)),
		zap.Int("fact_rows", inserted),
		zap.Int("dropped", result.DroppedTotal()))
	return result, nil
}

func (a *Assembler) drop(dropped map[string]int, dim string, o domain.CuratedSalesOrder) {
	dropped[dim]++
	a.log.Debug("Dropping curated row with unresolved dimension key",
		zap.String("dimension", dim),
		zap.String("order_id", o.OrderID),
		zap.String("order_date", o.OrderDate.Format(domain.DateKeyFormat)))
}

func joinKey(parts ...string) string {
	return strings.Join(parts, "|")
}
