package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/config"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/curate"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/dimension"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/domain"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/fact"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/metrics"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/repository"
)

// Builders bundles the six dimension builders. Builds within a run are
// mutually independent, but each dimension has exactly one writer.
type Builders struct {
	Region   *dimension.Builder[domain.RegionMember]
	Product  *dimension.Builder[domain.ProductMember]
	Promo    *dimension.Builder[domain.PromoCodeMember]
	Customer *dimension.Builder[domain.CustomerMember]
	Payment  *dimension.Builder[domain.PaymentMember]
	Date     *dimension.Builder[domain.DateMember]
}

// Summary is the outcome of one pipeline run.
type Summary struct {
	RunID             string
	CuratedRows       int
	FilteredRows      int
	DuplicatesDropped int
	MissingRates      int
	DimensionInserted map[string]int
	FactRows          int
	FactDropped       map[string]int
}

// Runner executes the batch pipeline in strict dependency order: curated
// transform, then all dimension builds, then fact assembly. Every stage is
// idempotent against re-execution except fact assembly, which appends one row
// per qualifying curated record per run.
type Runner struct {
	catalog     config.Catalog
	sources     repository.SourceRepository
	curated     repository.CuratedRepository
	rates       repository.RateRepository
	transformer *curate.Transformer
	builders    Builders
	assembler   *fact.Assembler
	metrics     *metrics.Registry
	log         *zap.Logger
}

// NewRunner wires a runner from its collaborators.
func NewRunner(
	catalog config.Catalog,
	sources repository.SourceRepository,
	curated repository.CuratedRepository,
	rates repository.RateRepository,
	transformer *curate.Transformer,
	builders Builders,
	assembler *fact.Assembler,
	reg *metrics.Registry,
	log *zap.Logger,
) *Runner {
	return &Runner{
		catalog:     catalog,
		sources:     sources,
		curated:     curated,
		rates:       rates,
		transformer: transformer,
		builders:    builders,
		assembler:   assembler,
		metrics:     reg,
		log:         log,
	}
}

func (r *Runner) curatedTables() []string {
	return lo.Map(r.catalog.Sources, func(s config.Source, _ int) string {
		return s.CuratedTable
	})
}

// Curate transforms every source feed into its curated table.
func (r *Runner) Curate(ctx context.Context) (*Summary, error) {
	rates, err := r.rates.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange rates: %w", err)
	}

	summary := &Summary{}
	for _, src := range r.catalog.Sources {
		orders, err := r.sources.Orders(ctx, src.SourceTable)
		if err != nil {
			return nil, fmt.Errorf("source %s: failed to load source orders: %w", src.Code, err)
		}

		result, err := r.transformer.Transform(src, orders, rates)
		if err != nil {
			return nil, fmt.Errorf("source %s: transform failed: %w", src.Code, err)
		}

		if _, err := r.curated.Append(ctx, src.CuratedTable, result.Orders); err != nil {
			return nil, fmt.Errorf("source %s: failed to append curated rows: %w", src.Code, err)
		}

		summary.CuratedRows += len(result.Orders)
		summary.FilteredRows += result.Filtered
		summary.DuplicatesDropped += result.Duplicates
		summary.MissingRates += result.MissingRates

		r.metrics.CuratedRows.Add(float64(len(result.Orders)))
		r.metrics.RowsFiltered.Add(float64(result.Filtered))
		r.metrics.DuplicatesDropped.Add(float64(result.Duplicates))
		r.metrics.MissingRates.Add(float64(result.MissingRates))
	}
	return summary, nil
}

// BuildDimensions discovers and appends new members for all six dimensions
// from the unified curated stream. The builds run concurrently; each one is
// the sole writer of its dimension.
func (r *Runner) BuildDimensions(ctx context.Context) (map[string]int, error) {
	orders, err := r.curated.Orders(ctx, r.curatedTables()...)
	if err != nil {
		return nil, fmt.Errorf("failed to load curated stream: %w", err)
	}

	productCandidates, err := dimension.ProductMembers(orders)
	if err != nil {
		return nil, err
	}

	inserted := make(map[string]int, 6)
	var mu sync.Mutex
	record := func(name string, n int) {
		mu.Lock()
		inserted[name] = n
		mu.Unlock()
		r.metrics.DimensionInserted.WithLabelValues(name).Add(float64(n))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.builders.Date.Build(ctx, dimension.CalendarMembers(orders))
		if err == nil {
			record(r.builders.Date.Name(), n)
		}
		return err
	})
	g.Go(func() error {
		n, err := r.builders.Region.Build(ctx, dimension.RegionMembers(orders))
		if err == nil {
			record(r.builders.Region.Name(), n)
		}
		return err
	})
	g.Go(func() error {
		n, err := r.builders.Product.Build(ctx, productCandidates)
		if err == nil {
			record(r.builders.Product.Name(), n)
		}
		return err
	})
	g.Go(func() error {
		n, err := r.builders.Promo.Build(ctx, dimension.PromoCodeMembers(orders))
		if err == nil {
			record(r.builders.Promo.Name(), n)
		}
		return err
	})
	g.Go(func() error {
		n, err := r.builders.Customer.Build(ctx, dimension.CustomerMembers(orders))
		if err == nil {
			record(r.builders.Customer.Name(), n)
		}
		return err
	})
	g.Go(func() error {
		n, err := r.builders.Payment.Build(ctx, dimension.PaymentMembers(orders))
		if err == nil {
			record(r.builders.Payment.Name(), n)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inserted, nil
}

// AssembleFacts resolves the curated stream against the populated dimensions
// and appends the fact rows. It must run only after every dimension build of
// the run has committed.
func (r *Runner) AssembleFacts(ctx context.Context) (*fact.Result, error) {
	orders, err := r.curated.Orders(ctx, r.curatedTables()...)
	if err != nil {
		return nil, fmt.Errorf("failed to load curated stream: %w", err)
	}

	dims := fact.Dimensions{}
	if dims.Dates, err = r.builders.Date.Members(ctx); err != nil {
		return nil, err
	}
	if dims.Regions, err = r.builders.Region.Members(ctx); err != nil {
		return nil, err
	}
	if dims.Customers, err = r.builders.Customer.Members(ctx); err != nil {
		return nil, err
	}
	if dims.Payments, err = r.builders.Payment.Members(ctx); err != nil {
		return nil, err
	}
	if dims.Products, err = r.builders.Product.Members(ctx); err != nil {
		return nil, err
	}
	if dims.Promos, err = r.builders.Promo.Members(ctx); err != nil {
		return nil, err
	}

	result, err := r.assembler.Assemble(ctx, orders, dims)
	if err != nil {
		return nil, err
	}

	r.metrics.FactRows.Add(float64(result.Inserted))
	for dim, n := range result.Dropped {
		r.metrics.FactRowsDropped.WithLabelValues(dim).Add(float64(n))
	}
	return result, nil
}

// Run executes the full pipeline once. A failed stage leaves the run
// re-executable from that stage; dimension appends are idempotent, so
// re-running a completed stage inserts nothing new.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	log := r.log.With(zap.String("run_id", runID))
	log.Info("Pipeline run starting", zap.Int("sources", len(r.catalog.Sources)))

	summary, err := r.Curate(ctx)
	if err != nil {
		return nil, fmt.Errorf("curate stage failed: %w", err)
	}
	summary.RunID = runID

	if summary.DimensionInserted, err = r.BuildDimensions(ctx); err != nil {
		return nil, fmt.Errorf("dimension stage failed: %w", err)
	}

	factResult, err := r.AssembleFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fact stage failed: %w", err)
	}
	summary.FactRows = factResult.Inserted
	summary.FactDropped = factResult.Dropped

	log.Info("Pipeline run complete",
		zap.Int("curated_rows", summary.CuratedRows),
		zap.Int("duplicates_dropped", summary.DuplicatesDropped),
		zap.Int("fact_rows", summary.FactRows),
		zap.Int("fact_rows_dropped", factResult.DroppedTotal()),
		zap.Any("dimension_inserted", summary.DimensionInserted))
	return summary, nil
}
