package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/api"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/config"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/curate"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/dimension"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/domain"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/fact"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/ingest"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/logger"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/metrics"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/pipeline"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/repository/clickhouse"
	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/staging"
)

// app bundles everything a pipeline command needs. Collaborators are built
// once per invocation and threaded through explicitly; there is no ambient
// session state.
type app struct {
	cfg     *config.Config
	catalog config.Catalog
	log     *zap.Logger
	client  *clickhouse.Client
	repo    *clickhouse.Repository
	reg     *metrics.Registry
	loader  *ingest.Loader
	runner  *pipeline.Runner
}

func newApp(ctx context.Context) (*app, error) {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.ServiceEnvironment)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	catalog, err := config.LoadCatalog(cfg.SourceCatalogPath)
	if err != nil {
		return nil, err
	}

	groupKey, err := curate.ParseGroupKey(cfg.CurateDedupKey)
	if err != nil {
		return nil, err
	}

	client, err := clickhouse.NewClient(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	repo := clickhouse.NewRepository(client, log)
	reg := metrics.NewRegistry()

	builders := pipeline.Builders{
		Region: dimension.NewBuilder[domain.RegionMember]("region",
			clickhouse.SeqRegionDim, clickhouse.NewRegionDim(repo), repo, log),
		Product: dimension.NewBuilder[domain.ProductMember]("product",
			clickhouse.SeqProductDim, clickhouse.NewProductDim(repo), repo, log),
		Promo: dimension.NewBuilder[domain.PromoCodeMember]("promo_code",
			clickhouse.SeqPromoCodeDim, clickhouse.NewPromoCodeDim(repo), repo, log),
		Customer: dimension.NewBuilder[domain.CustomerMember]("customer",
			clickhouse.SeqCustomerDim, clickhouse.NewCustomerDim(repo), repo, log),
		Payment: dimension.NewBuilder[domain.PaymentMember]("payment",
			clickhouse.SeqPaymentDim, clickhouse.NewPaymentDim(repo), repo, log),
		Date: dimension.NewBuilder[domain.DateMember]("date",
			clickhouse.SeqDateDim, clickhouse.NewDateDim(repo), repo, log),
	}

	runner := pipeline.NewRunner(
		catalog,
		repo,
		clickhouse.NewCurated(repo),
		repo,
		curate.NewTransformer(groupKey, log),
		builders,
		fact.NewAssembler(clickhouse.NewFacts(repo), repo, clickhouse.SeqSalesFact, log),
		reg,
		log,
	)

	a := &app{
		cfg:     cfg,
		catalog: catalog,
		log:     log,
		client:  client,
		repo:    repo,
		reg:     reg,
		loader:  ingest.NewLoader(repo, repo, log),
		runner:  runner,
	}
	a.serveOps()
	return a, nil
}

func (a *app) serveOps() {
	if a.cfg.MetricsAddr == "" {
		return
	}
	go func() {
		a.log.Info("Ops server starting", zap.String("address", a.cfg.MetricsAddr))
		h := api.NewHandler(a.repo, a.reg, a.log)
		if err := http.ListenAndServe(a.cfg.MetricsAddr, h); err != nil {
			a.log.Error("Ops server error", zap.Error(err))
		}
	}()
}

func (a *app) close() {
	if err := a.client.Close(); err != nil {
		a.log.Error("Failed to close ClickHouse client", zap.Error(err))
	}
	_ = a.log.Sync()
}

func (a *app) stage(ctx context.Context) error {
	uploaded := 0
	for _, ext := range []string{".csv", ".json"} {
		files, err := staging.Traverse(a.cfg.DataDir, ext)
		if err != nil {
			return err
		}
		results := staging.UploadAll(ctx,
			staging.NewLocalStage(a.cfg.StageDir, a.log),
			files,
			staging.UploadOptions{Overwrite: true, Parallel: a.cfg.UploadParallelism},
			a.log)
		for _, res := range results {
			if res.Status == staging.StatusUploaded {
				uploaded++
			}
		}
	}
	a.log.Info("Staging complete", zap.Int("uploaded", uploaded))
	return nil
}

func (a *app) ingest(ctx context.Context) error {
	for _, src := range a.catalog.Sources {
		result, err := a.loader.Load(ctx, src, a.cfg.StageDir)
		if err != nil {
			return err
		}
		a.reg.IngestRows.Add(float64(result.Inserted))
		a.reg.IngestRowsSkipped.Add(float64(result.Skipped))
	}
	return nil
}

func main() {
	ctx := context.Background()

	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "Batch pipeline loading per-country sales feeds into the dimensional warehouse",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	withApp := func(fn func(context.Context, *app) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			return fn(cmd.Context(), a)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create the warehouse tables if they do not exist",
			RunE: withApp(func(ctx context.Context, a *app) error {
				return a.repo.InitSchema(ctx, a.catalog)
			}),
		},
		&cobra.Command{
			Use:   "health",
			Short: "Verify the warehouse connection",
			RunE: withApp(func(ctx context.Context, a *app) error {
				if err := a.repo.Ping(ctx); err != nil {
					return fmt.Errorf("warehouse unreachable: %w", err)
				}
				a.log.Info("Warehouse connection healthy")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "stage",
			Short: "Upload local feed files into the stage area",
			RunE:  withApp(func(ctx context.Context, a *app) error { return a.stage(ctx) }),
		},
		&cobra.Command{
			Use:   "ingest",
			Short: "Load staged files into the per-country source tables",
			RunE:  withApp(func(ctx context.Context, a *app) error { return a.ingest(ctx) }),
		},
		&cobra.Command{
			Use:   "curate",
			Short: "Transform source tables into the curated layer",
			RunE: withApp(func(ctx context.Context, a *app) error {
				_, err := a.runner.Curate(ctx)
				return err
			}),
		},
		&cobra.Command{
			Use:   "dimensions",
			Short: "Discover and append new dimension members",
			RunE: withApp(func(ctx context.Context, a *app) error {
				_, err := a.runner.BuildDimensions(ctx)
				return err
			}),
		},
		&cobra.Command{
			Use:   "fact",
			Short: "Assemble fact rows from the curated stream",
			RunE: withApp(func(ctx context.Context, a *app) error {
				_, err := a.runner.AssembleFacts(ctx)
				return err
			}),
		},
		&cobra.Command{
			Use:   "run",
			Short: "Execute the full pipeline: stage, ingest, curate, dimensions, fact",
			RunE: withApp(func(ctx context.Context, a *app) error {
				if err := a.repo.InitSchema(ctx, a.catalog); err != nil {
					return err
				}
				if err := a.stage(ctx); err != nil {
					return err
				}
				if err := a.ingest(ctx); err != nil {
					return err
				}
				_, err := a.runner.Run(ctx)
				return err
			}),
		},
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
