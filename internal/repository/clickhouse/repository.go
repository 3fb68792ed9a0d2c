package clickhouse

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/domain"
)

var sourceOrderColumns = []string{
	"sales_order_key", "order_id", "customer_name", "mobile_key",
	"order_quantity", "unit_price", "promotion_code", "final_order_amount",
	"tax_amount", "order_dt", "payment_status", "shipping_status",
	"payment_method", "payment_provider", "contact_no", "shipping_address",
	"stg_file_name", "stg_row_number", "stg_last_modified",
}

var curatedOrderColumns = []string{
	"sales_order_key", "order_id", "order_dt", "customer_name", "mobile_key",
	"country", "region", "order_quantity", "local_currency",
	"local_unit_price", "promotion_code", "local_total_order_amt",
	"local_tax_amt", "exchange_rate", "usd_total_order_amt", "usd_tax_amt",
	"payment_status", "shipping_status", "payment_method", "payment_provider",
	"contact_no", "shipping_address", "stg_file_name", "stg_row_number",
	"stg_last_modified",
}

var exchangeRateColumns = []string{"date", "usd2usd", "usd2inr", "usd2eu"}

// Repository implements the warehouse Data Store contract on top of
// ClickHouse: relational reads, append-only bulk inserts and persisted
// surrogate-key sequences. Queries are built with a statement builder instead
// of string-substituted column names.
type Repository struct {
	client *Client
	sb     sq.StatementBuilderType
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		log:    log,
	}
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// Orders returns every row of the named source table.
func (r *Repository) Orders(ctx context.Context, table string) ([]domain.SourceOrder, error) {
	sqlStr, args, err := r.sb.Select(sourceOrderColumns...).From(table).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build source query: %w", err)
	}

	var rows []domain.SourceOrder
	if err := r.client.Conn().Select(ctx, &rows, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("failed to query source table %s: %w", table, err)
	}
	return rows, nil
}

// Append bulk-inserts rows into the named source table.
func (r *Repository) Append(ctx context.Context, table string, rows []domain.SourceOrder) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare source batch: %w", err)
	}
	for i := range rows {
		if err := batch.AppendStruct(&rows[i]); err != nil {
			return 0, fmt.Errorf("failed to append source row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send source batch: %w", err)
	}
	return len(rows), nil
}

// Curated wraps the repository with the CuratedRepository method set. The
// extra type keeps the Append signatures for source and curated rows apart.
type Curated struct {
	repo *Repository
}

// NewCurated creates the curated-table view of the repository.
func NewCurated(repo *Repository) *Curated {
	return &Curated{repo: repo}
}

// Append bulk-inserts curated rows into the named curated table.
func (c *Curated) Append(ctx context.Context, table string, rows []domain.CuratedSalesOrder) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch, err := c.repo.client.Conn().PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare curated batch: %w", err)
	}
	for i := range rows {
		if err := batch.AppendStruct(&rows[i]); err != nil {
			return 0, fmt.Errorf("failed to append curated row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send curated batch: %w", err)
	}
	return len(rows), nil
}

// Orders returns the union of the named curated tables.
func (c *Curated) Orders(ctx context.Context, tables ...string) ([]domain.CuratedSalesOrder, error) {
	var all []domain.CuratedSalesOrder
	for _, table := range tables {
		sqlStr, args, err := c.repo.sb.Select(curatedOrderColumns...).From(table).ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build curated query: %w", err)
		}

		var rows []domain.CuratedSalesOrder
		if err := c.repo.client.Conn().Select(ctx, &rows, sqlStr, args...); err != nil {
			return nil, fmt.Errorf("failed to query curated table %s: %w", table, err)
		}
		all = append(all, rows...)
	}
	return all, nil
}

// Rates returns the exchange-rate reference table.
func (r *Repository) Rates(ctx context.Context) ([]domain.ExchangeRate, error) {
	sqlStr, args, err := r.sb.Select(exchangeRateColumns...).From(TableExchangeRate).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build exchange rate query: %w", err)
	}

	var rates []domain.ExchangeRate
	if err := r.client.Conn().Select(ctx, &rates, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("failed to query exchange rates: %w", err)
	}
	return rates, nil
}

// Facts wraps the repository with the FactRepository method set.
type Facts struct {
	repo *Repository
}

// NewFacts creates the fact-table view of the repository.
func NewFacts(repo *Repository) *Facts {
	return &Facts{repo: repo}
}

// Append bulk-inserts fact rows.
func (f *Facts) Append(ctx context.Context, rows []domain.FactRecord) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch, err := f.repo.client.Conn().PrepareBatch(ctx, "INSERT INTO "+TableSalesFact)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare fact batch: %w", err)
	}
	for i := range rows {
		if err := batch.AppendStruct(&rows[i]); err != nil {
			return 0, fmt.Errorf("failed to append fact row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send fact batch: %w", err)
	}
	return len(rows), nil
}

type sequenceRow struct {
	Name       string    `ch:"name"`
	NextValue  uint64    `ch:"next_value"`
	ReservedAt time.Time `ch:"reserved_at"`
}

// Reserve allocates a contiguous block of n surrogate keys from the named
// sequence. ClickHouse has no native sequences, so allocation state lives in
// an append-only bookkeeping table: the high-water mark is the max reserved
// value per sequence name. The pipeline guarantees a single writer per
// sequence within a run, which keeps the read-then-append race out of scope.
func (r *Repository) Reserve(ctx context.Context, sequence string, n int) (uint64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid sequence block size %d", n)
	}

	sqlStr, args, err := r.sb.
		Select("coalesce(max(next_value), 0)").
		From(tableSequences).
		Where(sq.Eq{"name": sequence}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build sequence query: %w", err)
	}

	var current uint64
	if err := r.client.Conn().QueryRow(ctx, sqlStr, args...).Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to read sequence %s: %w", sequence, err)
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO "+tableSequences)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare sequence batch: %w", err)
	}
	row := sequenceRow{Name: sequence, NextValue: current + uint64(n), ReservedAt: time.Now().UTC()}
	if err := batch.AppendStruct(&row); err != nil {
		return 0, fmt.Errorf("failed to append sequence row: %w", err)
	}
	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", sequence, err)
	}

	return current + 1, nil
}
