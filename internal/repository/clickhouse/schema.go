package clickhouse

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/config"
)

// Table names shared by the repositories. Source and curated tables are named
// by the source catalog; everything else is fixed.
const (
	TableExchangeRate = "exchange_rate"
	TableRegionDim    = "region_dim"
	TableProductDim   = "product_dim"
	TablePromoCodeDim = "promo_code_dim"
	TableCustomerDim  = "customer_dim"
	TablePaymentDim   = "payment_dim"
	TableDateDim      = "date_dim"
	TableSalesFact    = "sales_fact"
	tableSequences    = "seq_state"
)

// Sequence names for the dimension and fact surrogate keys.
const (
	SeqRegionDim    = "region_dim_seq"
	SeqProductDim   = "product_dim_seq"
	SeqPromoCodeDim = "promo_code_dim_seq"
	SeqCustomerDim  = "customer_dim_seq"
	SeqPaymentDim   = "payment_dim_seq"
	SeqDateDim      = "date_dim_seq"
	SeqSalesFact    = "sales_fact_seq"
)

const sourceOrderDDL = `
	CREATE TABLE IF NOT EXISTS %s (
		sales_order_key UInt64,
		order_id String,
		customer_name String,
		mobile_key String,
		order_quantity Int32,
		unit_price Decimal(18, 2),
		promotion_code Nullable(String),
		final_order_amount Decimal(18, 2),
		tax_amount Decimal(18, 2),
		order_dt Date,
		payment_status LowCardinality(String),
		shipping_status LowCardinality(String),
		payment_method LowCardinality(String),
		payment_provider LowCardinality(String),
		contact_no String,
		shipping_address String,
		stg_file_name String,
		stg_row_number UInt32,
		stg_last_modified DateTime64(3)
	) ENGINE = MergeTree
	ORDER BY (order_dt, sales_order_key)
	`

const curatedOrderDDL = `
	CREATE TABLE IF NOT EXISTS %s (
		sales_order_key UInt64,
		order_id String,
		order_dt Date,
		customer_name String,
		mobile_key String,
		country LowCardinality(String),
		region LowCardinality(String),
		order_quantity Int32,
		local_currency LowCardinality(String),
		local_unit_price Decimal(18, 2),
		promotion_code Nullable(String),
		local_total_order_amt Decimal(18, 2),
		local_tax_amt Decimal(18, 2),
		exchange_rate Nullable(Decimal(18, 6)),
		usd_total_order_amt Nullable(Decimal(18, 6)),
		usd_tax_amt Nullable(Decimal(18, 6)),
		payment_status LowCardinality(String),
		shipping_status LowCardinality(String),
		payment_method LowCardinality(String),
		payment_provider LowCardinality(String),
		contact_no String,
		shipping_address String,
		stg_file_name String,
		stg_row_number UInt32,
		stg_last_modified DateTime64(3)
	) ENGINE = MergeTree
	ORDER BY (order_dt, sales_order_key)
	`

var fixedDDL = []string{
	`
	CREATE TABLE IF NOT EXISTS ` + TableExchangeRate + ` (
		date Date,
		usd2usd Nullable(Decimal(18, 6)),
		usd2inr Nullable(Decimal(18, 6)),
		usd2eu Nullable(Decimal(18, 6))
	) ENGINE = MergeTree
	ORDER BY date
	`,
	`
	CREATE TABLE IF NOT EXISTS ` + TableRegionDim + ` (
		region_id_pk UInt64,
		country LowCardinality(String),
		region LowCardinality(String),
		isactive Bool
	) ENGINE = MergeTree
	ORDER BY region_id_pk
	`,
	`
	CREATE TABLE IF NOT EXISTS ` + TableProductDim + ` (
		product_id_pk UInt64,
		mobile_key String,
		brand LowCardinality(String),
		model String,
		color LowCardinality(String),
		memory LowCardinality(String),
		isactive Bool
	) ENGINE = MergeTree
	ORDER BY product_id_pk
	`,
	`
	CREATE TABLE IF NOT EXISTS ` + TablePromoCodeDim + ` (
		promo_code_id_pk UInt64,
		promotion_code String,
		country LowCardinality(String),
		region LowCardinality(String),
		isactive Bool
	) ENGINE = MergeTree
	ORDER BY promo_code_id_pk
	`,
	`
	CREATE TABLE IF NOT EXISTS ` + TableCustomerDim + ` (
		customer_id_pk UInt64,
		customer_name String,
		contact_no String,
		shipping_address String,
		country LowCardinality(String),
		region LowCardinality(String),
		isactive Bool
	) ENGINE = MergeTree
	ORDER BY customer_id_pk
	`,
	`
	CREATE TABLE IF NOT EXISTS ` + TablePaymentDim + ` (
		payment_id_pk UInt64,
		payment_method LowCardinality(String),
		payment_provider LowCardinality(String),
		country LowCardinality(String),
		region LowCardinality(String),
		isactive Bool
	) ENGINE = MergeTree
	ORDER BY payment_id_pk
	`,
	`
	CREATE TABLE IF NOT EXISTS ` + TableDateDim + ` (
		date_id_pk UInt64,
		order_dt Date,
		order_year Int32,
		order_month Int32,
		order_quarter Int32,
		order_day Int32,
		order_dayofweek Int32,
		order_dayname LowCardinality(String),
		day_counter Int32,
		order_daytype LowCardinality(String),
		isactive Bool
	) ENGINE = MergeTree
	ORDER BY date_id_pk
	`,
	`
	CREATE TABLE IF NOT EXISTS ` + TableSalesFact + ` (
		order_id_pk UInt64,
		order_code String,
		date_id_fk UInt64,
		region_id_fk UInt64,
		customer_id_fk UInt64,
		payment_id_fk UInt64,
		product_id_fk UInt64,
		promo_code_id_fk UInt64,
		order_quantity Int32,
		local_total_order_amt Decimal(18, 2),
		local_tax_amt Decimal(18, 2),
		exchange_rate Nullable(Decimal(18, 6)),
		usd_total_order_amt Nullable(Decimal(18, 6)),
		usd_tax_amt Nullable(Decimal(18, 6))
	) ENGINE = MergeTree
	ORDER BY order_id_pk
	`,
	`
	CREATE TABLE IF NOT EXISTS ` + tableSequences + ` (
		name LowCardinality(String),
		next_value UInt64,
		reserved_at DateTime64(3)
	) ENGINE = MergeTree
	ORDER BY (name, next_value)
	`,
}

// InitSchema creates the warehouse tables if they do not exist: one source and
// one curated table per catalog entry, the exchange-rate reference, the six
// dimension tables, the fact table and the sequence bookkeeping table.
func (r *Repository) InitSchema(ctx context.Context, catalog config.Catalog) error {
	for _, src := range catalog.Sources {
		for _, ddl := range []string{
			fmt.Sprintf(sourceOrderDDL, src.SourceTable),
			fmt.Sprintf(curatedOrderDDL, src.CuratedTable),
		} {
			if err := r.client.Conn().Exec(ctx, ddl); err != nil {
				return fmt.Errorf("failed to create tables for source %s: %w", src.Code, err)
			}
		}
	}

	for _, ddl := range fixedDDL {
		if err := r.client.Conn().Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create warehouse table: %w", err)
		}
	}

	r.log.Info("ClickHouse schema initialized successfully",
		zap.Int("source_count", len(catalog.Sources)))
	return nil
}
