package repository

import (
	"context"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/domain"
)

// SourceRepository provides access to the per-country source tables fed by the
// stage-to-source copy.
type SourceRepository interface {
	// Orders returns every row of the named source table.
	Orders(ctx context.Context, table string) ([]domain.SourceOrder, error)

	// Append bulk-inserts rows into the named source table. Existing rows are
	// never overwritten.
	Append(ctx context.Context, table string, rows []domain.SourceOrder) (int, error)
}

// CuratedRepository provides access to the curated per-country sales tables.
type CuratedRepository interface {
	// Append bulk-inserts curated rows into the named curated table.
	Append(ctx context.Context, table string, rows []domain.CuratedSalesOrder) (int, error)

	// Orders returns the union of the named curated tables, the unified
	// stream consumed by the dimension builders and the fact assembler.
	Orders(ctx context.Context, tables ...string) ([]domain.CuratedSalesOrder, error)
}

// RateRepository reads the exchange-rate reference table.
type RateRepository interface {
	Rates(ctx context.Context) ([]domain.ExchangeRate, error)
}

// DimensionRepository provides access to one dimension table. Dimensions are
// append-only; existing rows are never updated or deleted.
type DimensionRepository[M any] interface {
	// Existing returns the dimension's current persisted members.
	Existing(ctx context.Context) ([]M, error)

	// Append bulk-inserts brand-new members.
	Append(ctx context.Context, members []M) (int, error)
}

// FactRepository appends rows to the sales fact table.
type FactRepository interface {
	Append(ctx context.Context, rows []domain.FactRecord) (int, error)
}

// SequenceRepository hands out surrogate keys. Each named sequence is
// monotonically increasing, globally unique and persisted across runs; keys
// are never reused or reassigned.
type SequenceRepository interface {
	// Reserve allocates a contiguous block of n keys from the named sequence
	// and returns the first key of the block. Callers must be the sequence's
	// single writer for the duration of a run.
	Reserve(ctx context.Context, sequence string, n int) (uint64, error)
}
