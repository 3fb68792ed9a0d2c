package clickhouse

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DimensionTable is the generic ClickHouse implementation of
// repository.DimensionRepository: one instance per dimension table,
// parameterized by the member row type.
type DimensionTable[M any] struct {
	repo    *Repository
	table   string
	columns []string
}

// NewDimensionTable creates a dimension repository for the named table. The
// column list must cover every field of M so that reads and batch inserts
// line up with the table definition.
func NewDimensionTable[M any](repo *Repository, table string, columns ...string) *DimensionTable[M] {
	return &DimensionTable[M]{repo: repo, table: table, columns: columns}
}

// Existing returns the dimension's persisted members.
func (d *DimensionTable[M]) Existing(ctx context.Context) ([]M, error) {
	sqlStr, args, err := d.repo.sb.Select(d.columns...).From(d.table).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build dimension query: %w", err)
	}

	var members []M
	if err := d.repo.client.Conn().Select(ctx, &members, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("failed to query dimension %s: %w", d.table, err)
	}
	return members, nil
}

// Append bulk-inserts brand-new members. Existing rows are never touched.
func (d *DimensionTable[M]) Append(ctx context.Context, members []M) (int, error) {
	if len(members) == 0 {
		return 0, nil
	}

	batch, err := d.repo.client.Conn().PrepareBatch(ctx, "INSERT INTO "+d.table)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare dimension batch: %w", err)
	}
	for i := range members {
		if err := batch.AppendStruct(&members[i]); err != nil {
			return 0, fmt.Errorf("failed to append member to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send dimension batch: %w", err)
	}

	d.repo.log.Info("Appended dimension members",
		zap.String("table", d.table),
		zap.Int("count", len(members)))
	return len(members), nil
}
