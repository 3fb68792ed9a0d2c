package dimension

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/repository"
)

// Member is a dimension row type: it exposes its composite natural key and
// can be copied with a surrogate key assigned.
type Member[M any] interface {
	Key() string
	WithSurrogate(id uint64) M
}

// Builder runs the incremental upsert-by-append algorithm for one dimension:
// group candidates by natural key, anti-join against the persisted table, and
// append only brand-new members with freshly reserved surrogate keys.
// Existing rows are never updated, so running the same input twice inserts
// nothing on the second pass.
type Builder[M Member[M]] struct {
	name     string
	sequence string
	repo     repository.DimensionRepository[M]
	seqs     repository.SequenceRepository
	log      *zap.Logger
}

// NewBuilder creates a builder for the named dimension backed by the given
// repositories. The builder must be the dimension's only writer within a run.
func NewBuilder[M Member[M]](
	name, sequence string,
	repo repository.DimensionRepository[M],
	seqs repository.SequenceRepository,
	log *zap.Logger,
) *Builder[M] {
	return &Builder[M]{name: name, sequence: sequence, repo: repo, seqs: seqs, log: log}
}

// Name returns the dimension's display name.
func (b *Builder[M]) Name() string { return b.name }

// Members returns the dimension's persisted members, for foreign-key
// resolution during fact assembly.
func (b *Builder[M]) Members(ctx context.Context) ([]M, error) {
	return b.repo.Existing(ctx)
}

// Build discovers and appends the candidates whose natural key is not yet
// present. It returns how many members were inserted; zero new members is
// success, not an error.
func (b *Builder[M]) Build(ctx context.Context, candidates []M) (int, error) {
	if len(candidates) == 0 {
		b.log.Info("No candidate members for dimension", zap.String("dimension", b.name))
		return 0, nil
	}

	distinct := make(map[string]M, len(candidates))
	for _, m := range candidates {
		if _, seen := distinct[m.Key()]; !seen {
			distinct[m.Key()] = m
		}
	}

	existing, err := b.repo.Existing(ctx)
	if err != nil {
		return 0, fmt.Errorf("dimension %s: failed to load existing members: %w", b.name, err)
	}
	present := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		present[m.Key()] = struct{}{}
	}

	fresh := make([]M, 0, len(distinct))
	for key, m := range distinct {
		if _, ok := present[key]; !ok {
			fresh = append(fresh, m)
		}
	}
	if len(fresh) == 0 {
		b.log.Info("No new members for dimension", zap.String("dimension", b.name))
		return 0, nil
	}

	// Deterministic surrogate assignment order within a run.
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].Key() < fresh[j].Key() })

	start, err := b.seqs.Reserve(ctx, b.sequence, len(fresh))
	if err != nil {
		return 0, fmt.Errorf("dimension %s: failed to reserve surrogate keys: %w", b.name, err)
	}
	for i := range fresh {
		fresh[i] = fresh[i].WithSurrogate(start + uint64(i))
	}

	inserted, err := b.repo.Append(ctx, fresh)
	if err != nil {
		return 0, fmt.Errorf("dimension %s: failed to append members: %w", b.name, err)
	}

	b.log.Info("Dimension build complete",
		zap.String("dimension", b.name),
		zap.Int("candidates", len(candidates)),
		zap.Int("distinct", len(distinct)),
		zap.Int("inserted", inserted))
	return inserted, nil
}
