package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the pipeline's run counters. The source system reported none
// of these; they exist so that silent behaviors (dropped fact rows, discarded
// duplicates, skipped ingest rows) are observable.
type Registry struct {
	reg *prometheus.Registry

	IngestRows        prometheus.Counter
	IngestRowsSkipped prometheus.Counter
	CuratedRows       prometheus.Counter
	RowsFiltered      prometheus.Counter
	DuplicatesDropped prometheus.Counter
	MissingRates      prometheus.Counter
	DimensionInserted *prometheus.CounterVec
	FactRows          prometheus.Counter
	FactRowsDropped   *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	ingestRows := prometheus.NewCounter(prometheus.CounterOpts{Name: "dwh_ingest_rows_total"})
	ingestSkipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "dwh_ingest_rows_skipped_total"})
	curatedRows := prometheus.NewCounter(prometheus.CounterOpts{Name: "dwh_curated_rows_total"})
	rowsFiltered := prometheus.NewCounter(prometheus.CounterOpts{Name: "dwh_curated_rows_filtered_total"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{Name: "dwh_curated_duplicates_dropped_total"})
	missingRates := prometheus.NewCounter(prometheus.CounterOpts{Name: "dwh_curated_missing_rate_total"})
	dimInserted := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dwh_dimension_members_inserted_total"},
		[]string{"dimension"},
	)
	factRows := prometheus.NewCounter(prometheus.CounterOpts{Name: "dwh_fact_rows_total"})
	factDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dwh_fact_rows_dropped_total"},
		[]string{"dimension"},
	)

	r.MustRegister(ingestRows, ingestSkipped, curatedRows, rowsFiltered,
		duplicates, missingRates, dimInserted, factRows, factDropped)

	return &Registry{
		reg:               r,
		IngestRows:        ingestRows,
		IngestRowsSkipped: ingestSkipped,
		CuratedRows:       curatedRows,
		RowsFiltered:      rowsFiltered,
		DuplicatesDropped: duplicates,
		MissingRates:      missingRates,
		DimensionInserted: dimInserted,
		FactRows:          factRows,
		FactRowsDropped:   factDropped,
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
