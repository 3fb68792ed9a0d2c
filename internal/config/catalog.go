package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/domain"
)

// Source describes one per-country sales feed: where its staged files live,
// how the raw layout is parsed, which source/curated tables it loads, and the
// literal enrichment values attached during curation.
type Source struct {
	Code         string              `yaml:"code"`
	Country      string              `yaml:"country"`
	Region       string              `yaml:"region"`
	Currency     string              `yaml:"currency"`
	RateColumn   string              `yaml:"rate_column"`
	Format       domain.SourceFormat `yaml:"format"`
	StagePath    string              `yaml:"stage_path"`
	SourceTable  string              `yaml:"source_table"`
	CuratedTable string              `yaml:"curated_table"`
}

// SequenceName is the surrogate-key sequence backing the source table.
func (s Source) SequenceName() string { return s.SourceTable + "_seq" }

// Catalog is the closed set of source feeds processed by a run.
type Catalog struct {
	Sources []Source `yaml:"sources"`
}

// DefaultCatalog covers the three feeds the warehouse was built for: India
// (flat positional CSV), United States and France (documents with named
// fields).
func DefaultCatalog() Catalog {
	return Catalog{Sources: []Source{
		{
			Code: "IN", Country: "IN", Region: "APAC", Currency: "INR",
			RateColumn: "usd2inr", Format: domain.FormatCSV,
			StagePath:    "sales/source=IN/format=csv",
			SourceTable:  "in_sales_order",
			CuratedTable: "curated_in_sales_order",
		},
		{
			Code: "US", Country: "US", Region: "AMER", Currency: "USD",
			RateColumn: "usd2usd", Format: domain.FormatJSON,
			StagePath:    "sales/source=US/format=json",
			SourceTable:  "us_sales_order",
			CuratedTable: "curated_us_sales_order",
		},
		{
			Code: "FR", Country: "FR", Region: "EU", Currency: "EUR",
			RateColumn: "usd2eu", Format: domain.FormatJSON,
			StagePath:    "sales/source=FR/format=json",
			SourceTable:  "fr_sales_order",
			CuratedTable: "curated_fr_sales_order",
		},
	}}
}

// LoadCatalog reads a source catalog from a YAML file, falling back to the
// default catalog when no path is configured.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read source catalog: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse source catalog: %w", err)
	}

	for _, src := range catalog.Sources {
		switch src.Format {
		case domain.FormatCSV, domain.FormatJSON:
		default:
			return Catalog{}, fmt.Errorf("source %s: %w: %q", src.Code, domain.ErrUnknownSourceFormat, src.Format)
		}
		if src.SourceTable == "" || src.CuratedTable == "" {
			return Catalog{}, fmt.Errorf("source %s: source_table and curated_table are required", src.Code)
		}
	}

	return catalog, nil
}
