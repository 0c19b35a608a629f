// Package pipeline drives a run: every term through pagination in file
// order, then full-text enrichment, then CSV export.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/FranksOps/linkedscrap/internal/export"
	"github.com/FranksOps/linkedscrap/internal/listing"
	"github.com/FranksOps/linkedscrap/internal/terms"
)

// Collector pages through one term's results into set.
type Collector interface {
	Collect(ctx context.Context, term string, set *listing.Set) (pages int, err error)
}

// Enricher fills in Fulltext on records.
type Enricher interface {
	Enrich(ctx context.Context, records []*listing.Record) (failures int, err error)
}

type Config struct {
	// MergeTerms shares one set across all terms. When false each term gets
	// a fresh set and only the last term's records are enriched and
	// exported.
	MergeTerms bool
}

type Pipeline struct {
	cfg       Config
	collector Collector
	enricher  Enricher
	logger    *slog.Logger
}

// Result is what a run produced.
type Result struct {
	Set            *listing.Set
	Terms          int
	Pages          int
	DetailFailures int
}

func New(cfg Config, collector Collector, enricher Enricher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, collector: collector, enricher: enricher, logger: logger}
}

// Run processes termList strictly in order, one term after another. The
// returned Result is partially filled when an error cuts the run short.
func (p *Pipeline) Run(ctx context.Context, termList []string) (*Result, error) {
	res := &Result{}
	if len(termList) == 0 {
		return res, terms.ErrNoTerms
	}

	set := listing.NewSet()
	for i, term := range termList {
		if i > 0 && !p.cfg.MergeTerms {
			set = listing.NewSet()
		}
		res.Set = set
		res.Terms++

		p.logger.Info("searching", "term", term, "n", i+1, "of", len(termList))
		pages, err := p.collector.Collect(ctx, term, set)
		res.Pages += pages
		if err != nil {
			return res, fmt.Errorf("collect %q: %w", term, err)
		}
	}

	records := set.Records()
	p.logger.Info("fetching full text", "records", len(records), "merged", p.cfg.MergeTerms)
	failures, err := p.enricher.Enrich(ctx, records)
	res.DetailFailures = failures
	if err != nil {
		return res, fmt.Errorf("enrich: %w", err)
	}
	p.logger.Info("done", "records", len(records), "without_text", failures)
	return res, nil
}

// WriteCSV exports the run's records.
func (r *Result) WriteCSV(w io.Writer) error {
	var rows []export.Row
	if r.Set != nil {
		rows = r.Set.Rows()
	}
	if err := export.WriteCSV(w, rows); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
