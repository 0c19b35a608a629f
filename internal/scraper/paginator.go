package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FranksOps/linkedscrap/internal/listing"
	"github.com/FranksOps/linkedscrap/internal/metrics"
	"github.com/FranksOps/linkedscrap/internal/serp"
	"github.com/FranksOps/linkedscrap/internal/storage"
)

const (
	DefaultPageSize    = 25
	DefaultMaxResults  = 100
	DefaultListingFile = "result.html"
)

// PaginatorConfig controls how far each term is paged.
type PaginatorConfig struct {
	Search serp.Search
	// PageSize is the offset step between pages.
	PageSize int
	// MaxResults is the exclusive offset ceiling.
	MaxResults int
	// File is where each result page is saved before parsing.
	File string
}

// Paginator walks the result pages of one term at a time.
type Paginator struct {
	cfg      PaginatorConfig
	dl       Downloader
	parser   *Parser
	recorder Recorder
	logger   *slog.Logger
}

// NewPaginator wires a paginator. recorder may be nil.
func NewPaginator(cfg PaginatorConfig, dl Downloader, parser *Parser, recorder Recorder, logger *slog.Logger) *Paginator {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.File == "" {
		cfg.File = DefaultListingFile
	}
	if cfg.Search.BaseURL == "" {
		cfg.Search = serp.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Paginator{cfg: cfg, dl: dl, parser: parser, recorder: recorder, logger: logger}
}

// Collect fetches pages for term at offsets 0, PageSize, ... below
// MaxResults and merges their records into set. The first failed download
// ends pagination for the term and keeps what was collected. Parse errors
// are returned. pages is the number of pages fetched successfully.
func (p *Paginator) Collect(ctx context.Context, term string, set *listing.Set) (pages int, err error) {
	for offset := 0; offset < p.cfg.MaxResults; offset += p.cfg.PageSize {
		pageURL := p.cfg.Search.PageURL(term, offset)
		log := p.logger.With("term", term, "from", offset, "to", offset+p.cfg.PageSize)

		rec := p.dl.Download(ctx, pageURL, p.cfg.File)
		rec.Term = term
		rec.Kind = storage.KindListing
		rec.Offset = offset
		p.recorder.Record(ctx, rec)

		if rec.Failed() {
			if ctx.Err() != nil {
				return pages, ctx.Err()
			}
			log.Warn("page fetch failed, ending pagination", "err", rec.Error)
			break
		}

		records, err := p.parser.ParseFile(p.cfg.File, term, pageURL)
		if err != nil {
			return pages, fmt.Errorf("term %q offset %d: %w", term, offset, err)
		}
		added := set.AddAll(records)
		pages++

		metrics.RecordsParsed.Add(float64(len(records)))
		metrics.DuplicatesSkipped.Add(float64(len(records) - added))
		log.Info("page fetched", "parsed", len(records), "new", added)
	}
	return pages, nil
}
