package scraper

import (
	"context"
	"io"
	"log/slog"
	"regexp"

	"github.com/FranksOps/linkedscrap/internal/htmltext"
	"github.com/FranksOps/linkedscrap/internal/listing"
	"github.com/FranksOps/linkedscrap/internal/metrics"
	"github.com/FranksOps/linkedscrap/internal/storage"
	"github.com/schollz/progressbar/v3"
)

// DefaultDetailFile is where each detail page is saved before parsing.
const DefaultDetailFile = "indresult.html"

var newlineRuns = regexp.MustCompile(`\n+`)

// descriptionText are the conversion options for the description body:
// unwrapped, headings as written, no list bullets.
var descriptionText = htmltext.Options{
	WordWrap:                0,
	UppercaseHeadings:       false,
	SingleNewlineParagraphs: true,
	UnorderedListItemPrefix: "",
}

// DetailConfig configures a DetailFetcher.
type DetailConfig struct {
	File string
	// Progress receives a progress bar when not nil.
	Progress io.Writer
}

// DetailFetcher downloads each record's link and fills in its Fulltext.
type DetailFetcher struct {
	cfg      DetailConfig
	dl       Downloader
	parser   *Parser
	recorder Recorder
	logger   *slog.Logger
}

// NewDetailFetcher wires a detail fetcher. recorder may be nil.
func NewDetailFetcher(cfg DetailConfig, dl Downloader, parser *Parser, recorder Recorder, logger *slog.Logger) *DetailFetcher {
	if cfg.File == "" {
		cfg.File = DefaultDetailFile
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DetailFetcher{cfg: cfg, dl: dl, parser: parser, recorder: recorder, logger: logger}
}

// Enrich sets Fulltext on every record, one download at a time, in order.
// A record whose page cannot be fetched or has no description keeps an
// empty Fulltext and counts as a failure. Only cancellation of ctx is
// returned as an error.
func (d *DetailFetcher) Enrich(ctx context.Context, records []*listing.Record) (failures int, err error) {
	bar := d.progressBar(len(records))
	defer func() {
		if bar != nil {
			_ = bar.Finish()
		}
	}()

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return failures, err
		}

		text, ok := d.fulltext(ctx, r)
		r.Fulltext = text
		if !ok {
			failures++
			metrics.DetailFailures.Inc()
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return failures, nil
}

func (d *DetailFetcher) fulltext(ctx context.Context, r *listing.Record) (string, bool) {
	log := d.logger.With("title", r.Title, "link", r.Link)
	if r.Link == "" {
		log.Warn("record has no link, skipping full text")
		return "", false
	}

	rec := d.dl.Download(ctx, r.Link, d.cfg.File)
	rec.Term = r.Search
	rec.Kind = storage.KindDetail
	d.recorder.Record(ctx, rec)
	if rec.Failed() {
		log.Warn("detail fetch failed", "err", rec.Error)
		return "", false
	}

	html, found, err := d.parser.DescriptionFile(d.cfg.File)
	if err != nil {
		log.Warn("detail parse failed", "err", err)
		return "", false
	}
	if !found {
		log.Debug("detail page has no description")
		return "", false
	}

	text, err := htmltext.Convert(html, descriptionText)
	if err != nil {
		log.Warn("description conversion failed", "err", err)
		return "", false
	}
	return newlineRuns.ReplaceAllString(text, " "), true
}

func (d *DetailFetcher) progressBar(n int) *progressbar.ProgressBar {
	if d.cfg.Progress == nil || n == 0 {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(d.cfg.Progress),
		progressbar.OptionSetDescription("full text"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(d.cfg.Progress, "\n") }),
	)
}
