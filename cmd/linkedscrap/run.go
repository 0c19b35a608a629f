package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/FranksOps/linkedscrap/internal/audit"
	"github.com/FranksOps/linkedscrap/internal/config"
	"github.com/FranksOps/linkedscrap/internal/fingerprint"
	"github.com/FranksOps/linkedscrap/internal/logger"
	"github.com/FranksOps/linkedscrap/internal/metrics"
	"github.com/FranksOps/linkedscrap/internal/pipeline"
	"github.com/FranksOps/linkedscrap/internal/report"
	"github.com/FranksOps/linkedscrap/internal/scraper"
	"github.com/FranksOps/linkedscrap/internal/serp"
	"github.com/FranksOps/linkedscrap/internal/terms"
	"github.com/FranksOps/linkedscrap/pkg/proxy"
	"github.com/FranksOps/linkedscrap/pkg/ratelimit"
	"github.com/FranksOps/linkedscrap/pkg/useragent"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	log := logger.New(cfg.LogLevel, stderr)
	slog.SetDefault(log)
	start := time.Now()

	if cfg.ReportRun != "" {
		return replay(ctx, cfg, stdout)
	}

	termList, err := terms.Load(cfg.TermsFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}

	backend, err := audit.Open(ctx, cfg.Audit.Backend, cfg.Audit.DSN)
	if err != nil {
		return err
	}
	rec := audit.NewRecorder(backend, log)
	defer func() {
		if err := rec.Close(); err != nil {
			log.Warn("close audit log", "err", err)
		}
	}()
	log.Info("run started", "run_id", rec.RunID(), "terms", len(termList), "downloader", cfg.Downloader)

	dl, err := newDownloader(cfg, log)
	if err != nil {
		return err
	}

	parser := scraper.NewParser(scraper.Selectors{
		Title:       cfg.Selectors.Title,
		Subtitle:    cfg.Selectors.Subtitle,
		Location:    cfg.Selectors.Location,
		Snippet:     cfg.Selectors.Snippet,
		Link:        cfg.Selectors.Link,
		Description: cfg.Selectors.Description,
	})
	paginator := scraper.NewPaginator(scraper.PaginatorConfig{
		Search:     serp.Search{BaseURL: cfg.Search.BaseURL, Location: cfg.Search.Location},
		PageSize:   cfg.Search.PageSize,
		MaxResults: cfg.Search.MaxResults,
		File:       cfg.ListingPath(),
	}, dl, parser, rec, log)
	details := scraper.NewDetailFetcher(scraper.DetailConfig{
		File:     cfg.DetailPath(),
		Progress: progressWriter(cfg, stderr),
	}, dl, parser, rec, log)
	p := pipeline.New(pipeline.Config{MergeTerms: cfg.MergeTerms}, paginator, details, log)

	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServing := context.WithCancel(gctx)
	defer stopServing()

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			if err := metrics.Serve(serveCtx, cfg.MetricsAddr, log); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	var res *pipeline.Result
	g.Go(func() error {
		defer stopServing()
		var err error
		res, err = p.Run(gctx, termList)
		if err != nil {
			return err
		}
		return res.WriteCSV(stdout)
	})
	runErr := g.Wait()

	stats := report.Stats{RunID: rec.RunID(), Start: start, End: time.Now()}
	if res != nil {
		stats.Terms = res.Terms
		stats.Pages = res.Pages
		stats.DetailFailures = res.DetailFailures
		if res.Set != nil {
			stats.Records = res.Set.Len()
		}
	}
	if err := report.Write(stderr, cfg.Report, report.GenerateSummary(rec.Fetches(context.WithoutCancel(ctx)), stats)); err != nil {
		log.Warn("write report", "err", err)
	}
	return runErr
}

// replay summarises a stored run on stdout without scraping.
func replay(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	backend, err := audit.Open(ctx, cfg.Audit.Backend, cfg.Audit.DSN)
	if err != nil {
		return err
	}
	defer backend.Close()

	fetches, err := audit.Replay(ctx, backend, cfg.ReportRun)
	if err != nil {
		return err
	}
	format := cfg.Report
	if format == "none" {
		format = "text"
	}
	summary := report.GenerateSummary(fetches, report.StatsFromFetches(cfg.ReportRun, fetches))
	return report.Write(stdout, format, summary)
}

func newDownloader(cfg *config.Config, log *slog.Logger) (scraper.Downloader, error) {
	if cfg.Downloader != "http" {
		return scraper.NewExecDownloader(cfg.WgetPath, log), nil
	}

	profile, err := fingerprint.ParseProfile(cfg.HTTP.Fingerprint)
	if err != nil {
		return nil, err
	}

	var proxies *proxy.Pool
	if cfg.HTTP.ProxiesFile != "" {
		proxies = proxy.NewPool(proxy.Config{})
		if err := proxies.LoadFile(cfg.HTTP.ProxiesFile); err != nil {
			return nil, err
		}
		log.Info("proxies loaded", "count", proxies.Len())
	}

	return scraper.NewHTTPDownloader(scraper.HTTPConfig{
		Timeout:       cfg.HTTP.Timeout,
		MaxRedirects:  cfg.HTTP.MaxRedirects,
		UseCookieJar:  cfg.HTTP.CookieJar,
		ProxyPool:     proxies,
		UAPool:        useragent.NewPool(cfg.HTTP.UserAgents, cfg.HTTP.RandomUserAgent),
		Fingerprint:   profile,
		Limiter:       ratelimit.New(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Jitter),
		RespectRobots: cfg.HTTP.RespectRobots,
	}, log)
}

// progressWriter returns stderr when a progress bar is wanted and stderr is
// a terminal.
func progressWriter(cfg *config.Config, stderr io.Writer) io.Writer {
	if !cfg.Progress {
		return nil
	}
	f, ok := stderr.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return nil
	}
	return f
}
