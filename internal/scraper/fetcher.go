package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/FranksOps/linkedscrap/internal/bypass"
	"github.com/FranksOps/linkedscrap/internal/fingerprint"
	"github.com/FranksOps/linkedscrap/internal/metrics"
	"github.com/FranksOps/linkedscrap/internal/storage"
	"github.com/FranksOps/linkedscrap/pkg/httpclient"
	"github.com/FranksOps/linkedscrap/pkg/proxy"
	"github.com/FranksOps/linkedscrap/pkg/ratelimit"
	"github.com/FranksOps/linkedscrap/pkg/useragent"
)

// HTTPConfig configures the native downloader.
type HTTPConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	ProxyPool    *proxy.Pool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	Limiter      *ratelimit.Limiter
	// RespectRobots skips URLs the host's robots.txt disallows.
	RespectRobots bool
	// InsecureSkipVerify is for tests against self-signed servers.
	InsecureSkipVerify bool
}

// HTTPDownloader fetches pages in-process instead of spawning a tool.
// One client is shared across calls so the cookie jar and connection pool
// live for the whole run.
type HTTPDownloader struct {
	cfg    HTTPConfig
	client *httpclient.Client
	robots *RobotsGate
	logger *slog.Logger
}

var _ Downloader = (*HTTPDownloader)(nil)

// NewHTTPDownloader builds the client stack described by cfg.
func NewHTTPDownloader(cfg HTTPConfig, logger *slog.Logger) (*HTTPDownloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil, false)
	}

	transport, err := fingerprint.Transport(fingerprint.Options{
		Profile:            cfg.Fingerprint,
		Proxy:              proxy.ProxyFunc,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	d := &HTTPDownloader{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
	if cfg.RespectRobots {
		d.robots = NewRobotsGate(d.get, logger)
	}
	return d, nil
}

// Download GETs rawURL and writes the body to dest. Transport errors,
// statuses >= 400 and detected bot walls are failures; dest is left
// untouched on failure.
func (d *HTTPDownloader) Download(ctx context.Context, rawURL, dest string) *storage.FetchRecord {
	rec := newFetchRecord(rawURL)
	start := time.Now()
	defer func() { rec.Duration = time.Since(start) }()

	ua := d.cfg.UAPool.Next()

	if d.robots != nil {
		allowed, err := d.robots.Allowed(ctx, rawURL, ua)
		if err != nil {
			rec.Error = err.Error()
			return rec
		}
		if !allowed {
			rec.Error = "disallowed by robots.txt"
			return rec
		}
	}

	if err := d.cfg.Limiter.Wait(ctx); err != nil {
		rec.Error = fmt.Sprintf("rate limiter: %v", err)
		return rec
	}

	res, err := d.getAs(ctx, rawURL, ua)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}

	rec.StatusCode = res.StatusCode
	rec.Bytes = int64(len(res.Body))
	rec.DetectedBot, rec.DetectionSrc = bypass.Analyze(res, bypass.DefaultDetectors())

	switch {
	case rec.DetectedBot:
		rec.Error = fmt.Sprintf("blocked by %s (status %d)", rec.DetectionSrc, res.StatusCode)
		return rec
	case res.StatusCode >= http.StatusBadRequest:
		rec.Error = fmt.Sprintf("unexpected status %d", res.StatusCode)
		return rec
	}

	if err := os.WriteFile(dest, res.Body, 0o644); err != nil {
		rec.Error = fmt.Sprintf("write %s: %v", dest, err)
	}
	return rec
}

func (d *HTTPDownloader) get(ctx context.Context, rawURL string) (*bypass.Response, error) {
	return d.getAs(ctx, rawURL, d.cfg.UAPool.Next())
}

func (d *HTTPDownloader) getAs(ctx context.Context, rawURL, ua string) (*bypass.Response, error) {
	activeProxy := d.nextProxy()
	ctx = proxy.NewContext(ctx, activeProxy)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := d.client.Do(ctx, req)
	if err != nil {
		d.markProxy(activeProxy, false)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	d.markProxy(activeProxy, true)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &bypass.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

func (d *HTTPDownloader) nextProxy() *url.URL {
	if d.cfg.ProxyPool == nil {
		return nil
	}
	return d.cfg.ProxyPool.Next()
}

func (d *HTTPDownloader) markProxy(u *url.URL, ok bool) {
	if u == nil {
		return
	}
	if ok {
		_ = d.cfg.ProxyPool.MarkSuccess(u)
		return
	}
	_ = d.cfg.ProxyPool.MarkFailure(u)
	metrics.ProxyFailures.WithLabelValues(u.Redacted()).Inc()
}
