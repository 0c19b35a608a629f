package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/FranksOps/linkedscrap/internal/bypass"
	"github.com/temoto/robotstxt"
)

// getFunc performs a plain GET and returns the response.
type getFunc func(ctx context.Context, rawURL string) (*bypass.Response, error)

// RobotsGate answers whether a URL may be fetched, caching robots.txt per
// origin for the lifetime of the gate.
type RobotsGate struct {
	get    getFunc
	logger *slog.Logger
	mu     sync.Mutex
	cache  map[string]*robotstxt.RobotsData
}

// NewRobotsGate creates a gate that downloads robots.txt through get.
func NewRobotsGate(get getFunc, logger *slog.Logger) *RobotsGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsGate{
		get:    get,
		logger: logger,
		cache:  make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether userAgent may fetch targetURL. An unreachable or
// unparsable robots.txt allows everything.
func (g *RobotsGate) Allowed(ctx context.Context, targetURL, userAgent string) (bool, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false, fmt.Errorf("invalid url: %w", err)
	}

	data := g.lookup(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return true, nil
	}
	return data.TestAgent(u.EscapedPath(), userAgent), nil
}

func (g *RobotsGate) lookup(ctx context.Context, origin string) *robotstxt.RobotsData {
	g.mu.Lock()
	defer g.mu.Unlock()

	if data, ok := g.cache[origin]; ok {
		return data
	}

	data, err := g.fetch(ctx, origin)
	if err != nil {
		g.logger.Debug("robots.txt unavailable, allowing all", "origin", origin, "err", err)
	}
	g.cache[origin] = data
	return data
}

func (g *RobotsGate) fetch(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	res, err := g.get(ctx, origin+"/robots.txt")
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, nil
	}
	data, err := robotstxt.FromStatusAndBytes(res.StatusCode, res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}
