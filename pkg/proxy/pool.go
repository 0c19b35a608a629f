// Package proxy keeps a rotating set of upstream proxies with simple health
// tracking.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/FranksOps/linkedscrap/pkg/lines"
)

var (
	// ErrNilURL is returned when a nil proxy URL is reported.
	ErrNilURL = errors.New("proxy: nil url")
	// ErrUnknown is returned when a reported proxy is not in the pool.
	ErrUnknown = errors.New("proxy: not in pool")
)

type entry struct {
	url           *url.URL
	failures      int
	successes     int
	disabledUntil time.Time
}

// Config defines settings for the Pool.
type Config struct {
	// MaxFailures disables a proxy once reached. Zero means 3.
	MaxFailures int
	// Cooldown is how long a disabled proxy sits out. Zero means 5 minutes.
	Cooldown time.Duration
}

// Pool hands out proxies round-robin, skipping ones that are cooling down.
type Pool struct {
	mu          sync.Mutex
	entries     []*entry
	next        int
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time
}

// NewPool creates an empty pool.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
		now:         time.Now,
	}
}

// LoadFile adds one proxy per non-blank, non-comment line of path.
func (p *Pool) LoadFile(path string) error {
	urls, err := lines.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load proxies: %w", err)
	}
	return p.Add(urls...)
}

// Add parses raw proxy addresses. A missing scheme defaults to http.
func (p *Pool) Add(raw ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, r := range raw {
		if !strings.Contains(r, "://") {
			r = "http://" + r
		}
		u, err := url.Parse(r)
		if err != nil {
			return fmt.Errorf("parse proxy %q: %w", r, err)
		}
		if u.Host == "" {
			return fmt.Errorf("parse proxy %q: missing host", r)
		}
		p.entries = append(p.entries, &entry{url: u})
	}
	return nil
}

// Len reports how many proxies were added.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Next returns the next healthy proxy, or nil when the pool is empty or every
// proxy is cooling down.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for range p.entries {
		e := p.entries[p.next]
		p.next = (p.next + 1) % len(p.entries)

		if !e.disabledUntil.IsZero() {
			if now.Before(e.disabledUntil) {
				continue
			}
			e.disabledUntil = time.Time{}
			e.failures = 0
		}
		return e.url
	}
	return nil
}

// MarkSuccess credits a proxy and forgives one earlier failure.
func (p *Pool) MarkSuccess(u *url.URL) error {
	return p.update(u, func(e *entry) {
		e.successes++
		if e.failures > 0 {
			e.failures--
		}
	})
}

// MarkFailure counts a failure and benches the proxy at MaxFailures.
func (p *Pool) MarkFailure(u *url.URL) error {
	return p.update(u, func(e *entry) {
		e.failures++
		if e.failures >= p.maxFailures {
			e.disabledUntil = p.now().Add(p.cooldown)
		}
	})
}

func (p *Pool) update(u *url.URL, fn func(*entry)) error {
	if u == nil {
		return ErrNilURL
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	target := u.String()
	for _, e := range p.entries {
		if e.url.String() == target {
			fn(e)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknown, u.Redacted())
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying u for ProxyFunc to pick up.
// The same context must reach the transport, so pass it to both the
// request and the client call.
func NewContext(ctx context.Context, u *url.URL) context.Context {
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, u)
}

// ProxyFunc is an http.Transport Proxy hook that routes a request through
// the proxy attached with NewContext and otherwise connects directly.
func ProxyFunc(req *http.Request) (*url.URL, error) {
	if u, ok := req.Context().Value(ctxKey{}).(*url.URL); ok {
		return u, nil
	}
	return nil, nil
}
