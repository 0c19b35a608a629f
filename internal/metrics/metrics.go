// Package metrics holds the run's prometheus collectors and the optional
// HTTP endpoint exposing them.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/FranksOps/linkedscrap/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkedscrap_fetch_total",
			Help: "Download attempts by page kind and outcome",
		},
		[]string{"kind", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkedscrap_fetch_duration_seconds",
			Help:    "Duration of download attempts in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"kind"},
	)

	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkedscrap_fetch_bytes_total",
			Help: "Bytes saved by successful downloads",
		},
		[]string{"kind"},
	)

	BotDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkedscrap_bot_detections_total",
			Help: "Responses identified as a bot wall or challenge",
		},
		[]string{"source"},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkedscrap_proxy_failures_total",
			Help: "Requests that failed through a proxy",
		},
		[]string{"proxy_url"},
	)

	RecordsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkedscrap_records_parsed_total",
		Help: "Result cards parsed from listing pages",
	})

	DuplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkedscrap_duplicates_skipped_total",
		Help: "Parsed records dropped because an equal record was already collected",
	})

	DetailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkedscrap_detail_failures_total",
		Help: "Records left without full text",
	})
)

// RecordFetch updates the fetch collectors from one download attempt.
func RecordFetch(rec *storage.FetchRecord) {
	if rec == nil {
		return
	}

	kind := string(rec.Kind)
	status := "ok"
	switch {
	case rec.Failed() && rec.StatusCode != 0:
		status = strconv.Itoa(rec.StatusCode)
	case rec.Failed():
		status = "error"
	}

	FetchTotal.WithLabelValues(kind, status).Inc()
	FetchDuration.WithLabelValues(kind).Observe(rec.Duration.Seconds())
	if !rec.Failed() {
		FetchBytesTotal.WithLabelValues(kind).Add(float64(rec.Bytes))
	}
	if rec.DetectedBot {
		BotDetections.WithLabelValues(rec.DetectionSrc).Inc()
	}
}

// Handler routes /metrics and /healthz.
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln, logger)
}

func serve(ctx context.Context, ln net.Listener, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return nil
}
