// Package audit records every download attempt of a run: to the configured
// storage backend, to the prometheus collectors and in memory for the
// end-of-run report.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/FranksOps/linkedscrap/internal/metrics"
	"github.com/FranksOps/linkedscrap/internal/storage"
	"github.com/FranksOps/linkedscrap/internal/storage/csvbackend"
	"github.com/FranksOps/linkedscrap/internal/storage/jsonbackend"
	"github.com/FranksOps/linkedscrap/internal/storage/postgres"
	"github.com/FranksOps/linkedscrap/internal/storage/sqlite"
	"github.com/google/uuid"
)

// ErrUnknownRun is returned by Replay when the store holds nothing for a run.
var ErrUnknownRun = errors.New("no audit records for run")

// Backends lists the accepted backend names.
var Backends = []string{"none", "csv", "json", "sqlite", "postgres"}

// Open returns the backend named by kind, or nil for "none" and "".
func Open(ctx context.Context, kind, dsn string) (storage.Backend, error) {
	var (
		b   storage.Backend
		err error
	)
	switch kind {
	case "", "none":
		return nil, nil
	case "csv":
		b, err = csvbackend.New(dsn)
	case "json":
		b, err = jsonbackend.New(dsn)
	case "sqlite":
		b, err = sqlite.New(dsn)
	case "postgres":
		b, err = postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown audit backend %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s audit backend: %w", kind, err)
	}
	return b, nil
}

// Recorder stamps records with the run ID and fans them out. A failing
// backend is logged and never aborts the run.
type Recorder struct {
	runID   string
	backend storage.Backend
	logger  *slog.Logger

	mu      sync.Mutex
	records []*storage.FetchRecord
}

// NewRecorder starts a run with a fresh ID. backend may be nil.
func NewRecorder(backend storage.Backend, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		runID:   uuid.NewString(),
		backend: backend,
		logger:  logger,
	}
}

// RunID identifies this run in the audit log.
func (r *Recorder) RunID() string {
	return r.runID
}

// Record implements scraper.Recorder.
func (r *Recorder) Record(ctx context.Context, rec *storage.FetchRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.RunID = r.runID

	metrics.RecordFetch(rec)

	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()

	if r.backend == nil {
		return
	}
	if err := r.backend.Save(ctx, rec); err != nil {
		r.logger.Warn("audit save failed", "id", rec.ID, "url", rec.URL, "err", err)
	}
}

// Records returns everything recorded so far, in order.
func (r *Recorder) Records() []*storage.FetchRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*storage.FetchRecord(nil), r.records...)
}

// Fetches returns this run's records as persisted by the backend, falling
// back to the in-memory copy when there is no backend or the query fails.
func (r *Recorder) Fetches(ctx context.Context) []*storage.FetchRecord {
	if r.backend == nil {
		return r.Records()
	}
	stored, err := r.backend.Query(ctx, storage.Filter{RunID: r.runID})
	if err != nil {
		r.logger.Warn("audit query failed, using in-memory records", "run_id", r.runID, "err", err)
		return r.Records()
	}
	return stored
}

// Replay loads every record of a past run from backend.
func Replay(ctx context.Context, backend storage.Backend, runID string) ([]*storage.FetchRecord, error) {
	fetches, err := backend.Query(ctx, storage.Filter{RunID: runID})
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	if len(fetches) == 0 {
		return nil, fmt.Errorf("%w %s", ErrUnknownRun, runID)
	}
	return fetches, nil
}

// Close closes the backend, if any.
func (r *Recorder) Close() error {
	if r.backend == nil {
		return nil
	}
	return r.backend.Close()
}
