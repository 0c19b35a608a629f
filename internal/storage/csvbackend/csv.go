package csvbackend

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/FranksOps/linkedscrap/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order
var headers = []string{
	"id",
	"run_id",
	"term",
	"kind",
	"url",
	"offset",
	"status_code",
	"bytes",
	"duration_ms",
	"detected_bot",
	"detection_src",
	"created_at",
	"error",
}

// New opens (or creates) an append-only CSV audit log at filePath.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open csv audit log: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv audit log: %w", err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv audit header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv audit header: %w", err)
		}
	}

	return &csvBackend{file: f}, nil
}

func (b *csvBackend) Save(ctx context.Context, rec *storage.FetchRecord) error {
	row := []string{
		rec.ID,
		rec.RunID,
		rec.Term,
		string(rec.Kind),
		rec.URL,
		strconv.Itoa(rec.Offset),
		strconv.Itoa(rec.StatusCode),
		strconv.FormatInt(rec.Bytes, 10),
		strconv.FormatInt(rec.Duration.Milliseconds(), 10),
		strconv.FormatBool(rec.DetectedBot),
		rec.DetectionSrc,
		rec.CreatedAt.Format(time.RFC3339Nano),
		rec.Error,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek csv audit log: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write csv audit row: %w", err)
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("write csv audit row: %w", err)
	}
	return nil
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.FetchRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek csv audit log: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)

	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return []*storage.FetchRecord{}, nil
		}
		return nil, fmt.Errorf("read csv audit header: %w", err)
	}

	var matched []*storage.FetchRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv audit row: %w", err)
		}
		if len(row) != len(headers) {
			continue // skip malformed rows
		}

		rec := decode(row)
		if filter.Match(rec) {
			matched = append(matched, rec)
		}
	}

	// Newest first
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}

	return filter.Page(matched), nil
}

func decode(row []string) *storage.FetchRecord {
	offset, _ := strconv.Atoi(row[5])
	statusCode, _ := strconv.Atoi(row[6])
	size, _ := strconv.ParseInt(row[7], 10, 64)
	durationMs, _ := strconv.ParseInt(row[8], 10, 64)
	detectedBot, _ := strconv.ParseBool(row[9])
	createdAt, _ := time.Parse(time.RFC3339Nano, row[11])

	return &storage.FetchRecord{
		ID:           row[0],
		RunID:        row[1],
		Term:         row[2],
		Kind:         storage.Kind(row[3]),
		URL:          row[4],
		Offset:       offset,
		StatusCode:   statusCode,
		Bytes:        size,
		Duration:     time.Duration(durationMs) * time.Millisecond,
		DetectedBot:  detectedBot,
		DetectionSrc: row[10],
		CreatedAt:    createdAt,
		Error:        row[12],
	}
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
