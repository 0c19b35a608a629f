// Package scraper fetches search result pages and job detail pages and turns
// them into listing records.
package scraper

import (
	"context"
	"time"

	"github.com/FranksOps/linkedscrap/internal/storage"
	"github.com/google/uuid"
)

// Downloader saves the document at rawURL into the file dest, replacing any
// previous content. Failures are reported on the returned record's Error
// field; the record is never nil.
type Downloader interface {
	Download(ctx context.Context, rawURL, dest string) *storage.FetchRecord
}

// Recorder receives every download attempt once its Term, Kind and Offset
// are filled in.
type Recorder interface {
	Record(ctx context.Context, rec *storage.FetchRecord)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, *storage.FetchRecord) {}

func newFetchRecord(rawURL string) *storage.FetchRecord {
	return &storage.FetchRecord{
		ID:        uuid.NewString(),
		URL:       rawURL,
		CreatedAt: time.Now().UTC(),
	}
}
