package storage

import (
	"context"
	"time"
)

// Kind tells listing-page downloads apart from detail-page downloads.
type Kind string

const (
	KindListing Kind = "listing"
	KindDetail  Kind = "detail"
)

// FetchRecord is the audit entry for one download attempt.
type FetchRecord struct {
	ID           string        `json:"id"`
	RunID        string        `json:"run_id"`
	Term         string        `json:"term"`
	Kind         Kind          `json:"kind"`
	URL          string        `json:"url"`
	Offset       int           `json:"offset"`      // pagination offset; zero for detail pages
	StatusCode   int           `json:"status_code"` // zero when the downloader cannot report one
	Bytes        int64         `json:"bytes"`
	Duration     time.Duration `json:"duration"`
	DetectedBot  bool          `json:"detected_bot"`
	DetectionSrc string        `json:"detection_src,omitempty"` // e.g. "LinkedIn", "Cloudflare"
	CreatedAt    time.Time     `json:"created_at"`
	Error        string        `json:"error,omitempty"` // non-empty if the download failed
}

// Failed reports whether the attempt failed.
func (r *FetchRecord) Failed() bool {
	return r.Error != ""
}

// Filter narrows a Query.
type Filter struct {
	RunID  string
	Term   string
	Kind   Kind
	Failed *bool
	Since  *time.Time
	Limit  int
	Offset int
}

// Match reports whether r passes every set field of f. Limit and Offset
// are not considered.
func (f Filter) Match(r *FetchRecord) bool {
	if f.RunID != "" && r.RunID != f.RunID {
		return false
	}
	if f.Term != "" && r.Term != f.Term {
		return false
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.Failed != nil && r.Failed() != *f.Failed {
		return false
	}
	if f.Since != nil && r.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// Page applies Offset and Limit to an already filtered, ordered slice.
func (f Filter) Page(in []*FetchRecord) []*FetchRecord {
	if f.Offset > 0 {
		if f.Offset >= len(in) {
			return []*FetchRecord{}
		}
		in = in[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(in) {
		in = in[:f.Limit]
	}
	return in
}

// Backend stores and queries the fetch audit log.
type Backend interface {
	Save(ctx context.Context, rec *FetchRecord) error
	Query(ctx context.Context, filter Filter) ([]*FetchRecord, error)
	Close() error
}
