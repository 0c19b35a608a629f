// Package report summarises a run for the operator.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/linkedscrap/internal/storage"
	"github.com/dustin/go-humanize"
)

// Stats are the pipeline-level counts that cannot be derived from the fetch
// audit alone.
type Stats struct {
	RunID          string
	Terms          int
	Pages          int
	Records        int
	DetailFailures int
	Start          time.Time
	End            time.Time
}

// Summary is the end-of-run report.
type Summary struct {
	RunID           string         `json:"run_id"`
	Terms           int            `json:"terms"`
	Pages           int            `json:"pages"`
	Records         int            `json:"records"`
	DetailFailures  int            `json:"detail_failures"`
	ListingFetches  int            `json:"listing_fetches"`
	DetailFetches   int            `json:"detail_fetches"`
	TotalErrors     int            `json:"total_errors"`
	TotalDetections int            `json:"total_detections"`
	StatusCodes     map[int]int    `json:"status_codes"`
	DetectionsBySrc map[string]int `json:"detections_by_source"`
	TotalBytes      int64          `json:"total_bytes"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	Duration        time.Duration  `json:"duration"`
}

// GenerateSummary folds the run's fetch records into stats.
func GenerateSummary(fetches []*storage.FetchRecord, stats Stats) Summary {
	s := Summary{
		RunID:           stats.RunID,
		Terms:           stats.Terms,
		Pages:           stats.Pages,
		Records:         stats.Records,
		DetailFailures:  stats.DetailFailures,
		StatusCodes:     make(map[int]int),
		DetectionsBySrc: make(map[string]int),
		StartTime:       stats.Start,
		EndTime:         stats.End,
	}
	if !stats.Start.IsZero() && !stats.End.IsZero() {
		s.Duration = stats.End.Sub(stats.Start)
	}

	for _, r := range fetches {
		switch r.Kind {
		case storage.KindListing:
			s.ListingFetches++
		case storage.KindDetail:
			s.DetailFetches++
		}
		if r.Failed() {
			s.TotalErrors++
		}
		if r.DetectedBot {
			s.TotalDetections++
			s.DetectionsBySrc[r.DetectionSrc]++
		}
		if r.StatusCode > 0 {
			s.StatusCodes[r.StatusCode]++
		}
		if !r.Failed() {
			s.TotalBytes += r.Bytes
		}
	}
	return s
}

// StatsFromFetches rebuilds Stats for a past run from its audit records.
// Records is left at zero since scraped listings are not stored, and detail
// failures count failed detail downloads only.
func StatsFromFetches(runID string, fetches []*storage.FetchRecord) Stats {
	stats := Stats{RunID: runID}
	terms := make(map[string]struct{})
	for _, r := range fetches {
		terms[r.Term] = struct{}{}
		switch {
		case r.Kind == storage.KindListing && !r.Failed():
			stats.Pages++
		case r.Kind == storage.KindDetail && r.Failed():
			stats.DetailFailures++
		}
		if stats.Start.IsZero() || r.CreatedAt.Before(stats.Start) {
			stats.Start = r.CreatedAt
		}
		if end := r.CreatedAt.Add(r.Duration); end.After(stats.End) {
			stats.End = end
		}
	}
	delete(terms, "")
	stats.Terms = len(terms)
	return stats
}

// WriteJSON writes the summary as indented JSON.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

var textReport = template.Must(template.New("textReport").Funcs(template.FuncMap{
	"bytes": func(n int64) string { return humanize.Bytes(uint64(max(n, 0))) },
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"round": func(d time.Duration) time.Duration { return d.Round(time.Millisecond) },
}).Parse(`Run Summary {{.RunID}}
-----------
Duration:        {{round .Duration}}
Terms:           {{comma .Terms}}
Pages:           {{comma .Pages}}
Records:         {{comma .Records}}
Without text:    {{comma .DetailFailures}}
Listing fetches: {{comma .ListingFetches}}
Detail fetches:  {{comma .DetailFetches}}
Downloaded:      {{bytes .TotalBytes}}
Errors:          {{comma .TotalErrors}}

Status Codes:
{{- range $code, $count := .StatusCodes}}
  {{$code}}: {{$count}}
{{- else}}
  None
{{- end}}

Detections: {{.TotalDetections}}
{{- range $src, $count := .DetectionsBySrc}}
  {{$src}}: {{$count}}
{{- else}}
  None
{{- end}}
`))

// WriteText writes a human-readable summary.
func WriteText(w io.Writer, summary Summary) error {
	if err := textReport.Execute(w, summary); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	return nil
}

// Write renders summary in format: "text", "json" or "none".
func Write(w io.Writer, format string, summary Summary) error {
	switch format {
	case "", "none":
		return nil
	case "text":
		return WriteText(w, summary)
	case "json":
		return WriteJSON(w, summary)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
