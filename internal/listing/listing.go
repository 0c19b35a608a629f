// Package listing holds the job record model and the deduplicating set
// records are accumulated into across result pages.
package listing

import (
	"strings"

	"github.com/FranksOps/linkedscrap/internal/export"
)

// Record is one job listing. The parser fills every field except Fulltext,
// which the detail fetcher sets once after downloading the listing page.
type Record struct {
	Search   string `json:"search"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Location string `json:"location"`
	Snippet  string `json:"snippet"`
	Link     string `json:"link"`
	Fulltext string `json:"fulltext"`
}

// Key identifies a listing for deduplication. Snippet and link are not part
// of it: two cards with the same title, subtitle and location are the same
// listing.
func (r *Record) Key() string {
	return strings.Join([]string{r.Title, r.Subtitle, r.Location}, "\x1f")
}

// Row renders the record as an export row. Every record yields the same
// seven keys in the same order, so a run's rows are always uniform.
func (r *Record) Row() export.Row {
	return export.Row{
		{Key: "search", Value: r.Search},
		{Key: "title", Value: r.Title},
		{Key: "subtitle", Value: r.Subtitle},
		{Key: "location", Value: r.Location},
		{Key: "snippet", Value: r.Snippet},
		{Key: "link", Value: r.Link},
		{Key: "fulltext", Value: r.Fulltext},
	}
}

// Set keeps the first-seen record per Key, preserving insertion order.
// It is not safe for concurrent use.
type Set struct {
	seen    map[string]struct{}
	records []*Record
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add inserts r unless a record with the same Key is already present.
// It reports whether r was added.
func (s *Set) Add(r *Record) bool {
	k := r.Key()
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	s.records = append(s.records, r)
	return true
}

// AddAll adds each record in order and returns how many were new.
func (s *Set) AddAll(rs []*Record) int {
	added := 0
	for _, r := range rs {
		if s.Add(r) {
			added++
		}
	}
	return added
}

// Records returns the members in first-insertion order. The slice is shared
// with the set; the records themselves are meant to be enriched in place.
func (s *Set) Records() []*Record {
	return s.records
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.records)
}

// Rows renders every member for export.
func (s *Set) Rows() []export.Row {
	rows := make([]export.Row, 0, len(s.records))
	for _, r := range s.records {
		rows = append(rows, r.Row())
	}
	return rows
}
