package scraper

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/FranksOps/linkedscrap/internal/listing"
	"github.com/FranksOps/linkedscrap/internal/storage"
)

func detailPage(description string) string {
	return `<html><body><section class="description"><div class="description__text description__text--rich">` +
		description + `</div></section></body></html>`
}

func TestDetailFetcher_Enrich(t *testing.T) {
	dl := &fakeDownloader{pages: map[string]string{
		"http://x/1": detailPage("<p>About</p><ul><li>Go</li><li>Postgres</li></ul>"),
		"http://x/3": `<html><body>Sign in to view</body></html>`,
	}}
	rec := &captureRecorder{}
	var progress bytes.Buffer

	d := NewDetailFetcher(DetailConfig{
		File:     filepath.Join(t.TempDir(), "indresult.html"),
		Progress: &progress,
	}, dl, NewParser(Selectors{}), rec, nil)

	records := []*listing.Record{
		{Search: "go", Title: "A", Link: "http://x/1"},
		{Search: "go", Title: "B", Link: "http://x/2"},
		{Search: "go", Title: "C", Link: "http://x/3"},
		{Search: "go", Title: "D"},
	}

	failures, err := d.Enrich(context.Background(), records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if failures != 3 {
		t.Errorf("expected 3 failures, got %d", failures)
	}
	if records[0].Fulltext != "About Go Postgres" {
		t.Errorf("expected collapsed description, got %q", records[0].Fulltext)
	}
	for _, r := range records[1:] {
		if r.Fulltext != "" {
			t.Errorf("expected empty fulltext for %s, got %q", r.Title, r.Fulltext)
		}
	}

	if len(dl.calls) != 3 {
		t.Errorf("expected 3 downloads in order, got %v", dl.calls)
	}
	for _, r := range rec.records {
		if r.Kind != storage.KindDetail || r.Term != "go" {
			t.Errorf("unexpected audit record %+v", r)
		}
	}
	if progress.Len() == 0 {
		t.Errorf("expected progress output")
	}
}

func TestDetailFetcher_NoProgressWriter(t *testing.T) {
	dl := &fakeDownloader{pages: map[string]string{"http://x/1": detailPage("<p>a</p>\n<p>b</p>")}}
	d := NewDetailFetcher(DetailConfig{File: filepath.Join(t.TempDir(), "d.html")}, dl, NewParser(Selectors{}), nil, nil)

	records := []*listing.Record{{Link: "http://x/1"}}
	if _, err := d.Enrich(context.Background(), records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].Fulltext != "a b" {
		t.Errorf("expected %q, got %q", "a b", records[0].Fulltext)
	}
}

func TestDetailFetcher_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDetailFetcher(DetailConfig{File: filepath.Join(t.TempDir(), "d.html")}, &fakeDownloader{}, NewParser(Selectors{}), nil, nil)
	_, err := d.Enrich(ctx, []*listing.Record{{Link: "http://x/1"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
