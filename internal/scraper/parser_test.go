package scraper

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParser_Parse(t *testing.T) {
	page := resultPage(
		card{"  Go Developer ", "Acme", "Brasília, DF", "Build APIs", "https://br.linkedin.com/jobs/view/1"},
		card{"SRE", "Globex", "Remote", "On call", "/jobs/view/2"},
	)
	base, _ := url.Parse("https://br.linkedin.com/jobs/search?keywords=go")

	records, err := NewParser(Selectors{}).Parse(strings.NewReader(page), "golang", base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	r := records[0]
	if r.Search != "golang" || r.Title != "Go Developer" || r.Subtitle != "Acme" ||
		r.Location != "Brasília, DF" || r.Snippet != "Build APIs" ||
		r.Link != "https://br.linkedin.com/jobs/view/1" {
		t.Errorf("unexpected first record: %+v", r)
	}
	if r.Fulltext != "" {
		t.Errorf("expected empty fulltext after parsing, got %q", r.Fulltext)
	}
	if records[1].Link != "https://br.linkedin.com/jobs/view/2" {
		t.Errorf("expected relative link resolved, got %s", records[1].Link)
	}
}

func TestParser_Mismatch(t *testing.T) {
	page := resultPage(card{"A", "B", "C", "D", "http://x/1"}) +
		`<h3 class="result-card__title">orphan</h3>`

	_, err := NewParser(Selectors{}).Parse(strings.NewReader(page), "go", nil)
	if !errors.Is(err, ErrMismatchedSelections) {
		t.Fatalf("expected ErrMismatchedSelections, got %v", err)
	}
	if !strings.Contains(err.Error(), "2 titles, 1 subtitles") {
		t.Errorf("expected counts in error, got %v", err)
	}
}

func TestParser_EmptyPage(t *testing.T) {
	records, err := NewParser(Selectors{}).Parse(strings.NewReader("<html></html>"), "go", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestParser_CustomSelectors(t *testing.T) {
	page := `<div class="job"><b class="t">T</b><i class="s">S</i><span class="l">L</span><p class="n">N</p><a class="h" href="http://x/1">x</a></div>`
	p := NewParser(Selectors{Title: ".t", Subtitle: ".s", Location: ".l", Snippet: ".n", Link: ".h"})

	records, err := p.Parse(strings.NewReader(page), "go", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Title != "T" || records[0].Link != "http://x/1" {
		t.Errorf("unexpected records: %+v", records)
	}
	if p.sel.Description != DefaultSelectors().Description {
		t.Errorf("expected default description selector, got %q", p.sel.Description)
	}
}

func TestParser_DescriptionFile(t *testing.T) {
	dir := t.TempDir()
	withDesc := filepath.Join(dir, "a.html")
	without := filepath.Join(dir, "b.html")
	_ = os.WriteFile(withDesc, []byte(`<section class="description"><div class="description__text"><p>About</p></div><div class="description__text">second</div></section>`), 0o644)
	_ = os.WriteFile(without, []byte(`<html><body>authwall</body></html>`), 0o644)

	p := NewParser(Selectors{})

	html, found, err := p.DescriptionFile(withDesc)
	if err != nil || !found {
		t.Fatalf("expected description, got found=%v err=%v", found, err)
	}
	if html != "<p>About</p>" {
		t.Errorf("expected first element's inner html, got %q", html)
	}

	_, found, err = p.DescriptionFile(without)
	if err != nil || found {
		t.Errorf("expected not found without error, got found=%v err=%v", found, err)
	}

	if _, _, err := p.DescriptionFile(filepath.Join(dir, "missing.html")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParser_ParseFileMissing(t *testing.T) {
	_, err := NewParser(Selectors{}).ParseFile(filepath.Join(t.TempDir(), "nope.html"), "go", "")
	if err == nil {
		t.Fatal("expected error for missing result page")
	}
}
