package scraper

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/FranksOps/linkedscrap/internal/listing"
	"github.com/PuerkitoBio/goquery"
)

// ErrMismatchedSelections means the card selectors matched different
// numbers of elements, so records cannot be zipped positionally.
var ErrMismatchedSelections = errors.New("mismatched selection sizes while parsing")

// Selectors holds the CSS selectors for result cards and detail pages.
type Selectors struct {
	Title       string
	Subtitle    string
	Location    string
	Snippet     string
	Link        string
	Description string
}

// DefaultSelectors matches the public jobs search markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Title:       ".result-card__title",
		Subtitle:    ".result-card__subtitle",
		Location:    ".job-result-card__location",
		Snippet:     ".job-result-card__snippet",
		Link:        ".result-card__full-card-link",
		Description: ".description__text",
	}
}

// Parser extracts records from result pages and descriptions from detail
// pages.
type Parser struct {
	sel Selectors
}

// NewParser fills any empty selector with its default.
func NewParser(sel Selectors) *Parser {
	def := DefaultSelectors()
	for _, f := range []struct{ dst *string; def string }{
		{&sel.Title, def.Title},
		{&sel.Subtitle, def.Subtitle},
		{&sel.Location, def.Location},
		{&sel.Snippet, def.Snippet},
		{&sel.Link, def.Link},
		{&sel.Description, def.Description},
	} {
		if strings.TrimSpace(*f.dst) == "" {
			*f.dst = f.def
		}
	}
	return &Parser{sel: sel}
}

// ParseFile parses the result page saved at path. pageURL, when not empty,
// is used to resolve relative links.
func (p *Parser) ParseFile(path, term, pageURL string) ([]*listing.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open result page: %w", err)
	}
	defer f.Close()

	var base *url.URL
	if pageURL != "" {
		if base, err = url.Parse(pageURL); err != nil {
			return nil, fmt.Errorf("parse page url: %w", err)
		}
	}
	return p.Parse(f, term, base)
}

// Parse selects the five card collections and zips them by position into
// records tagged with term.
func (p *Parser) Parse(r io.Reader, term string, base *url.URL) ([]*listing.Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	titles := doc.Find(p.sel.Title)
	subtitles := doc.Find(p.sel.Subtitle)
	locations := doc.Find(p.sel.Location)
	snippets := doc.Find(p.sel.Snippet)
	links := doc.Find(p.sel.Link)

	n := titles.Length()
	if subtitles.Length() != n || locations.Length() != n || snippets.Length() != n || links.Length() != n {
		return nil, fmt.Errorf("%w: %d titles, %d subtitles, %d locations, %d snippets, %d links",
			ErrMismatchedSelections, n, subtitles.Length(), locations.Length(), snippets.Length(), links.Length())
	}

	records := make([]*listing.Record, n)
	for i := range n {
		records[i] = &listing.Record{
			Search:   term,
			Title:    text(titles.Eq(i)),
			Subtitle: text(subtitles.Eq(i)),
			Location: text(locations.Eq(i)),
			Snippet:  text(snippets.Eq(i)),
			Link:     resolve(base, links.Eq(i).AttrOr("href", "")),
		}
	}
	return records, nil
}

// DescriptionFile returns the inner HTML of the first description element
// in the detail page at path. found is false when no element matches.
func (p *Parser) DescriptionFile(path string) (html string, found bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("open detail page: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", false, fmt.Errorf("parse html: %w", err)
	}

	sel := doc.Find(p.sel.Description).First()
	if sel.Length() == 0 {
		return "", false, nil
	}
	html, err = sel.Html()
	if err != nil {
		return "", false, fmt.Errorf("render description: %w", err)
	}
	return html, true, nil
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		return href
	}
	return base.ResolveReference(ref).String()
}
