// Package serp builds job-search result page URLs.
package serp

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultBaseURL  = "https://br.linkedin.com/jobs/search"
	DefaultLocation = "Brasília, Federal District, Brazil"

	trackingID = "homepage-jobseeker_jobs-search-bar_search-submit"
)

// Search describes the results endpoint and the fixed location filter.
type Search struct {
	BaseURL  string
	Location string
}

// Default returns the stock endpoint and location.
func Default() Search {
	return Search{BaseURL: DefaultBaseURL, Location: DefaultLocation}
}

type param struct{ key, value string }

// PageURL returns the results page for term starting at offset. The start
// parameter is left out for the first page.
func (s Search) PageURL(term string, offset int) string {
	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	params := []param{
		{"keywords", term},
		{"location", s.Location},
		{"trk", trackingID},
		{"redirect", "false"},
		{"position", "1"},
		{"pageNum", "0"},
	}
	if offset != 0 {
		params = append(params, param{"start", strconv.Itoa(offset)})
	}

	var b strings.Builder
	b.WriteString(base)
	if strings.Contains(base, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(escape(p.value))
	}
	return b.String()
}

// unreserved leaves ! ' ( ) * bare, as querystring encoders do, and
// encodes spaces as %20.
var unreserved = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escape percent-encodes a query value.
func escape(s string) string {
	return unreserved.Replace(url.QueryEscape(s))
}
