package scraper

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/FranksOps/linkedscrap/internal/storage"
)

type card struct {
	title, subtitle, location, snippet, link string
}

func resultPage(cards ...card) string {
	var b strings.Builder
	b.WriteString("<html><body><ul class=\"jobs-search__results-list\">")
	for _, c := range cards {
		fmt.Fprintf(&b, `<li class="result-card job-result-card">
  <a class="result-card__full-card-link" href="%s"></a>
  <div class="result-card__contents">
    <h3 class="result-card__title">%s</h3>
    <h4 class="result-card__subtitle"><a>%s</a></h4>
    <div class="job-result-card__meta"><span class="job-result-card__location">%s</span></div>
    <p class="job-result-card__snippet">%s</p>
  </div>
</li>`, c.link, c.title, c.subtitle, c.location, c.snippet)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

// fakeDownloader serves canned bodies by URL. Unknown URLs fail.
type fakeDownloader struct {
	mu    sync.Mutex
	pages map[string]string
	match func(rawURL string) (string, bool)
	calls []string
}

func (f *fakeDownloader) Download(ctx context.Context, rawURL, dest string) *storage.FetchRecord {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	f.mu.Unlock()

	rec := newFetchRecord(rawURL)
	body, ok := f.pages[rawURL]
	if !ok && f.match != nil {
		body, ok = f.match(rawURL)
	}
	if !ok {
		rec.Error = "exit status 8"
		return rec
	}
	if err := os.WriteFile(dest, []byte(body), 0o644); err != nil {
		rec.Error = err.Error()
		return rec
	}
	rec.StatusCode = 200
	rec.Bytes = int64(len(body))
	return rec
}

type captureRecorder struct {
	records []*storage.FetchRecord
}

func (c *captureRecorder) Record(_ context.Context, rec *storage.FetchRecord) {
	c.records = append(c.records, rec)
}
