package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/FranksOps/linkedscrap/internal/storage"
)

// DefaultWgetPath is resolved through PATH.
const DefaultWgetPath = "wget"

// ExecDownloader shells out to a wget-compatible tool as
// "<path> <url> -O <dest>".
type ExecDownloader struct {
	path   string
	logger *slog.Logger
}

var _ Downloader = (*ExecDownloader)(nil)

// NewExecDownloader returns a downloader running the tool at path.
func NewExecDownloader(path string, logger *slog.Logger) *ExecDownloader {
	if path == "" {
		path = DefaultWgetPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecDownloader{path: path, logger: logger}
}

// Download runs the tool and waits for it. A non-zero exit, a spawn error or
// an unreadable output file is a failure.
func (d *ExecDownloader) Download(ctx context.Context, rawURL, dest string) *storage.FetchRecord {
	rec := newFetchRecord(rawURL)
	start := time.Now()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.path, rawURL, "-O", dest)
	cmd.Stderr = &stderr

	err := cmd.Run()
	rec.Duration = time.Since(start)
	if err != nil {
		rec.Error = fmt.Sprintf("%s: %v", d.path, err)
		if tail := lastLine(stderr.String()); tail != "" {
			rec.Error += ": " + tail
		}
		d.logger.Debug("download command failed", "tool", d.path, "url", rawURL, "err", err)
		return rec
	}

	info, err := os.Stat(dest)
	if err != nil {
		rec.Error = fmt.Sprintf("stat output: %v", err)
		return rec
	}
	rec.Bytes = info.Size()
	return rec
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
