package scraper

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// fakeWget writes a shell script that behaves like "wget <url> -O <file>".
func fakeWget(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "wget")
	content := "#!/bin/sh\n" +
		"case \"$1\" in\n" +
		"  *fail*) echo \"ERROR 404: Not Found.\" >&2; exit 8 ;;\n" +
		"esac\n" +
		"[ \"$2\" = \"-O\" ] || exit 2\n" +
		"printf '%s' '" + body + "' > \"$3\"\n"
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return script
}

func TestExecDownloader_Success(t *testing.T) {
	d := NewExecDownloader(fakeWget(t, "<html>ok</html>"), nil)
	dest := filepath.Join(t.TempDir(), "result.html")

	rec := d.Download(context.Background(), "https://example.com/jobs?a=1&b=2", dest)
	if rec.Failed() {
		t.Fatalf("unexpected failure: %s", rec.Error)
	}
	if rec.Bytes != int64(len("<html>ok</html>")) {
		t.Errorf("expected %d bytes, got %d", len("<html>ok</html>"), rec.Bytes)
	}
	if rec.URL != "https://example.com/jobs?a=1&b=2" {
		t.Errorf("expected url recorded, got %s", rec.URL)
	}

	got, _ := os.ReadFile(dest)
	if string(got) != "<html>ok</html>" {
		t.Errorf("expected output written, got %q", got)
	}
}

func TestExecDownloader_NonZeroExit(t *testing.T) {
	d := NewExecDownloader(fakeWget(t, "x"), nil)

	rec := d.Download(context.Background(), "https://example.com/fail", filepath.Join(t.TempDir(), "r.html"))
	if !rec.Failed() {
		t.Fatal("expected failure on non-zero exit")
	}
	if !strings.Contains(rec.Error, "exit status 8") || !strings.Contains(rec.Error, "ERROR 404") {
		t.Errorf("expected exit status and stderr tail, got %q", rec.Error)
	}
}

func TestExecDownloader_SpawnError(t *testing.T) {
	d := NewExecDownloader(filepath.Join(t.TempDir(), "no-such-tool"), nil)

	rec := d.Download(context.Background(), "https://example.com", filepath.Join(t.TempDir(), "r.html"))
	if !rec.Failed() {
		t.Fatal("expected failure when the tool cannot be spawned")
	}
}

func TestExecDownloader_DefaultPath(t *testing.T) {
	if d := NewExecDownloader("", nil); d.path != DefaultWgetPath {
		t.Errorf("expected %s, got %s", DefaultWgetPath, d.path)
	}
}
