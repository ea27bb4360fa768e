package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSPA(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":      "<!doctype html><div id=app></div>",
		"assets/app-1.js": "console.log('app')",
		"favicon.ico":     "ico",
		"audio/chime.mp3": "mp3",
	}
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestSPA(t *testing.T) {
	dir := writeSPA(t)
	s := newTestServer(t, func(d *Deps) { d.SPADir = dir })

	tests := []struct {
		name   string
		path   string
		status int
		body   string
		cache  string
	}{
		{"index", "/", http.StatusOK, "id=app", ""},
		{"client route", "/quiz", http.StatusOK, "id=app", "no-cache"},
		{"nested client route", "/admin/vocabulary", http.StatusOK, "id=app", "no-cache"},
		{"asset", "/assets/app-1.js", http.StatusOK, "console.log", "immutable"},
		{"static file", "/favicon.ico", http.StatusOK, "ico", ""},
		{"unknown api", "/api/nope", http.StatusNotFound, `"error"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, tt.path, "", nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if !strings.Contains(rec.Body.String(), tt.body) {
				t.Fatalf("body = %q, want it to contain %q", rec.Body.String(), tt.body)
			}
			if tt.cache != "" && !strings.Contains(rec.Header().Get("Cache-Control"), tt.cache) {
				t.Fatalf("cache-control = %q, want %q", rec.Header().Get("Cache-Control"), tt.cache)
			}
		})
	}
}

func TestSPAMissingDir(t *testing.T) {
	s := newTestServer(t, func(d *Deps) { d.SPADir = filepath.Join(t.TempDir(), "missing") })

	rec := s.do(http.MethodGet, "/quiz", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
