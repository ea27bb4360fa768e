package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nihongowow/arcade/internal/nihongo"
)

// execute runs arcadectl with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stderr)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestKanaCmd(t *testing.T) {
	out, err := execute(t, "kana", "--type", "hiragana", "--format", "json")
	if err != nil {
		t.Fatalf("kana: %v", err)
	}
	var pairs []nihongo.KanaPair
	if err := json.Unmarshal([]byte(out), &pairs); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if len(pairs) == 0 || pairs[0].Kana != "あ" {
		t.Fatalf("first pair = %+v, want あ", pairs[0])
	}

	out, err = execute(t, "kana")
	if err != nil {
		t.Fatalf("kana: %v", err)
	}
	if !strings.Contains(out, "hiragana:") || !strings.Contains(out, "katakana:") {
		t.Fatalf("yaml output missing tables:\n%s", out)
	}

	if _, err := execute(t, "kana", "--type", "kanji"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestReadingsCmd(t *testing.T) {
	path := writeCSV(t, "expression,meaning\n猫,cat\n")

	out, err := execute(t, "readings", path)
	if err != nil {
		t.Fatalf("readings: %v", err)
	}
	if want := "expression,meaning,reading\n猫,cat,ねこ\n"; out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}

	dst := filepath.Join(t.TempDir(), "out.csv")
	if _, err := execute(t, "readings", path, "-o", dst); err != nil {
		t.Fatalf("readings -o: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ねこ") {
		t.Fatalf("written file = %q", data)
	}
}

func TestImportCmd(t *testing.T) {
	var uploaded string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer admin-token" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Could not validate credentials"}`)
			return
		}
		io.WriteString(w, `{"id":"1","username":"root","is_admin":true}`)
	})
	mux.HandleFunc("POST /api/vocabulary/import", func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		uploaded = string(data)
		io.WriteString(w, `{"imported":1,"skipped":1,"errors":["row 3: duplicate"]}`)
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()
	t.Setenv("API_URL", backend.URL)

	path := writeCSV(t, "expression,meaning\n猫,cat\n猫,cat\n")

	out, err := execute(t, "import", path, "--token", "admin-token")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "imported 1, skipped 1") || !strings.Contains(out, "row 3: duplicate") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(uploaded, "猫,cat,ねこ") {
		t.Fatalf("uploaded = %q, want filled readings", uploaded)
	}

	if _, err := execute(t, "import", path, "--token", "wrong"); err == nil {
		t.Fatal("expected error for a rejected token")
	}
}

func TestImportCmdNeedsToken(t *testing.T) {
	t.Setenv("ARCADE_TOKEN", "")
	path := writeCSV(t, "expression,meaning\n猫,cat\n")

	if _, err := execute(t, "import", path); err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("err = %v, want a token error", err)
	}

	out, err := execute(t, "import", path, "--dry-run", "--no-fill")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if out != "expression,meaning\n猫,cat\n" {
		t.Fatalf("dry run output = %q", out)
	}
}

func TestRoundsCmdEmptyJournal(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "arcade.db"))

	out, err := execute(t, "rounds", "alice")
	if err != nil {
		t.Fatalf("rounds: %v", err)
	}
	if !strings.Contains(out, "no rounds for alice") {
		t.Fatalf("output = %q", out)
	}

	out, err = execute(t, "prune", "--older-than", "1h")
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if !strings.Contains(out, "deleted 0 rounds") {
		t.Fatalf("output = %q", out)
	}
}
