package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nihongowow/arcade/internal/nihongo"
	"github.com/nihongowow/arcade/internal/provider"
)

func TestIdentitiesCachesPerToken(t *testing.T) {
	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") == "Bearer bad" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "1", "username": "alice"})
	}))
	defer backend.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := newIdentities(provider.New(backend.URL, time.Second, slog.New(slog.DiscardHandler)), time.Minute)
	ids.now = func() time.Time { return now }
	ctx := context.Background()
	sess := nihongo.Session{Token: "good", Username: "mallory"}

	for range 3 {
		u, err := ids.resolve(ctx, sess)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if u.Username != "alice" {
			t.Fatalf("username = %q, want alice", u.Username)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("backend calls = %d, want 1", n)
	}

	now = now.Add(2 * time.Minute)
	if _, err := ids.resolve(ctx, sess); err != nil {
		t.Fatalf("resolve after expiry: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("backend calls = %d, want 2", n)
	}

	_, err := ids.resolve(ctx, nihongo.Session{Token: "bad"})
	if provider.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("err = %v, want a 401 from the backend", err)
	}
	if _, err := ids.resolve(ctx, nihongo.Session{Token: "bad"}); err == nil {
		t.Fatal("refused tokens must not be cached")
	}
}
