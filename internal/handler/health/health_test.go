package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nihongowow/arcade/internal/handler/health"
)

func ok() health.Checker { return health.CheckFunc(func(context.Context) error { return nil }) }

func failing(msg string) health.Checker {
	return health.CheckFunc(func(context.Context) error { return errors.New(msg) })
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		checks     []health.Check
		wantStatus int
		wantState  string
		wantChecks map[string]string
	}{
		{
			name: "all healthy",
			checks: []health.Check{
				{Name: "sqlite", Checker: ok()},
				{Name: "api", Checker: ok()},
				{Name: "redis", Checker: ok(), Optional: true},
			},
			wantStatus: http.StatusOK,
			wantState:  "ok",
			wantChecks: map[string]string{"sqlite": "ok", "api": "ok", "redis": "ok"},
		},
		{
			name: "api down",
			checks: []health.Check{
				{Name: "sqlite", Checker: ok()},
				{Name: "api", Checker: failing("connection refused")},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "error",
			wantChecks: map[string]string{"sqlite": "ok", "api": "error"},
		},
		{
			name: "optional redis down",
			checks: []health.Check{
				{Name: "sqlite", Checker: ok()},
				{Name: "redis", Checker: failing("refused"), Optional: true},
			},
			wantStatus: http.StatusOK,
			wantState:  "degraded",
			wantChecks: map[string]string{"sqlite": "ok", "redis": "error"},
		},
		{
			name: "required and optional down",
			checks: []health.Check{
				{Name: "sqlite", Checker: failing("locked")},
				{Name: "redis", Checker: failing("refused"), Optional: true},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "error",
			wantChecks: map[string]string{"sqlite": "error", "redis": "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := health.NewHandler(slog.Default(), tt.checks...)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body health.Response
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if body.Status != tt.wantState {
				t.Errorf("overall = %q, want %q", body.Status, tt.wantState)
			}
			for name, want := range tt.wantChecks {
				if got := body.Checks[name].Status; got != want {
					t.Errorf("%s status = %q, want %q", name, got, want)
				}
			}
		})
	}
}
