package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nihongowow/arcade/internal/provider"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeUpstream relays a backend failure. API errors keep their status and
// detail; anything else means the backend could not be reached.
func writeUpstream(w http.ResponseWriter, logger *slog.Logger, err error) {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= http.StatusInternalServerError {
			logger.Warn("backend error", "status", apiErr.Status, "detail", apiErr.Detail)
		}
		writeError(w, apiErr.Status, apiErr.Detail)
		return
	}
	logger.Error("backend unreachable", "error", err)
	writeError(w, http.StatusBadGateway, "backend unavailable")
}
