package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nihongowow/arcade/internal/audit"
	"github.com/nihongowow/arcade/internal/nihongo"
	"github.com/nihongowow/arcade/internal/provider"
)

type SettingsResponse struct {
	Settings map[string]string `json:"settings"`
}

type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type SettingRequest struct {
	Value string `json:"value"`
}

type PreferencesResponse struct {
	SelectedTags []string `json:"selectedTags"`
}

type PreferencesRequest struct {
	SelectedTags []string `json:"selectedTags"`
}

func handleSettings(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := api.Settings(r.Context())
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		if s == nil {
			s = map[string]string{}
		}
		writeJSON(w, http.StatusOK, SettingsResponse{Settings: s})
	}
}

func handleSetting(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		v, err := api.Setting(r.Context(), key)
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, SettingResponse{Key: key, Value: v})
	}
}

func handleUpdateSetting(api *provider.Client, trail *audit.Logger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SettingRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		key := chi.URLParam(r, "key")
		if err := api.UpdateSetting(r.Context(), sessionFrom(r), key, req.Value); err != nil {
			writeUpstream(w, logger, err)
			return
		}
		user := userFrom(r)
		trail.Log(audit.Entry{Event: audit.SettingsChanged, Email: user.Email, UserID: user.ID, IP: clientIP(r), Details: key + "=" + req.Value, Success: true})
		writeJSON(w, http.StatusOK, SettingResponse{Key: key, Value: req.Value})
	}
}

func handlePreferences(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := api.Preferences(r.Context(), sessionFrom(r))
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, PreferencesResponse{SelectedTags: nonNil(tags)})
	}
}

func handleUpdatePreferences(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PreferencesRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tags := nihongo.SplitTags(strings.Join(req.SelectedTags, ","))
		saved, err := api.UpdatePreferences(r.Context(), sessionFrom(r), tags)
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, PreferencesResponse{SelectedTags: nonNil(saved)})
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
