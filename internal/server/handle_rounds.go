package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nihongowow/arcade/internal/audit"
	"github.com/nihongowow/arcade/internal/game"
	"github.com/nihongowow/arcade/internal/play"
	"github.com/nihongowow/arcade/internal/ratelimit"
)

var (
	hintRule   = ratelimit.Rule{Limit: 20, Window: time.Minute}
	speechRule = ratelimit.Rule{Limit: 30, Window: time.Minute}
)

type SpeechRequest struct {
	Text string `json:"text"`
}

// roundStatus maps runtime and engine errors to HTTP statuses.
func roundStatus(err error) int {
	switch {
	case errors.Is(err, play.ErrRoundNotFound):
		return http.StatusNotFound
	case errors.Is(err, play.ErrRoundClosed):
		return http.StatusGone
	case errors.Is(err, play.ErrUnknownAction),
		errors.Is(err, play.ErrUnknownGame),
		errors.Is(err, game.ErrUnknownCard),
		errors.Is(err, game.ErrUnknownGap):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrInvalidTransition),
		errors.Is(err, game.ErrNotPlaying),
		errors.Is(err, game.ErrBusy),
		errors.Is(err, game.ErrIncomplete),
		errors.Is(err, game.ErrNoQuestion),
		errors.Is(err, play.ErrSuperseded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeRoundError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := roundStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("round error", "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func handleCreateRound(rounds *play.Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts play.Options
		if err := readJSON(r, &opts); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		round, err := rounds.Create(sessionFrom(r), opts)
		if err != nil {
			writeRoundError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, round.Snapshot())
	}
}

func handleGetRound(rounds *play.Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := rounds.Get(sessionFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeRoundError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, round.Snapshot())
	}
}

func handleDeleteRound(rounds *play.Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := rounds.Remove(sessionFrom(r), chi.URLParam(r, "id")); err != nil {
			writeRoundError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleRoundAction applies one player action. Hints go to a paid model, so
// they are limited per client on top of the round's own one-hint rule.
func handleRoundAction(rounds *play.Manager, limiter ratelimit.Limiter, trail *audit.Logger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := rounds.Get(sessionFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeRoundError(w, logger, err)
			return
		}

		var a play.Action
		if err := readJSON(r, &a); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if a.Type == play.ActionHint {
			if err := allow(r.Context(), limiter, trail, "hint", clientIP(r), hintRule); err != nil {
				writeLimited(w, hintRule)
				return
			}
		}

		snap, err := round.Apply(r.Context(), a)
		if err != nil {
			writeRoundError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleRoundSpeech(rounds *play.Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := rounds.Get(sessionFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeRoundError(w, logger, err)
			return
		}
		quiz, ok := round.(*play.QuizRound)
		if !ok {
			writeError(w, http.StatusBadRequest, "speech is only available in quiz rounds")
			return
		}

		var req SpeechRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Text = strings.TrimSpace(req.Text)
		if req.Text == "" || len([]rune(req.Text)) > 500 {
			writeError(w, http.StatusBadRequest, "text must be 1 to 500 characters")
			return
		}

		audio, err := quiz.Speak(r.Context(), req.Text)
		if err != nil && roundStatus(err) != http.StatusInternalServerError {
			writeRoundError(w, logger, err)
			return
		}
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		writeAudio(w, audio)
	}
}

func writeAudio(w http.ResponseWriter, audio []byte) {
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}
