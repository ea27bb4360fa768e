package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/nihongowow/arcade/internal/nihongo"
	"github.com/nihongowow/arcade/internal/provider"
	"github.com/nihongowow/arcade/internal/store"
)

type ScoreEntry struct {
	ID        string           `json:"id"`
	GameType  nihongo.GameType `json:"gameType"`
	Date      time.Time        `json:"date"`
	Score     int              `json:"score"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type ScoreHistoryResponse struct {
	Scores []ScoreEntry `json:"scores"`
}

type ProfileResponse struct {
	User         UserResponse        `json:"user"`
	Today        provider.GameScores `json:"today"`
	Best         provider.GameScores `json:"best"`
	History      []ScoreEntry        `json:"history"`
	SelectedTags []string            `json:"selectedTags"`
}

type RoundHistoryResponse struct {
	Rounds []store.Round `json:"rounds"`
}

type RoundRecordResponse struct {
	Round       store.Round        `json:"round"`
	Submissions []store.Submission `json:"submissions"`
}

func toScoreEntries(scores []nihongo.Score) []ScoreEntry {
	out := make([]ScoreEntry, len(scores))
	for i, s := range scores {
		out[i] = ScoreEntry{ID: s.ID, GameType: s.GameType, Date: s.Date, Score: s.Score, UpdatedAt: s.UpdatedAt}
	}
	return out
}

func handleTodayScores(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := api.TodayScores(r.Context(), sessionFrom(r))
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func handleBestScores(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := api.BestScores(r.Context(), sessionFrom(r))
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func handleScoreHistory(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g := nihongo.GameType(r.URL.Query().Get("game_type"))
		if g != "" && !g.Valid() {
			writeError(w, http.StatusBadRequest, "unknown game_type")
			return
		}
		limit, ok := queryInt(r, "limit", 30, 1, 365)
		if !ok {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 365")
			return
		}
		scores, err := api.ScoreHistory(r.Context(), sessionFrom(r), g, limit)
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ScoreHistoryResponse{Scores: toScoreEntries(scores)})
	}
}

// handleProfile gathers the profile page in one round trip; the backend
// calls run concurrently.
func handleProfile(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		var (
			user    nihongo.User
			today   provider.GameScores
			best    provider.GameScores
			history []nihongo.Score
			tags    []string
		)

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() (err error) { user, err = api.Me(ctx, sess); return })
		g.Go(func() (err error) { today, err = api.TodayScores(ctx, sess); return })
		g.Go(func() (err error) { best, err = api.BestScores(ctx, sess); return })
		g.Go(func() (err error) { history, err = api.ScoreHistory(ctx, sess, "", 30); return })
		g.Go(func() (err error) { tags, err = api.Preferences(ctx, sess); return })
		if err := g.Wait(); err != nil {
			writeUpstream(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, ProfileResponse{
			User:         toUserResponse(user),
			Today:        today,
			Best:         best,
			History:      toScoreEntries(history),
			SelectedTags: nonNil(tags),
		})
	}
}

func handleRoundHistory(h History, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryInt(r, "limit", 20, 1, 200)
		if !ok {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		rounds, err := h.RecentRounds(r.Context(), sessionFrom(r).Username, limit)
		if err != nil {
			logger.Error("reading round history", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, RoundHistoryResponse{Rounds: nonNil(rounds)})
	}
}

func handleRoundRecord(h History, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := h.Round(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, store.ErrNotFound) || err == nil && rec.Owner != sessionFrom(r).Username {
			writeError(w, http.StatusNotFound, "round not found")
			return
		}
		if err != nil {
			logger.Error("reading round", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		subs, err := h.Submissions(r.Context(), rec.ID)
		if err != nil {
			logger.Error("reading submissions", "round", rec.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, RoundRecordResponse{Round: rec, Submissions: nonNil(subs)})
	}
}
