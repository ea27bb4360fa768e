package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nihongowow/arcade/internal/play"
)

// handleRoundEvents streams round snapshots as Server-Sent Events. The
// current snapshot is sent first so a reconnecting client never misses
// state.
func handleRoundEvents(rounds *play.Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := rounds.Get(sessionFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeRoundError(w, logger, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		broker := rounds.Broker()
		ch := broker.Subscribe(round.ID())
		defer broker.Unsubscribe(round.ID(), ch)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		first, err := json.Marshal(round.Snapshot())
		if err != nil {
			logger.Error("encoding snapshot", "round", round.ID(), "error", err)
			return
		}
		fmt.Fprintf(w, "event: state\ndata: %s\n\n", first)
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
