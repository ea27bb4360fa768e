package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/nihongowow/arcade/internal/audit"
	"github.com/nihongowow/arcade/internal/play"
	"github.com/nihongowow/arcade/internal/ratelimit"
)

// WSMessage is what the round channel sends: a snapshot, or the error an
// action produced.
type WSMessage struct {
	Type     string          `json:"type"`
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
	Error    string          `json:"error,omitempty"`
	Status   int             `json:"status,omitempty"`
}

const wsSessionLimit = 30 * time.Minute

// handleRoundWS is a two-way round channel. Clients send actions as JSON
// and receive every snapshot the round publishes, including ones caused
// by timers and network responses.
func handleRoundWS(rounds *play.Manager, limiter ratelimit.Limiter, trail *audit.Logger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := rounds.Get(sessionFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeRoundError(w, logger, err)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), wsSessionLimit)
		defer cancel()

		broker := rounds.Broker()
		ch := broker.Subscribe(round.ID())
		defer broker.Unsubscribe(round.ID(), ch)

		first, _ := json.Marshal(round.Snapshot())
		if err := wsjson.Write(ctx, conn, WSMessage{Type: "state", Snapshot: first}); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}

		actions := make(chan play.Action)
		go func() {
			defer cancel()
			for {
				var a play.Action
				if err := wsjson.Read(ctx, conn, &a); err != nil {
					logger.Debug("websocket read ended", "round", round.ID(), "error", err)
					return
				}
				select {
				case actions <- a:
				case <-ctx.Done():
					return
				}
			}
		}()

		ip := clientIP(r)
		for {
			var msg WSMessage
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case data := <-ch:
				msg = WSMessage{Type: "state", Snapshot: data}
			case a := <-actions:
				if a.Type == play.ActionHint {
					if err := allow(ctx, limiter, trail, "hint", ip, hintRule); err != nil {
						msg = WSMessage{Type: "error", Error: err.Error(), Status: http.StatusTooManyRequests}
						break
					}
				}
				// Successful actions arrive through the broker.
				if _, err := round.Apply(ctx, a); err != nil {
					msg = WSMessage{Type: "error", Error: err.Error(), Status: roundStatus(err)}
					if errors.Is(err, play.ErrRoundClosed) {
						_ = wsjson.Write(ctx, conn, msg)
						conn.Close(websocket.StatusGoingAway, "round closed")
						return
					}
					break
				}
				continue
			}
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
