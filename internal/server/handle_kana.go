package server

import (
	"log/slog"
	"net/http"

	"github.com/nihongowow/arcade/internal/kana"
	"github.com/nihongowow/arcade/internal/nihongo"
)

type RandomKanaResponse struct {
	Kana  []nihongo.KanaPair `json:"kana"`
	Count int                `json:"count"`
}

func handleKana(src KanaTables, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := src.AllKana(r.Context())
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, t)
	}
}

func handleRandomKana(src KanaTables, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		typ := nihongo.KanaType(r.URL.Query().Get("type"))
		if typ == "" {
			typ = nihongo.KanaHiragana
		}
		if !typ.Valid() {
			writeError(w, http.StatusBadRequest, "type must be hiragana, katakana or mixed")
			return
		}
		count, ok := queryInt(r, "count", 10, 1, kana.MaxRandom)
		if !ok {
			writeError(w, http.StatusBadRequest, "count must be between 1 and 109")
			return
		}

		pairs, err := src.RandomKana(r.Context(), sessionFrom(r), typ, count)
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, RandomKanaResponse{Kana: pairs, Count: len(pairs)})
	}
}
