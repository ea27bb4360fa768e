package server

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nihongowow/arcade/internal/audit"
	"github.com/nihongowow/arcade/internal/nihongo"
	"github.com/nihongowow/arcade/internal/provider"
	"github.com/nihongowow/arcade/internal/reading"
)

const maxCSVSize = 5 << 20

type VocabularyResponse struct {
	ID         string    `json:"id"`
	Expression string    `json:"expression"`
	Reading    string    `json:"reading"`
	Meaning    string    `json:"meaning"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toVocabularyResponse(v nihongo.VocabularyItem) VocabularyResponse {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	return VocabularyResponse{
		ID:         v.ID,
		Expression: v.Expression,
		Reading:    v.Reading,
		Meaning:    v.Meaning,
		Tags:       tags,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

func toVocabularyList(items []nihongo.VocabularyItem) []VocabularyResponse {
	out := make([]VocabularyResponse, len(items))
	for i, v := range items {
		out[i] = toVocabularyResponse(v)
	}
	return out
}

type VocabularyListResponse struct {
	Items      []VocabularyResponse `json:"items"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	TotalPages int                  `json:"totalPages"`
}

type VocabularyRequest struct {
	Expression string   `json:"expression"`
	Reading    string   `json:"reading"`
	Meaning    string   `json:"meaning"`
	Tags       []string `json:"tags"`
}

type ReadingResponse struct {
	Expression string          `json:"expression"`
	Reading    string          `json:"reading"`
	Tokens     []reading.Token `json:"tokens"`
}

type ImportResponse struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
	Filled   int      `json:"filled"`
}

// queryInt parses an optional integer parameter within [lo, hi].
func queryInt(r *http.Request, name string, def, lo, hi int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

func handleListVocabulary(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := queryInt(r, "page", 1, 1, 1<<20)
		if !ok {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		size, ok := queryInt(r, "page_size", 20, 1, 100)
		if !ok {
			writeError(w, http.StatusBadRequest, "page_size must be between 1 and 100")
			return
		}

		res, err := api.ListVocabulary(r.Context(), sessionFrom(r), provider.VocabularyQuery{
			Page:     page,
			PageSize: size,
			Search:   strings.TrimSpace(r.URL.Query().Get("search")),
			Tags:     nihongo.SplitTags(r.URL.Query().Get("tags")),
		})
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, VocabularyListResponse{
			Items:      toVocabularyList(res.Items),
			Total:      res.Total,
			Page:       res.Page,
			PageSize:   res.PageSize,
			TotalPages: res.TotalPages,
		})
	}
}

func handleVocabularyTags(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := api.VocabularyTags(r.Context(), sessionFrom(r))
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		if tags == nil {
			tags = []string{}
		}
		w.Header().Set("Cache-Control", "public, max-age=300")
		writeJSON(w, http.StatusOK, tags)
	}
}

func handleRandomVocabulary(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, ok := queryInt(r, "count", 10, 1, provider.MaxRandomVocabulary)
		if !ok {
			writeError(w, http.StatusBadRequest, "count must be between 1 and 50")
			return
		}
		items, err := api.RandomVocabulary(r.Context(), sessionFrom(r), count, nihongo.SplitTags(r.URL.Query().Get("tags")))
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toVocabularyList(items))
	}
}

func handleGetVocabulary(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := api.Vocabulary(r.Context(), sessionFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toVocabularyResponse(item))
	}
}

func handleReading(readings *reading.Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if readings == nil {
			writeError(w, http.StatusNotFound, "reading suggestions are disabled")
			return
		}
		expr := strings.TrimSpace(r.URL.Query().Get("expression"))
		if expr == "" {
			writeError(w, http.StatusBadRequest, "expression is required")
			return
		}
		if len([]rune(expr)) > 200 {
			writeError(w, http.StatusBadRequest, "expression is too long")
			return
		}
		writeJSON(w, http.StatusOK, ReadingResponse{
			Expression: expr,
			Reading:    readings.Reading(expr),
			Tokens:     readings.Analyze(expr),
		})
	}
}

// vocabularyInput validates req and fills a missing reading when an
// analyzer is available.
func vocabularyInput(req VocabularyRequest, readings *reading.Analyzer) (provider.VocabularyInput, string) {
	in := provider.VocabularyInput{
		Expression: strings.TrimSpace(req.Expression),
		Reading:    strings.TrimSpace(req.Reading),
		Meaning:    strings.TrimSpace(req.Meaning),
		Tags:       strings.Join(nihongo.SplitTags(strings.Join(req.Tags, ",")), ","),
	}
	if in.Expression == "" || in.Meaning == "" {
		return in, "expression and meaning are required"
	}
	if in.Reading == "" && readings != nil {
		in.Reading = readings.Reading(in.Expression)
	}
	if in.Reading == "" {
		return in, "reading is required"
	}
	return in, ""
}

func handleCreateVocabulary(api *provider.Client, readings *reading.Analyzer, trail *audit.Logger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VocabularyRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		in, msg := vocabularyInput(req, readings)
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		item, err := api.CreateVocabulary(r.Context(), sessionFrom(r), in)
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		user := userFrom(r)
		trail.Log(audit.Entry{Event: audit.VocabularyCreated, Email: user.Email, UserID: user.ID, IP: clientIP(r), Details: item.ID, Success: true})
		writeJSON(w, http.StatusCreated, toVocabularyResponse(item))
	}
}

func handleUpdateVocabulary(api *provider.Client, readings *reading.Analyzer, trail *audit.Logger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VocabularyRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		in, msg := vocabularyInput(req, readings)
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		id := chi.URLParam(r, "id")
		item, err := api.UpdateVocabulary(r.Context(), sessionFrom(r), id, in)
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		user := userFrom(r)
		trail.Log(audit.Entry{Event: audit.VocabularyUpdated, Email: user.Email, UserID: user.ID, IP: clientIP(r), Details: id, Success: true})
		writeJSON(w, http.StatusOK, toVocabularyResponse(item))
	}
}

func handleDeleteVocabulary(api *provider.Client, trail *audit.Logger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := api.DeleteVocabulary(r.Context(), sessionFrom(r), id); err != nil {
			writeUpstream(w, logger, err)
			return
		}
		user := userFrom(r)
		trail.Log(audit.Entry{Event: audit.VocabularyDeleted, Email: user.Email, UserID: user.ID, IP: clientIP(r), Details: id, Success: true})
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleImportVocabulary(api *provider.Client, readings *reading.Analyzer, trail *audit.Logger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxCSVSize+1<<16)
		file, hdr, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "a CSV file is required in the file field")
			return
		}
		defer file.Close()
		if !strings.HasSuffix(strings.ToLower(hdr.Filename), ".csv") {
			writeError(w, http.StatusBadRequest, "file must be a CSV")
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxCSVSize+1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "reading upload failed")
			return
		}
		if len(data) > maxCSVSize {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large, maximum size is 5 MB")
			return
		}

		filled := 0
		if readings != nil {
			var buf bytes.Buffer
			n, err := readings.FillCSV(bytes.NewReader(data), &buf)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			data, filled = buf.Bytes(), n
		}

		res, err := api.ImportVocabulary(r.Context(), sessionFrom(r), hdr.Filename, bytes.NewReader(data))
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		user := userFrom(r)
		trail.Log(audit.Entry{
			Event:   audit.CSVImported,
			Email:   user.Email,
			UserID:  user.ID,
			IP:      clientIP(r),
			Details: hdr.Filename + " imported=" + strconv.Itoa(res.Imported) + " skipped=" + strconv.Itoa(res.Skipped),
			Success: true,
		})
		errs := res.Errors
		if errs == nil {
			errs = []string{}
		}
		writeJSON(w, http.StatusOK, ImportResponse{Imported: res.Imported, Skipped: res.Skipped, Errors: errs, Filled: filled})
	}
}
