package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nihongowow/arcade/internal/nihongo"
)

// MaxRandomVocabulary is the most items one random draw may ask for.
const MaxRandomVocabulary = 50

type vocabularyResponse struct {
	ID         string    `json:"id"`
	Expression string    `json:"expression"`
	Reading    string    `json:"reading"`
	Meaning    string    `json:"meaning"`
	Tags       string    `json:"tags"`
	CreatedAt  timestamp `json:"created_at"`
	UpdatedAt  timestamp `json:"updated_at"`
}

func (v vocabularyResponse) item() nihongo.VocabularyItem {
	return nihongo.VocabularyItem{
		ID:         v.ID,
		Expression: v.Expression,
		Reading:    v.Reading,
		Meaning:    v.Meaning,
		Tags:       nihongo.SplitTags(v.Tags),
		CreatedAt:  v.CreatedAt.Time(),
		UpdatedAt:  v.UpdatedAt.Time(),
	}
}

func items(in []vocabularyResponse) []nihongo.VocabularyItem {
	out := make([]nihongo.VocabularyItem, len(in))
	for i, v := range in {
		out[i] = v.item()
	}
	return out
}

// VocabularyInput creates or updates an item. Tags are comma separated.
type VocabularyInput struct {
	Expression string `json:"expression"`
	Reading    string `json:"reading"`
	Meaning    string `json:"meaning"`
	Tags       string `json:"tags"`
}

type VocabularyQuery struct {
	Page     int
	PageSize int
	Search   string
	Tags     []string
}

func (q VocabularyQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if len(q.Tags) > 0 {
		v.Set("tags", strings.Join(q.Tags, ","))
	}
	return v
}

type VocabularyPage struct {
	Items      []nihongo.VocabularyItem
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

func (c *Client) ListVocabulary(ctx context.Context, sess nihongo.Session, q VocabularyQuery) (VocabularyPage, error) {
	var res struct {
		Items      []vocabularyResponse `json:"items"`
		Total      int                  `json:"total"`
		Page       int                  `json:"page"`
		PageSize   int                  `json:"page_size"`
		TotalPages int                  `json:"total_pages"`
	}
	if err := c.do(ctx, sess, http.MethodGet, "/api/vocabulary", q.values(), nil, &res); err != nil {
		return VocabularyPage{}, err
	}
	return VocabularyPage{
		Items:      items(res.Items),
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	}, nil
}

// VocabularyTags returns every tag in use, sorted.
func (c *Client) VocabularyTags(ctx context.Context, sess nihongo.Session) ([]string, error) {
	var tags []string
	err := c.do(ctx, sess, http.MethodGet, "/api/vocabulary/tags", nil, nil, &tags)
	return tags, err
}

// RandomVocabulary draws up to count items, filtered by tags when given.
func (c *Client) RandomVocabulary(ctx context.Context, sess nihongo.Session, count int, tags []string) ([]nihongo.VocabularyItem, error) {
	count = min(max(count, 1), MaxRandomVocabulary)
	q := url.Values{"count": {strconv.Itoa(count)}}
	if len(tags) > 0 {
		q.Set("tags", strings.Join(tags, ","))
	}
	var res []vocabularyResponse
	if err := c.do(ctx, sess, http.MethodGet, "/api/vocabulary/random", q, nil, &res); err != nil {
		return nil, err
	}
	return items(res), nil
}

func (c *Client) Vocabulary(ctx context.Context, sess nihongo.Session, id string) (nihongo.VocabularyItem, error) {
	var res vocabularyResponse
	if err := c.do(ctx, sess, http.MethodGet, "/api/vocabulary/"+url.PathEscape(id), nil, nil, &res); err != nil {
		return nihongo.VocabularyItem{}, err
	}
	return res.item(), nil
}

func (c *Client) CreateVocabulary(ctx context.Context, sess nihongo.Session, in VocabularyInput) (nihongo.VocabularyItem, error) {
	var res vocabularyResponse
	if err := c.do(ctx, sess, http.MethodPost, "/api/vocabulary", nil, in, &res); err != nil {
		return nihongo.VocabularyItem{}, err
	}
	return res.item(), nil
}

func (c *Client) UpdateVocabulary(ctx context.Context, sess nihongo.Session, id string, in VocabularyInput) (nihongo.VocabularyItem, error) {
	var res vocabularyResponse
	if err := c.do(ctx, sess, http.MethodPut, "/api/vocabulary/"+url.PathEscape(id), nil, in, &res); err != nil {
		return nihongo.VocabularyItem{}, err
	}
	return res.item(), nil
}

func (c *Client) DeleteVocabulary(ctx context.Context, sess nihongo.Session, id string) error {
	return c.do(ctx, sess, http.MethodDelete, "/api/vocabulary/"+url.PathEscape(id), nil, nil, nil)
}

// ImportVocabulary uploads a CSV file with expression, reading, meaning and
// tags columns.
func (c *Client) ImportVocabulary(ctx context.Context, sess nihongo.Session, filename string, csv io.Reader) (ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return ImportResult{}, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, csv); err != nil {
		return ImportResult{}, fmt.Errorf("reading csv: %w", err)
	}
	if err := mw.Close(); err != nil {
		return ImportResult{}, fmt.Errorf("closing form: %w", err)
	}

	resp, err := c.send(ctx, sess, http.MethodPost, "/api/vocabulary/import", nil, &buf, mw.FormDataContentType())
	if err != nil {
		return ImportResult{}, err
	}
	defer resp.Body.Close()

	var res ImportResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return ImportResult{}, fmt.Errorf("decoding import result: %w", err)
	}
	return res, nil
}
