package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nihongowow/arcade/internal/kana"
	"github.com/nihongowow/arcade/internal/nihongo"
)

func (c *Client) RandomKana(ctx context.Context, sess nihongo.Session, typ nihongo.KanaType, count int) ([]nihongo.KanaPair, error) {
	q := url.Values{"type": {string(typ)}}
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}
	var res struct {
		Kana  []nihongo.KanaPair `json:"kana"`
		Count int                `json:"count"`
	}
	if err := c.do(ctx, sess, http.MethodGet, "/api/kana/random", q, nil, &res); err != nil {
		return nil, err
	}
	return res.Kana, nil
}

func (c *Client) AllKana(ctx context.Context) (kana.Table, error) {
	var t kana.Table
	err := c.do(ctx, nihongo.Session{}, http.MethodGet, "/api/kana", nil, nil, &t)
	return t, err
}
