package provider

import (
	"context"
	"net/http"
	"net/url"

	"github.com/nihongowow/arcade/internal/nihongo"
)

// Settings returns the global game settings. Reading them needs no account.
func (c *Client) Settings(ctx context.Context) (map[string]string, error) {
	var res struct {
		Settings map[string]string `json:"settings"`
	}
	if err := c.do(ctx, nihongo.Session{}, http.MethodGet, "/api/settings", nil, nil, &res); err != nil {
		return nil, err
	}
	return res.Settings, nil
}

func (c *Client) Setting(ctx context.Context, key string) (string, error) {
	var res struct {
		Value string `json:"value"`
	}
	err := c.do(ctx, nihongo.Session{}, http.MethodGet, "/api/settings/"+url.PathEscape(key), nil, nil, &res)
	return res.Value, err
}

// UpdateSetting needs an admin session.
func (c *Client) UpdateSetting(ctx context.Context, sess nihongo.Session, key, value string) error {
	return c.do(ctx, sess, http.MethodPut, "/api/settings/"+url.PathEscape(key), nil,
		map[string]string{"value": value}, nil)
}

func (c *Client) Preferences(ctx context.Context, sess nihongo.Session) ([]string, error) {
	var res preferences
	err := c.do(ctx, sess, http.MethodGet, "/api/user/preferences", nil, nil, &res)
	return res.SelectedTags, err
}

func (c *Client) UpdatePreferences(ctx context.Context, sess nihongo.Session, tags []string) ([]string, error) {
	if tags == nil {
		tags = []string{}
	}
	var res preferences
	err := c.do(ctx, sess, http.MethodPut, "/api/user/preferences", nil, preferences{SelectedTags: tags}, &res)
	return res.SelectedTags, err
}

type preferences struct {
	SelectedTags []string `json:"selected_tags"`
}
