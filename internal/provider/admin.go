package provider

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/nihongowow/arcade/internal/nihongo"
)

type Invitation struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Accepted          bool       `json:"accepted"`
	AcceptedAt        *time.Time `json:"acceptedAt,omitempty"`
	ExpiresAt         time.Time  `json:"expiresAt"`
	CreatedAt         time.Time  `json:"createdAt"`
	InvitedByUsername string     `json:"invitedBy"`
}

type invitationResponse struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Accepted          bool       `json:"accepted"`
	AcceptedAt        *timestamp `json:"accepted_at"`
	ExpiresAt         timestamp  `json:"expires_at"`
	CreatedAt         timestamp  `json:"created_at"`
	InvitedByUsername string     `json:"invited_by_username"`
}

func (r invitationResponse) invitation() Invitation {
	inv := Invitation{
		ID:                r.ID,
		Email:             r.Email,
		Accepted:          r.Accepted,
		ExpiresAt:         r.ExpiresAt.Time(),
		CreatedAt:         r.CreatedAt.Time(),
		InvitedByUsername: r.InvitedByUsername,
	}
	if r.AcceptedAt != nil {
		t := r.AcceptedAt.Time()
		inv.AcceptedAt = &t
	}
	return inv
}

type HintCacheEntry struct {
	ID           string    `json:"id"`
	VocabularyID string    `json:"vocabularyId"`
	Expression   string    `json:"expression"`
	Reading      string    `json:"reading"`
	Meaning      string    `json:"meaning"`
	Mode         string    `json:"mode"`
	Hint         string    `json:"hint"`
	CreatedAt    time.Time `json:"createdAt"`
}

type hintCacheResponse struct {
	ID           string    `json:"id"`
	VocabularyID string    `json:"vocabulary_id"`
	Expression   string    `json:"expression"`
	Reading      string    `json:"reading"`
	Meaning      string    `json:"meaning"`
	Mode         string    `json:"mode"`
	Hint         string    `json:"hint"`
	CreatedAt    timestamp `json:"created_at"`
}

func (r hintCacheResponse) entry() HintCacheEntry {
	return HintCacheEntry{
		ID:           r.ID,
		VocabularyID: r.VocabularyID,
		Expression:   r.Expression,
		Reading:      r.Reading,
		Meaning:      r.Meaning,
		Mode:         r.Mode,
		Hint:         r.Hint,
		CreatedAt:    r.CreatedAt.Time(),
	}
}

type SpeechCacheEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type CacheStats struct {
	HintCount   int `json:"hintCount"`
	SpeechCount int `json:"speechCount"`
}

const adminPath = "/api/admin"

func (c *Client) CreateInvitation(ctx context.Context, sess nihongo.Session, email string) (Invitation, error) {
	var res invitationResponse
	if err := c.do(ctx, sess, http.MethodPost, adminPath+"/invitations", nil, map[string]string{"email": email}, &res); err != nil {
		return Invitation{}, err
	}
	return res.invitation(), nil
}

func (c *Client) Invitations(ctx context.Context, sess nihongo.Session) ([]Invitation, error) {
	var res struct {
		Items []invitationResponse `json:"items"`
	}
	if err := c.do(ctx, sess, http.MethodGet, adminPath+"/invitations", nil, nil, &res); err != nil {
		return nil, err
	}
	out := make([]Invitation, len(res.Items))
	for i, r := range res.Items {
		out[i] = r.invitation()
	}
	return out, nil
}

func (c *Client) DeleteInvitation(ctx context.Context, sess nihongo.Session, id string) error {
	return c.do(ctx, sess, http.MethodDelete, adminPath+"/invitations/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ResendInvitation(ctx context.Context, sess nihongo.Session, id string) (Invitation, error) {
	var res invitationResponse
	if err := c.do(ctx, sess, http.MethodPost, adminPath+"/invitations/"+url.PathEscape(id)+"/resend", nil, nil, &res); err != nil {
		return Invitation{}, err
	}
	return res.invitation(), nil
}

func (c *Client) Users(ctx context.Context, sess nihongo.Session) ([]nihongo.User, error) {
	var res struct {
		Items []userResponse `json:"items"`
	}
	if err := c.do(ctx, sess, http.MethodGet, adminPath+"/users", nil, nil, &res); err != nil {
		return nil, err
	}
	out := make([]nihongo.User, len(res.Items))
	for i, u := range res.Items {
		out[i] = u.user()
	}
	return out, nil
}

func (c *Client) DeleteUser(ctx context.Context, sess nihongo.Session, id string) error {
	return c.do(ctx, sess, http.MethodDelete, adminPath+"/users/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ResendUserVerification(ctx context.Context, sess nihongo.Session, id string) (nihongo.User, error) {
	var res userResponse
	if err := c.do(ctx, sess, http.MethodPost, adminPath+"/users/"+url.PathEscape(id)+"/resend-verification", nil, nil, &res); err != nil {
		return nihongo.User{}, err
	}
	return res.user(), nil
}

func (c *Client) CacheStats(ctx context.Context, sess nihongo.Session) (CacheStats, error) {
	var res struct {
		HintCount int `json:"hint_count"`
		TTSCount  int `json:"tts_count"`
	}
	if err := c.do(ctx, sess, http.MethodGet, adminPath+"/cache/stats", nil, nil, &res); err != nil {
		return CacheStats{}, err
	}
	return CacheStats{HintCount: res.HintCount, SpeechCount: res.TTSCount}, nil
}

func (c *Client) CachedHints(ctx context.Context, sess nihongo.Session) ([]HintCacheEntry, error) {
	var res struct {
		Items []hintCacheResponse `json:"items"`
	}
	if err := c.do(ctx, sess, http.MethodGet, adminPath+"/cache/hints", nil, nil, &res); err != nil {
		return nil, err
	}
	out := make([]HintCacheEntry, len(res.Items))
	for i, r := range res.Items {
		out[i] = r.entry()
	}
	return out, nil
}

func (c *Client) UpdateCachedHint(ctx context.Context, sess nihongo.Session, id, hint string) (HintCacheEntry, error) {
	var res hintCacheResponse
	if err := c.do(ctx, sess, http.MethodPut, adminPath+"/cache/hints/"+url.PathEscape(id), nil, map[string]string{"hint": hint}, &res); err != nil {
		return HintCacheEntry{}, err
	}
	return res.entry(), nil
}

func (c *Client) DeleteCachedHint(ctx context.Context, sess nihongo.Session, id string) error {
	return c.do(ctx, sess, http.MethodDelete, adminPath+"/cache/hints/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ClearCachedHints(ctx context.Context, sess nihongo.Session) error {
	return c.do(ctx, sess, http.MethodDelete, adminPath+"/cache/hints", nil, nil, nil)
}

func (c *Client) CachedSpeech(ctx context.Context, sess nihongo.Session) ([]SpeechCacheEntry, error) {
	var res struct {
		Items []struct {
			ID        string    `json:"id"`
			Text      string    `json:"text"`
			CreatedAt timestamp `json:"created_at"`
		} `json:"items"`
	}
	if err := c.do(ctx, sess, http.MethodGet, adminPath+"/cache/tts", nil, nil, &res); err != nil {
		return nil, err
	}
	out := make([]SpeechCacheEntry, len(res.Items))
	for i, r := range res.Items {
		out[i] = SpeechCacheEntry{ID: r.ID, Text: r.Text, CreatedAt: r.CreatedAt.Time()}
	}
	return out, nil
}

func (c *Client) CachedSpeechAudio(ctx context.Context, sess nihongo.Session, id string) ([]byte, error) {
	return c.raw(ctx, sess, http.MethodGet, adminPath+"/cache/tts/"+url.PathEscape(id)+"/audio", nil)
}

func (c *Client) DeleteCachedSpeech(ctx context.Context, sess nihongo.Session, id string) error {
	return c.do(ctx, sess, http.MethodDelete, adminPath+"/cache/tts/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ClearCachedSpeech(ctx context.Context, sess nihongo.Session) error {
	return c.do(ctx, sess, http.MethodDelete, adminPath+"/cache/tts", nil, nil, nil)
}
