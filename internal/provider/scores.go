package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nihongowow/arcade/internal/nihongo"
)

// GameScores is one number per game.
type GameScores map[nihongo.GameType]int

// UpdateScore submits a result. The backend keeps the best per day.
func (c *Client) UpdateScore(ctx context.Context, sess nihongo.Session, g nihongo.GameType, score int) error {
	in := struct {
		GameType nihongo.GameType `json:"game_type"`
		Score    int              `json:"score"`
	}{g, score}
	return c.do(ctx, sess, http.MethodPost, "/api/scores/update", nil, in, nil)
}

func (c *Client) TodayScores(ctx context.Context, sess nihongo.Session) (GameScores, error) {
	return c.scores(ctx, sess, "/api/scores/today")
}

func (c *Client) BestScores(ctx context.Context, sess nihongo.Session) (GameScores, error) {
	return c.scores(ctx, sess, "/api/scores/best")
}

func (c *Client) scores(ctx context.Context, sess nihongo.Session, path string) (GameScores, error) {
	var res map[string]int
	if err := c.do(ctx, sess, http.MethodGet, path, nil, nil, &res); err != nil {
		return nil, err
	}
	out := make(GameScores, len(nihongo.GameTypes))
	for _, g := range nihongo.GameTypes {
		out[g] = res[string(g)]
	}
	return out, nil
}

// ScoreHistory lists recent daily bests, newest first. An empty game lists
// every game.
func (c *Client) ScoreHistory(ctx context.Context, sess nihongo.Session, g nihongo.GameType, limit int) ([]nihongo.Score, error) {
	q := url.Values{}
	if g != "" {
		q.Set("game_type", string(g))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var res struct {
		Scores []struct {
			ID        string    `json:"id"`
			GameType  string    `json:"game_type"`
			Date      timestamp `json:"date"`
			Score     int       `json:"score"`
			UpdatedAt timestamp `json:"updated_at"`
		} `json:"scores"`
	}
	if err := c.do(ctx, sess, http.MethodGet, "/api/scores/me", q, nil, &res); err != nil {
		return nil, err
	}
	out := make([]nihongo.Score, len(res.Scores))
	for i, s := range res.Scores {
		out[i] = nihongo.Score{
			ID:        s.ID,
			GameType:  nihongo.GameType(s.GameType),
			Date:      s.Date.Time(),
			Score:     s.Score,
			UpdatedAt: s.UpdatedAt.Time(),
		}
	}
	return out, nil
}
