package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/nihongowow/arcade/internal/game"
	"github.com/nihongowow/arcade/internal/nihongo"
)

type questionResponse struct {
	VocabularyID string   `json:"vocabulary_id"`
	Question     string   `json:"question"`
	Mode         string   `json:"mode"`
	QuestionType string   `json:"question_type"`
	Options      []string `json:"options"`
	DisplayText  string   `json:"display_text"`
	GapIndices   []int    `json:"gap_indices"`
	GapCount     int      `json:"gap_count"`
	TTSText      string   `json:"tts_text"`
}

// RandomQuestion draws the next quiz question.
func (c *Client) RandomQuestion(ctx context.Context, sess nihongo.Session, tags []string) (game.Question, error) {
	q := url.Values{}
	if len(tags) > 0 {
		q.Set("tags", strings.Join(tags, ","))
	}
	var res questionResponse
	if err := c.do(ctx, sess, http.MethodGet, "/api/quiz/random", q, nil, &res); err != nil {
		return game.Question{}, err
	}
	return game.Question{
		VocabularyID: res.VocabularyID,
		Prompt:       res.Question,
		Mode:         game.QuizMode(res.Mode),
		Type:         game.QuestionType(res.QuestionType),
		Options:      res.Options,
		DisplayText:  res.DisplayText,
		GapIndices:   res.GapIndices,
		TTSText:      res.TTSText,
	}, nil
}

func (c *Client) CheckAnswer(ctx context.Context, sess nihongo.Session, vocabID, answer string, mode game.QuizMode) (game.CheckResult, error) {
	in := map[string]string{"vocabulary_id": vocabID, "answer": answer, "mode": string(mode)}
	var res struct {
		Correct       bool   `json:"correct"`
		CorrectAnswer string `json:"correct_answer"`
		UserAnswer    string `json:"user_answer"`
	}
	if err := c.do(ctx, sess, http.MethodPost, "/api/quiz/check", nil, in, &res); err != nil {
		return game.CheckResult{}, err
	}
	return game.CheckResult{Correct: res.Correct, CorrectAnswer: res.CorrectAnswer, UserAnswer: res.UserAnswer}, nil
}

// Hint asks the backend for a hint. When the backend has no AI configured
// it answers with available=false and an explanation, which is returned as
// the hint text.
func (c *Client) Hint(ctx context.Context, sess nihongo.Session, vocabID string, mode game.QuizMode) (string, error) {
	in := map[string]string{"vocabulary_id": vocabID, "mode": string(mode)}
	var res struct {
		Hint      string `json:"hint"`
		Available bool   `json:"available"`
	}
	if err := c.do(ctx, sess, http.MethodPost, "/api/quiz/hint", nil, in, &res); err != nil {
		return "", err
	}
	if !res.Available {
		c.logger.Debug("hint unavailable", "vocabulary_id", vocabID)
	}
	return res.Hint, nil
}

// Speech returns MP3 audio for text.
func (c *Client) Speech(ctx context.Context, sess nihongo.Session, text string) ([]byte, error) {
	return c.raw(ctx, sess, http.MethodPost, "/api/quiz/tts", map[string]string{"text": text})
}
