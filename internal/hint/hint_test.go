package hint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihongowow/arcade/internal/game"
	"github.com/nihongowow/arcade/internal/nihongo"
)

var neko = nihongo.VocabularyItem{ID: "v1", Expression: "猫", Reading: "ねこ", Meaning: "cat"}

type fakeVocab struct{ calls int }

func (f *fakeVocab) Vocabulary(_ context.Context, _ nihongo.Session, id string) (nihongo.VocabularyItem, error) {
	f.calls++
	if id != neko.ID {
		return nihongo.VocabularyItem{}, errors.New("not found")
	}
	return neko, nil
}

type fakeGen struct {
	prompts []string
	reply   string
	err     error
}

func (f *fakeGen) Generate(_ context.Context, system, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func TestPromptByMode(t *testing.T) {
	spelling, err := Prompt(neko, game.ModeToJapanese)
	require.NoError(t, err)
	assert.Contains(t, spelling, `type "cat" in Japanese hiragana`)
	assert.Contains(t, spelling, "ねこ (kanji: 猫)")

	fill, err := Prompt(neko, game.ModeFillInBlank)
	require.NoError(t, err)
	assert.Equal(t, spelling, fill)

	meaning, err := Prompt(neko, game.ModeToEnglish)
	require.NoError(t, err)
	assert.Contains(t, meaning, "Japanese word: 猫 (ねこ)")
	assert.NotContains(t, meaning, "hiragana.")
}

func TestHintIsCached(t *testing.T) {
	gen := &fakeGen{reply: "  It starts with 'ね'.\n"}
	vocab := &fakeVocab{}
	s := New(gen, vocab)
	ctx := context.Background()

	for range 2 {
		got, err := s.Hint(ctx, nihongo.Session{}, "v1", game.ModeToJapanese)
		require.NoError(t, err)
		assert.Equal(t, "It starts with 'ね'.", got)
	}
	assert.Len(t, gen.prompts, 1)
	assert.Equal(t, 1, vocab.calls)

	_, err := s.Hint(ctx, nihongo.Session{}, "v1", game.ModeToEnglish)
	require.NoError(t, err)
	assert.Len(t, gen.prompts, 2, "modes are cached separately")
}

func TestHintErrors(t *testing.T) {
	ctx := context.Background()

	_, err := New(&fakeGen{reply: "x"}, &fakeVocab{}).Hint(ctx, nihongo.Session{}, "missing", game.ModeToEnglish)
	assert.Error(t, err)

	_, err = New(&fakeGen{reply: "   "}, &fakeVocab{}).Hint(ctx, nihongo.Session{}, "v1", game.ModeToEnglish)
	assert.ErrorIs(t, err, ErrEmpty)

	boom := errors.New("quota exceeded")
	_, err = New(&fakeGen{err: boom}, &fakeVocab{}).Hint(ctx, nihongo.Session{}, "v1", game.ModeToEnglish)
	assert.ErrorIs(t, err, boom)
}

func TestNewGeminiNeedsKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "")
	assert.Error(t, err)
}
