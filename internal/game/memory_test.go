package game_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihongowow/arcade/internal/game"
	"github.com/nihongowow/arcade/internal/nihongo"
)

func vocab(n int) []nihongo.VocabularyItem {
	items := make([]nihongo.VocabularyItem, n)
	for i := range items {
		items[i] = nihongo.VocabularyItem{
			ID:         fmt.Sprintf("v%d", i),
			Expression: fmt.Sprintf("語%d", i),
			Reading:    fmt.Sprintf("ご%d", i),
			Meaning:    fmt.Sprintf("word %d", i),
		}
	}
	return items
}

func newMemory(t *testing.T, n int) *game.Memory {
	t.Helper()
	g := game.NewMemory()
	require.NoError(t, g.Load(nil, vocab(n)))
	require.NoError(t, g.Start())
	return g
}

func TestMemoryLoad(t *testing.T) {
	g := newMemory(t, game.MemoryPairs)
	v := g.View()
	require.Len(t, v.Cards, 30)
	assert.Equal(t, 15, v.Total)
	for _, c := range v.Cards {
		assert.Empty(t, c.Text, "face-down card %s shows its text", c.ID)
	}
}

func TestMemoryMatchAfterDelay(t *testing.T) {
	g := newMemory(t, 3)

	grade, err := g.Flip("jp-1")
	require.NoError(t, err)
	assert.Nil(t, grade)

	grade, err = g.Flip("meaning-1")
	require.NoError(t, err)
	require.NotNil(t, grade)
	assert.True(t, grade.Match)
	assert.Equal(t, game.MatchDelay, grade.Delay)
	assert.Equal(t, 1, g.Moves())
	assert.Equal(t, 0, g.Pairs(), "pair counts only after resolution")

	out := g.Resolve(grade.Seq)
	assert.True(t, out.Chime)
	assert.Nil(t, out.Final)
	assert.Equal(t, 1, g.Pairs())
	assert.False(t, g.Grading())

	for _, c := range g.View().Cards {
		if c.ID == "jp-1" || c.ID == "meaning-1" {
			assert.True(t, c.Matched)
			assert.False(t, c.Flipped)
		}
	}
}

func TestMemoryMismatchFlipsBack(t *testing.T) {
	g := newMemory(t, 3)

	_, err := g.Flip("jp-0")
	require.NoError(t, err)
	grade, err := g.Flip("meaning-2")
	require.NoError(t, err)
	require.NotNil(t, grade)
	assert.False(t, grade.Match)
	assert.Equal(t, game.MismatchDelay, grade.Delay)

	assert.Zero(t, g.Resolve(grade.Seq))
	assert.Equal(t, 0, g.Pairs())
	for _, c := range g.View().Cards {
		assert.False(t, c.Flipped, c.ID)
		assert.False(t, c.Matched, c.ID)
	}
}

func TestMemorySameKindIsNotAMatch(t *testing.T) {
	g := newMemory(t, 3)
	_, err := g.Flip("jp-0")
	require.NoError(t, err)
	grade, err := g.Flip("jp-1")
	require.NoError(t, err)
	assert.False(t, grade.Match)
}

func TestMemoryRejectsFlipWhileGrading(t *testing.T) {
	g := newMemory(t, 3)
	_, err := g.Flip("jp-0")
	require.NoError(t, err)
	grade, err := g.Flip("meaning-0")
	require.NoError(t, err)

	_, err = g.Flip("jp-2")
	assert.ErrorIs(t, err, game.ErrBusy)

	g.Resolve(grade.Seq)
	assert.Equal(t, 1, g.Pairs())

	// A duplicated resolution must not grade the pair twice.
	assert.Zero(t, g.Resolve(grade.Seq))
	assert.Equal(t, 1, g.Pairs())

	_, err = g.Flip("jp-2")
	assert.NoError(t, err)
}

func TestMemoryFlipFaceUpCardIsNoop(t *testing.T) {
	g := newMemory(t, 2)
	_, err := g.Flip("jp-0")
	require.NoError(t, err)
	grade, err := g.Flip("jp-0")
	require.NoError(t, err)
	assert.Nil(t, grade)
	assert.Equal(t, 0, g.Moves())
}

func TestMemoryFinishReportsOnce(t *testing.T) {
	g := newMemory(t, 2)

	var finals []*game.Final
	for i := range 2 {
		_, err := g.Flip(fmt.Sprintf("meaning-%d", i))
		require.NoError(t, err)
		grade, err := g.Flip(fmt.Sprintf("jp-%d", i))
		require.NoError(t, err)
		if out := g.Resolve(grade.Seq); out.Final != nil {
			finals = append(finals, out.Final)
		}
	}

	assert.Equal(t, game.PhaseFinished, g.Phase())
	require.Len(t, finals, 1)
	assert.Equal(t, game.Final{Game: nihongo.GameMemory, Score: 2}, *finals[0])
}

func TestMemoryRestartInvalidatesPendingGrade(t *testing.T) {
	g := newMemory(t, 2)
	_, err := g.Flip("jp-0")
	require.NoError(t, err)
	grade, err := g.Flip("meaning-0")
	require.NoError(t, err)

	require.NoError(t, g.Restart())
	require.NoError(t, g.Load(nil, vocab(2)))
	require.NoError(t, g.Start())

	assert.Zero(t, g.Resolve(grade.Seq))
	assert.Equal(t, 0, g.Pairs())
}

func TestMemoryJapaneseText(t *testing.T) {
	g := game.NewMemory()
	require.NoError(t, g.Load(nil, []nihongo.VocabularyItem{
		{ID: "x", Expression: "食べる", Reading: "たべる", Meaning: "to eat"},
		{ID: "y", Expression: "すし", Reading: "すし", Meaning: "sushi"},
	}))
	require.NoError(t, g.Start())

	texts := map[string]string{}
	for _, id := range []string{"jp-0", "jp-1"} {
		_, err := g.Flip(id)
		require.NoError(t, err)
	}
	for _, c := range g.View().Cards {
		if c.Flipped {
			texts[c.ID] = c.Text
		}
	}
	assert.Equal(t, map[string]string{"jp-0": "たべる (食べる)", "jp-1": "すし"}, texts)
}
