package game_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihongowow/arcade/internal/game"
	"github.com/nihongowow/arcade/internal/nihongo"
)

var fivePairs = []nihongo.KanaPair{
	{Romaji: "a", Kana: "あ"},
	{Romaji: "ka", Kana: "か"},
	{Romaji: "sa", Kana: "さ"},
	{Romaji: "ta", Kana: "た"},
	{Romaji: "na", Kana: "な"},
}

func newSalad(t *testing.T) *game.Salad {
	t.Helper()
	g := game.NewSalad()
	require.NoError(t, g.Load(rand.New(rand.NewPCG(1, 1)), fivePairs, 120))
	require.Equal(t, game.PhaseReady, g.Phase())
	require.NoError(t, g.Start())
	return g
}

// kanaFor finds the kana card that matches the romaji card's text.
func kanaFor(v game.SaladView, romaji string) string {
	want := map[string]string{}
	for _, p := range fivePairs {
		want[p.Romaji] = p.Kana
	}
	for _, c := range v.Kana {
		if c.Text == want[romaji] {
			return c.ID
		}
	}
	return ""
}

func TestSaladCompleteRound(t *testing.T) {
	g := newSalad(t)

	var finals []*game.Final
	for _, c := range g.View().Romaji {
		out, err := g.Drop(c.ID, kanaFor(g.View(), c.Text))
		require.NoError(t, err)
		assert.True(t, out.Chime)
		if out.Final != nil {
			finals = append(finals, out.Final)
		}
	}

	assert.Equal(t, game.PhaseFinished, g.Phase())
	assert.Equal(t, 5, g.Matched())
	require.Len(t, finals, 1)
	assert.Equal(t, game.Final{Game: nihongo.GameSalad, Score: 5}, *finals[0])

	assert.Zero(t, g.Tick(), "ticks after finishing do nothing")
}

func TestSaladMismatchCountsError(t *testing.T) {
	g := newSalad(t)
	v := g.View()

	var romajiA, kanaKa string
	for _, c := range v.Romaji {
		if c.Text == "a" {
			romajiA = c.ID
		}
	}
	kanaKa = kanaFor(v, "ka")

	out, err := g.Drop(romajiA, kanaKa)
	require.NoError(t, err)
	assert.False(t, out.Chime)
	assert.Equal(t, 1, g.View().Errors)
	assert.Equal(t, 0, g.Matched())
	assert.Equal(t, game.PhasePlaying, g.Phase())
}

func TestSaladDropOnMatchedCardIsNoop(t *testing.T) {
	g := newSalad(t)
	v := g.View()
	first := v.Romaji[0]
	target := kanaFor(v, first.Text)

	_, err := g.Drop(first.ID, target)
	require.NoError(t, err)

	for _, c := range v.Romaji[1:] {
		out, err := g.Drop(c.ID, target)
		require.NoError(t, err)
		assert.Zero(t, out)
	}
	assert.Equal(t, 1, g.Matched())
	assert.Equal(t, 0, g.View().Errors)
}

func TestSaladTimeoutReportsOnce(t *testing.T) {
	g := game.NewSalad()
	require.NoError(t, g.Load(nil, fivePairs, 3))
	require.NoError(t, g.Start())

	v := g.View()
	_, err := g.Drop(v.Romaji[0].ID, kanaFor(v, v.Romaji[0].Text))
	require.NoError(t, err)

	assert.Zero(t, g.Tick())
	assert.Zero(t, g.Tick())
	out := g.Tick()
	require.NotNil(t, out.Final)
	assert.Equal(t, 1, out.Final.Score)
	assert.Equal(t, game.PhaseTimeout, g.Phase())
	assert.Equal(t, 0, g.Remaining())

	assert.Zero(t, g.Tick())
	_, err = g.Drop(v.Romaji[1].ID, kanaFor(v, v.Romaji[1].Text))
	assert.ErrorIs(t, err, game.ErrNotPlaying)
}

func TestSaladRestartSkipsReady(t *testing.T) {
	g := newSalad(t)
	require.NoError(t, g.Restart())
	assert.Equal(t, game.PhaseLoading, g.Phase())

	require.NoError(t, g.Load(nil, fivePairs, 0))
	assert.Equal(t, game.PhasePlaying, g.Phase())
	assert.Equal(t, game.DefaultSaladTimeLimit, g.Remaining())
}

func TestSaladLoadFailed(t *testing.T) {
	g := game.NewSalad()
	require.NoError(t, g.LoadFailed(errors.New("kana unavailable")))

	v := g.View()
	assert.Equal(t, game.PhaseReady, v.Phase)
	assert.Empty(t, v.Romaji)
	assert.Equal(t, "kana unavailable", v.Error)
	assert.ErrorIs(t, g.Start(), game.ErrInvalidTransition)
}

func TestSaladUnknownCard(t *testing.T) {
	g := newSalad(t)
	_, err := g.Drop("romaji-99", "kana-0")
	assert.ErrorIs(t, err, game.ErrUnknownCard)
}
