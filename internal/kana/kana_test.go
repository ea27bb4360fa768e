package kana_test

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihongowow/arcade/internal/kana"
	"github.com/nihongowow/arcade/internal/nihongo"
)

func TestAll(t *testing.T) {
	tbl := kana.All()
	require.Len(t, tbl.Hiragana, 104)
	require.Len(t, tbl.Katakana, 104)
	assert.Equal(t, nihongo.KanaPair{Romaji: "a", Kana: "あ"}, tbl.Hiragana[0])
	assert.Equal(t, nihongo.KanaPair{Romaji: "a", Kana: "ア"}, tbl.Katakana[0])
}

func TestRandom(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	tests := []struct {
		typ   nihongo.KanaType
		count int
	}{
		{nihongo.KanaHiragana, 5},
		{nihongo.KanaKatakana, 20},
		{nihongo.KanaMixed, 20},
		{nihongo.KanaHiragana, kana.MaxRandom},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			got, err := kana.Random(r, tt.typ, tt.count)
			require.NoError(t, err)
			require.Len(t, got, min(tt.count, 104))

			seen := make(map[string]bool)
			for _, p := range got {
				assert.False(t, seen[p.Romaji], "duplicate romaji %q", p.Romaji)
				seen[p.Romaji] = true
				assert.NotEmpty(t, p.Kana)
			}
		})
	}
}

func TestRandomMixedUsesBothScripts(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))
	got, err := kana.Random(r, nihongo.KanaMixed, 60)
	require.NoError(t, err)

	var hira, kata int
	for _, p := range got {
		if kana.IsHiragana(p.Kana) {
			hira++
		} else {
			kata++
		}
	}
	assert.Positive(t, hira)
	assert.Positive(t, kata)
}

func TestRandomRejectsBadCount(t *testing.T) {
	for _, n := range []int{0, -1, kana.MaxRandom + 1} {
		_, err := kana.Random(nil, nihongo.KanaHiragana, n)
		assert.ErrorIs(t, err, kana.ErrInvalidCount)
	}
	_, err := kana.Random(nil, "cyrillic", 3)
	assert.Error(t, err)
}

func TestLocalSource(t *testing.T) {
	got, err := kana.Local{}.RandomKana(context.Background(), nihongo.Session{}, nihongo.KanaKatakana, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
