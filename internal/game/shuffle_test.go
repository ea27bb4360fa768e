package game_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nihongowow/arcade/internal/game"
)

func TestShuffleIsPermutation(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for n := range 12 {
		in := make([]int, n)
		for i := range in {
			in[i] = i % 4
		}
		orig := slices.Clone(in)

		out := game.Shuffle(r, in)

		assert.Equal(t, orig, in, "input modified")
		got := slices.Clone(out)
		slices.Sort(got)
		want := slices.Clone(orig)
		slices.Sort(want)
		assert.Equal(t, want, got)
	}
}

func TestShuffleChangesOrder(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e", "f"}
	changed := false
	for range 50 {
		if !slices.Equal(game.Shuffle(nil, in), in) {
			changed = true
			break
		}
	}
	assert.True(t, changed)
}

func TestShuffleDeterministicWithSeed(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	a := game.Shuffle(rand.New(rand.NewPCG(9, 9)), in)
	b := game.Shuffle(rand.New(rand.NewPCG(9, 9)), in)
	assert.Equal(t, a, b)
}
