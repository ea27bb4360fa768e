// Package kana holds the hiragana and katakana reference tables and the
// romaji transliteration used by the fill-in-blank quiz.
package kana

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nihongowow/arcade/internal/nihongo"
)

// MaxRandom is the largest sample the random endpoint accepts.
const MaxRandom = 109

var ErrInvalidCount = errors.New("kana: count out of range")

//go:embed kana.yaml
var tableYAML []byte

// Table is the full reference set, one entry per distinct romaji per script.
type Table struct {
	Hiragana []nihongo.KanaPair `yaml:"hiragana" json:"hiragana"`
	Katakana []nihongo.KanaPair `yaml:"katakana" json:"katakana"`
}

var (
	loadOnce sync.Once
	table    Table
)

// All returns the embedded table. Callers must not modify the slices.
func All() Table {
	loadOnce.Do(func() {
		if err := yaml.Unmarshal(tableYAML, &table); err != nil {
			panic(fmt.Sprintf("kana: parsing embedded table: %v", err))
		}
		buildRomaji(table.Hiragana)
	})
	return table
}

// Random samples count pairs of the given type without replacement.
// Mixed mode samples distinct romaji and picks a script for each one, so
// every romaji card has exactly one matching kana card.
func Random(r *rand.Rand, typ nihongo.KanaType, count int) ([]nihongo.KanaPair, error) {
	if count < 1 || count > MaxRandom {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	t := All()

	switch typ {
	case nihongo.KanaHiragana:
		return sample(r, t.Hiragana, count), nil
	case nihongo.KanaKatakana:
		return sample(r, t.Katakana, count), nil
	case nihongo.KanaMixed:
		katakana := make(map[string]string, len(t.Katakana))
		for _, p := range t.Katakana {
			katakana[p.Romaji] = p.Kana
		}
		picked := sample(r, t.Hiragana, count)
		for i, p := range picked {
			if k, ok := katakana[p.Romaji]; ok && intN(r, 2) == 0 {
				picked[i].Kana = k
			}
		}
		return picked, nil
	default:
		return nil, fmt.Errorf("kana: unknown type %q", typ)
	}
}

func sample(r *rand.Rand, pairs []nihongo.KanaPair, count int) []nihongo.KanaPair {
	count = min(count, len(pairs))
	var perm []int
	if r != nil {
		perm = r.Perm(len(pairs))
	} else {
		perm = rand.Perm(len(pairs))
	}
	out := make([]nihongo.KanaPair, count)
	for i := range out {
		out[i] = pairs[perm[i]]
	}
	return out
}

func intN(r *rand.Rand, n int) int {
	if r != nil {
		return r.IntN(n)
	}
	return rand.IntN(n)
}

// Local serves kana from the embedded table instead of the backend.
type Local struct{}

func (Local) RandomKana(_ context.Context, _ nihongo.Session, typ nihongo.KanaType, count int) ([]nihongo.KanaPair, error) {
	return Random(nil, typ, count)
}

func (Local) AllKana(_ context.Context) (Table, error) {
	return All(), nil
}
