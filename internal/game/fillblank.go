package game

import (
	"errors"
	"slices"
	"strings"

	"github.com/nihongowow/arcade/internal/kana"
)

// GapChar marks a missing character in a fill-in-blank display string.
const GapChar = "＿"

var ErrUnknownGap = errors.New("game: unknown gap")

// FillInBlank holds one input slot per gap.
type FillInBlank struct {
	slots []string
}

func NewFillInBlank(gaps int) *FillInBlank {
	return &FillInBlank{slots: make([]string, gaps)}
}

// Input replaces slot i with the hiragana transliteration of raw and reports
// whether the slot now holds a complete character. A finished slot keeps at
// most two characters so a yōon such as きゃ fits one gap.
func (f *FillInBlank) Input(i int, raw string) (bool, error) {
	if i < 0 || i >= len(f.slots) {
		return false, ErrUnknownGap
	}
	v := kana.ToHiragana(kana.Normalize(raw))
	complete := kana.IsHiragana(v)
	if complete {
		if r := []rune(v); len(r) > 2 {
			v = string(r[:2])
		}
	}
	f.slots[i] = v
	return complete, nil
}

// Complete reports whether every slot holds finished hiragana.
func (f *FillInBlank) Complete() bool {
	if len(f.slots) == 0 {
		return false
	}
	for _, s := range f.slots {
		if !kana.IsHiragana(s) {
			return false
		}
	}
	return true
}

func (f *FillInBlank) Slots() []string { return slices.Clone(f.slots) }

// Reconstruct substitutes slot values into the gap positions of display.
// Gap positions are rune offsets; empty slots stay as GapChar.
func (f *FillInBlank) Reconstruct(display string, gaps []int) string {
	slot := make(map[int]int, len(gaps))
	for k, pos := range gaps {
		slot[pos] = k
	}

	var b strings.Builder
	for i, r := range []rune(display) {
		k, ok := slot[i]
		if !ok {
			b.WriteRune(r)
			continue
		}
		if k < len(f.slots) && f.slots[k] != "" {
			b.WriteString(f.slots[k])
		} else {
			b.WriteString(GapChar)
		}
	}
	return b.String()
}
