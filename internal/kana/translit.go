package kana

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/nihongowow/arcade/internal/nihongo"
)

// romaji maps a romaji syllable to hiragana. Built from the reference
// table plus aliases on first use of All.
var romaji map[string]string

// Spellings the table does not list but keyboards commonly produce.
var aliases = map[string]string{
	"si": "し", "ti": "ち", "tu": "つ", "hu": "ふ", "zi": "じ",
	"sya": "しゃ", "syu": "しゅ", "syo": "しょ",
	"tya": "ちゃ", "tyu": "ちゅ", "tyo": "ちょ",
	"jya": "じゃ", "jyu": "じゅ", "jyo": "じょ",
	"zya": "じゃ", "zyu": "じゅ", "zyo": "じょ",
	"xa": "ぁ", "xi": "ぃ", "xu": "ぅ", "xe": "ぇ", "xo": "ぉ",
	"la": "ぁ", "li": "ぃ", "lu": "ぅ", "le": "ぇ", "lo": "ぉ",
	"xya": "ゃ", "xyu": "ゅ", "xyo": "ょ",
	"lya": "ゃ", "lyu": "ゅ", "lyo": "ょ",
	"xtu": "っ", "ltu": "っ",
	"-": "ー",
}

const maxSyllable = 3

func buildRomaji(hiragana []nihongo.KanaPair) {
	romaji = make(map[string]string, len(hiragana)+len(aliases))
	for _, p := range hiragana {
		if _, ok := romaji[p.Romaji]; !ok {
			romaji[p.Romaji] = p.Kana
		}
	}
	for k, v := range aliases {
		if _, ok := romaji[k]; !ok {
			romaji[k] = v
		}
	}
}

// ToHiragana transliterates romaji to hiragana. Letters that do not yet form
// a syllable are kept as typed, so "k" stays "k" and "kak" becomes "かk".
// A trailing single "n" is kept as well; "nn" or "n" before a consonant
// becomes ん. Katakana is folded to hiragana.
func ToHiragana(s string) string {
	All()
	s = strings.ToLower(s)

	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(foldKatakana(r))
			i += size
			continue
		}

		if c == 'n' && i+1 < len(s) {
			next := s[i+1]
			switch {
			case next == 'n' && (i+2 >= len(s) || !isVowel(s[i+2]) && s[i+2] != 'y'):
				b.WriteString("ん")
				i += 2
				continue
			case next == '\'':
				b.WriteString("ん")
				i += 2
				continue
			case isConsonant(next) && next != 'y':
				b.WriteString("ん")
				i++
				continue
			}
		}

		if isConsonant(c) && c != 'n' && i+1 < len(s) && s[i+1] == c {
			b.WriteString("っ")
			i++
			continue
		}

		matched := false
		for l := maxSyllable; l >= 1; l-- {
			if i+l > len(s) {
				continue
			}
			if k, ok := romaji[s[i:i+l]]; ok {
				if s[i:i+l] == "n" && i+1 == len(s) {
					break
				}
				b.WriteString(k)
				i += l
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// IsHiragana reports whether s is non-empty and made only of hiragana
// (the long vowel mark is allowed).
func IsHiragana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'ぁ' && r <= 'ゖ') && r != 'ゝ' && r != 'ゞ' && r != 'ー' {
			return false
		}
	}
	return true
}

// KatakanaToHiragana folds every katakana rune to its hiragana counterpart.
func KatakanaToHiragana(s string) string {
	return strings.Map(foldKatakana, s)
}

func foldKatakana(r rune) rune {
	if r >= 'ァ' && r <= 'ヶ' {
		return r - 0x60
	}
	return r
}

// Normalize prepares typed input for comparison: NFC, full-width ASCII
// folded to narrow, ideographic spaces replaced, trimmed and lowercased.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "　", " ")
	s = width.Fold.String(s)
	return strings.ToLower(strings.TrimSpace(s))
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'i', 'u', 'e', 'o':
		return true
	}
	return false
}

func isConsonant(c byte) bool {
	return c >= 'a' && c <= 'z' && !isVowel(c)
}
