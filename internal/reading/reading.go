// Package reading suggests hiragana readings for Japanese expressions with
// the kagome morphological analyzer and its IPA dictionary.
package reading

import (
	"strings"
	"sync"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/nihongowow/arcade/internal/kana"
)

// Token is one analyzed unit of an expression.
type Token struct {
	Surface  string `json:"surface"`
	BaseForm string `json:"baseForm"`
	Reading  string `json:"reading"`
	POS      string `json:"pos,omitempty"`
}

type Analyzer struct {
	t *tokenizer.Tokenizer
}

func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

var (
	sharedOnce sync.Once
	shared     *Analyzer
	sharedErr  error
)

// Shared returns a process-wide analyzer. Loading the dictionary is slow,
// so it happens on first use.
func Shared() (*Analyzer, error) {
	sharedOnce.Do(func() { shared, sharedErr = NewAnalyzer() })
	return shared, sharedErr
}

// Analyze splits text into tokens. Readings are hiragana; tokens the
// dictionary does not know read as their surface.
func (a *Analyzer) Analyze(text string) []Token {
	var out []Token
	for _, tok := range a.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY || strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		features := tok.Features()

		base := tok.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		reading := tok.Surface
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}
		pos := ""
		if len(features) > 0 {
			pos = features[0]
		}

		out = append(out, Token{
			Surface:  tok.Surface,
			BaseForm: base,
			Reading:  kana.KatakanaToHiragana(reading),
			POS:      pos,
		})
	}
	return out
}

// Reading is the hiragana reading of the whole expression.
func (a *Analyzer) Reading(expression string) string {
	var b strings.Builder
	for _, tok := range a.Analyze(expression) {
		b.WriteString(tok.Reading)
	}
	return b.String()
}
