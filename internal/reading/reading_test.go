package reading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReading(t *testing.T) {
	a, err := Shared()
	require.NoError(t, err)

	tests := []struct {
		expression string
		want       string
	}{
		{"猫", "ねこ"},
		{"日本語", "にほんご"},
		{"食べる", "たべる"},
		{"ひらがな", "ひらがな"},
	}
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Reading(tt.expression))
		})
	}
}

func TestAnalyzeBaseForm(t *testing.T) {
	a, err := Shared()
	require.NoError(t, err)

	toks := a.Analyze("行った")
	require.NotEmpty(t, toks)
	assert.Equal(t, "行く", toks[0].BaseForm)
	assert.Equal(t, "動詞", toks[0].POS)
}
