package sentences

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
)

func TestParseSentences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"plain array", `["Bir.", "İki."]`, []string{"Bir.", "İki."}},
		{"surrounding whitespace", "\n  [\"a\"]  \n", []string{"a"}},
		{"json fence", "```json\n[\"Köprü uzun.\", \"Köprüye vardık.\"]\n```", []string{"Köprü uzun.", "Köprüye vardık."}},
		{"bare fence", "```\n[\"x\"]\n```", []string{"x"}},
		{"fence on one line", "```[\"x\"]```", []string{"x"}},
		{"prose around array", `Here you go: ["a", "b"] Hope this helps.`, []string{"a", "b"}},
		{"empty array", `[]`, []string{}},
		{"brackets inside strings", `["[not] a problem"]`, []string{"[not] a problem"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSentences(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSentences_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no array", "I cannot help with that."},
		{"empty", ""},
		{"reversed brackets", "] oops ["},
		{"numbers", `[1, 2, 3]`},
		{"objects", `[{"sentence": "a"}]`},
		{"truncated", `["a", "b"`},
		{"malformed inside", `["a" "b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSentences(tt.raw)
			require.Error(t, err)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
			assert.ErrorIs(t, err, pkgerrors.ErrParse)
			assert.Equal(t, pkgerrors.KindParse, pkgerrors.KindOf(err))
		})
	}
}

func TestParseSentences_RoundTrip(t *testing.T) {
	in := []string{
		`Dedi ki: "köprü" çok eski.`,
		"Satır\nsonu ve | ayraç",
		"Emoji 🙂 ve ters \\ bölü",
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	got, err := ParseSentences(string(data))
	require.NoError(t, err)
	assert.Equal(t, in, got)
}
