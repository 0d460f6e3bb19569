package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestExtractAndParseJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  sample
	}{
		{"plain", `{"name":"a","score":1}`, sample{"a", 1}},
		{"json fence", "```json\n{\"name\":\"b\",\"score\":2}\n```", sample{"b", 2}},
		{"bare fence", "```\n{\"name\":\"c\",\"score\":3}\n```", sample{"c", 3}},
		{"leading prose", `Here you go: {"name":"d","score":4}`, sample{"d", 4}},
		{"trailing prose", `{"name":"e","score":5} hope this helps`, sample{"e", 5}},
		{"trailing comma", `{"name":"f","score":6,}`, sample{"f", 6}},
		{"unterminated fence", "```json\n{\"name\":\"g\",\"score\":7}", sample{"g", 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractAndParseJSON[sample](tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractAndParseJSON_Errors(t *testing.T) {
	_, err := ExtractAndParseJSON[sample]("")
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = ExtractAndParseJSON[sample]("I cannot help with that.")
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = ExtractAndParseJSON[sample](`{"name": 12}`)
	assert.Error(t, err)
}

func TestExtractAndParseJSON_Array(t *testing.T) {
	got, err := ExtractAndParseJSON[[]sample]("```json\n[{\"name\":\"x\"}]\n```")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
