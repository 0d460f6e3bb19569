package generate

import (
	"testing"

	"github.com/josephgoksu/StoryWing/internal/story"
	"github.com/josephgoksu/StoryWing/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadCriteria(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"none", nil, []string{"Needs acceptance criterion 1", "Needs acceptance criterion 2", "Needs acceptance criterion 3"}},
		{"one kept first", []string{"Shows total"}, []string{"Shows total", "Needs acceptance criterion 2", "Needs acceptance criterion 3"}},
		{"blanks dropped", []string{" ", "a", ""}, []string{"a", "Needs acceptance criterion 2", "Needs acceptance criterion 3"}},
		{"enough", []string{"a", "b", "c", "d"}, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadCriteria(tt.in, MinCriteria)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, len(got), MinCriteria)
		})
	}
}

func TestNormalize(t *testing.T) {
	raw, err := utils.ExtractAndParseJSON[RawResponse]("```json\n" + `{"stories": [
		{"title": "Cart", "acceptanceCriteria": ["Add item", "Remove item"], "priority": "HIGH"},
		{"title": "   ", "priority": "low"},
		{"title": "Checkout", "priority": "asap"}
	]}` + "\n```")
	require.NoError(t, err)

	stories, skipped := Normalize(raw.Stories)

	assert.Equal(t, 1, skipped)
	require.Len(t, stories, 2)
	assert.Equal(t, "Cart", stories[0].Title)
	assert.Equal(t, story.PriorityHigh, stories[0].Priority)
	assert.Equal(t, []string{"Add item", "Remove item", "Needs acceptance criterion 3"}, stories[0].AcceptanceCriteria)
	assert.Equal(t, story.PriorityMedium, stories[1].Priority)
	assert.Len(t, stories[1].AcceptanceCriteria, MinCriteria)
}

func TestRawResponse_BareArray(t *testing.T) {
	raw, err := utils.ExtractAndParseJSON[RawResponse](`[{"title": "A"}, {"title": "B"}]`)
	require.NoError(t, err)
	assert.Len(t, raw.Stories, 2)
}

func TestResolveDescription(t *testing.T) {
	d, ok := ResolveDescription("  override ", "prd")
	assert.True(t, ok)
	assert.Equal(t, "override", d)

	d, ok = ResolveDescription("", "prd text")
	assert.True(t, ok)
	assert.Equal(t, "prd text", d)

	_, ok = ResolveDescription(" ", "\n")
	assert.False(t, ok)
}

func TestBuildPrompt(t *testing.T) {
	_, user, err := BuildPrompt(PromptInput{
		PRDName:     "Shop",
		Description: "Sell books online",
		Existing:    []story.Story{{Title: "Browse catalog"}},
		Memories: []story.MemoryEntry{
			{Category: "stack", Key: "db", Content: "Postgres", Confidence: 0.8},
			{Category: "stack", Key: "old", Content: "MySQL", Confidence: 0.2},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, user, "Sell books online")
	assert.Contains(t, user, "- Browse catalog")
	assert.Contains(t, user, "Postgres")
	assert.NotContains(t, user, "MySQL")
	assert.Contains(t, user, "about 5 new stories")
}
