package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/josephgoksu/StoryWing/internal/story"
)

func TestFormatStory(t *testing.T) {
	assert.Equal(t, "No story.", FormatStory(nil))

	st := &story.Story{
		ID:          "story-1",
		Title:       "Guest checkout",
		Description: "Let visitors buy without an account.\n",
		Priority:    story.PriorityHigh,
		Status:      story.StatusInProgress,
		Attempts:    2,
		MaxAttempts: 3,
		AcceptanceCriteria: []story.AcceptanceCriterion{
			{ID: "ac-1", Description: "email required", Passed: true},
			{ID: "ac-2", Description: "order saved"},
		},
		DependsOn:         []string{"story-0", "story-9"},
		DependencyReasons: map[string]string{"story-0": "needs cart"},
	}
	out := FormatStory(st)
	assert.True(t, strings.HasPrefix(out, "## 🔄 Guest checkout\n"))
	assert.Contains(t, out, "**ID**: `story-1` | **Priority**: high | **Status**: in_progress | **Attempts**: 2/3")
	assert.Contains(t, out, "- [x] email required (`ac-1`)")
	assert.Contains(t, out, "- [ ] order saved (`ac-2`)")
	assert.Contains(t, out, "- `story-0`: needs cart\n- `story-9`")
	assert.NotContains(t, out, "Learnings")
}

func TestFormatPRD(t *testing.T) {
	assert.Equal(t, "No PRD.", FormatPRD(nil))

	out := FormatPRD(&story.PRD{ID: "prd-1", Name: "Empty"})
	assert.Contains(t, out, "None yet.")
	assert.NotContains(t, out, "completed")

	out = FormatPRD(&story.PRD{
		ID:            "prd-2",
		Name:          "Checkout",
		Description:   strings.Repeat("x", 600),
		QualityChecks: []string{"go test ./..."},
		Stories: []story.Story{
			{ID: "s1", Title: "A", Status: story.StatusCompleted, Priority: story.PriorityLow},
			{ID: "s2", Title: "B", Status: story.StatusPending, Priority: story.PriorityMedium},
		},
	})
	assert.Contains(t, out, strings.Repeat("x", 497)+"...")
	assert.Contains(t, out, "- `go test ./...`")
	assert.Contains(t, out, "2. ⏳ **B** `s2` (medium)")
	assert.Contains(t, out, "1/2 completed")
}

func TestFormatErrors(t *testing.T) {
	assert.Contains(t, FormatError("boom"), "**Details**: boom")
	out := FormatValidationError("story_id", "required")
	assert.Contains(t, out, "Validation Error")
	assert.Contains(t, out, "**Field**: `story_id`")
}

func TestStoryAction_IsValid(t *testing.T) {
	for _, a := range ValidStoryActions() {
		assert.True(t, a.IsValid(), a)
	}
	assert.False(t, StoryAction("").IsValid())
	assert.True(t, PRDActionGet.IsValid())
	assert.False(t, PRDAction("create").IsValid())
}
