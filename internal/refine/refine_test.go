package refine

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/josephgoksu/StoryWing/internal/story"
	"github.com/josephgoksu/StoryWing/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func currentStory() story.Story {
	return story.Story{
		ID:                 "story-1",
		Title:              "Login",
		Description:        "Users log in",
		Priority:           story.PriorityHigh,
		AcceptanceCriteria: story.NewCriteria([]string{"User can log in with email"}),
	}
}

func parse(t *testing.T, body string) RawResponse {
	t.Helper()
	raw, err := utils.ExtractAndParseJSON[RawResponse](body)
	require.NoError(t, err)
	return raw
}

func TestNormalize_MeetsThresholdIsRecomputed(t *testing.T) {
	tests := []struct {
		score    int
		upstream bool
		want     bool
	}{
		{79, true, false},
		{80, false, true},
		{100, false, true},
		{0, true, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("score=%d upstream=%v", tt.score, tt.upstream), func(t *testing.T) {
			raw := parse(t, fmt.Sprintf(`{"qualityScore": %d, "meetsThreshold": %v}`, tt.score, tt.upstream))
			res := Normalize(raw, currentStory())
			assert.Equal(t, tt.score, res.QualityScore)
			assert.Equal(t, tt.want, res.MeetsThreshold)
		})
	}
}

func TestNormalize_NonNumericScore(t *testing.T) {
	res := Normalize(parse(t, `{"qualityScore": "great", "meetsThreshold": true}`), currentStory())
	assert.Equal(t, 50, res.QualityScore)
	assert.False(t, res.MeetsThreshold)

	res = Normalize(parse(t, `{"qualityScore": 140}`), currentStory())
	assert.Equal(t, 100, res.QualityScore)
	assert.True(t, res.MeetsThreshold)
}

func TestNormalize_Questions(t *testing.T) {
	raw := parse(t, `{"questions": [
		{"id": "q1", "question": "Which providers?"},
		{"question": ""},
		{"question": "   "},
		{"question": "Remember me?"},
		{"question": "Q3"}, {"question": "Q4"}, {"question": "Q5"}, {"question": "Q6"}
	]}`)

	res := Normalize(raw, currentStory())

	require.Len(t, res.Questions, MaxQuestions)
	assert.Equal(t, "q1", res.Questions[0].ID)
	assert.Equal(t, "Remember me?", res.Questions[1].Question)
	assert.True(t, strings.HasPrefix(res.Questions[1].ID, "q-"))
	assert.Equal(t, "Q5", res.Questions[4].Question)
}

func TestNormalize_UpdatedStory(t *testing.T) {
	raw := parse(t, `{"updatedStory": {
		"title": "Login with SSO",
		"description": "Users log in via Google",
		"acceptanceCriteria": ["  Google button visible ", null, "", "   ", "Session lasts 7 days"],
		"priority": "urgent"
	}}`)

	res := Normalize(raw, currentStory())

	require.NotNil(t, res.UpdatedStory)
	assert.Equal(t, "Login with SSO", res.UpdatedStory.Title)
	assert.Equal(t, []string{"Google button visible", "Session lasts 7 days"}, res.UpdatedStory.AcceptanceCriteria)
	assert.Equal(t, story.PriorityHigh, res.UpdatedStory.Priority, "invalid priority falls back to the story's own")
}

func TestNormalize_UpdatedStoryKeepsCriteriaWhenAllBlank(t *testing.T) {
	raw := parse(t, `{"updatedStory": {"title": "t", "acceptanceCriteria": [null, " "], "priority": "low"}}`)

	res := Normalize(raw, currentStory())

	assert.Equal(t, []string{"User can log in with email"}, res.UpdatedStory.AcceptanceCriteria)
	assert.Equal(t, story.PriorityLow, res.UpdatedStory.Priority)
}

func TestNormalize_Improvements(t *testing.T) {
	absent := Normalize(parse(t, `{"qualityScore": 60}`), currentStory())
	out, err := json.Marshal(absent)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "improvements")
	assert.NotContains(t, string(out), "updatedStory")

	present := Normalize(parse(t, `{"improvements": ["Clarified scope"]}`), currentStory())
	require.NotNil(t, present.Improvements)
	assert.Equal(t, []string{"Clarified scope"}, *present.Improvements)

	empty := Normalize(parse(t, `{"improvements": []}`), currentStory())
	out, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"improvements":[]`)
}

func TestShouldApply(t *testing.T) {
	withUpdate := Result{UpdatedStory: &UpdatedStory{Title: "x"}}
	answers := []Answer{{QuestionID: "q1", Answer: "Google"}}

	assert.False(t, ShouldApply(nil, withUpdate), "analysis never mutates")
	assert.False(t, ShouldApply(answers, Result{}))
	assert.True(t, ShouldApply(answers, withUpdate))
}

func TestStateFor(t *testing.T) {
	assert.Equal(t, StateAnalyzed, StateFor(nil))
	assert.Equal(t, StateRevised, StateFor([]Answer{{QuestionID: "q", Answer: "a"}}))
}

func TestApplyTo(t *testing.T) {
	s := currentStory()
	s.AcceptanceCriteria[0].Passed = true
	oldID := s.AcceptanceCriteria[0].ID

	changed := (&UpdatedStory{
		Title:              "",
		Description:        "New description",
		AcceptanceCriteria: []string{"User can log in with email"},
		Priority:           story.PriorityCritical,
	}).ApplyTo(&s)

	assert.True(t, changed)
	assert.Equal(t, "Login", s.Title)
	assert.Equal(t, "New description", s.Description)
	require.Len(t, s.AcceptanceCriteria, 1)
	assert.False(t, s.AcceptanceCriteria[0].Passed)
	assert.NotEqual(t, oldID, s.AcceptanceCriteria[0].ID)
}

func TestBuildPrompt(t *testing.T) {
	target := currentStory()
	sibling := story.Story{ID: "story-2", Title: "Logout", Description: "Users log out"}

	_, user, err := BuildPrompt(PromptInput{
		PRDName:        "Auth",
		PRDDescription: "Authentication revamp",
		Story:          target,
		Siblings:       []story.Story{target, sibling},
		Memories: []story.MemoryEntry{
			{Category: "style", Key: "api", Content: "REST only", Confidence: 0.9},
			{Category: "style", Key: "noise", Content: "Low confidence", Confidence: 0.1},
		},
		Answers: []Answer{{QuestionID: "q1", Answer: "Google only"}},
	})
	require.NoError(t, err)

	assert.Contains(t, user, "PRD Context")
	assert.Contains(t, user, "Authentication revamp")
	assert.Contains(t, user, "Other Stories")
	assert.Contains(t, user, "Logout: Users log out")
	assert.Equal(t, 1, strings.Count(user, "Login"), "target story is not listed as a sibling")
	assert.Contains(t, user, "REST only")
	assert.NotContains(t, user, "Low confidence")
	assert.Contains(t, user, "q1: Google only")
}
