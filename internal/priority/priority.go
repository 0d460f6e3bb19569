// Package priority produces AI-assisted priority recommendations for single
// stories and whole PRDs, and normalizes whatever the completion service
// returns into well-formed recommendations.
package priority

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/josephgoksu/StoryWing/internal/story"
)

// DefaultExplanation replaces a missing explanation.
const DefaultExplanation = "No explanation was provided for this recommendation."

// RawSuggestion is one recommendation as the completion service returns it.
type RawSuggestion struct {
	StoryID           string            `json:"storyId"`
	SuggestedPriority string            `json:"suggestedPriority"`
	Confidence        any               `json:"confidence"`
	Factors           []story.RawFactor `json:"factors"`
	Explanation       string            `json:"explanation"`
}

// RawBulk is the bulk reply. Both {"recommendations": [...]} and a bare
// array are accepted.
type RawBulk struct {
	Recommendations []RawSuggestion `json:"recommendations"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *RawBulk) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(data, &b.Recommendations)
	}
	var wrapped struct {
		Recommendations []RawSuggestion `json:"recommendations"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("decode bulk recommendations: %w", err)
	}
	b.Recommendations = wrapped.Recommendations
	return nil
}

// NormalizeSuggestion turns a raw suggestion into a recommendation for s.
// CurrentPriority records the story's priority at call time.
func NormalizeSuggestion(raw RawSuggestion, s story.Story, now time.Time) story.PriorityRecommendation {
	explanation := strings.TrimSpace(raw.Explanation)
	if explanation == "" {
		explanation = DefaultExplanation
	}
	return story.PriorityRecommendation{
		StoryID:           s.ID,
		SuggestedPriority: story.NormalizePriority(raw.SuggestedPriority, story.PriorityMedium),
		CurrentPriority:   s.Priority,
		Confidence:        story.ClampScore(raw.Confidence, story.DefaultScore),
		Factors:           story.NormalizeFactors(raw.Factors, true),
		Explanation:       explanation,
		IsManualOverride:  false,
		CreatedAt:         now,
	}
}

// NormalizeBulk matches suggestions to stories by id. Suggestions naming an
// unknown story, or repeating one already seen, are dropped. The result is
// in story order.
func NormalizeBulk(raw []RawSuggestion, stories []story.Story, now time.Time) []story.PriorityRecommendation {
	byID := make(map[string]RawSuggestion, len(raw))
	for _, r := range raw {
		id := strings.TrimSpace(r.StoryID)
		if _, dup := byID[id]; dup {
			continue
		}
		byID[id] = r
	}

	out := make([]story.PriorityRecommendation, 0, len(stories))
	for _, s := range stories {
		r, ok := byID[s.ID]
		if !ok {
			continue
		}
		out = append(out, NormalizeSuggestion(r, s, now))
	}
	return out
}

// BulkSummary describes the outcome of a bulk recommendation.
type BulkSummary struct {
	Total           int                            `json:"total"`
	ByPriority      map[story.Priority]int         `json:"byPriority"`
	ChangedCount    int                            `json:"changedCount"`
	Recommendations []story.PriorityRecommendation `json:"recommendations"`
}

// Summarize counts recommendations by suggested priority. ChangedCount is the
// number whose suggestion differs from the story's priority at call time.
func Summarize(recs []story.PriorityRecommendation) BulkSummary {
	sum := BulkSummary{
		Total:           len(recs),
		ByPriority:      make(map[story.Priority]int, len(story.Priorities)),
		Recommendations: recs,
	}
	for _, p := range story.Priorities {
		sum.ByPriority[p] = 0
	}
	for _, r := range recs {
		sum.ByPriority[r.SuggestedPriority]++
		if r.SuggestedPriority != r.CurrentPriority {
			sum.ChangedCount++
		}
	}
	return sum
}

// ApplyDecision records the caller's accept/override choice on an existing
// recommendation. Choosing anything other than the suggestion, or declining
// it, is a manual override.
func ApplyDecision(rec *story.PriorityRecommendation, chosen story.Priority, accept bool) {
	if rec == nil {
		return
	}
	rec.CurrentPriority = chosen
	rec.IsManualOverride = !accept || chosen != rec.SuggestedPriority
}
