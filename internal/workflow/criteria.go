package workflow

import (
	"context"
	"log/slog"

	"github.com/josephgoksu/StoryWing/internal/criteria"
)

// ValidateCriteriaRequest overrides what is sent for validation. Empty
// fields fall back to the stored story.
type ValidateCriteriaRequest struct {
	Criteria    []string `json:"criteria"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// ValidateCriteria reviews a story's acceptance criteria. Nothing is
// persisted.
func (s *Service) ValidateCriteria(ctx context.Context, storyID string, req ValidateCriteriaRequest) (*criteria.ValidationResult, error) {
	st, err := s.GetStory(storyID)
	if err != nil {
		return nil, err
	}
	list := nonBlank(req.Criteria)
	if len(list) == 0 {
		list = nonBlank(st.CriteriaText())
	}
	if len(list) == 0 {
		return nil, InvalidRequest("story %s has no acceptance criteria to validate", storyID)
	}
	title, desc := st.Title, st.Description
	if req.Title != "" {
		title = req.Title
	}
	if req.Description != "" {
		desc = req.Description
	}
	mems, err := s.memories(st.WorkspacePath)
	if err != nil {
		return nil, err
	}

	system, user, err := criteria.BuildPrompt(criteria.PromptInput{
		Title:       title,
		Description: desc,
		Criteria:    list,
		Memories:    mems,
	})
	if err != nil {
		return nil, err
	}
	raw, err := complete[criteria.RawResponse](ctx, s, "validate-criteria", system, user)
	if err != nil {
		return nil, err
	}

	res := criteria.Normalize(list, raw)
	slog.Debug("criteria validated", "story", storyID, "criteria", len(list), "score", res.OverallScore, "allValid", res.AllValid)
	return &res, nil
}
