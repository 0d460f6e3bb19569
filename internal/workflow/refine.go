package workflow

import (
	"context"
	"log/slog"

	"github.com/josephgoksu/StoryWing/internal/memory"
	"github.com/josephgoksu/StoryWing/internal/refine"
	"github.com/josephgoksu/StoryWing/internal/story"
)

// RefineRequest carries the answers to earlier questions, if any.
type RefineRequest struct {
	Answers []refine.Answer `json:"answers" validate:"dive"`
}

// RefineResult is a refinement outcome plus the story as stored after it.
type RefineResult struct {
	refine.Result
	State   refine.State `json:"state"`
	Applied bool         `json:"applied"`
	Story   *story.Story `json:"story"`
}

// Refine scores a story and asks clarifying questions. When answers are
// supplied and the reply proposes a revision, the revision is written to
// the story; otherwise the story is left untouched.
func (s *Service) Refine(ctx context.Context, storyID string, req RefineRequest) (*RefineResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	st, err := s.GetStory(storyID)
	if err != nil {
		return nil, err
	}
	name, desc, err := scopeContext(s.store, st)
	if err != nil {
		return nil, err
	}
	scope, err := s.store.ListScope(st)
	if err != nil {
		return nil, err
	}
	mems, err := s.memories(st.WorkspacePath)
	if err != nil {
		return nil, err
	}

	system, user, err := refine.BuildPrompt(refine.PromptInput{
		PRDName:        name,
		PRDDescription: desc,
		Story:          *st,
		Siblings:       scope,
		Memories:       mems,
		Answers:        req.Answers,
		MinConfidence:  s.minConfidence,
	})
	if err != nil {
		return nil, err
	}
	raw, err := complete[refine.RawResponse](ctx, s, "refine", system, user)
	if err != nil {
		return nil, err
	}

	res := refine.Normalize(raw, *st)
	out := &RefineResult{Result: res, State: refine.StateFor(req.Answers), Story: st}
	if !refine.ShouldApply(req.Answers, res) {
		slog.Debug("story analyzed", "story", st.ID, "score", res.QualityScore, "questions", len(res.Questions))
		return out, nil
	}

	updated, err := s.mutateStory(st.ID, func(tx *memory.Tx, cur *story.Story) error {
		if res.UpdatedStory.ApplyTo(cur) {
			return s.invalidateNeighbors(tx, cur)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Story = updated
	out.Applied = true
	slog.Info("story revised", "story", st.ID, "score", res.QualityScore, "meetsThreshold", res.MeetsThreshold)
	return out, nil
}
