package workflow

import (
	"context"
	"log/slog"

	"github.com/josephgoksu/StoryWing/internal/memory"
	"github.com/josephgoksu/StoryWing/internal/priority"
	"github.com/josephgoksu/StoryWing/internal/story"
)

// SetPriorityRequest accepts or overrides a recommendation.
type SetPriorityRequest struct {
	Priority string `json:"priority" validate:"required,priority"`
	Accept   bool   `json:"accept"`
}

// RecommendPriority asks the completion service for a priority for one
// story and stores the normalized recommendation on it.
func (s *Service) RecommendPriority(ctx context.Context, storyID string) (*story.PriorityRecommendation, error) {
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

	system, user, err := priority.BuildSinglePrompt(priority.NewBundle(name, desc, *st, scope))
	if err != nil {
		return nil, err
	}
	raw, err := complete[priority.RawSuggestion](ctx, s, "recommend-priority", system, user)
	if err != nil {
		return nil, err
	}

	rec := priority.NormalizeSuggestion(raw, *st, s.now())
	if err := s.store.SetRecommendation(st.ID, &rec, s.now()); err != nil {
		return nil, storeErr(err, "story", st.ID)
	}
	slog.Info("priority recommended", "story", st.ID, "current", rec.CurrentPriority,
		"suggested", rec.SuggestedPriority, "confidence", rec.Confidence)
	return &rec, nil
}

// RecommendPriorities asks for a recommendation for every story of a PRD in
// one exchange. Stories the reply does not mention keep their previous
// recommendation.
func (s *Service) RecommendPriorities(ctx context.Context, prdID string) (*priority.BulkSummary, error) {
	prd, err := s.GetPRD(prdID)
	if err != nil {
		return nil, err
	}
	if len(prd.Stories) == 0 {
		return nil, InvalidRequest("prd %s has no stories to prioritize", prdID)
	}

	system, user, err := priority.BuildBulkPrompt(priority.BulkInput{
		ProjectName:        prd.Name,
		ProjectDescription: prd.Description,
		Stories:            prd.Stories,
	})
	if err != nil {
		return nil, err
	}
	raw, err := complete[priority.RawBulk](ctx, s, "recommend-priorities", system, user)
	if err != nil {
		return nil, err
	}

	recs := priority.NormalizeBulk(raw.Recommendations, prd.Stories, s.now())
	err = s.store.WithTx(func(tx *memory.Tx) error {
		now := s.now()
		for i := range recs {
			if err := tx.SetRecommendation(recs[i].StoryID, &recs[i], now); err != nil {
				return storeErr(err, "story", recs[i].StoryID)
			}
		}
		return tx.TouchPRD(prdID, now)
	})
	if err != nil {
		return nil, err
	}

	sum := priority.Summarize(recs)
	if dropped := len(raw.Recommendations) - len(recs); dropped > 0 {
		slog.Warn("bulk recommendation entries dropped", "prd", prdID, "dropped", dropped)
	}
	slog.Info("priorities recommended", "prd", prdID, "stories", len(prd.Stories),
		"recommended", sum.Total, "changed", sum.ChangedCount)
	return &sum, nil
}

// SetPriority stores the chosen priority. An existing recommendation is
// kept and records the decision; it is a manual override unless the
// caller accepted the suggested value. Neighbors lose their
// recommendations.
func (s *Service) SetPriority(storyID string, req SetPriorityRequest) (*story.Story, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	p, _ := story.ParsePriority(req.Priority)
	return s.mutateStory(storyID, func(tx *memory.Tx, st *story.Story) error {
		st.Priority = p
		priority.ApplyDecision(st.PriorityRecommendation, p, req.Accept)
		return s.invalidateNeighbors(tx, st)
	})
}
