package workflow

import (
	"context"
	"log/slog"

	"github.com/josephgoksu/StoryWing/internal/generate"
	"github.com/josephgoksu/StoryWing/internal/memory"
	"github.com/josephgoksu/StoryWing/internal/story"
)

// GenerateRequest asks for draft stories for a PRD.
type GenerateRequest struct {
	Description string `json:"description"`
	Count       int    `json:"count" validate:"gte=0,lte=50"`
}

// GenerateResult holds drafts that have not been stored yet.
type GenerateResult struct {
	Stories []generate.Story `json:"stories"`
	Skipped int              `json:"skipped"`
}

// AcceptGeneratedRequest stores reviewed drafts.
type AcceptGeneratedRequest struct {
	Stories []generate.Story `json:"stories" validate:"dive"`
}

// GenerateStories drafts stories from the request description, or the
// PRD's own when the request has none. Drafts are not persisted.
func (s *Service) GenerateStories(ctx context.Context, prdID string, req GenerateRequest) (*GenerateResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	prd, err := s.GetPRD(prdID)
	if err != nil {
		return nil, err
	}
	desc, ok := generate.ResolveDescription(req.Description, prd.Description)
	if !ok {
		return nil, InvalidRequest("a description is required: the request and prd %s have none", prdID)
	}
	mems, err := s.memories(prd.WorkspacePath)
	if err != nil {
		return nil, err
	}

	system, user, err := generate.BuildPrompt(generate.PromptInput{
		PRDName:       prd.Name,
		Description:   desc,
		Count:         req.Count,
		Existing:      prd.Stories,
		Memories:      mems,
		MinConfidence: s.minConfidence,
	})
	if err != nil {
		return nil, err
	}
	raw, err := complete[generate.RawResponse](ctx, s, "generate", system, user)
	if err != nil {
		return nil, err
	}

	stories, skipped := generate.Normalize(raw.Stories)
	if skipped > 0 {
		slog.Warn("generated stories without a title skipped", "prd", prdID, "skipped", skipped)
	}
	slog.Info("stories generated", "prd", prdID, "count", len(stories))
	return &GenerateResult{Stories: stories, Skipped: skipped}, nil
}

// AcceptGenerated appends drafts to the PRD in one transaction, in the
// given order, after its current last story.
func (s *Service) AcceptGenerated(prdID string, req AcceptGeneratedRequest) ([]story.Story, error) {
	if len(req.Stories) == 0 {
		return nil, InvalidRequest("no stories to accept")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	drafts := make([]draft, 0, len(req.Stories))
	for _, g := range req.Stories {
		drafts = append(drafts, draft{
			Title:       g.Title,
			Description: g.Description,
			Criteria:    generate.PadCriteria(g.AcceptanceCriteria, generate.MinCriteria),
			Priority:    story.NormalizePriority(string(g.Priority), story.PriorityMedium),
		})
	}

	var created []story.Story
	err := s.store.WithTx(func(tx *memory.Tx) error {
		var err error
		created, err = s.appendStories(tx, prdID, "", drafts)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("generated stories accepted", "prd", prdID, "count", len(created))
	return created, nil
}
