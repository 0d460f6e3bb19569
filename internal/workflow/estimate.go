package workflow

import (
	"github.com/josephgoksu/StoryWing/internal/memory"
	"github.com/josephgoksu/StoryWing/internal/story"
)

// EstimateRequest is a manual sizing of a story.
type EstimateRequest struct {
	Size        string `json:"size" validate:"required,size"`
	StoryPoints int    `json:"storyPoints" validate:"gte=0,lte=100"`
	Reasoning   string `json:"reasoning"`
}

// SetEstimate records a manual estimate, keeping the factors of any
// previous estimate.
func (s *Service) SetEstimate(storyID string, req EstimateRequest) (*story.Story, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	size, _ := story.ParseSize(req.Size)
	return s.mutateStory(storyID, func(_ *memory.Tx, st *story.Story) error {
		st.Estimate = story.ManualEstimate(st.Estimate, size, req.StoryPoints, req.Reasoning)
		return nil
	})
}
