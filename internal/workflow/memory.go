package workflow

import (
	"strings"

	"github.com/josephgoksu/StoryWing/internal/story"
)

// MemoryRequest adds a workspace convention used as prompt context.
type MemoryRequest struct {
	WorkspacePath string   `json:"workspacePath" validate:"required,nonempty"`
	Category      string   `json:"category" validate:"max=50"`
	Key           string   `json:"key" validate:"max=200"`
	Content       string   `json:"content" validate:"required,nonempty"`
	Confidence    *float64 `json:"confidence" validate:"omitempty,gte=0,lte=1"`
}

// AddMemory stores a workspace memory entry. Confidence defaults to 1.
func (s *Service) AddMemory(req MemoryRequest) (*story.MemoryEntry, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	conf := 1.0
	if req.Confidence != nil {
		conf = *req.Confidence
	}
	e := &story.MemoryEntry{
		ID:            story.NewID("mem"),
		WorkspacePath: req.WorkspacePath,
		Category:      strings.TrimSpace(req.Category),
		Key:           strings.TrimSpace(req.Key),
		Content:       strings.TrimSpace(req.Content),
		Confidence:    conf,
		CreatedAt:     s.now(),
	}
	if err := s.store.InsertMemory(e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListMemories returns a workspace's entries at or above minConfidence.
// A negative value uses the service's floor.
func (s *Service) ListMemories(workspace string, minConfidence float64) ([]story.MemoryEntry, error) {
	if strings.TrimSpace(workspace) == "" {
		return nil, InvalidRequest("workspacePath is required")
	}
	if minConfidence < 0 {
		minConfidence = s.minConfidence
	}
	return s.store.ListMemories(workspace, minConfidence)
}
