package workflow

import (
	"log/slog"
	"strings"

	"github.com/josephgoksu/StoryWing/internal/story"
)

// CreatePRDRequest is the input to CreatePRD.
type CreatePRDRequest struct {
	WorkspacePath string   `json:"workspacePath"`
	Name          string   `json:"name" validate:"required,nonempty,max=200"`
	Description   string   `json:"description"`
	BranchName    string   `json:"branchName"`
	QualityChecks []string `json:"qualityChecks"`
}

// UpdatePRDRequest changes the fields that are non-nil.
type UpdatePRDRequest struct {
	Name          *string   `json:"name" validate:"omitempty,nonempty,max=200"`
	Description   *string   `json:"description"`
	BranchName    *string   `json:"branchName"`
	QualityChecks *[]string `json:"qualityChecks"`
}

// CreatePRD stores a new, empty PRD.
func (s *Service) CreatePRD(req CreatePRDRequest) (*story.PRD, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	now := s.now()
	prd := &story.PRD{
		ID:            story.NewID("prd"),
		WorkspacePath: req.WorkspacePath,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		BranchName:    req.BranchName,
		QualityChecks: nonBlank(req.QualityChecks),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.InsertPRD(prd); err != nil {
		return nil, err
	}
	prd.Stories = []story.Story{}
	slog.Info("prd created", "id", prd.ID, "name", prd.Name, "workspace", prd.WorkspacePath)
	return prd, nil
}

// GetPRD returns the PRD with its stories in sort order.
func (s *Service) GetPRD(id string) (*story.PRD, error) {
	prd, err := s.store.GetPRD(id)
	if err != nil {
		return nil, storeErr(err, "prd", id)
	}
	if prd.Stories, err = s.store.ListStories(id); err != nil {
		return nil, err
	}
	return prd, nil
}

// ListPRDs returns the workspace's PRDs without their stories.
func (s *Service) ListPRDs(workspace string) ([]story.PRD, error) {
	return s.store.ListPRDs(workspace)
}

// UpdatePRD applies a partial update and returns the PRD with its stories.
func (s *Service) UpdatePRD(id string, req UpdatePRDRequest) (*story.PRD, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	prd, err := s.store.GetPRD(id)
	if err != nil {
		return nil, storeErr(err, "prd", id)
	}
	if req.Name != nil {
		prd.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		prd.Description = *req.Description
	}
	if req.BranchName != nil {
		prd.BranchName = *req.BranchName
	}
	if req.QualityChecks != nil {
		prd.QualityChecks = nonBlank(*req.QualityChecks)
	}
	prd.UpdatedAt = s.now()
	if err := s.store.UpdatePRD(prd); err != nil {
		return nil, storeErr(err, "prd", id)
	}
	return s.GetPRD(id)
}

// DeletePRD removes the PRD and, by cascade, its stories.
func (s *Service) DeletePRD(id string) error {
	if err := s.store.DeletePRD(id); err != nil {
		return storeErr(err, "prd", id)
	}
	slog.Info("prd deleted", "id", id)
	return nil
}

// prdReader is satisfied by both the store and a transaction.
type prdReader interface {
	GetPRD(id string) (*story.PRD, error)
}

// scopeContext returns the name and description used as project context
// for a story: its PRD's, or the workspace path for standalone stories.
func scopeContext(r prdReader, st *story.Story) (string, string, error) {
	if st.Standalone() {
		return st.WorkspacePath, "", nil
	}
	prd, err := r.GetPRD(st.PRDID)
	if err != nil {
		return "", "", storeErr(err, "prd", st.PRDID)
	}
	return prd.Name, prd.Description, nil
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
