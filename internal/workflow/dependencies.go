package workflow

import (
	"log/slog"
	"strings"

	"github.com/josephgoksu/StoryWing/internal/memory"
	"github.com/josephgoksu/StoryWing/internal/story"
)

// AddDependencyRequest records that a story depends on another.
type AddDependencyRequest struct {
	DependsOn string `json:"dependsOn" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}

// AddDependency adds the edge storyID -> req.DependsOn. The target must be
// in the same PRD (or the same workspace for standalone stories) and the
// edge must not close a cycle. Both endpoints lose their recommendation.
// Adding an existing edge only updates its reason.
func (s *Service) AddDependency(storyID string, req AddDependencyRequest) (*story.Story, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	target := req.DependsOn
	if target == storyID {
		return nil, InvalidRequest("a story cannot depend on itself")
	}

	return s.mutateStory(storyID, func(tx *memory.Tx, st *story.Story) error {
		other, err := tx.GetStory(target)
		if err != nil {
			if e := storeErr(err, "story", target); KindOf(e) == KindNotFound {
				return InvalidRequest("dependency target %s does not exist", target)
			}
			return err
		}
		if other.PRDID != st.PRDID || (st.Standalone() && other.WorkspacePath != st.WorkspacePath) {
			return InvalidRequest("dependency target %s is outside the story's scope", target)
		}

		if !st.HasDependency(target) {
			scope, err := tx.ListScope(st)
			if err != nil {
				return err
			}
			if story.WouldCycle(scope, st.ID, target) {
				return InvalidRequest("depending on %s would create a cycle", target)
			}
			st.DependsOn = append(st.DependsOn, target)
		}
		if reason := strings.TrimSpace(req.Reason); reason != "" {
			st.DependencyReasons[target] = reason
		}
		st.PriorityRecommendation = nil
		slog.Debug("dependency added", "story", st.ID, "dependsOn", target)
		return s.invalidate(tx, story.DependencyChangeTargets(st.ID, target), "dependency")
	})
}

// RemoveDependency drops the edge storyID -> dependsOn and clears the
// recommendation on both endpoints.
func (s *Service) RemoveDependency(storyID, dependsOn string) (*story.Story, error) {
	return s.mutateStory(storyID, func(tx *memory.Tx, st *story.Story) error {
		if !st.HasDependency(dependsOn) {
			return NotFound("dependency", dependsOn)
		}
		kept := make([]string, 0, len(st.DependsOn)-1)
		for _, d := range st.DependsOn {
			if d != dependsOn {
				kept = append(kept, d)
			}
		}
		st.DependsOn = kept
		delete(st.DependencyReasons, dependsOn)
		st.PriorityRecommendation = nil
		slog.Debug("dependency removed", "story", st.ID, "dependsOn", dependsOn)
		return s.invalidate(tx, story.DependencyChangeTargets(st.ID, dependsOn), "dependency")
	})
}
