package workflow

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/josephgoksu/StoryWing/internal/memory"
	"github.com/josephgoksu/StoryWing/internal/story"
)

// CreateStoryRequest is the input to CreateStory. Either PRDID or
// WorkspacePath must be set; a story without a PRD is standalone.
type CreateStoryRequest struct {
	PRDID              string             `json:"prdId"`
	WorkspacePath      string             `json:"workspacePath"`
	Title              string             `json:"title" validate:"required,nonempty,max=300"`
	Description        string             `json:"description"`
	Priority           string             `json:"priority" validate:"priority"`
	AcceptanceCriteria []string           `json:"acceptanceCriteria"`
	MaxAttempts        int                `json:"maxAttempts" validate:"gte=0,lte=100"`
	ExternalRef        *story.ExternalRef `json:"externalRef"`
}

// UpdateStoryRequest changes the fields that are non-nil.
type UpdateStoryRequest struct {
	Title              *string            `json:"title" validate:"omitempty,nonempty,max=300"`
	Description        *string            `json:"description"`
	Priority           *string            `json:"priority" validate:"omitempty,priority"`
	AcceptanceCriteria *[]string          `json:"acceptanceCriteria"`
	MaxAttempts        *int               `json:"maxAttempts" validate:"omitempty,gte=0,lte=100"`
	ExternalRef        *story.ExternalRef `json:"externalRef"`
}

// draft is a story's content before it has an id or position.
type draft struct {
	Title       string
	Description string
	Criteria    []string
	Priority    story.Priority
	MaxAttempts int
	ExternalRef *story.ExternalRef
}

// CreateStory appends a story at the end of its scope.
func (s *Service) CreateStory(req CreateStoryRequest) (*story.Story, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.PRDID == "" && strings.TrimSpace(req.WorkspacePath) == "" {
		return nil, InvalidRequest("either prdId or workspacePath is required")
	}
	priority := story.PriorityMedium
	if req.Priority != "" {
		priority, _ = story.ParsePriority(req.Priority)
	}

	var created []story.Story
	err := s.store.WithTx(func(tx *memory.Tx) error {
		var err error
		created, err = s.appendStories(tx, req.PRDID, req.WorkspacePath, []draft{{
			Title:       req.Title,
			Description: req.Description,
			Criteria:    nonBlank(req.AcceptanceCriteria),
			Priority:    priority,
			MaxAttempts: req.MaxAttempts,
			ExternalRef: req.ExternalRef,
		}})
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("story created", "id", created[0].ID, "prd", created[0].PRDID, "sortOrder", created[0].SortOrder)
	return &created[0], nil
}

// appendStories inserts drafts after the current last story of the scope,
// with contiguous sort orders, and touches the PRD. A non-empty prdID must
// name an existing PRD, whose workspace then wins over workspace.
func (s *Service) appendStories(tx *memory.Tx, prdID, workspace string, drafts []draft) ([]story.Story, error) {
	if prdID != "" {
		prd, err := tx.GetPRD(prdID)
		if err != nil {
			return nil, storeErr(err, "prd", prdID)
		}
		workspace = prd.WorkspacePath
	}
	next, err := tx.NextSortOrder(prdID, workspace)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]story.Story, 0, len(drafts))
	for i, d := range drafts {
		maxAttempts := d.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = story.DefaultMaxAttempts
		}
		st := story.Story{
			ID:                 story.NewID("story"),
			PRDID:              prdID,
			WorkspacePath:      workspace,
			Title:              strings.TrimSpace(d.Title),
			Description:        d.Description,
			Priority:           d.Priority,
			Status:             story.StatusPending,
			AcceptanceCriteria: story.NewCriteria(d.Criteria),
			DependsOn:          []string{},
			DependencyReasons:  map[string]string{},
			SortOrder:          next + i,
			MaxAttempts:        maxAttempts,
			Learnings:          []string{},
			ExternalRef:        d.ExternalRef,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := tx.InsertStory(&st); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if prdID != "" {
		if err := tx.TouchPRD(prdID, now); err != nil {
			return nil, storeErr(err, "prd", prdID)
		}
	}
	return out, nil
}

// GetStory returns one story.
func (s *Service) GetStory(id string) (*story.Story, error) {
	st, err := s.store.GetStory(id)
	if err != nil {
		return nil, storeErr(err, "story", id)
	}
	return st, nil
}

// ListStandaloneStories returns a workspace's stories that have no PRD.
func (s *Service) ListStandaloneStories(workspace string) ([]story.Story, error) {
	if strings.TrimSpace(workspace) == "" {
		return nil, InvalidRequest("workspacePath is required")
	}
	return s.store.ListStandaloneStories(workspace)
}

// NextStory returns the PRD's next ready story, or nil when every story is
// completed or blocked.
func (s *Service) NextStory(prdID string) (*story.Story, error) {
	if _, err := s.store.GetPRD(prdID); err != nil {
		return nil, storeErr(err, "prd", prdID)
	}
	stories, err := s.store.ListStories(prdID)
	if err != nil {
		return nil, err
	}
	next := story.NextReady(stories)
	if next == nil {
		return nil, nil
	}
	out := *next
	return &out, nil
}

// mutateStory loads a story inside a transaction, lets fn change it, then
// persists it and touches its PRD.
func (s *Service) mutateStory(id string, fn func(tx *memory.Tx, st *story.Story) error) (*story.Story, error) {
	var out *story.Story
	err := s.store.WithTx(func(tx *memory.Tx) error {
		st, err := tx.GetStory(id)
		if err != nil {
			return storeErr(err, "story", id)
		}
		if err := fn(tx, st); err != nil {
			return err
		}
		st.UpdatedAt = s.now()
		if err := tx.UpdateStory(st); err != nil {
			return storeErr(err, "story", id)
		}
		out = st
		return s.touchParent(tx, st)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStory applies a partial update. A priority change clears the
// recommendations of the story's graph neighbors.
func (s *Service) UpdateStory(id string, req UpdateStoryRequest) (*story.Story, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.mutateStory(id, func(tx *memory.Tx, st *story.Story) error {
		if req.Title != nil {
			st.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			st.Description = *req.Description
		}
		if req.AcceptanceCriteria != nil {
			st.AcceptanceCriteria = replaceCriteria(st.AcceptanceCriteria, nonBlank(*req.AcceptanceCriteria))
		}
		if req.MaxAttempts != nil {
			st.MaxAttempts = *req.MaxAttempts
			if st.MaxAttempts == 0 {
				st.MaxAttempts = story.DefaultMaxAttempts
			}
		}
		if req.ExternalRef != nil {
			st.ExternalRef = req.ExternalRef
		}
		if req.Priority != nil {
			if p, ok := story.ParsePriority(*req.Priority); ok && p != st.Priority {
				st.Priority = p
				return s.invalidateNeighbors(tx, st)
			}
		}
		return nil
	})
}

// invalidateNeighbors clears the recommendations of the stories around st
// after its priority changed. st's own recommendation is left alone.
func (s *Service) invalidateNeighbors(tx *memory.Tx, st *story.Story) error {
	scope, err := tx.ListScope(st)
	if err != nil {
		return err
	}
	// scope holds the stored edges; st may carry unsaved ones.
	for i := range scope {
		if scope[i].ID == st.ID {
			scope[i] = *st
		}
	}
	return s.invalidate(tx, story.PriorityChangeTargets(scope, st.ID), "priority")
}

// replaceCriteria builds the new criterion list, keeping the id and passed
// flag of any criterion whose text is unchanged.
func replaceCriteria(old []story.AcceptanceCriterion, texts []string) []story.AcceptanceCriterion {
	byText := make(map[string]story.AcceptanceCriterion, len(old))
	for _, c := range old {
		if _, dup := byText[c.Description]; !dup {
			byText[c.Description] = c
		}
	}
	fresh := story.NewCriteria(texts)
	for i, c := range fresh {
		if prev, ok := byText[c.Description]; ok {
			fresh[i] = prev
			delete(byText, c.Description)
		}
	}
	return fresh
}

// SetStatus moves a story through its lifecycle.
func (s *Service) SetStatus(id, status string) (*story.Story, error) {
	st, ok := story.ParseStatus(status)
	if !ok {
		return nil, InvalidRequest("invalid status %q", status)
	}
	return s.mutateStory(id, func(_ *memory.Tx, cur *story.Story) error {
		cur.Status = st
		return nil
	})
}

// SetCriterionPassed marks one acceptance criterion as passed or not.
func (s *Service) SetCriterionPassed(storyID, criterionID string, passed bool) (*story.Story, error) {
	return s.mutateStory(storyID, func(_ *memory.Tx, st *story.Story) error {
		for i := range st.AcceptanceCriteria {
			if st.AcceptanceCriteria[i].ID == criterionID {
				st.AcceptanceCriteria[i].Passed = passed
				return nil
			}
		}
		return NotFound("criterion", criterionID)
	})
}

// AddLearning appends a note captured while working the story.
func (s *Service) AddLearning(storyID, text string) (*story.Story, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, InvalidRequest("learning cannot be empty")
	}
	return s.mutateStory(storyID, func(_ *memory.Tx, st *story.Story) error {
		st.Learnings = append(st.Learnings, text)
		return nil
	})
}

// RecordAttempt counts one more implementation attempt. A pending story
// moves to in_progress. Attempts past MaxAttempts are recorded but logged.
func (s *Service) RecordAttempt(storyID string) (*story.Story, error) {
	return s.mutateStory(storyID, func(_ *memory.Tx, st *story.Story) error {
		st.Attempts++
		if st.Status == story.StatusPending {
			st.Status = story.StatusInProgress
		}
		if st.MaxAttempts > 0 && st.Attempts > st.MaxAttempts {
			slog.Warn("story exceeded max attempts", "id", st.ID, "attempts", st.Attempts, "max", st.MaxAttempts)
		}
		return nil
	})
}

// DeleteStory removes a story. Edges pointing at it are stripped from the
// rest of the scope, those stories lose their recommendation, and the
// remaining sort orders are made dense again.
func (s *Service) DeleteStory(id string) error {
	return s.store.WithTx(func(tx *memory.Tx) error {
		st, err := tx.GetStory(id)
		if err != nil {
			return storeErr(err, "story", id)
		}
		scope, err := tx.ListScope(st)
		if err != nil {
			return err
		}
		if err := tx.DeleteStory(id); err != nil {
			return storeErr(err, "story", id)
		}

		rest := story.Siblings(scope, id)
		changed := story.RemoveEdgesTo(rest, id)
		now := s.now()
		for i := range rest {
			if slices.Contains(changed, rest[i].ID) {
				rest[i].UpdatedAt = now
				if err := tx.UpdateStory(&rest[i]); err != nil {
					return err
				}
			}
		}
		if err := s.invalidate(tx, changed, "delete"); err != nil {
			return err
		}
		if err := densify(tx, rest, now); err != nil {
			return err
		}
		slog.Info("story deleted", "id", id, "edgesRemoved", len(changed))
		return s.touchParent(tx, st)
	})
}

// ReorderStories rewrites a PRD's sort order to follow ids, which must
// name every story of the PRD exactly once.
func (s *Service) ReorderStories(prdID string, ids []string) ([]story.Story, error) {
	var out []story.Story
	err := s.store.WithTx(func(tx *memory.Tx) error {
		if _, err := tx.GetPRD(prdID); err != nil {
			return storeErr(err, "prd", prdID)
		}
		current, err := tx.ListStories(prdID)
		if err != nil {
			return err
		}
		if len(ids) != len(current) {
			return InvalidRequest("reorder needs all %d story ids, got %d", len(current), len(ids))
		}
		byID := make(map[string]story.Story, len(current))
		for _, st := range current {
			byID[st.ID] = st
		}
		ordered := make([]story.Story, 0, len(ids))
		for _, id := range ids {
			st, ok := byID[id]
			if !ok {
				return InvalidRequest("story %s is not in prd %s or is listed twice", id, prdID)
			}
			delete(byID, id)
			ordered = append(ordered, st)
		}
		now := s.now()
		if err := densify(tx, ordered, now); err != nil {
			return err
		}
		out = ordered
		return tx.TouchPRD(prdID, now)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// densify assigns sort orders 0..n-1 following the slice order, writing
// only the stories whose position changed.
func densify(tx *memory.Tx, stories []story.Story, now time.Time) error {
	for i := range stories {
		if stories[i].SortOrder == i {
			continue
		}
		if err := tx.SetSortOrder(stories[i].ID, i, now); err != nil {
			return err
		}
		stories[i].SortOrder = i
		stories[i].UpdatedAt = now
	}
	return nil
}
