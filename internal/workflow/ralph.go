package workflow

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/josephgoksu/StoryWing/internal/memory"
	"github.com/josephgoksu/StoryWing/internal/ralph"
	"github.com/josephgoksu/StoryWing/internal/story"
)

// ImportRalph creates a PRD and its stories from a Ralph document in one
// transaction.
func (s *Service) ImportRalph(workspace string, doc ralph.Document) (*story.PRD, error) {
	if strings.TrimSpace(workspace) == "" {
		return nil, InvalidRequest("workspacePath is required")
	}
	prd, stories, err := ralph.ToPRD(doc, workspace, s.now())
	if errors.Is(err, ralph.ErrDependencyCycle) {
		return nil, InvalidRequest("%v", err)
	}
	if err != nil {
		return nil, err
	}
	err = s.store.WithTx(func(tx *memory.Tx) error {
		if err := tx.InsertPRD(&prd); err != nil {
			return err
		}
		for i := range stories {
			if err := tx.InsertStory(&stories[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	prd.Stories = stories
	slog.Info("ralph document imported", "prd", prd.ID, "project", prd.Name, "stories", len(stories))
	return &prd, nil
}

// ExportRalph renders a PRD as a Ralph document with stories numbered in
// sort order.
func (s *Service) ExportRalph(prdID string) (*ralph.Document, error) {
	prd, err := s.GetPRD(prdID)
	if err != nil {
		return nil, err
	}
	doc := ralph.FromPRD(*prd, prd.Stories)
	return &doc, nil
}

// SyncResult counts what SyncRalph changed.
type SyncResult struct {
	Completed int `json:"completed"`
	Reopened  int `json:"reopened"`
	Learnings int `json:"learnings"`
	Unmatched int `json:"unmatched"`
}

// Changed reports whether any story was updated.
func (r SyncResult) Changed() bool {
	return r.Completed+r.Reopened+r.Learnings > 0
}

// SyncRalph pulls progress from a Ralph document that an agent has been
// editing back into the PRD. Stories are matched by their exported id
// (US-001 is the first story in sort order), then by title. Only status,
// criteria and learnings change.
func (s *Service) SyncRalph(prdID string, doc ralph.Document) (*SyncResult, error) {
	res := &SyncResult{}
	err := s.store.WithTx(func(tx *memory.Tx) error {
		if _, err := tx.GetPRD(prdID); err != nil {
			return storeErr(err, "prd", prdID)
		}
		stories, err := tx.ListStories(prdID)
		if err != nil {
			return err
		}
		byExt := make(map[string]int, len(stories))
		byTitle := make(map[string]int, len(stories))
		for i, st := range stories {
			byExt[ralph.ExternalID(i)] = i
			byTitle[strings.ToLower(strings.TrimSpace(st.Title))] = i
		}

		now := s.now()
		changed := false
		for _, us := range doc.UserStories {
			i, ok := byExt[us.ID]
			if !ok {
				i, ok = byTitle[strings.ToLower(strings.TrimSpace(us.Title))]
			}
			if !ok {
				res.Unmatched++
				continue
			}
			st := &stories[i]
			if !applyRalphProgress(st, us, res) {
				continue
			}
			st.UpdatedAt = now
			if err := tx.UpdateStory(st); err != nil {
				return storeErr(err, "story", st.ID)
			}
			changed = true
		}
		if !changed {
			return nil
		}
		return storeErr(tx.TouchPRD(prdID, now), "prd", prdID)
	})
	if err != nil {
		return nil, err
	}
	if res.Changed() {
		slog.Info("ralph progress synced", "prd", prdID, "completed", res.Completed,
			"reopened", res.Reopened, "learnings", res.Learnings, "unmatched", res.Unmatched)
	}
	return res, nil
}

func applyRalphProgress(st *story.Story, us ralph.UserStory, res *SyncResult) bool {
	changed := false
	switch {
	case us.Passes && st.Status != story.StatusCompleted:
		st.Status = story.StatusCompleted
		for j := range st.AcceptanceCriteria {
			st.AcceptanceCriteria[j].Passed = true
		}
		res.Completed++
		changed = true
	case !us.Passes && st.Status == story.StatusCompleted:
		st.Status = story.StatusPending
		res.Reopened++
		changed = true
	}

	seen := make(map[string]bool, len(st.Learnings))
	for _, l := range st.Learnings {
		seen[l] = true
	}
	for _, line := range strings.Split(us.Notes, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		st.Learnings = append(st.Learnings, line)
		res.Learnings++
		changed = true
	}
	return changed
}
