// Package ralph maps PRDs to and from the Ralph prd.json interchange format,
// which uses numeric priorities (1 = most urgent) and a boolean passes flag
// in place of a status.
package ralph

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/josephgoksu/StoryWing/internal/story"
)

// DefaultFileName is the conventional Ralph document name.
const DefaultFileName = "prd.json"

// ErrDependencyCycle is returned by ToPRD when dependsOn entries form a cycle.
var ErrDependencyCycle = errors.New("dependency cycle")

// Document is a Ralph prd.json file.
type Document struct {
	Project     string      `json:"project"`
	BranchName  string      `json:"branchName"`
	Description string      `json:"description"`
	UserStories []UserStory `json:"userStories"`
}

// UserStory is a single story in a Ralph document.
type UserStory struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	Priority           int      `json:"priority"`
	Passes             bool     `json:"passes"`
	Notes              string   `json:"notes"`
	DependsOn          []string `json:"dependsOn,omitempty"`
}

var numberToPriority = map[int]story.Priority{
	1: story.PriorityCritical,
	2: story.PriorityHigh,
	3: story.PriorityMedium,
	4: story.PriorityLow,
}

// PriorityFromNumber maps 1..4 to critical..low. Anything else is medium.
func PriorityFromNumber(n int) story.Priority {
	if p, ok := numberToPriority[n]; ok {
		return p
	}
	return story.PriorityMedium
}

// PriorityToNumber is the inverse of PriorityFromNumber.
func PriorityToNumber(p story.Priority) int {
	for n, v := range numberToPriority {
		if v == p {
			return n
		}
	}
	return 3
}

// StatusFromPasses maps passes to completed, otherwise pending.
func StatusFromPasses(passes bool) story.Status {
	if passes {
		return story.StatusCompleted
	}
	return story.StatusPending
}

// ExternalID returns the zero-padded id for the story at index i.
func ExternalID(i int) string {
	return fmt.Sprintf("US-%03d", i+1)
}

// ToPRD converts a document into a new PRD and its stories. Fresh ids are
// assigned, and dependsOn entries are rewritten from external ids to the
// new ids. Unknown or self references are dropped; an edge that closes a
// cycle fails the whole conversion with ErrDependencyCycle.
func ToPRD(doc Document, workspace string, now time.Time) (story.PRD, []story.Story, error) {
	prd := story.PRD{
		ID:            story.NewID("prd"),
		WorkspacePath: workspace,
		Name:          strings.TrimSpace(doc.Project),
		Description:   doc.Description,
		BranchName:    doc.BranchName,
		QualityChecks: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if prd.Name == "" {
		prd.Name = "Imported PRD"
	}

	idMap := make(map[string]string, len(doc.UserStories))
	stories := make([]story.Story, 0, len(doc.UserStories))
	for i, us := range doc.UserStories {
		s := story.Story{
			ID:                 story.NewID("story"),
			PRDID:              prd.ID,
			WorkspacePath:      workspace,
			Title:              strings.TrimSpace(us.Title),
			Description:        us.Description,
			Priority:           PriorityFromNumber(us.Priority),
			Status:             StatusFromPasses(us.Passes),
			AcceptanceCriteria: story.NewCriteria(nonBlank(us.AcceptanceCriteria)),
			DependsOn:          []string{},
			DependencyReasons:  map[string]string{},
			SortOrder:          i,
			MaxAttempts:        story.DefaultMaxAttempts,
			Learnings:          []string{},
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if us.Passes {
			for j := range s.AcceptanceCriteria {
				s.AcceptanceCriteria[j].Passed = true
			}
		}
		if n := strings.TrimSpace(us.Notes); n != "" {
			s.Learnings = append(s.Learnings, n)
		}
		if s.Title == "" {
			s.Title = ExternalID(i)
		}
		if us.ID != "" {
			idMap[us.ID] = s.ID
		}
		stories = append(stories, s)
	}

	for i, us := range doc.UserStories {
		for _, ext := range us.DependsOn {
			target, ok := idMap[ext]
			if !ok || target == stories[i].ID || stories[i].HasDependency(target) {
				continue
			}
			if story.WouldCycle(stories, stories[i].ID, target) {
				from := us.ID
				if from == "" {
					from = ExternalID(i)
				}
				return story.PRD{}, nil, fmt.Errorf("%w: %s depends on %s", ErrDependencyCycle, from, ext)
			}
			stories[i].DependsOn = append(stories[i].DependsOn, target)
		}
	}
	return prd, stories, nil
}

// FromPRD converts a PRD and its stories into a document. Stories are
// numbered by sort order.
func FromPRD(prd story.PRD, stories []story.Story) Document {
	ordered := make([]story.Story, len(stories))
	copy(ordered, stories)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SortOrder < ordered[j].SortOrder })

	extIDs := make(map[string]string, len(ordered))
	for i, s := range ordered {
		extIDs[s.ID] = ExternalID(i)
	}

	doc := Document{
		Project:     prd.Name,
		BranchName:  prd.BranchName,
		Description: prd.Description,
		UserStories: make([]UserStory, 0, len(ordered)),
	}
	for i, s := range ordered {
		us := UserStory{
			ID:                 ExternalID(i),
			Title:              s.Title,
			Description:        s.Description,
			AcceptanceCriteria: s.CriteriaText(),
			Priority:           PriorityToNumber(s.Priority),
			Passes:             s.Status == story.StatusCompleted,
			Notes:              strings.Join(s.Learnings, "\n"),
		}
		for _, dep := range s.DependsOn {
			if ext, ok := extIDs[dep]; ok {
				us.DependsOn = append(us.DependsOn, ext)
			}
		}
		doc.UserStories = append(doc.UserStories, us)
	}
	return doc
}

// Parse decodes a document from JSON.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse ralph document: %w", err)
	}
	return &doc, nil
}

// Load reads a document from fs. A directory path resolves to prd.json
// inside it.
func Load(fs afero.Fs, path string) (*Document, error) {
	if info, err := fs.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFileName)
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Save writes doc to path on fs, creating parent directories.
func Save(fs afero.Fs, path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ralph document: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
