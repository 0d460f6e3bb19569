// Package story defines the PRD and user story domain model along with the
// pure helpers (enum normalization, score clamping, dependency graph) that the
// workflow layer composes.
package story

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority is the urgency of a story.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every valid priority, least urgent first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Status represents the lifecycle state of a story.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDeleted    Status = "deleted"
)

// FactorCategory classifies what a priority factor is about.
type FactorCategory string

const (
	CategoryRisk       FactorCategory = "risk"
	CategoryDependency FactorCategory = "dependency"
	CategoryUserImpact FactorCategory = "user_impact"
	CategoryScope      FactorCategory = "scope"
)

// FactorImpact is the direction a factor pushes the result.
type FactorImpact string

const (
	ImpactIncreases FactorImpact = "increases"
	ImpactDecreases FactorImpact = "decreases"
	ImpactNeutral   FactorImpact = "neutral"
)

// FactorWeight is how strongly a factor counts.
type FactorWeight string

const (
	WeightMinor    FactorWeight = "minor"
	WeightModerate FactorWeight = "moderate"
	WeightMajor    FactorWeight = "major"
)

// EstimateSize is a t-shirt size for a story.
type EstimateSize string

const (
	SizeSmall  EstimateSize = "small"
	SizeMedium EstimateSize = "medium"
	SizeLarge  EstimateSize = "large"
	SizeXLarge EstimateSize = "xlarge"
)

// Confidence is a coarse confidence band.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// PRD is a named container of stories for a workspace.
type PRD struct {
	ID            string    `json:"id"`
	WorkspacePath string    `json:"workspacePath"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	BranchName    string    `json:"branchName,omitempty"`
	QualityChecks []string  `json:"qualityChecks"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// Loaded on demand, ordered by sort order.
	Stories []Story `json:"stories,omitempty"`
}

// AcceptanceCriterion is a single pass/fail condition on a story.
type AcceptanceCriterion struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
}

// Factor is one reason behind a priority recommendation or estimate.
type Factor struct {
	Factor   string         `json:"factor"`
	Category FactorCategory `json:"category,omitempty"`
	Impact   FactorImpact   `json:"impact"`
	Weight   FactorWeight   `json:"weight"`
}

// PriorityRecommendation is an AI-suggested priority. It is replaced
// wholesale or cleared, never partially updated.
type PriorityRecommendation struct {
	StoryID           string    `json:"storyId"`
	SuggestedPriority Priority  `json:"suggestedPriority"`
	CurrentPriority   Priority  `json:"currentPriority"`
	Confidence        int       `json:"confidence"`
	Factors           []Factor  `json:"factors"`
	Explanation       string    `json:"explanation"`
	IsManualOverride  bool      `json:"isManualOverride"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Estimate is a size/points estimate for a story.
type Estimate struct {
	Size             EstimateSize `json:"size"`
	StoryPoints      int          `json:"storyPoints"`
	Confidence       Confidence   `json:"confidence"`
	ConfidenceScore  int          `json:"confidenceScore"`
	Factors          []Factor     `json:"factors"`
	Reasoning        string       `json:"reasoning"`
	IsManualOverride bool         `json:"isManualOverride"`
}

// ExternalRef links a story to an issue tracker.
type ExternalRef struct {
	System string `json:"system"`
	Key    string `json:"key"`
	URL    string `json:"url,omitempty"`
}

// Story is a unit of work. PRDID is empty for standalone stories, which
// are owned only by their workspace path.
type Story struct {
	ID                     string                  `json:"id"`
	PRDID                  string                  `json:"prdId,omitempty"`
	WorkspacePath          string                  `json:"workspacePath"`
	Title                  string                  `json:"title"`
	Description            string                  `json:"description"`
	Priority               Priority                `json:"priority"`
	Status                 Status                  `json:"status"`
	AcceptanceCriteria     []AcceptanceCriterion   `json:"acceptanceCriteria"`
	DependsOn              []string                `json:"dependsOn"`
	DependencyReasons      map[string]string       `json:"dependencyReasons"`
	SortOrder              int                     `json:"sortOrder"`
	Attempts               int                     `json:"attempts"`
	MaxAttempts            int                     `json:"maxAttempts"`
	Learnings              []string                `json:"learnings"`
	PriorityRecommendation *PriorityRecommendation `json:"priorityRecommendation"`
	Estimate               *Estimate               `json:"estimate"`
	ExternalRef            *ExternalRef            `json:"externalRef,omitempty"`
	CreatedAt              time.Time               `json:"createdAt"`
	UpdatedAt              time.Time               `json:"updatedAt"`
}

// DefaultMaxAttempts is used when a story is created without a limit.
const DefaultMaxAttempts = 3

// Standalone reports whether the story has no owning PRD.
func (s *Story) Standalone() bool {
	return s.PRDID == ""
}

// CriteriaText returns the acceptance criterion descriptions in order.
func (s *Story) CriteriaText() []string {
	out := make([]string, 0, len(s.AcceptanceCriteria))
	for _, c := range s.AcceptanceCriteria {
		out = append(out, c.Description)
	}
	return out
}

// HasDependency reports whether the story already depends on id.
func (s *Story) HasDependency(id string) bool {
	for _, d := range s.DependsOn {
		if d == id {
			return true
		}
	}
	return false
}

// NewCriteria converts plain strings into fresh, unpassed criteria.
func NewCriteria(texts []string) []AcceptanceCriterion {
	out := make([]AcceptanceCriterion, 0, len(texts))
	for _, t := range texts {
		out = append(out, AcceptanceCriterion{
			ID:          NewID("ac"),
			Description: t,
		})
	}
	return out
}

// NewID returns a short prefixed identifier such as "story-1a2b3c4d".
func NewID(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

// ParsePriority validates a caller-supplied priority.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, true
	}
	return "", false
}

// ParseStatus validates a caller-supplied status.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusInProgress, StatusCompleted, StatusDeleted:
		return st, true
	}
	return "", false
}

// ParseSize validates a caller-supplied estimate size.
func ParseSize(s string) (EstimateSize, bool) {
	sz := EstimateSize(strings.ToLower(strings.TrimSpace(s)))
	switch sz {
	case SizeSmall, SizeMedium, SizeLarge, SizeXLarge:
		return sz, true
	}
	return "", false
}
