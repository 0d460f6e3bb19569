package server

import "github.com/josephgoksu/StoryWing/internal/ralph"

// ReorderRequest is the payload for /api/prds/{id}/reorder
type ReorderRequest struct {
	StoryIDs []string `json:"storyIds"`
}

// StatusRequest is the payload for /api/stories/{id}/status
type StatusRequest struct {
	Status string `json:"status"`
}

// CriterionRequest is the payload for /api/stories/{id}/criteria/{criterionId}
type CriterionRequest struct {
	Passed bool `json:"passed"`
}

// LearningRequest is the payload for /api/stories/{id}/learnings
type LearningRequest struct {
	Learning string `json:"learning"`
}

// RalphImportRequest is the payload for /api/ralph/import
type RalphImportRequest struct {
	WorkspacePath string         `json:"workspacePath"`
	Document      ralph.Document `json:"document"`
}
