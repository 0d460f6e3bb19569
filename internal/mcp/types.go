// Package mcp exposes PRDs and stories as MCP tools so a coding agent can
// drive a Ralph loop against the local store.
package mcp

// StoryAction selects what the story tool does.
type StoryAction string

const (
	StoryActionNext      StoryAction = "next"
	StoryActionGet       StoryAction = "get"
	StoryActionStart     StoryAction = "start"
	StoryActionComplete  StoryAction = "complete"
	StoryActionLearn     StoryAction = "learn"
	StoryActionAttempt   StoryAction = "attempt"
	StoryActionCriterion StoryAction = "criterion"
)

// ValidStoryActions returns all story actions.
func ValidStoryActions() []StoryAction {
	return []StoryAction{
		StoryActionNext, StoryActionGet, StoryActionStart, StoryActionComplete,
		StoryActionLearn, StoryActionAttempt, StoryActionCriterion,
	}
}

func (a StoryAction) IsValid() bool {
	for _, v := range ValidStoryActions() {
		if a == v {
			return true
		}
	}
	return false
}

// PRDAction selects what the prd tool does.
type PRDAction string

const (
	PRDActionList PRDAction = "list"
	PRDActionGet  PRDAction = "get"
)

func (a PRDAction) IsValid() bool {
	return a == PRDActionList || a == PRDActionGet
}

// StoryToolParams is the input of the story tool.
type StoryToolParams struct {
	// Action is required. One of: next, get, start, complete, learn, attempt, criterion.
	Action StoryAction `json:"action"`

	// PRDID is required for next.
	PRDID string `json:"prd_id,omitempty"`

	// StoryID is required for every action except next.
	StoryID string `json:"story_id,omitempty"`

	// Learning is the note recorded by learn.
	Learning string `json:"learning,omitempty"`

	// CriterionID and Passed are used by criterion. Passed defaults to true.
	CriterionID string `json:"criterion_id,omitempty"`
	Passed      *bool  `json:"passed,omitempty"`
}

// PRDToolParams is the input of the prd tool.
type PRDToolParams struct {
	// Action is required. One of: list, get.
	Action PRDAction `json:"action"`

	// Workspace scopes list. Empty uses the server's workspace.
	Workspace string `json:"workspace,omitempty"`

	// PRDID is required for get.
	PRDID string `json:"prd_id,omitempty"`
}

// RememberParams is the input of the remember tool.
type RememberParams struct {
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
	Key      string `json:"key,omitempty"`
}

// ToolResult is what every handler returns. Error is set instead of a Go
// error for failures the agent can act on.
type ToolResult struct {
	Action  string `json:"action"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}
