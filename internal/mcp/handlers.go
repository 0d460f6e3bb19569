package mcp

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/josephgoksu/StoryWing/internal/story"
	"github.com/josephgoksu/StoryWing/internal/workflow"
)

// Handlers serves tool calls for one workspace.
type Handlers struct {
	svc       *workflow.Service
	workspace string
}

func NewHandlers(svc *workflow.Service, workspace string) *Handlers {
	return &Handlers{svc: svc, workspace: workspace}
}

// HandleStoryTool routes a story tool call by action.
func (h *Handlers) HandleStoryTool(params StoryToolParams) (*ToolResult, error) {
	action := string(params.Action)
	if !params.Action.IsValid() {
		return &ToolResult{
			Action: action,
			Error:  fmt.Sprintf("invalid action %q, must be one of: %s", params.Action, joinActions()),
		}, nil
	}
	if params.Action == StoryActionNext {
		return h.storyNext(params)
	}

	id := strings.TrimSpace(params.StoryID)
	if id == "" {
		return &ToolResult{Action: action, Error: FormatValidationError("story_id", "required for "+action)}, nil
	}

	var (
		st  *story.Story
		err error
	)
	switch params.Action {
	case StoryActionGet:
		st, err = h.svc.GetStory(id)
	case StoryActionStart:
		st, err = h.svc.SetStatus(id, string(story.StatusInProgress))
	case StoryActionComplete:
		st, err = h.svc.SetStatus(id, string(story.StatusCompleted))
	case StoryActionLearn:
		if strings.TrimSpace(params.Learning) == "" {
			return &ToolResult{Action: action, Error: FormatValidationError("learning", "required for learn")}, nil
		}
		st, err = h.svc.AddLearning(id, params.Learning)
	case StoryActionAttempt:
		st, err = h.svc.RecordAttempt(id)
	case StoryActionCriterion:
		if params.CriterionID == "" {
			return &ToolResult{Action: action, Error: FormatValidationError("criterion_id", "required for criterion")}, nil
		}
		passed := params.Passed == nil || *params.Passed
		st, err = h.svc.SetCriterionPassed(id, params.CriterionID, passed)
	}
	if err != nil {
		return failure(action, err)
	}
	slog.Debug("mcp story action", "action", action, "story", id)
	return &ToolResult{Action: action, Content: FormatStory(st)}, nil
}

func (h *Handlers) storyNext(params StoryToolParams) (*ToolResult, error) {
	action := string(StoryActionNext)
	if strings.TrimSpace(params.PRDID) == "" {
		return &ToolResult{Action: action, Error: FormatValidationError("prd_id", "required for next")}, nil
	}
	st, err := h.svc.NextStory(params.PRDID)
	if err != nil {
		return failure(action, err)
	}
	if st == nil {
		return &ToolResult{Action: action, Content: "No ready stories. Every story is completed or blocked by a dependency."}, nil
	}
	return &ToolResult{Action: action, Content: FormatStory(st)}, nil
}

// HandlePRDTool routes a prd tool call by action.
func (h *Handlers) HandlePRDTool(params PRDToolParams) (*ToolResult, error) {
	action := string(params.Action)
	switch params.Action {
	case PRDActionList:
		ws := params.Workspace
		if ws == "" {
			ws = h.workspace
		}
		prds, err := h.svc.ListPRDs(ws)
		if err != nil {
			return failure(action, err)
		}
		return &ToolResult{Action: action, Content: FormatPRDList(prds)}, nil
	case PRDActionGet:
		if strings.TrimSpace(params.PRDID) == "" {
			return &ToolResult{Action: action, Error: FormatValidationError("prd_id", "required for get")}, nil
		}
		prd, err := h.svc.GetPRD(params.PRDID)
		if err != nil {
			return failure(action, err)
		}
		return &ToolResult{Action: action, Content: FormatPRD(prd)}, nil
	default:
		return &ToolResult{
			Action: action,
			Error:  fmt.Sprintf("invalid action %q, must be one of: list, get", params.Action),
		}, nil
	}
}

// HandleRemember stores a workspace convention for later prompts.
func (h *Handlers) HandleRemember(params RememberParams) (*ToolResult, error) {
	e, err := h.svc.AddMemory(workflow.MemoryRequest{
		WorkspacePath: h.workspace,
		Category:      params.Category,
		Key:           params.Key,
		Content:       params.Content,
	})
	if err != nil {
		return failure("remember", err)
	}
	return &ToolResult{Action: "remember", Content: fmt.Sprintf("Remembered %s.", e.ID)}, nil
}

// failure turns workflow errors into agent-facing messages. Anything else
// is returned as a Go error.
func failure(action string, err error) (*ToolResult, error) {
	var we *workflow.Error
	if errors.As(err, &we) && we.Kind != workflow.KindInternal {
		return &ToolResult{Action: action, Error: FormatError(we.Message)}, nil
	}
	return nil, fmt.Errorf("%s: %w", action, err)
}

func joinActions() string {
	names := make([]string, 0, len(ValidStoryActions()))
	for _, a := range ValidStoryActions() {
		names = append(names, string(a))
	}
	return strings.Join(names, ", ")
}
