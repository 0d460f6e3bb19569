// Package generate turns a PRD description into draft user stories via the
// completion service and normalizes the drafts with the same rules used
// for manually created stories.
package generate

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/josephgoksu/StoryWing/internal/story"
	"github.com/josephgoksu/StoryWing/internal/utils"
)

// MinCriteria is the number of acceptance criteria every generated story
// ends up with at least.
const MinCriteria = 3

// DefaultCount is the story count requested when the caller gives no hint.
const DefaultCount = 5

// Story is a normalized draft awaiting acceptance.
type Story struct {
	Title              string         `json:"title" validate:"required,nonempty"`
	Description        string         `json:"description"`
	AcceptanceCriteria []string       `json:"acceptanceCriteria"`
	Priority           story.Priority `json:"priority" validate:"priority"`
}

// RawStory is a draft as the completion service returns it.
type RawStory struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	Priority           string   `json:"priority"`
}

// RawResponse accepts {"stories": [...]} or a bare array.
type RawResponse struct {
	Stories []RawStory `json:"stories"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawResponse) UnmarshalJSON(data []byte) error {
	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		return json.Unmarshal(data, &r.Stories)
	}
	var wrapped struct {
		Stories []RawStory `json:"stories"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("decode generated stories: %w", err)
	}
	r.Stories = wrapped.Stories
	return nil
}

// ResolveDescription picks the override when it is non-blank, else the PRD
// description. ok is false when neither is usable.
func ResolveDescription(override, prdDescription string) (string, bool) {
	if d := strings.TrimSpace(override); d != "" {
		return d, true
	}
	if d := strings.TrimSpace(prdDescription); d != "" {
		return d, true
	}
	return "", false
}

// PadCriteria drops blank criteria and appends numbered placeholders until
// at least min remain. Supplied criteria keep their order and come first.
func PadCriteria(criteria []string, min int) []string {
	out := make([]string, 0, max(len(criteria), min))
	for _, c := range criteria {
		if t := strings.TrimSpace(c); t != "" {
			out = append(out, t)
		}
	}
	for len(out) < min {
		out = append(out, fmt.Sprintf("Needs acceptance criterion %d", len(out)+1))
	}
	return out
}

// Normalize applies story-creation rules to every draft. Drafts without a
// title are dropped; skipped reports how many.
func Normalize(raw []RawStory) (stories []Story, skipped int) {
	stories = make([]Story, 0, len(raw))
	for _, r := range raw {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			skipped++
			continue
		}
		stories = append(stories, Story{
			Title:              title,
			Description:        strings.TrimSpace(r.Description),
			AcceptanceCriteria: PadCriteria(r.AcceptanceCriteria, MinCriteria),
			Priority:           story.NormalizePriority(r.Priority, story.PriorityMedium),
		})
	}
	return stories, skipped
}

// PromptInput carries the context for a generation request.
type PromptInput struct {
	PRDName       string
	Description   string
	Count         int
	Existing      []story.Story
	Memories      []story.MemoryEntry
	MinConfidence float64
}

// BuildPrompt returns the system and user prompts. Existing story titles are
// listed so the service avoids duplicates.
func BuildPrompt(in PromptInput) (string, string, error) {
	if in.Count <= 0 {
		in.Count = DefaultCount
	}
	minConf := in.MinConfidence
	if minConf <= 0 {
		minConf = story.DefaultMemoryConfidence
	}
	in.Memories = story.FilterMemories(in.Memories, minConf)

	user, err := utils.RenderTemplate(userTemplate, in)
	if err != nil {
		return "", "", err
	}
	return systemPrompt, user, nil
}

const systemPrompt = `You are a product manager splitting a product requirements document into user stories.

Write small, independently deliverable stories. Each story needs a short title, a description in "As a <user>, I want <goal> so that <benefit>" form, at least 3 specific and testable acceptance criteria, and a priority.

Output ONLY valid JSON with this schema:
{
  "stories": [
    {
      "title": "string",
      "description": "string",
      "acceptanceCriteria": ["string"],
      "priority": "low|medium|high|critical"
    }
  ]
}`

var userTemplate = template.Must(template.New("generate").Parse(`PRD: {{.PRDName}}

DESCRIPTION:
{{.Description}}
{{if .Existing}}
EXISTING STORIES (do not duplicate):
{{range .Existing}}- {{.Title}}
{{end}}{{end}}{{if .Memories}}
PROJECT CONVENTIONS:
{{range .Memories}}- [{{.Category}}] {{.Key}}: {{.Content}}
{{end}}{{end}}
Generate about {{.Count}} new stories now:`))
