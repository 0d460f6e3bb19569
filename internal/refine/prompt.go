package refine

import (
	"text/template"

	"github.com/josephgoksu/StoryWing/internal/story"
	"github.com/josephgoksu/StoryWing/internal/utils"
)

// PromptInput carries the context for one refinement request.
type PromptInput struct {
	PRDName        string
	PRDDescription string
	Story          story.Story
	Siblings       []story.Story
	Memories       []story.MemoryEntry
	Answers        []Answer
	MinConfidence  float64
}

// BuildPrompt returns the system and user prompts. Siblings are filtered to
// exclude the target story, and memories below the confidence floor are
// dropped.
func BuildPrompt(in PromptInput) (string, string, error) {
	minConf := in.MinConfidence
	if minConf <= 0 {
		minConf = story.DefaultMemoryConfidence
	}
	data := struct {
		PromptInput
		Criteria []string
	}{in, in.Story.CriteriaText()}
	data.Siblings = story.Siblings(in.Siblings, in.Story.ID)
	data.Memories = story.FilterMemories(in.Memories, minConf)

	user, err := utils.RenderTemplate(userTemplate, data)
	if err != nil {
		return "", "", err
	}
	return systemPrompt, user, nil
}

const systemPrompt = `You are a senior product manager reviewing a user story for implementation readiness.

Score the story from 0 to 100 on clarity, completeness and testability. A score of 80 or more means a developer could start work without asking anything.

If the score is below 80, ask up to 5 focused clarifying questions. Each question should explain in "context" why it matters and may offer "suggestedAnswers".

When answers are provided, rewrite the story to incorporate them and return it as "updatedStory". Keep acceptance criteria specific and verifiable.

Output ONLY valid JSON with this schema:
{
  "qualityScore": 0-100,
  "qualityExplanation": "string",
  "questions": [
    {"id": "string", "question": "string", "context": "string", "suggestedAnswers": ["string"]}
  ],
  "updatedStory": {
    "title": "string",
    "description": "string",
    "acceptanceCriteria": ["string"],
    "priority": "low|medium|high|critical"
  },
  "improvements": ["what changed and why"]
}
Omit "updatedStory" and "improvements" when no answers were provided.`

var userTemplate = template.Must(template.New("refine").Parse(`## PRD Context
Name: {{.PRDName}}
{{if .PRDDescription}}Description: {{.PRDDescription}}
{{end}}
## Story
Title: {{.Story.Title}}
Description: {{.Story.Description}}
Priority: {{.Story.Priority}}
Acceptance Criteria:
{{range .Criteria}}- {{.}}
{{else}}(none)
{{end}}{{if .Siblings}}
## Other Stories
{{range .Siblings}}- {{.Title}}: {{.Description}}
{{end}}{{end}}{{if .Memories}}
## Workspace Memory
{{range .Memories}}- [{{.Category}}] {{.Key}}: {{.Content}}
{{end}}{{end}}{{if .Answers}}
## Answers
{{range .Answers}}- {{.QuestionID}}: {{.Answer}}
{{end}}{{end}}`))
