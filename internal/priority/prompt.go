package priority

import (
	"text/template"

	"github.com/josephgoksu/StoryWing/internal/story"
	"github.com/josephgoksu/StoryWing/internal/utils"
)

// Bundle is the context for a single-story recommendation.
type Bundle struct {
	ProjectName        string
	ProjectDescription string
	Story              story.Story
	// Blocks are the stories that depend on Story.
	Blocks []story.Story
	// Prerequisites are the stories Story depends on.
	Prerequisites []story.Story
}

// NewBundle derives the graph context for s from its scope's stories.
func NewBundle(name, description string, s story.Story, scope []story.Story) Bundle {
	b := Bundle{
		ProjectName:        name,
		ProjectDescription: description,
		Story:              s,
		Blocks:             story.Dependents(scope, s.ID),
	}
	for _, other := range scope {
		if s.HasDependency(other.ID) {
			b.Prerequisites = append(b.Prerequisites, other)
		}
	}
	return b
}

// BuildSinglePrompt returns prompts for one story.
func BuildSinglePrompt(b Bundle) (string, string, error) {
	data := struct {
		Bundle
		Criteria []string
	}{b, b.Story.CriteriaText()}
	user, err := utils.RenderTemplate(singleTemplate, data)
	if err != nil {
		return "", "", err
	}
	return singleSystemPrompt, user, nil
}

// BulkInput is the context for a whole-PRD recommendation.
type BulkInput struct {
	ProjectName        string
	ProjectDescription string
	Stories            []story.Story
}

type bulkStory struct {
	story.Story
	BlocksCount int
}

// BuildBulkPrompt returns prompts asking for one suggestion per story.
func BuildBulkPrompt(in BulkInput) (string, string, error) {
	rows := make([]bulkStory, 0, len(in.Stories))
	for _, s := range in.Stories {
		rows = append(rows, bulkStory{Story: s, BlocksCount: len(story.Dependents(in.Stories, s.ID))})
	}
	data := struct {
		BulkInput
		Rows []bulkStory
	}{in, rows}
	user, err := utils.RenderTemplate(bulkTemplate, data)
	if err != nil {
		return "", "", err
	}
	return bulkSystemPrompt, user, nil
}

const factorSchema = `{
      "factor": "short description",
      "category": "risk|dependency|user_impact|scope",
      "impact": "increases|decreases|neutral",
      "weight": "minor|moderate|major"
    }`

const singleSystemPrompt = `You are a delivery lead prioritizing a backlog.

Recommend a priority (low, medium, high, critical) for the story. Consider:
- risk: technical or business risk of delaying it
- dependency: how many stories it blocks and what it waits on
- user_impact: how many users benefit and how much
- scope: size and complexity

Output ONLY valid JSON with this schema:
{
  "suggestedPriority": "low|medium|high|critical",
  "confidence": 0-100,
  "factors": [
    ` + factorSchema + `
  ],
  "explanation": "one or two sentences"
}`

const bulkSystemPrompt = `You are a delivery lead prioritizing a backlog.

Recommend a priority (low, medium, high, critical) for EVERY story listed, weighing risk, dependency, user_impact and scope. Stories that block many others usually deserve higher priority.

Output ONLY valid JSON with this schema:
{
  "recommendations": [
    {
      "storyId": "id exactly as given",
      "suggestedPriority": "low|medium|high|critical",
      "confidence": 0-100,
      "factors": [
        ` + factorSchema + `
      ],
      "explanation": "one or two sentences"
    }
  ]
}`

var singleTemplate = template.Must(template.New("priority").Parse(`PROJECT: {{.ProjectName}}
{{if .ProjectDescription}}{{.ProjectDescription}}
{{end}}
STORY: {{.Story.Title}}
Current priority: {{.Story.Priority}}
{{.Story.Description}}
{{if .Criteria}}
Acceptance criteria:
{{range .Criteria}}- {{.}}
{{end}}{{end}}{{if .Prerequisites}}
Depends on:
{{range .Prerequisites}}- {{.Title}} ({{.Priority}})
{{end}}{{end}}{{if .Blocks}}
Blocks {{len .Blocks}} stories:
{{range .Blocks}}- {{.Title}} ({{.Priority}})
{{end}}{{end}}
Recommend a priority now:`))

var bulkTemplate = template.Must(template.New("priority-bulk").Parse(`PROJECT: {{.ProjectName}}
{{if .ProjectDescription}}{{.ProjectDescription}}
{{end}}
STORIES:
{{range .Rows}}- id: {{.ID}}
  title: {{.Title}}
  current priority: {{.Priority}}
  description: {{.Description}}
  depends on: {{range $i, $d := .DependsOn}}{{if $i}}, {{end}}{{$d}}{{else}}none{{end}}
  blocks: {{.BlocksCount}}
{{end}}
Recommend a priority for every story now:`))
