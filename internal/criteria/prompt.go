package criteria

import (
	"text/template"

	"github.com/josephgoksu/StoryWing/internal/story"
	"github.com/josephgoksu/StoryWing/internal/utils"
)

// PromptInput is everything the validation request needs.
type PromptInput struct {
	Title       string
	Description string
	Criteria    []string
	Memories    []story.MemoryEntry
}

// BuildPrompt returns the system and user prompts for a validation request.
func BuildPrompt(in PromptInput) (string, string, error) {
	user, err := utils.RenderTemplate(userTemplate, in)
	if err != nil {
		return "", "", err
	}
	return systemPrompt, user, nil
}

const systemPrompt = `You are a QA lead reviewing acceptance criteria for a user story.

For EACH criterion check:
- specificity: does it name concrete behavior rather than a general quality?
- measurability: is there an observable threshold or outcome?
- testability: could a tester write a pass/fail check for it?
- scope: does it describe one verifiable outcome rather than a whole feature?

Tag every defect with exactly one category:
vague, unmeasurable, untestable, too_broad, ambiguous, missing_detail

and exactly one severity:
error (criterion cannot be verified as written), warning (verifiable but weak), info (style suggestion)

Output ONLY valid JSON with this schema:
{
  "overallScore": 0-100,
  "summary": "string",
  "criteria": [
    {
      "index": 0-based index of the criterion,
      "text": "criterion text",
      "issues": [
        {
          "severity": "error|warning|info",
          "category": "vague|unmeasurable|untestable|too_broad|ambiguous|missing_detail",
          "message": "what is wrong",
          "suggestedReplacement": "optional improved criterion"
        }
      ],
      "suggestedReplacement": "improved criterion or null if it is fine"
    }
  ]
}
Return one entry per criterion, in the order given.`

var userTemplate = template.Must(template.New("criteria").Parse(`STORY TITLE:
{{.Title}}

STORY DESCRIPTION:
{{.Description}}

ACCEPTANCE CRITERIA:
{{range $i, $c := .Criteria}}{{$i}}. {{$c}}
{{end}}{{if .Memories}}
PROJECT CONVENTIONS:
{{range .Memories}}- [{{.Category}}] {{.Key}}: {{.Content}}
{{end}}{{end}}
Validate the criteria now:`))
