// Package templates holds reusable story skeletons and the placeholder
// substitution used to turn one into a story.
package templates

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/josephgoksu/StoryWing/internal/story"
)

// Template is a story skeleton with {{key}} placeholders.
type Template struct {
	ID                          string         `json:"id" yaml:"id"`
	Name                        string         `json:"name" yaml:"name"`
	Description                 string         `json:"description" yaml:"description"`
	Category                    string         `json:"category" yaml:"category"`
	TitleTemplate               string         `json:"titleTemplate" yaml:"titleTemplate"`
	DescriptionTemplate         string         `json:"descriptionTemplate" yaml:"descriptionTemplate"`
	AcceptanceCriteriaTemplates []string       `json:"acceptanceCriteriaTemplates" yaml:"acceptanceCriteriaTemplates"`
	DefaultPriority             story.Priority `json:"defaultPriority" yaml:"defaultPriority"`
	Tags                        []string       `json:"tags" yaml:"tags"`
	IsBuiltIn                   bool           `json:"isBuiltIn" yaml:"-"`
	CreatedAt                   time.Time      `json:"createdAt" yaml:"-"`
	UpdatedAt                   time.Time      `json:"updatedAt" yaml:"-"`
}

//go:embed builtin.yaml
var builtinYAML []byte

// BuiltIns parses the embedded catalog. Every entry is marked built-in.
func BuiltIns() ([]Template, error) {
	var list []Template
	if err := yaml.Unmarshal(builtinYAML, &list); err != nil {
		return nil, fmt.Errorf("parse built-in templates: %w", err)
	}
	for i := range list {
		list[i].IsBuiltIn = true
	}
	return list, nil
}

// placeholderRegex finds {{key}} references for listing. Keys are taken
// verbatim, spaces included.
var placeholderRegex = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Substitute replaces every literal {{key}} for the keys in vars in a single
// pass. Placeholders without a matching key are left exactly as written.
// Substituted values are not rescanned.
func Substitute(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Instance is the story content produced from a template.
type Instance struct {
	Title              string
	Description        string
	AcceptanceCriteria []string
	Priority           story.Priority
}

// Instantiate applies vars to the title, description and each criterion
// template independently. Each criterion template yields exactly one
// criterion, even when it substitutes to blank.
func (t Template) Instantiate(vars map[string]string) Instance {
	criteria := make([]string, 0, len(t.AcceptanceCriteriaTemplates))
	for _, c := range t.AcceptanceCriteriaTemplates {
		criteria = append(criteria, strings.TrimSpace(Substitute(c, vars)))
	}
	return Instance{
		Title:              strings.TrimSpace(Substitute(t.TitleTemplate, vars)),
		Description:        Substitute(t.DescriptionTemplate, vars),
		AcceptanceCriteria: criteria,
		Priority:           story.NormalizePriority(string(t.DefaultPriority), story.PriorityMedium),
	}
}

// Placeholders lists the distinct keys referenced by the template, in order
// of first appearance.
func (t Template) Placeholders() []string {
	seen := map[string]bool{}
	var keys []string
	texts := append([]string{t.TitleTemplate, t.DescriptionTemplate}, t.AcceptanceCriteriaTemplates...)
	for _, text := range texts {
		for _, m := range placeholderRegex.FindAllStringSubmatch(text, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				keys = append(keys, m[1])
			}
		}
	}
	return keys
}
