package templates

import (
	"testing"

	"github.com/josephgoksu/StoryWing/internal/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltIns(t *testing.T) {
	list, err := BuiltIns()
	require.NoError(t, err)

	ids := make([]string, 0, len(list))
	for _, tmpl := range list {
		ids = append(ids, tmpl.ID)
		assert.True(t, tmpl.IsBuiltIn)
		assert.NotEmpty(t, tmpl.TitleTemplate)
		assert.NotEmpty(t, tmpl.AcceptanceCriteriaTemplates)
		_, ok := story.ParsePriority(string(tmpl.DefaultPriority))
		assert.True(t, ok, "template %s has invalid default priority", tmpl.ID)
	}
	assert.Equal(t, []string{"builtin-feature", "builtin-bug", "builtin-tech_debt", "builtin-spike"}, ids)
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name string
		text string
		vars map[string]string
		want string
	}{
		{"simple", "Hello {{name}}", map[string]string{"name": "Ada"}, "Hello Ada"},
		{"repeated", "{{a}} and {{a}}", map[string]string{"a": "x"}, "x and x"},
		{"unknown left verbatim", "{{known}} {{unknown}}", map[string]string{"known": "k"}, "k {{unknown}}"},
		{"inner whitespace is part of the key", "{{ name }}", map[string]string{"name": "Ada"}, "{{ name }}"},
		{"key with spaces", "Hi {{first name}}", map[string]string{"first name": "Ada"}, "Hi Ada"},
		{"key with punctuation", "{{a/b}} {{c:d}}", map[string]string{"a/b": "1", "c:d": "2"}, "1 2"},
		{"value is not rescanned", "{{a}}", map[string]string{"a": "{{b}}", "b": "no"}, "{{b}}"},
		{"empty value", "[{{a}}]", map[string]string{"a": ""}, "[]"},
		{"nil vars", "{{a}}", nil, "{{a}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Substitute(tt.text, tt.vars))
		})
	}
}

func TestInstantiate(t *testing.T) {
	tmpl := Template{
		TitleTemplate:               "Add {{feature}}",
		DescriptionTemplate:         "As a {{user}}, I want {{feature}}.",
		AcceptanceCriteriaTemplates: []string{"{{user}} sees {{feature}}", "Works offline: {{offline}}"},
		DefaultPriority:             story.PriorityHigh,
	}
	vars := map[string]string{"feature": "dark mode", "user": "reader"}

	first := tmpl.Instantiate(vars)
	second := tmpl.Instantiate(vars)

	assert.Equal(t, first, second)
	assert.Equal(t, "Add dark mode", first.Title)
	assert.Equal(t, "As a reader, I want dark mode.", first.Description)
	assert.Equal(t, []string{"reader sees dark mode", "Works offline: {{offline}}"}, first.AcceptanceCriteria)
	assert.Equal(t, story.PriorityHigh, first.Priority)
}

func TestInstantiate_OneCriterionPerTemplate(t *testing.T) {
	tmpl := Template{
		TitleTemplate:               "x",
		AcceptanceCriteriaTemplates: []string{"{{a}}", " {{b}} ", "{{c}} done"},
	}
	inst := tmpl.Instantiate(map[string]string{"a": "", "b": "ok"})
	assert.Equal(t, []string{"", "ok", "{{c}} done"}, inst.AcceptanceCriteria)
}

func TestInstantiate_InvalidDefaultPriority(t *testing.T) {
	inst := Template{TitleTemplate: "x", DefaultPriority: "someday"}.Instantiate(nil)
	assert.Equal(t, story.PriorityMedium, inst.Priority)
}

func TestPlaceholders(t *testing.T) {
	tmpl := Template{
		TitleTemplate:               "{{a}} {{b}}",
		DescriptionTemplate:         "{{b}} {{c}}",
		AcceptanceCriteriaTemplates: []string{"{{a}} {{d}}", "{{first name}}"},
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "first name"}, tmpl.Placeholders())
}
