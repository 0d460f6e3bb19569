package utils

import (
	"bytes"
	"fmt"
	"text/template"
)

// RenderTemplate executes a parsed prompt template into a string.
func RenderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
