package mcp

import (
	"fmt"
	"strings"

	"github.com/josephgoksu/StoryWing/internal/story"
	"github.com/josephgoksu/StoryWing/internal/utils"
)

// FormatStory renders a story as compact Markdown for an agent.
func FormatStory(st *story.Story) string {
	if st == nil {
		return "No story."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s %s\n", statusIcon(st.Status), st.Title)
	fmt.Fprintf(&sb, "**ID**: `%s` | **Priority**: %s | **Status**: %s", st.ID, st.Priority, st.Status)
	if st.MaxAttempts > 0 {
		fmt.Fprintf(&sb, " | **Attempts**: %d/%d", st.Attempts, st.MaxAttempts)
	}
	sb.WriteString("\n")

	if d := strings.TrimSpace(st.Description); d != "" {
		sb.WriteString("\n")
		sb.WriteString(d)
		sb.WriteString("\n")
	}

	if len(st.AcceptanceCriteria) > 0 {
		sb.WriteString("\n### Acceptance Criteria\n")
		for _, c := range st.AcceptanceCriteria {
			box := " "
			if c.Passed {
				box = "x"
			}
			fmt.Fprintf(&sb, "- [%s] %s (`%s`)\n", box, c.Description, c.ID)
		}
	}

	if len(st.DependsOn) > 0 {
		sb.WriteString("\n### Depends On\n")
		for _, d := range st.DependsOn {
			if reason := st.DependencyReasons[d]; reason != "" {
				fmt.Fprintf(&sb, "- `%s`: %s\n", d, reason)
			} else {
				fmt.Fprintf(&sb, "- `%s`\n", d)
			}
		}
	}

	if len(st.Learnings) > 0 {
		sb.WriteString("\n### Learnings\n")
		for _, l := range st.Learnings {
			fmt.Fprintf(&sb, "- %s\n", l)
		}
	}
	return strings.TrimSpace(sb.String())
}

// FormatPRD renders a PRD header followed by a one-line row per story.
func FormatPRD(prd *story.PRD) string {
	if prd == nil {
		return "No PRD."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n**ID**: `%s`", prd.Name, prd.ID)
	if prd.BranchName != "" {
		fmt.Fprintf(&sb, " | **Branch**: `%s`", prd.BranchName)
	}
	sb.WriteString("\n")
	if d := strings.TrimSpace(prd.Description); d != "" {
		sb.WriteString("\n")
		sb.WriteString(utils.Truncate(d, 500))
		sb.WriteString("\n")
	}
	if len(prd.QualityChecks) > 0 {
		sb.WriteString("\n### Quality Checks\n")
		for _, q := range prd.QualityChecks {
			fmt.Fprintf(&sb, "- `%s`\n", q)
		}
	}

	sb.WriteString("\n### Stories\n")
	if len(prd.Stories) == 0 {
		sb.WriteString("None yet.\n")
	}
	done := 0
	for i, st := range prd.Stories {
		if st.Status == story.StatusCompleted {
			done++
		}
		fmt.Fprintf(&sb, "%d. %s **%s** `%s` (%s)\n", i+1, statusIcon(st.Status), st.Title, st.ID, st.Priority)
	}
	if len(prd.Stories) > 0 {
		fmt.Fprintf(&sb, "\n%d/%d completed\n", done, len(prd.Stories))
	}
	return strings.TrimSpace(sb.String())
}

// FormatPRDList renders one line per PRD.
func FormatPRDList(prds []story.PRD) string {
	if len(prds) == 0 {
		return "No PRDs found."
	}
	var sb strings.Builder
	sb.WriteString("## PRDs\n")
	for _, p := range prds {
		fmt.Fprintf(&sb, "- **%s** `%s`", p.Name, p.ID)
		if p.BranchName != "" {
			fmt.Fprintf(&sb, " on `%s`", p.BranchName)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// FormatError returns a standardized Markdown error message.
func FormatError(message string) string {
	return fmt.Sprintf("## ❌ Error\n\n**Details**: %s", message)
}

// FormatValidationError returns a Markdown error for a bad parameter.
func FormatValidationError(field, message string) string {
	return fmt.Sprintf("## ❌ Validation Error\n\n**Field**: `%s`\n**Details**: %s", field, message)
}

func statusIcon(s story.Status) string {
	switch s {
	case story.StatusPending:
		return "⏳"
	case story.StatusInProgress:
		return "🔄"
	case story.StatusCompleted:
		return "✅"
	case story.StatusDeleted:
		return "🗑"
	default:
		return "📋"
	}
}
