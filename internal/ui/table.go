package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/josephgoksu/StoryWing/internal/story"
)

// Table renders rows in fixed-width columns for the terminal.
type Table struct {
	Headers  []string
	Rows     [][]string
	MaxWidth int // per column, 0 = unlimited

	// Format optionally styles a column's cells after padding. Keyed by
	// column index; cells are measured before styling.
	Format map[int]func(string) string
}

// ColumnWidths returns the display width of each column.
func (t *Table) ColumnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}
	if t.MaxWidth > 0 {
		for i := range widths {
			widths[i] = min(widths[i], t.MaxWidth)
		}
	}
	return widths
}

// Render returns the table as a string. A table without headers renders
// as "".
func (t *Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := t.ColumnWidths()
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	cellStyle := lipgloss.NewStyle().Foreground(ColorText)

	var sb strings.Builder
	cells := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		cells[i] = headerStyle.Render(padRight(h, widths[i]))
	}
	sb.WriteString(" " + strings.Join(cells, "  ") + "\n")

	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = StyleSubtle.Render(strings.Repeat("─", w))
	}
	sb.WriteString(" " + strings.Join(seps, "──") + "\n")

	for _, row := range t.Rows {
		for i := range t.Headers {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			val = padRight(truncate(val, widths[i]), widths[i])
			if f, ok := t.Format[i]; ok {
				cells[i] = f(val)
			} else {
				cells[i] = cellStyle.Render(val)
			}
		}
		sb.WriteString(" " + strings.Join(cells, "  ") + "\n")
	}
	return sb.String()
}

// StoryTable lists stories in their stored order.
func StoryTable(stories []story.Story) *Table {
	t := &Table{
		Headers:  []string{"#", "ID", "Title", "Priority", "Status", "Criteria", "Deps"},
		MaxWidth: 48,
		Format: map[int]func(string) string{
			3: func(s string) string { return PriorityBadge(story.Priority(strings.TrimSpace(s))) + pad(s) },
			4: func(s string) string { return StatusBadge(story.Status(strings.TrimSpace(s))) + pad(s) },
		},
	}
	for _, st := range stories {
		passed := 0
		for _, c := range st.AcceptanceCriteria {
			if c.Passed {
				passed++
			}
		}
		t.Rows = append(t.Rows, []string{
			fmt.Sprint(st.SortOrder),
			st.ID,
			st.Title,
			string(st.Priority),
			string(st.Status),
			fmt.Sprintf("%d/%d", passed, len(st.AcceptanceCriteria)),
			fmt.Sprint(len(st.DependsOn)),
		})
	}
	return t
}

// PRDTable lists PRDs in the order given.
func PRDTable(prds []story.PRD) *Table {
	t := &Table{
		Headers:  []string{"ID", "Name", "Branch", "Workspace", "Updated"},
		MaxWidth: 40,
	}
	for _, p := range prds {
		t.Rows = append(t.Rows, []string{
			p.ID,
			p.Name,
			p.BranchName,
			p.WorkspacePath,
			p.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	return t
}

// pad returns the trailing spaces of a padded cell so styled text keeps
// its column width.
func pad(s string) string {
	return s[len(strings.TrimRight(s, " ")):]
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	if width < 2 {
		return "…"
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}
