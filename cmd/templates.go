package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/josephgoksu/StoryWing/internal/templates"
	"github.com/josephgoksu/StoryWing/internal/ui"
)

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"template", "tmpl"},
	Short:   "List story templates grouped by category",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, closeStore, err := openService(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer closeStore()

		list, err := svc.ListTemplates()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderTemplates(list))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}

// renderTemplates groups templates under title-cased category headings.
func renderTemplates(list []templates.Template) string {
	if len(list) == 0 {
		return "No templates.\n"
	}
	groups := map[string][]templates.Template{}
	for _, t := range list {
		cat := t.Category
		if cat == "" {
			cat = "other"
		}
		groups[cat] = append(groups[cat], t)
	}
	cats := make([]string, 0, len(groups))
	for c := range groups {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	title := cases.Title(language.English)
	var sb strings.Builder
	for _, c := range cats {
		sb.WriteString(ui.StyleSectionTitle.Render(title.String(strings.ReplaceAll(c, "_", " "))) + "\n")
		for _, t := range groups[c] {
			line := fmt.Sprintf("  %-20s %s", t.ID, t.Name)
			if t.IsBuiltIn {
				line += " " + ui.StyleSubtle.Render("(built-in)")
			}
			sb.WriteString(line + "\n")
			if ph := t.Placeholders(); len(ph) > 0 {
				sb.WriteString(ui.StyleSubtle.Render("  "+strings.Repeat(" ", 21)+"vars: "+strings.Join(ph, ", ")) + "\n")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
