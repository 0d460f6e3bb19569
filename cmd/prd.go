/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/StoryWing/internal/git"
	"github.com/josephgoksu/StoryWing/internal/project"
	"github.com/josephgoksu/StoryWing/internal/ralph"
	"github.com/josephgoksu/StoryWing/internal/ui"
	"github.com/josephgoksu/StoryWing/internal/workflow"
)

var (
	prdWorkspace string
	prdOut       string
)

var prdCmd = &cobra.Command{
	Use:   "prd",
	Short: "Inspect PRDs and move them in and out of Ralph prd.json files",
}

var prdListCmd = &cobra.Command{
	Use:   "list",
	Short: "List PRDs in a workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		workspace, err := resolveWorkspace(prdWorkspace)
		if err != nil {
			return err
		}
		svc, closeStore, err := openService(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer closeStore()

		prds, err := svc.ListPRDs(workspace)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(prds) == 0 {
			fmt.Fprintf(out, "No PRDs in %s\n", workspace)
			fmt.Fprintln(out, ui.StyleSubtle.Render("Import one with: storywing prd import prd.json"))
			return nil
		}
		fmt.Fprint(out, ui.PRDTable(prds).Render())
		return nil
	},
}

var prdShowCmd = &cobra.Command{
	Use:   "show <prd-id>",
	Short: "Show a PRD and its stories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := openService(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer closeStore()

		prd, err := svc.GetPRD(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.StyleSectionTitle.Render(prd.Name))
		if prd.Description != "" {
			fmt.Fprintln(out, prd.Description)
		}
		if prd.BranchName != "" {
			fmt.Fprintln(out, ui.StyleSubtle.Render("branch: "+prd.BranchName))
		}
		fmt.Fprintln(out)
		if len(prd.Stories) == 0 {
			fmt.Fprintln(out, ui.StyleSubtle.Render("No stories yet."))
			return nil
		}
		fmt.Fprint(out, ui.StoryTable(prd.Stories).Render())
		return nil
	},
}

var prdImportCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import a Ralph prd.json as a new PRD",
	Long: `Import a Ralph prd.json file as a new PRD in the workspace.

Numeric priorities map 1..4 to critical..low and "passes: true" marks a
story completed. Dependencies are resolved by Ralph story id. A document
without a branchName gets the workspace's current feature branch, or
ralph/<project-slug> when on main.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ralph.DefaultFileName
		if len(args) == 1 {
			path = args[0]
		}
		workspace, err := resolveWorkspace(prdWorkspace)
		if err != nil {
			return err
		}
		doc, err := ralph.Load(appFs, path)
		if err != nil {
			return err
		}
		if doc.BranchName == "" {
			doc.BranchName = git.NewClient(workspace).PRDBranch(doc.Project)
		}

		svc, closeStore, err := openService(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer closeStore()

		prd, err := svc.ImportRalph(workspace, *doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Imported %q as %s (%d stories)\n",
			ui.StyleSuccess.Render("✓"), prd.Name, prd.ID, len(prd.Stories))
		return nil
	},
}

var prdExportCmd = &cobra.Command{
	Use:   "export <prd-id>",
	Short: "Export a PRD as a Ralph prd.json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := openService(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer closeStore()

		doc, err := svc.ExportRalph(args[0])
		if err != nil {
			return err
		}
		if err := ralph.Save(appFs, prdOut, *doc); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %d stories to %s\n",
			ui.StyleSuccess.Render("✓"), len(doc.UserStories), prdOut)
		return nil
	},
}

var prdSyncCmd = &cobra.Command{
	Use:   "sync <prd-id> [path]",
	Short: "Pull passes and notes from a Ralph prd.json into a PRD",
	Long: `Read a Ralph prd.json previously written by "prd export" and copy the
agent's progress back: passes marks a story completed (or reopens it),
new notes lines become learnings. Nothing else about the PRD changes.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ralphPathArg(args)
		doc, err := ralph.Load(appFs, path)
		if err != nil {
			return err
		}
		svc, closeStore, err := openService(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer closeStore()

		res, err := svc.SyncRalph(args[0], *doc)
		if err != nil {
			return err
		}
		printSync(cmd, res)
		return nil
	},
}

var prdWatchCmd = &cobra.Command{
	Use:   "watch <prd-id> [path]",
	Short: "Keep a PRD in sync with a Ralph prd.json while an agent works",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(ralphPathArg(args))
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, closeStore, err := openService(ctx, false)
		if err != nil {
			return err
		}
		defer closeStore()
		if _, err := svc.GetPRD(args[0]); err != nil {
			return err
		}

		w := ralph.NewWatcher(appFs, path, func(doc *ralph.Document) error {
			res, err := svc.SyncRalph(args[0], *doc)
			if err != nil {
				return err
			}
			if res.Changed() {
				printSync(cmd, res)
			}
			return nil
		})
		if err := w.Reload(); err != nil {
			slog.Warn("initial sync skipped", "path", path, "error", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", path)
		return w.Run(ctx)
	},
}

func ralphPathArg(args []string) string {
	if len(args) == 2 {
		return args[1]
	}
	return ralph.DefaultFileName
}

func printSync(cmd *cobra.Command, res *workflow.SyncResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s Synced: %d completed, %d reopened, %d learnings",
		ui.StyleSuccess.Render("✓"), res.Completed, res.Reopened, res.Learnings)
	if res.Unmatched > 0 {
		fmt.Fprint(cmd.OutOrStdout(), ui.StyleWarning.Render(fmt.Sprintf(" (%d unmatched)", res.Unmatched)))
	}
	fmt.Fprintln(cmd.OutOrStdout())
}

func init() {
	rootCmd.AddCommand(prdCmd)
	prdCmd.AddCommand(prdListCmd, prdShowCmd, prdImportCmd, prdExportCmd, prdSyncCmd, prdWatchCmd)

	prdCmd.PersistentFlags().StringVarP(&prdWorkspace, "workspace", "w", "", "workspace path (default: project root of the current directory)")
	prdExportCmd.Flags().StringVarP(&prdOut, "out", "o", ralph.DefaultFileName, "output file")
}

// resolveWorkspace returns the absolute workspace path. Without a flag it
// is the project root enclosing the working directory.
func resolveWorkspace(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	ctx, err := project.Detect(wd)
	if err != nil {
		return "", fmt.Errorf("detect workspace: %w", err)
	}
	slog.Debug("workspace detected", "root", ctx.RootPath, "marker", ctx.MarkerType.String())
	return ctx.RootPath, nil
}
