/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	mcptools "github.com/josephgoksu/StoryWing/internal/mcp"
)

var mcpWorkspace string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server for coding agents",
	Long: `Start a Model Context Protocol server on stdio so a coding agent can
work through a PRD story by story.

Tools:
  prd       list PRDs or show one with its stories
  story     next ready story, start, complete, record attempts and learnings,
            tick acceptance criteria
  remember  store a workspace convention used in later prompts

The server runs until the client disconnects.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMCPServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVarP(&mcpWorkspace, "workspace", "w", "", "workspace path (default: project root of the current directory)")
}

// stdout carries JSON-RPC, so everything human-readable goes to stderr.
func runMCPServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Fprintln(os.Stderr, "StoryWing MCP server starting...")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "⚠  stdin is a terminal; this command is meant to be launched by an MCP client")
	}

	workspace, err := resolveWorkspace(mcpWorkspace)
	if err != nil {
		return err
	}
	svc, closeStore, err := openService(ctx, false)
	if err != nil {
		return err
	}
	defer closeStore()

	server := newMCPServer(mcptools.NewHandlers(svc, workspace))
	if err := server.Run(ctx, mcpsdk.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

func newMCPServer(h *mcptools.Handlers) *mcpsdk.Server {
	impl := &mcpsdk.Implementation{Name: "storywing", Version: version}
	server := mcpsdk.NewServer(impl, &mcpsdk.ServerOptions{
		InitializedHandler: func(context.Context, *mcpsdk.ServerSession, *mcpsdk.InitializedParams) {
			fmt.Fprintln(os.Stderr, "✓ MCP connection established")
		},
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: "prd",
		Description: `Read PRDs in this workspace.
- list: PRDs in the workspace (workspace optional)
- get: one PRD with its stories in order (prd_id required)`,
	}, func(_ context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcptools.PRDToolParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return toolResponse(h.HandlePRDTool(params.Arguments))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: "story",
		Description: `Work through a PRD one story at a time.
- next: highest priority story whose dependencies are completed (prd_id required)
- get: show a story (story_id required)
- start / complete: move a story to in_progress / completed (story_id required)
- attempt: count one implementation attempt (story_id required)
- learn: record a learning (story_id, learning required)
- criterion: mark an acceptance criterion (story_id, criterion_id required; passed defaults to true)`,
	}, func(_ context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcptools.StoryToolParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return toolResponse(h.HandleStoryTool(params.Arguments))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "remember",
		Description: "Store a workspace convention (content required; category, key optional). Used as context in later refinement and generation prompts.",
	}, func(_ context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcptools.RememberParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return toolResponse(h.HandleRemember(params.Arguments))
	})

	return server
}

// toolResponse puts failures in the result with IsError so the agent can
// read them and retry.
func toolResponse(result *mcptools.ToolResult, err error) (*mcpsdk.CallToolResultFor[any], error) {
	if err != nil {
		return mcpResult(mcptools.FormatError(err.Error()), true), nil
	}
	if result.Error != "" {
		return mcpResult(result.Error, true), nil
	}
	return mcpResult(result.Content, false), nil
}

func mcpResult(markdown string, isError bool) *mcpsdk.CallToolResultFor[any] {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: markdown}},
		IsError: isError,
	}
}
