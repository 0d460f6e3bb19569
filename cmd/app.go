package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/josephgoksu/StoryWing/internal/config"
	"github.com/josephgoksu/StoryWing/internal/llm"
	"github.com/josephgoksu/StoryWing/internal/memory"
	"github.com/josephgoksu/StoryWing/internal/workflow"
)

// openService opens the store and, when configured, the completion
// service. The returned func closes the store.
func openService(ctx context.Context, withLLM bool) (*workflow.Service, func(), error) {
	dataPath := config.GetDataPath()
	store, err := memory.NewSQLiteStore(dataPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store at %s: %w", dataPath, err)
	}
	slog.Debug("store opened", "path", dataPath)

	var completer llm.Completer
	if withLLM {
		completer = newCompleter(ctx)
	}

	svc := workflow.New(store, completer, workflow.WithMinConfidence(config.MinConfidence()))
	return svc, func() { _ = store.Close() }, nil
}

// newCompleter builds the completion client from config. A misconfigured
// provider is logged and leaves AI features failing with upstream errors
// instead of blocking the rest of the API.
func newCompleter(ctx context.Context) llm.Completer {
	cfg, err := config.LoadLLMConfig()
	if err != nil {
		slog.Warn("llm disabled", "error", err)
		return nil
	}
	c, err := llm.NewCompleter(ctx, cfg)
	if err != nil {
		slog.Warn("llm disabled", "provider", cfg.Provider, "error", err)
		return nil
	}
	slog.Info("llm configured", "provider", cfg.Provider, "model", cfg.Model)
	return c
}
