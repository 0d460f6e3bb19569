/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/StoryWing/internal/config"
	"github.com/josephgoksu/StoryWing/internal/server"
	"github.com/josephgoksu/StoryWing/internal/ui"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the StoryWing HTTP API",
	Long: `Start the HTTP API used by the StoryWing web client.

The server stores data under the configured data path and uses the
configured LLM provider for refinement, criteria validation, priority
recommendations and story generation. Without a working provider those
endpoints answer 502 and everything else keeps working.

Examples:
  storywing serve               # Port from config (default 7420)
  storywing serve --port 8080   # Custom port`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", config.DefaultPort, "API server port")
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, closeStore, err := openService(ctx, true)
	if err != nil {
		return err
	}
	defer closeStore()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.StyleSectionTitle.Render("StoryWing"))
	fmt.Fprintf(out, "API:  http://localhost:%d\n", cfg.Port)
	fmt.Fprintf(out, "Data: %s\n\n", config.GetDataPath())

	var wg sync.WaitGroup
	errChan := make(chan error, 1)
	srv := server.New(cfg, svc)
	srv.Start(&wg, errChan)

	select {
	case <-ctx.Done():
		fmt.Fprintln(out, ui.StyleSubtle.Render("shutting down..."))
	case err = <-errChan:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = fmt.Errorf("shutdown: %w", serr)
	}
	wg.Wait()
	return err
}
