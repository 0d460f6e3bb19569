package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/StoryWing/internal/config"
	"github.com/josephgoksu/StoryWing/internal/telemetry"
	"github.com/josephgoksu/StoryWing/internal/ui"
)

// telemetryFs holds telemetry.json. Tests swap in a memory-backed one.
var telemetryFs afero.Fs = afero.NewOsFs()

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Manage anonymous usage telemetry (off by default)",
}

var telemetryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether telemetry is enabled",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := telemetryStore()
		if err != nil {
			return err
		}
		cfg, err := store.Load()
		if err != nil {
			return err
		}
		state := ui.StyleSubtle.Render("disabled")
		if cfg.Enabled {
			state = ui.StyleSuccess.Render("enabled")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Telemetry: %s\n", state)
		fmt.Fprintf(cmd.OutOrStdout(), "Config:    %s\n", store.Path())
		return nil
	},
}

func setTelemetry(enabled bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		store, err := telemetryStore()
		if err != nil {
			return err
		}
		cfg, err := store.Load()
		if err != nil {
			return err
		}
		cfg.Enabled = enabled
		if err := store.Save(cfg); err != nil {
			return err
		}
		word := "disabled"
		if enabled {
			word = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Telemetry %s\n", ui.StyleSuccess.Render("✓"), word)
		return nil
	}
}

func init() {
	rootCmd.AddCommand(telemetryCmd)
	telemetryCmd.AddCommand(
		telemetryStatusCmd,
		&cobra.Command{Use: "enable", Short: "Opt in to anonymous usage telemetry", Args: cobra.NoArgs, RunE: setTelemetry(true)},
		&cobra.Command{Use: "disable", Short: "Opt out of usage telemetry", Args: cobra.NoArgs, RunE: setTelemetry(false)},
	)
}

func telemetryStore() (*telemetry.Store, error) {
	dir, err := config.GetGlobalConfigDir()
	if err != nil {
		return nil, fmt.Errorf("locate config directory: %w", err)
	}
	return telemetry.NewStore(telemetryFs, dir), nil
}

// trackCommand reports one finished command. Failures are only logged.
func trackCommand(cmd *cobra.Command, start time.Time, runErr error) {
	if cmd == nil || cmd == telemetryCmd || cmd.Parent() == telemetryCmd {
		return
	}
	store, err := telemetryStore()
	if err != nil {
		return
	}
	cfg, err := store.Load()
	if err != nil {
		slog.Debug("telemetry config unreadable", "error", err)
		return
	}
	client, err := telemetry.New(cfg, telemetry.Options{
		APIKey:   viper.GetString("telemetry.apiKey"),
		Endpoint: viper.GetString("telemetry.endpoint"),
		Version:  version,
	})
	if err != nil {
		slog.Debug("telemetry unavailable", "error", err)
		return
	}
	client.Track(telemetry.EventCommand, map[string]any{
		"command":     cmd.CommandPath(),
		"duration_ms": time.Since(start).Milliseconds(),
		"success":     runErr == nil,
	})
	_ = client.Close()
}
