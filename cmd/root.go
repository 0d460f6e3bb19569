/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/StoryWing/internal/config"
	"github.com/josephgoksu/StoryWing/internal/logger"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables debug logging.
	verbose bool
	// version is the application version.
	version = "0.1.0"

	// appFs is the filesystem used for Ralph files. Tests swap in a
	// memory-backed one.
	appFs = afero.NewOsFs()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "storywing",
	Short: "StoryWing turns PRDs into well-specified, prioritized user stories.",
	Long: `StoryWing manages PRDs and their user stories. It refines stories with
clarifying questions, validates acceptance criteria, recommends priorities,
generates draft stories from a PRD description, and imports or exports
Ralph prd.json files.

Run "storywing serve" to start the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		rec := logger.Default()
		rec.SetVersion(version)
		rec.SetCommand(cmd.CommandPath())
		rec.SetBasePath(config.GetDataPath())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	start := time.Now()
	cmd, err := rootCmd.ExecuteC()
	trackCommand(cmd, start, err)
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.storywing.yaml or $HOME/.storywing/.storywing.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}
