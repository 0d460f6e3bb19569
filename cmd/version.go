package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// GetVersion returns the application version.
func GetVersion() string {
	return version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the StoryWing version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "storywing %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
