// Package cli wires the application together behind a cobra command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/trailstone/osgraph/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "osgraphd",
	Short: "OSINT search connector service",
	Long: `osgraphd serves a catalogue of OSINT search connectors and
dispatches queries to them, normalising every source's response into a
canonical entity graph.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}
