package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "ember",
	Short: "Durable iteration loops for autonomous coding agents",
	Long: `Ember keeps an autonomous agent iterating on one task. It persists a
single control document per workspace, re-issues the original task prompt
on every "session idle" signal, and stops on a completion promise, an
iteration budget, or explicit cancellation. The loop survives process
restarts and conversation compaction.`,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("ember version {{.Version}}\n")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
