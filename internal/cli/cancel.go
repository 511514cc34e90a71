package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/thruflo/ember/internal/command"
	"github.com/thruflo/ember/internal/state"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the active loop",
	Long: `Removes the workspace's loop state. Cancelling is idempotent: when no
loop is active it reports that and exits successfully.`,
	Args: cobra.NoArgs,
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	msg, err := command.Cancel(state.NewStore(cwd))
	if err != nil {
		return err
	}

	fmt.Println(msg)
	return nil
}
