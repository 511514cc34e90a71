package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thruflo/ember/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active loop",
	Long: `Shows the workspace's loop state: iteration progress, the iteration
budget, the completion promise, and the task prompt.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	fmt.Print(formatStatus(state.NewStore(cwd)))
	return nil
}

// formatStatus renders the loop state for display. Split out from runStatus
// for testing.
func formatStatus(store *state.Store) string {
	st := store.Load()
	if st == nil {
		return "No active loop.\n"
	}

	max := "unbounded"
	if st.Bounded() {
		max = strconv.Itoa(st.MaxIterations)
	}

	promise := "none"
	if p, ok := st.Promise(); ok {
		promise = fmt.Sprintf("%q", p)
	}

	var b strings.Builder
	b.WriteString("Active loop\n")
	b.WriteString("===========\n")
	printField(&b, "Iteration", strconv.Itoa(st.Iteration))
	printField(&b, "Max iterations", max)
	printField(&b, "Promise", promise)
	printField(&b, "Task", firstLine(st.TaskPrompt))
	return b.String()
}

func printField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  %-16s %s\n", label+":", value)
}

// firstLine truncates a multiline prompt for the one-screen summary.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx] + " ..."
	}
	return s
}
