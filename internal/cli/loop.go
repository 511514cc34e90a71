package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thruflo/ember/internal/command"
	"github.com/thruflo/ember/internal/config"
	"github.com/thruflo/ember/internal/state"
)

var loopCmd = &cobra.Command{
	Use:   "loop [task text and flags]",
	Short: "Start an iteration loop for the current workspace",
	Long: `Starts a loop that re-issues the task prompt to the agent on every idle
signal. Everything after "loop" is the loop command: the recognized flags
configure the loop, all other text becomes the task prompt.

Recognized flags (parsed from the task text, not by ember itself):
  --max-iterations N       stop after N iterations (0 = unbounded)
  --completion-promise T   stop when the agent outputs <promise>T</promise>

Example:
  ember loop Build a todo API --max-iterations 5 --completion-promise SHIPPED`,
	// The loop's own flags live inside the free text; cobra must not eat them.
	DisableFlagParsing: true,
	RunE:               runLoop,
}

func init() {
	rootCmd.AddCommand(loopCmd)
}

func runLoop(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	msg, err := initiateLoop(cwd, joinCommandArgs(args))
	if err != nil {
		return err
	}

	fmt.Println(msg)
	return nil
}

// initiateLoop wires config and storage for the workspace and starts the
// loop. Split out from runLoop for testing.
func initiateLoop(basePath, input string) (string, error) {
	cfg, err := config.Load(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	store := state.NewStore(basePath)
	return command.Initiate(store, input, cfg.DefaultMaxIterations)
}

// joinCommandArgs rebuilds the free-text loop command from argv. The shell
// already stripped quotes, so arguments containing whitespace are re-quoted
// to survive tokenization.
func joinCommandArgs(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = quoteArg(a)
	}
	return strings.Join(parts, " ")
}

// quoteArg wraps an argument containing whitespace in whichever quote rune
// it does not already contain. An argument holding both quote runes is
// emitted as adjacent quoted segments, which the tokenizer joins back into
// one token.
func quoteArg(a string) string {
	switch {
	case !strings.ContainsAny(a, " \t"):
		return a
	case !strings.Contains(a, `"`):
		return `"` + a + `"`
	case !strings.Contains(a, "'"):
		return "'" + a + "'"
	default:
		return `"` + strings.ReplaceAll(a, `"`, `"'"'"`) + `"`
	}
}
