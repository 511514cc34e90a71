package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thruflo/ember/internal/config"
	"github.com/thruflo/ember/internal/host"
	"github.com/thruflo/ember/internal/logging"
	"github.com/thruflo/ember/internal/loop"
	"github.com/thruflo/ember/internal/state"
)

var attachHostURL string

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Attach to the agent host and drive the loop",
	Long: `Connects to the agent host's event socket and processes its
notifications: "session idle" signals advance or terminate the loop,
"about to compact" requests receive the loop facts as durable context.

Runs until interrupted or the connection drops. The loop state itself is
durable, so reattaching after a restart picks up where the loop left off.`,
	Args: cobra.NoArgs,
	RunE: runAttach,
}

func init() {
	attachCmd.Flags().StringVar(&attachHostURL, "host-url", "", "host event socket URL (default: from config)")
	rootCmd.AddCommand(attachCmd)
}

func runAttach(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	url := attachHostURL
	if url == "" {
		url = cfg.HostURL
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bridge, err := host.Dial(ctx, url, host.Options{})
	if err != nil {
		return err
	}
	defer bridge.Close()

	ctrl := loop.NewController(loop.Options{
		Store:      state.NewStore(cwd),
		History:    bridge,
		Dispatcher: bridge,
	})

	fmt.Printf("Attached to %s\n", url)

	if err := bridge.Run(ctx, ctrl); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
