// Command blastctl inspects and edits the Blast EMST store directly.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/hperssn/blastemst/internal/bridge"
	"github.com/hperssn/blastemst/internal/config"
	"github.com/hperssn/blastemst/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "blastctl",
		Short:        "Inspect and edit Blast EMST data",
		SilenceUsage: true,
	}

	root.AddCommand(newSessionsCmd(), newSettingsCmd(), newProfileCmd(), newWeekCmd())
	return root
}

// openBridge opens the store named by the environment, the same way the
// server does.
func openBridge(ctx context.Context) (*bridge.Native, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// keep stdout for command output
	logging.InitLogger("error", cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	clock := clockwork.NewRealClock()
	open, err := bridge.StorageOpener(cfg.DBDriver, clock)
	if err != nil {
		return nil, err
	}

	b := bridge.NewNative(open, clock, loc)
	b.InitDatabase(ctx, cfg.DatabaseTarget())
	if !b.Ready() {
		return nil, fmt.Errorf("could not open %s database", cfg.DBDriver)
	}
	return b, nil
}

// withBridge runs fn against an open bridge and closes it afterwards.
func withBridge(fn func(cmd *cobra.Command, args []string, b *bridge.Native) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		b, err := openBridge(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()
		return fn(cmd, args, b)
	}
}
