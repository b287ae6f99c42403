package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "apctl",
	Short: "Accounts payable operations for the ledger engine",
	Long: `apctl runs payables operations against the ledger database:
paying and voiding vendor payment batches, voiding payments,
inspecting audit trails and managing schema migrations.

Configuration is read from config.toml (or --config) and can be
overridden with ERP_ prefixed environment variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.toml or /etc/ledger/config.toml)")
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// withApplication wires the services, runs fn and shuts everything down
func withApplication(cmd *cobra.Command, fn func(ctx context.Context, app *application) error) error {
	ctx := cmd.Context()
	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.close(context.WithoutCancel(ctx))

	return fn(logger.WithContext(ctx, app.log), app)
}

func parseIDs(args []string, names ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(names))
	for i, name := range names {
		id, err := uuid.Parse(args[i])
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", name, args[i], err)
		}
		ids[i] = id
	}
	return ids, nil
}
