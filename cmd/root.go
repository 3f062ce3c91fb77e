package cmd

import (
	"fmt"
	"os"

	"kiosk-service/config"
	"kiosk-service/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds state shared by every subcommand.
type RootOptions struct {
	DBPath string

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand creates the kiosk-service command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "kiosk-service",
		Short: "Restaurant kiosk ordering backend",
		Long:  "Serves the kiosk, kitchen and admin clients: catalog, orders, live device events and receipt printing.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if opts.DBPath != "" {
				cfg.DBPath = opts.DBPath
			}
			log, err := logger.Initialize(cfg.Env)
			if err != nil {
				return err
			}
			opts.cfg, opts.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides DB_PATH)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewCleanupCommand(opts))

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
