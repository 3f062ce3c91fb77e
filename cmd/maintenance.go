package cmd

import (
	"fmt"

	"kiosk-service/database"
	"kiosk-service/events"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(rootOpts.cfg.DBPath, rootOpts.log)
			if err != nil {
				return err
			}
			defer database.Close(db)

			applied, err := database.Migrate(cmd.Context(), db, rootOpts.log)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", name)
			}
			return nil
		},
	}
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the default catalog into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(cmd.Context(), rootOpts.cfg, rootOpts.log)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Seed(cmd.Context(), db, rootOpts.log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Seed complete")
			return nil
		},
	}
}

// NewCleanupCommand creates the cleanup command. It runs the same pass as
// the periodic cleanup, without notifying connected devices.
func NewCleanupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete completed and cancelled orders past the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(cmd.Context(), rootOpts.cfg, rootOpts.log)
			if err != nil {
				return err
			}
			defer database.Close(db)

			orders := newOrderService(db, rootOpts.cfg, nil, events.Noop{}, rootOpts.log)
			res, svcErr := orders.Cleanup(cmd.Context())
			if svcErr != nil {
				return fmt.Errorf("cleanup failed: %s", svcErr.Message)
			}
			rootOpts.log.Info("Cleanup finished", zap.Int64("deleted", res.DeletedCount))
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d completed or cancelled orders\n", res.DeletedCount)
			return nil
		},
	}
}
