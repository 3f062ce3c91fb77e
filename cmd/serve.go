package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kiosk-service/database"
	"kiosk-service/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, seed)
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "load the default catalog when the database is empty")
	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, seed bool) error {
	cfg, log := opts.cfg, opts.log

	app, err := buildApplication(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to start", zap.Error(err))
		return err
	}
	defer app.Close()

	if seed {
		if err := database.Seed(ctx, app.db, log); err != nil {
			return err
		}
	}

	workers, cancelWorkers := context.WithCancel(context.Background())
	cleanupDone := services.StartPeriodic(workers, "order-cleanup", cfg.CleanupInterval, log, services.RunCleanup(app.orders))
	sweepDone := services.StartPeriodic(workers, "device-sweep", cfg.SweepInterval, log, services.RunSweep(app.devices))
	go app.limiter.Run(workers)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Kiosk service starting",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("status_policy", cfg.StatusPolicy),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down kiosk service...")
	case err := <-serveErr:
		if err != nil {
			log.Error("Server failed", zap.Error(err))
			cancelWorkers()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	app.hub.Close()

	cancelWorkers()
	<-cleanupDone
	<-sweepDone

	log.Info("Kiosk service stopped gracefully")
	return nil
}
