package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/reel/internal/api"
	"github.com/jbweber/homelab/reel/internal/config"
	"github.com/jbweber/homelab/reel/internal/events"
	"github.com/jbweber/homelab/reel/internal/repository"
	"github.com/jbweber/homelab/reel/internal/service"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the movie HTTP API.

The database is created and migrated on startup. Movie change events are
published to AMQP when events.amqp_url is configured.

Example:
  reel serve --addr :8080
  REEL_DB_DRIVER=postgres REEL_DB_DSN=postgres://... reel serve`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := rootOpts.load(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := cfg.InitializeDatabase(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}()

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("error closing event publisher", "error", err)
		}
	}()

	repo := repository.NewMovieRepository(ds)
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("error closing movie repository", "error", err)
		}
	}()

	svc := service.NewMovieService(repo, publisher, logger)
	handler := api.NewAPI(svc, ds, api.Options{
		Logger: logger,
		RateLimit: api.RateLimitOptions{
			Enabled: cfg.RateLimit.Enabled,
			RPS:     cfg.RateLimit.RPS,
			Burst:   cfg.RateLimit.Burst,
		},
		TrustProxyHeaders: cfg.HTTP.TrustProxyHeaders,
	}).Handler()

	srv := newServer(cfg.HTTP, handler, logger)

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		logger.Info("starting reel", "addr", srv.Addr, "driver", ds.Dialect.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newServer(cfg config.HTTPConfig, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

// newPublisher connects to AMQP when configured and discards events otherwise.
func newPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.Events.AMQPURL == "" {
		return events.Noop{}, nil
	}

	p, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
	if err != nil {
		return nil, err
	}
	logger.Info("publishing movie events", "exchange", cfg.Events.Exchange)
	return p, nil
}
