package app

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/poyrazK/zonectl/internal/adapters/api"
	"github.com/poyrazK/zonectl/internal/config"
	"github.com/poyrazK/zonectl/internal/core/services"
)

const readHeaderTimeout = 10 * time.Second

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the record management HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	schedule, err := config.ParseSchedule(cfg.Health.Schedule)
	if err != nil {
		return err
	}
	if schedule != nil {
		go services.NewHealthMonitor(c.svc, schedule, componentLogger("health")).Start(ctx)
	}

	handler := api.NewAPIHandler(c.svc, cfg.API.Tokens, componentLogger("api"))
	srv := &http.Server{
		Addr:              cfg.API.Address,
		Handler:           handler.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.API.Address).Msg("management API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server failed")
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down management API")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return errors.Wrap(err, "http server shutdown")
	}
	return nil
}
