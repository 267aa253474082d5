package app

import (
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/poyrazK/zonectl/internal/adapters/reload"
	"github.com/poyrazK/zonectl/internal/config"
	"github.com/poyrazK/zonectl/internal/core/services"
)

// ErrAgentNeedsRedis is returned when reload-agent runs without redis.addr.
var ErrAgentNeedsRedis = errors.New("reload-agent requires redis.addr")

func newReloadAgentCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reload-agent",
		Short: "Reload zones announced on the redis channel by running the reload command",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Redis.Addr == "" {
				return ErrAgentNeedsRedis
			}
			if len(cfg.Reload.Command) == 0 {
				return config.ErrReloadCommandRequired
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sub := reload.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
			defer sub.Close()

			exec := reload.NewExec(cfg.Reload.Command, cfg.Reload.Timeout, componentLogger("reload"))
			return services.NewReloadAgent(sub, exec, componentLogger("reload-agent")).Run(ctx)
		},
	}
}
