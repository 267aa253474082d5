package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/poyrazK/zonectl/internal/core/domain"
	"github.com/poyrazK/zonectl/internal/core/ports"
	"github.com/poyrazK/zonectl/internal/infrastructure/metrics"
)

// ErrSubscriptionClosed is returned by ReloadAgent.Run when the subscription
// ends while the agent is still supposed to run.
var ErrSubscriptionClosed = errors.New("reload subscription closed")

// ReloadAgent runs next to the name server and reloads every zone announced
// on the subscription.
type ReloadAgent struct {
	sub      ports.ReloadSubscriber
	reloader ports.Reloader
	logger   *zerolog.Logger
}

func NewReloadAgent(sub ports.ReloadSubscriber, reloader ports.Reloader, logger *zerolog.Logger) *ReloadAgent {
	if logger == nil {
		logger = &log.Logger
	}
	return &ReloadAgent{sub: sub, reloader: reloader, logger: logger}
}

// Run blocks until ctx is done. Reload failures are logged and do not stop the agent.
func (a *ReloadAgent) Run(ctx context.Context) error {
	zones, err := a.sub.Subscribe(ctx)
	if err != nil {
		return err
	}
	a.logger.Info().Msg("reload agent started")

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("shutting down reload agent")
			return nil
		case zone, ok := <-zones:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrSubscriptionClosed
			}
			a.handle(ctx, zone)
		}
	}
}

func (a *ReloadAgent) handle(ctx context.Context, zone string) {
	zone = domain.NormalizeZoneName(zone)
	if err := domain.ValidateZoneName(zone); err != nil {
		a.logger.Warn().Err(err).Str("zone", zone).Msg("ignoring reload of invalid zone name")
		return
	}

	if err := a.reloader.Reload(ctx, zone); err != nil {
		metrics.ReloadsTotal.WithLabelValues("error").Inc()
		a.logger.Error().Err(err).Str("zone", zone).Msg("zone reload failed")
		return
	}
	metrics.ReloadsTotal.WithLabelValues("success").Inc()
	a.logger.Info().Str("zone", zone).Msg("zone reloaded")
}
