package app

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/poyrazK/zonectl/internal/adapters/lookup"
	"github.com/poyrazK/zonectl/internal/adapters/registry"
	"github.com/poyrazK/zonectl/internal/adapters/reload"
	"github.com/poyrazK/zonectl/internal/adapters/repository"
	"github.com/poyrazK/zonectl/internal/adapters/zonefile"
	"github.com/poyrazK/zonectl/internal/config"
	"github.com/poyrazK/zonectl/internal/core/ports"
	"github.com/poyrazK/zonectl/internal/core/services"
)

const migrateTimeout = 30 * time.Second

// components holds everything built from the configuration plus the
// functions releasing it.
type components struct {
	svc     *services.ZoneService
	redis   *reload.Redis
	closers []func() error
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			log.Warn().Err(err).Msg("failed to release resource")
		}
	}
}

func buildComponents(ctx context.Context, cfg *config.Config) (*components, error) {
	c := &components{}

	journal, err := buildJournal(ctx, cfg, c)
	if err != nil {
		c.Close()
		return nil, err
	}

	var opts []services.Option
	if cfg.Redis.Addr != "" {
		c.redis = reload.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
		c.closers = append(c.closers, c.redis.Close)
		opts = append(opts, services.WithPinger("redis", c.redis))
	}

	c.svc = services.NewZoneService(
		zonefile.NewStore(cfg.Zone),
		registry.NewNamedConf(cfg.Registry.File),
		buildReloader(cfg, c.redis),
		buildLookup(cfg),
		journal,
		componentLogger("zone-service"),
		opts...,
	)
	return c, nil
}

func buildJournal(ctx context.Context, cfg *config.Config, c *components) (ports.ChangeJournal, error) {
	if cfg.Postgres.DSN == "" {
		return repository.NopJournal{}, nil
	}

	db, err := sql.Open("pgx", cfg.Postgres.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "open journal database")
	}
	c.closers = append(c.closers, db.Close)

	journal := repository.NewPostgresJournal(db)
	mctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()
	if err := journal.Migrate(mctx); err != nil {
		return nil, err
	}
	return journal, nil
}

func buildReloader(cfg *config.Config, redis *reload.Redis) ports.Reloader {
	exec := reload.NewExec(cfg.Reload.Command, cfg.Reload.Timeout, componentLogger("reload"))

	switch cfg.Reload.Mode {
	case config.ReloadExec:
		return exec
	case config.ReloadRedis:
		return redis
	case config.ReloadBoth:
		return reload.Multi{exec, redis}
	default:
		return reload.Nop{}
	}
}

func buildLookup(cfg *config.Config) ports.Lookup {
	var l ports.Lookup = lookup.NewDig(cfg.Lookup.DigPath, cfg.Lookup.Server, cfg.Lookup.Port, cfg.Lookup.Timeout)
	if cfg.Lookup.Mode == config.LookupNative {
		l = lookup.NewNative(cfg.Lookup.Server, cfg.Lookup.Port, cfg.Lookup.Timeout)
	}
	if cfg.Lookup.CacheTTL > 0 {
		l = lookup.NewCached(l, cfg.Lookup.CacheTTL)
	}
	return l
}

func componentLogger(name string) *zerolog.Logger {
	l := log.With().Str("component", name).Logger()
	return &l
}
