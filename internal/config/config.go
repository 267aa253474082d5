// Package config loads zonectl settings from a YAML file and ZONECTL_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// ScheduleDisabled turns a schedule off.
const ScheduleDisabled = "@disabled"

// EnvPrefix is prepended to every environment override, e.g. ZONECTL_ZONE_DIR.
const EnvPrefix = "ZONECTL"

// SetDefaults registers the default value of every key. Keys without a default
// are not picked up from the environment by viper.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("zone.dir", "/etc/bind/zones")
	v.SetDefault("zone.delete_match", MatchSubstring)
	v.SetDefault("zone.file_mode", 0o644)
	v.SetDefault("zone.ttl", 86400)
	v.SetDefault("zone.hostmaster", "admin")
	v.SetDefault("zone.refresh", 3600)
	v.SetDefault("zone.retry", 1800)
	v.SetDefault("zone.expire", 604800)
	v.SetDefault("zone.minimum", 86400)
	v.SetDefault("zone.nameservers", []string{"192.168.1.10", "192.168.1.11"})

	v.SetDefault("registry.file", "/etc/bind/named.conf")

	v.SetDefault("reload.mode", ReloadExec)
	v.SetDefault("reload.command", []string{"/entrypoint.sh", "reload_bind"})
	v.SetDefault("reload.timeout", 30*time.Second)

	v.SetDefault("lookup.mode", LookupDig)
	v.SetDefault("lookup.server", "localhost")
	v.SetDefault("lookup.port", 53)
	v.SetDefault("lookup.dig_path", "dig")
	v.SetDefault("lookup.timeout", 10*time.Second)
	v.SetDefault("lookup.cache_ttl", 0)

	v.SetDefault("health.schedule", "@every 1m")

	v.SetDefault("api.address", "0.0.0.0:5000")
	v.SetDefault("api.shutdown_timeout", 5*time.Second)
	v.SetDefault("api.tokens", []string{})

	v.SetDefault("postgres.dsn", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "zonectl:reload")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.report_caller", false)
	v.SetDefault("log.app_name", "zonectl")
	v.SetDefault("log.service_name", "zonectl")
	v.SetDefault("log.console.enabled", true)
	v.SetDefault("log.console.pretty", false)
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", "/var/log/zonectl")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.max_age", 28)
}

// ReadConfig loads the config file at path (optional) and applies env overrides.
func ReadConfig(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "failed to read config file")
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	return c, Validate(&c)
}

// Validate checks struct tags plus the rules spanning several sections.
func Validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	switch c.Reload.Mode {
	case ReloadRedis, ReloadBoth:
		if c.Redis.Addr == "" {
			return errors.Wrap(ErrRedisAddrRequired, invalidErrMessage)
		}
	}

	switch c.Reload.Mode {
	case ReloadExec, ReloadBoth:
		if len(c.Reload.Command) == 0 {
			return errors.Wrap(ErrReloadCommandRequired, invalidErrMessage)
		}
	}

	if _, err := ParseSchedule(c.Health.Schedule); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	if c.API.ShutdownTimeout == 0 {
		c.API.ShutdownTimeout = 5 * time.Second
	}

	return nil
}

// ParseSchedule parses a standard cron expression or descriptor. It returns
// a nil schedule for ScheduleDisabled.
func ParseSchedule(spec string) (cron.Schedule, error) {
	if spec == ScheduleDisabled {
		return nil, nil
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSchedule, "%q: %v", spec, err)
	}
	return sched, nil
}
