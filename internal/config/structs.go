package config

import (
	"time"

	"github.com/poyrazK/zonectl/internal/logger"
)

// Delete match modes for zone.delete_match.
const (
	MatchSubstring = "substring"
	MatchField     = "field"
)

// Reload modes for reload.mode.
const (
	ReloadExec  = "exec"
	ReloadRedis = "redis"
	ReloadBoth  = "both"
	ReloadNone  = "none"
)

// Lookup modes for lookup.mode.
const (
	LookupDig    = "dig"
	LookupNative = "native"
)

// Config overall data structure.
type Config struct {
	Zone     Zone       `mapstructure:"zone"`
	Registry Registry   `mapstructure:"registry"`
	Reload   Reload     `mapstructure:"reload"`
	Lookup   Lookup     `mapstructure:"lookup"`
	API      API        `mapstructure:"api"`
	Health   Health     `mapstructure:"health"`
	Postgres Postgres   `mapstructure:"postgres"`
	Redis    Redis      `mapstructure:"redis"`
	Log      logger.Log `mapstructure:"log"`
}

// Zone holds the zone file settings, including the template used for new zones.
type Zone struct {
	Dir         string   `mapstructure:"dir" validate:"required"`
	DeleteMatch string   `mapstructure:"delete_match" validate:"oneof=substring field"`
	FileMode    uint32   `mapstructure:"file_mode" validate:"gt=0"`
	TTL         int      `mapstructure:"ttl" validate:"gt=0"`
	Hostmaster  string   `mapstructure:"hostmaster" validate:"required"`
	Refresh     int      `mapstructure:"refresh" validate:"gt=0"`
	Retry       int      `mapstructure:"retry" validate:"gt=0"`
	Expire      int      `mapstructure:"expire" validate:"gt=0"`
	Minimum     int      `mapstructure:"minimum" validate:"gt=0"`
	Nameservers []string `mapstructure:"nameservers" validate:"len=2,dive,ip"` // addresses of ns1 and ns2
}

// Registry points at the name-server configuration new zones are appended to.
type Registry struct {
	File string `mapstructure:"file" validate:"required"`
}

// Reload configures how the name server is told about changes.
type Reload struct {
	Mode    string        `mapstructure:"mode" validate:"oneof=exec redis both none"`
	Command []string      `mapstructure:"command"` // the zone name is appended as last argument
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// Lookup configures the zone check.
type Lookup struct {
	Mode    string        `mapstructure:"mode" validate:"oneof=dig native"`
	Server  string        `mapstructure:"server" validate:"required"`
	Port    int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	DigPath string        `mapstructure:"dig_path"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`

	// CacheTTL keeps successful answers for this long; zero disables the cache.
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

// Health configures the periodic health check run by serve.
type Health struct {
	// Schedule is a cron expression or descriptor such as "@every 1m"; "@disabled" turns it off.
	Schedule string `mapstructure:"schedule" validate:"required"`
}

// API holds the HTTP listener settings.
type API struct {
	Address         string        `mapstructure:"address" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Tokens are the bearer tokens accepted on mutating routes; empty disables auth.
	Tokens []string `mapstructure:"tokens" validate:"dive,min=16"`
}

// Postgres configures the change journal; an empty DSN disables it.
type Postgres struct {
	DSN string `mapstructure:"dsn"`
}

// Redis configures the reload channel shared with the reload agent.
type Redis struct {
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}
