package config

import (
	"errors"
)

var (
	// ErrRedisAddrRequired is returned when a redis reload mode is used without redis.addr.
	ErrRedisAddrRequired = errors.New("redis.addr is required when reload.mode is redis or both")

	// ErrReloadCommandRequired is returned when reload.mode is exec without a command.
	ErrReloadCommandRequired = errors.New("reload.command can not be empty when reload.mode is exec or both")

	// ErrInvalidSchedule is returned when health.schedule does not parse.
	ErrInvalidSchedule = errors.New("health.schedule is not a valid cron expression")
)
