package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/poyrazK/zonectl/internal/core/ports"
	"github.com/poyrazK/zonectl/internal/infrastructure/metrics"
)

// Schedule yields the next activation time after a given time.
type Schedule interface {
	Next(time.Time) time.Time
}

// HealthMonitor runs the zone service health check on a schedule, exports
// the result as metrics and logs every state change.
type HealthMonitor struct {
	svc      ports.ZoneService
	schedule Schedule
	logger   *zerolog.Logger

	mu      sync.Mutex
	healthy map[string]bool
}

func NewHealthMonitor(svc ports.ZoneService, schedule Schedule, logger *zerolog.Logger) *HealthMonitor {
	if logger == nil {
		logger = &log.Logger
	}
	return &HealthMonitor{
		svc:      svc,
		schedule: schedule,
		logger:   logger,
		healthy:  make(map[string]bool),
	}
}

// Start checks immediately and then on every activation of the schedule until ctx is done.
func (m *HealthMonitor) Start(ctx context.Context) {
	m.logger.Info().Msg("starting health monitor")
	m.TriggerCheck(ctx)

	for {
		wait := time.Until(m.schedule.Next(time.Now()))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info().Msg("shutting down health monitor")
			return
		case <-timer.C:
			m.TriggerCheck(ctx)
		}
	}
}

// TriggerCheck performs one health check and reports whether everything passed.
func (m *HealthMonitor) TriggerCheck(ctx context.Context) bool {
	health := m.svc.HealthCheck(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	all := true
	for check, err := range health {
		ok := err == nil
		all = all && ok

		status := 0.0
		if ok {
			status = 1
		}
		metrics.HealthStatus.WithLabelValues(check).Set(status)

		prev, seen := m.healthy[check]
		m.healthy[check] = ok
		switch {
		case !ok && (!seen || prev):
			m.logger.Warn().Err(err).Str("check", check).Msg("dependency unhealthy")
		case ok && seen && !prev:
			m.logger.Info().Str("check", check).Msg("dependency recovered")
		}
	}
	return all
}
