package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/poyrazK/zonectl/internal/core/domain"
	"github.com/poyrazK/zonectl/internal/core/ports"
	"github.com/poyrazK/zonectl/internal/infrastructure/metrics"
)

// Pinger is a dependency whose reachability is part of the health report.
type Pinger interface {
	Ping(ctx context.Context) error
}

// zoneForgetter is implemented by lookups that cache answers per zone.
type zoneForgetter interface {
	Forget(zone string)
}

// Option configures a ZoneService.
type Option func(*ZoneService)

// WithPinger adds a named dependency to HealthCheck.
func WithPinger(name string, p Pinger) Option {
	return func(s *ZoneService) {
		s.pingers[name] = p
	}
}

// WithClock replaces the clock stamped on journal entries.
func WithClock(now func() time.Time) Option {
	return func(s *ZoneService) {
		s.now = now
	}
}

// ZoneService coordinates record mutations. Every mutation of a zone runs
// under that zone's lock, from the existence check through the reload.
type ZoneService struct {
	store    ports.ZoneStore
	registry ports.Registry
	reloader ports.Reloader
	lookup   ports.Lookup
	journal  ports.ChangeJournal
	pingers  map[string]Pinger
	locks    *keyedMutex
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewZoneService(
	store ports.ZoneStore,
	registry ports.Registry,
	reloader ports.Reloader,
	lookup ports.Lookup,
	journal ports.ChangeJournal,
	logger *zerolog.Logger,
	opts ...Option,
) *ZoneService {
	if logger == nil {
		logger = &log.Logger
	}
	s := &ZoneService{
		store:    store,
		registry: registry,
		reloader: reloader,
		lookup:   lookup,
		journal:  journal,
		pingers:  make(map[string]Pinger),
		locks:    newKeyedMutex(),
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRecord appends a record to the zone, creating and registering the zone first if needed.
// ctx is only honoured until the zone file is first written; the rest of the
// mutation, reload and journal included, runs to completion.
func (s *ZoneService) AddRecord(ctx context.Context, req domain.AddRecordRequest) (res *domain.MutationResult, err error) {
	defer s.observe("add", time.Now(), &err)

	zone, err := domain.ValidateAddRecord(req)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(zone)
	defer unlock()

	res = &domain.MutationResult{Zone: zone}

	exists, err := s.store.Exists(ctx, zone)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Past this point the zone is written; cancellation must not leave the
	// record in the file without a serial bump and reload.
	ctx = context.WithoutCancel(ctx)

	if !exists {
		if err := s.createZone(ctx, zone); err != nil {
			return nil, err
		}
		res.Created = true
	}

	rec := domain.Record{Name: req.Name, Type: req.Type, Value: req.Value}
	if err := s.store.AppendRecord(ctx, zone, rec); err != nil {
		return nil, err
	}

	res.Serial, err = s.store.BumpSerial(ctx, zone)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, &domain.ZoneChange{
		Zone:   zone,
		Serial: res.Serial,
		Action: domain.ActionAdd,
		Name:   rec.Name,
		Type:   rec.Type,
		Value:  rec.Value,
	})
	return res, nil
}

// DeleteRecord drops every line of the zone that matches req.Name. Matching
// nothing is not an error: the serial is still bumped and the zone reloaded.
// Like AddRecord, ctx is only honoured until the zone file is first written.
func (s *ZoneService) DeleteRecord(ctx context.Context, req domain.DeleteRecordRequest) (res *domain.MutationResult, err error) {
	defer s.observe("delete", time.Now(), &err)

	zone, err := domain.ValidateDeleteRecord(req)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(zone)
	defer unlock()

	exists, err := s.store.Exists(ctx, zone)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Wrapf(domain.ErrZoneNotFound, "zone %s", zone)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	res = &domain.MutationResult{Zone: zone}
	res.Removed, err = s.store.RemoveRecord(ctx, zone, req.Name)
	if err != nil {
		return nil, err
	}
	if res.Removed == 0 {
		s.logger.Warn().Str("zone", zone).Str("name", req.Name).Msg("delete matched no lines")
	}

	res.Serial, err = s.store.BumpSerial(ctx, zone)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, &domain.ZoneChange{
		Zone:    zone,
		Serial:  res.Serial,
		Action:  domain.ActionDelete,
		Name:    req.Name,
		Removed: res.Removed,
	})
	return res, nil
}

// CheckZone asks the name server about the zone and returns its answer verbatim.
func (s *ZoneService) CheckZone(ctx context.Context, zone string) (string, error) {
	zone = domain.NormalizeZoneName(zone)
	if err := domain.ValidateZoneName(zone); err != nil {
		return "", err
	}

	out, err := s.lookup.Query(ctx, zone)
	if err != nil {
		metrics.LookupsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.LookupsTotal.WithLabelValues("success").Inc()
	return out, nil
}

// ListRecords returns the records in the zone file, in file order.
func (s *ZoneService) ListRecords(ctx context.Context, zone string) ([]domain.Record, error) {
	zone = domain.NormalizeZoneName(zone)
	if err := domain.ValidateZoneName(zone); err != nil {
		return nil, err
	}

	records, err := s.store.Records(ctx, zone)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errors.Wrapf(domain.ErrZoneNotFound, "zone %s", zone)
	}
	return records, err
}

// ListChanges returns the journal entries of the zone newer than fromSerial.
func (s *ZoneService) ListChanges(ctx context.Context, zone string, fromSerial uint64) ([]domain.ZoneChange, error) {
	zone = domain.NormalizeZoneName(zone)
	if err := domain.ValidateZoneName(zone); err != nil {
		return nil, err
	}
	return s.journal.ListChanges(ctx, zone, fromSerial)
}

// HealthCheck reports the state of the journal, the registered pingers and
// the registry. A registry entry without a zone file counts as unhealthy.
func (s *ZoneService) HealthCheck(ctx context.Context) map[string]error {
	health := map[string]error{
		"journal":  s.journal.Ping(ctx),
		"registry": s.checkRegistry(ctx),
	}
	for name, p := range s.pingers {
		health[name] = p.Ping(ctx)
	}
	return health
}

func (s *ZoneService) checkRegistry(ctx context.Context) error {
	zones, err := s.registry.Zones(ctx)
	if err != nil {
		return err
	}

	var missing []string
	for _, zone := range zones {
		exists, err := s.store.Exists(ctx, zone)
		if err != nil {
			return err
		}
		if !exists {
			missing = append(missing, zone)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.Errorf("registered zones without a zone file: %s", strings.Join(missing, ", "))
	}
	return nil
}

// createZone writes the zone file and registers it. The file is removed
// again if registration fails, so a zone file never exists unregistered.
// ctx must not be cancellable.
func (s *ZoneService) createZone(ctx context.Context, zone string) error {
	if err := s.store.Create(ctx, zone); err != nil {
		return err
	}

	if err := s.registry.Register(ctx, zone, s.store.Path(zone)); err != nil {
		if derr := s.store.Discard(ctx, zone); derr != nil {
			s.logger.Error().Err(derr).Str("zone", zone).Msg("failed to discard unregistered zone file")
		}
		return err
	}

	metrics.ZonesCreated.Inc()
	s.logger.Info().Str("zone", zone).Str("file", s.store.Path(zone)).Msg("zone created")
	return nil
}

// afterMutation reloads the zone and journals the change. Neither failure
// fails the mutation: the zone file is already updated.
func (s *ZoneService) afterMutation(ctx context.Context, change *domain.ZoneChange) {
	metrics.ZoneSerial.WithLabelValues(change.Zone).Set(float64(change.Serial))
	if f, ok := s.lookup.(zoneForgetter); ok {
		f.Forget(change.Zone)
	}

	if err := s.reloader.Reload(ctx, change.Zone); err != nil {
		metrics.ReloadsTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Str("zone", change.Zone).Msg("zone reload failed")
	} else {
		metrics.ReloadsTotal.WithLabelValues("success").Inc()
	}

	change.CreatedAt = s.now().UTC()
	if err := s.journal.RecordChange(ctx, change); err != nil {
		metrics.JournalErrors.Inc()
		s.logger.Error().Err(err).Str("zone", change.Zone).Uint64("serial", change.Serial).Msg("failed to journal change")
	}

	s.logger.Info().
		Str("zone", change.Zone).
		Str("action", change.Action).
		Str("name", change.Name).
		Uint64("serial", change.Serial).
		Msg("zone updated")
}

func (s *ZoneService) lock(zone string) func() {
	start := time.Now()
	unlock := s.locks.Lock(zone)
	metrics.LockWait.Observe(time.Since(start).Seconds())
	return unlock
}

func (s *ZoneService) observe(op string, start time.Time, err *error) {
	result := "success"
	if *err != nil {
		result = "error"
	}
	metrics.MutationsTotal.WithLabelValues(op, result).Inc()
	metrics.MutationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
