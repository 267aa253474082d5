package services_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poyrazK/zonectl/internal/adapters/lookup"
	"github.com/poyrazK/zonectl/internal/adapters/registry"
	"github.com/poyrazK/zonectl/internal/adapters/zonefile"
	"github.com/poyrazK/zonectl/internal/config"
	"github.com/poyrazK/zonectl/internal/core/domain"
	"github.com/poyrazK/zonectl/internal/core/ports"
	"github.com/poyrazK/zonectl/internal/core/services"
	"github.com/poyrazK/zonectl/internal/testutil"
)

var fixedNow = time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc          *services.ZoneService
	store        *zonefile.Store
	registryPath string
	reloader     *testutil.MockReloader
	lookup       *testutil.MockLookup
	journal      *testutil.MockJournal
}

func newFixture(t *testing.T, reg ports.Registry) *fixture {
	t.Helper()
	dir := t.TempDir()

	store := zonefile.NewStore(config.Zone{
		Dir:         dir,
		DeleteMatch: config.MatchSubstring,
		FileMode:    0o644,
		TTL:         86400,
		Hostmaster:  "admin",
		Refresh:     3600,
		Retry:       1800,
		Expire:      604800,
		Minimum:     86400,
		Nameservers: []string{"192.168.1.10", "192.168.1.11"},
	}).WithClock(func() time.Time { return fixedNow })

	registryPath := filepath.Join(dir, "named.conf")
	if reg == nil {
		reg = registry.NewNamedConf(registryPath)
	}

	f := &fixture{
		store:        store,
		registryPath: registryPath,
		reloader:     &testutil.MockReloader{},
		lookup:       &testutil.MockLookup{},
		journal:      &testutil.MockJournal{},
	}
	f.svc = services.NewZoneService(store, reg, f.reloader, f.lookup, f.journal, nil,
		services.WithClock(func() time.Time { return fixedNow }))
	return f
}

func (f *fixture) zoneFile(t *testing.T, zone string) string {
	t.Helper()
	data, err := os.ReadFile(f.store.Path(zone))
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) registryFile(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.registryPath)
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}

func addA(name, value string) domain.AddRecordRequest {
	return domain.AddRecordRequest{Domain: "example.com", Type: domain.TypeA, Name: name, Value: value}
}

func TestZoneService_AddRecordCreatesZone(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.svc.AddRecord(ctx, addA("www", "10.0.0.1"))
	require.NoError(t, err)
	assert.Equal(t, "example.com", res.Zone)
	assert.True(t, res.Created)
	assert.Equal(t, uint64(2026101700), res.Serial)

	content := f.zoneFile(t, "example.com")
	assert.Contains(t, content, "www IN A 10.0.0.1\n")
	assert.Contains(t, content, "2026101700  ; Serial number")

	reg := f.registryFile(t)
	assert.Contains(t, reg, "zone \"example.com\" {\n    type master;\n    file \""+f.store.Path("example.com")+"\";\n};\n")

	assert.Equal(t, []string{"example.com"}, f.reloader.Calls())
	require.Len(t, f.journal.Changes, 1)
	change := f.journal.Changes[0]
	assert.Equal(t, domain.ActionAdd, change.Action)
	assert.Equal(t, uint64(2026101700), change.Serial)
	assert.Equal(t, domain.TypeA, change.Type)
	assert.Equal(t, fixedNow, change.CreatedAt)
}

func TestZoneService_AddRecordIdempotentCreation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.AddRecord(ctx, addA("www", "10.0.0.1"))
	require.NoError(t, err)
	res, err := f.svc.AddRecord(ctx, domain.AddRecordRequest{Domain: "Example.COM.", Type: domain.TypeMX, Name: "@", Value: "10 mail.example.com."})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, uint64(2026101701), res.Serial)

	assert.Equal(t, 1, strings.Count(f.registryFile(t), `zone "example.com"`))
	assert.Equal(t, 1, strings.Count(f.zoneFile(t, "example.com"), "IN  SOA"))
	assert.Contains(t, f.zoneFile(t, "example.com"), "@ IN MX 10 mail.example.com.\n")
}

func TestZoneService_AddRecordRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	reqs := []domain.AddRecordRequest{
		addA("www", "10.0.0.1"),
		{Domain: "example.com", Type: domain.TypeCNAME, Name: "blog", Value: "www.example.com."},
		{Domain: "example.com", Type: domain.TypeTXT, Name: "@", Value: `"v=spf1 -all"`},
	}
	for _, req := range reqs {
		_, err := f.svc.AddRecord(ctx, req)
		require.NoError(t, err)
	}

	content := f.zoneFile(t, "example.com")
	for _, req := range reqs {
		line := fmt.Sprintf("%s IN %s %s\n", req.Name, req.Type, req.Value)
		assert.Equal(t, 1, strings.Count(content, line), line)
	}

	records, err := f.svc.ListRecords(ctx, "example.com")
	require.NoError(t, err)
	assert.Len(t, records, 5+len(reqs))
	assert.Equal(t, "www.example.com.", records[5].Name)
}

func TestZoneService_AddRecordRejectsInvalid(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.AddRecord(ctx, addA("www", "10.0.0.1"))
	require.NoError(t, err)
	before := f.zoneFile(t, "example.com")

	tests := []struct {
		name string
		req  domain.AddRecordRequest
	}{
		{"unsupported type", domain.AddRecordRequest{Domain: "example.com", Type: "PTR", Name: "1", Value: "host.example.com."}},
		{"missing value", domain.AddRecordRequest{Domain: "example.com", Type: domain.TypeA, Name: "www"}},
		{"newline injection", domain.AddRecordRequest{Domain: "example.com", Type: domain.TypeA, Name: "www", Value: "10.0.0.2\n@ IN NS evil."}},
		{"bad address", domain.AddRecordRequest{Domain: "example.com", Type: domain.TypeA, Name: "www", Value: "not-an-ip"}},
		{"path traversal", domain.AddRecordRequest{Domain: "../etc", Type: domain.TypeA, Name: "www", Value: "10.0.0.2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddRecord(ctx, tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	assert.Equal(t, before, f.zoneFile(t, "example.com"))
	assert.Len(t, f.reloader.Calls(), 1)
}

func TestZoneService_AddRecordRollsBackOnRegistryFailure(t *testing.T) {
	f := newFixture(t, &testutil.MockRegistry{FailRegister: true})
	ctx := context.Background()

	_, err := f.svc.AddRecord(ctx, addA("www", "10.0.0.1"))
	require.Error(t, err)

	exists, err := f.store.Exists(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, exists, "zone file must not outlive a failed registration")
	assert.Empty(t, f.reloader.Calls())
	assert.Empty(t, f.journal.Changes)
}

func TestZoneService_ReloadAndJournalFailuresAreSwallowed(t *testing.T) {
	f := newFixture(t, nil)
	f.reloader.Fail = true
	f.journal.FailRecord = true
	ctx := context.Background()

	res, err := f.svc.AddRecord(ctx, addA("www", "10.0.0.1"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2026101700), res.Serial)
	assert.Contains(t, f.zoneFile(t, "example.com"), "www IN A 10.0.0.1\n")
	assert.Equal(t, []string{"example.com"}, f.reloader.Calls())
}

func TestZoneService_DeleteRecord(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.AddRecord(ctx, addA("www", "10.0.0.1"))
	require.NoError(t, err)
	_, err = f.svc.AddRecord(ctx, addA("api", "10.0.0.2"))
	require.NoError(t, err)

	res, err := f.svc.DeleteRecord(ctx, domain.DeleteRecordRequest{Domain: "example.com", Name: "www"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, uint64(2026101702), res.Serial)

	content := f.zoneFile(t, "example.com")
	assert.NotContains(t, content, "www IN A")
	assert.Contains(t, content, "api IN A 10.0.0.2\n")
	assert.Contains(t, content, "@   IN  NS  ns1.example.com.\n")

	require.Len(t, f.journal.Changes, 3)
	assert.Equal(t, domain.ActionDelete, f.journal.Changes[2].Action)
	assert.Equal(t, 1, f.journal.Changes[2].Removed)
}

func TestZoneService_DeleteRecordNoMatchStillBumps(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.AddRecord(ctx, addA("www", "10.0.0.1"))
	require.NoError(t, err)

	res, err := f.svc.DeleteRecord(ctx, domain.DeleteRecordRequest{Domain: "example.com", Name: "ghost"})
	require.NoError(t, err)
	assert.Zero(t, res.Removed)
	assert.Equal(t, uint64(2026101701), res.Serial)
	assert.Len(t, f.reloader.Calls(), 2)
}

func TestZoneService_DeleteRecordUnknownZone(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.DeleteRecord(ctx, domain.DeleteRecordRequest{Domain: "missing.test", Name: "www"})
	assert.ErrorIs(t, err, domain.ErrZoneNotFound)

	_, statErr := os.Stat(f.store.Path("missing.test"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, f.registryFile(t))
	assert.Empty(t, f.reloader.Calls())
	assert.Empty(t, f.journal.Changes)
}

func TestZoneService_DeleteRecordProtectsSOA(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.AddRecord(ctx, addA("www", "10.0.0.1"))
	require.NoError(t, err)
	before := f.zoneFile(t, "example.com")

	_, err = f.svc.DeleteRecord(ctx, domain.DeleteRecordRequest{Domain: "example.com", Name: "example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, before, f.zoneFile(t, "example.com"))
}

func TestZoneService_ConcurrentAdds(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	const n = 25

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.AddRecord(ctx, addA(fmt.Sprintf("host%d", i), fmt.Sprintf("10.0.1.%d", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	content := f.zoneFile(t, "example.com")
	for i := 0; i < n; i++ {
		assert.Equal(t, 1, strings.Count(content, fmt.Sprintf("host%d IN A 10.0.1.%d\n", i, i)))
	}
	assert.Equal(t, 1, strings.Count(f.registryFile(t), `zone "example.com"`))
	assert.Contains(t, content, fmt.Sprintf("%d  ; Serial number", uint64(2026101700+n-1)))
	assert.Len(t, f.reloader.Calls(), n)
}

func TestZoneService_ConcurrentZones(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	zones := []string{"a.test", "b.test", "c.test", "d.test"}

	var wg sync.WaitGroup
	for _, zone := range zones {
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(zone string, i int) {
				defer wg.Done()
				_, err := f.svc.AddRecord(ctx, domain.AddRecordRequest{Domain: zone, Type: domain.TypeA, Name: fmt.Sprintf("h%d", i), Value: "10.0.0.1"})
				assert.NoError(t, err)
			}(zone, i)
		}
	}
	wg.Wait()

	reg := f.registryFile(t)
	for _, zone := range zones {
		assert.Equal(t, 1, strings.Count(reg, fmt.Sprintf("zone %q", zone)), zone)
		assert.Contains(t, f.zoneFile(t, zone), "2026101704  ; Serial number")
	}
}

func TestZoneService_CheckZone(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.lookup.Output = ";; ANSWER SECTION:\nexample.com. IN SOA ..."
	out, err := f.svc.CheckZone(ctx, "Example.com.")
	require.NoError(t, err)
	assert.Equal(t, f.lookup.Output, out)
	assert.Equal(t, []string{"example.com"}, f.lookup.Queried)

	f.lookup.Err = &domain.LookupError{Domain: "example.com", Details: "connection timed out"}
	_, err = f.svc.CheckZone(ctx, "example.com")
	assert.ErrorIs(t, err, domain.ErrLookupFailed)

	_, err = f.svc.CheckZone(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestZoneService_ListRecordsUnknownZone(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ListRecords(context.Background(), "missing.test")
	assert.ErrorIs(t, err, domain.ErrZoneNotFound)
}

func TestZoneService_ListChanges(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := f.svc.AddRecord(ctx, addA(name, "10.0.0.1"))
		require.NoError(t, err)
	}

	changes, err := f.svc.ListChanges(ctx, "example.com", 2026101700)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "b", changes[0].Name)
}

func TestZoneService_HealthCheck(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.AddRecord(ctx, addA("www", "10.0.0.1"))
	require.NoError(t, err)

	health := f.svc.HealthCheck(ctx)
	assert.NoError(t, health["journal"])
	assert.NoError(t, health["registry"])

	require.NoError(t, os.Remove(f.store.Path("example.com")))
	health = f.svc.HealthCheck(ctx)
	require.Error(t, health["registry"])
	assert.Contains(t, health["registry"].Error(), "example.com")
}

func TestZoneService_HealthCheckPingers(t *testing.T) {
	f := newFixture(t, nil)
	svc := services.NewZoneService(f.store, registry.NewNamedConf(f.registryPath), f.reloader, f.lookup,
		&testutil.MockJournal{PingErr: fmt.Errorf("db down")}, nil,
		services.WithPinger("redis", &testutil.MockPinger{}))

	health := svc.HealthCheck(context.Background())
	assert.Error(t, health["journal"])
	assert.NoError(t, health["redis"])
	assert.Len(t, health, 3)
}

func TestZoneService_MutationForgetsCachedLookup(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	cached := lookup.NewCached(f.lookup, time.Hour)
	svc := services.NewZoneService(f.store, registry.NewNamedConf(f.registryPath), f.reloader, cached, f.journal, nil)

	f.lookup.Output = "before"
	out, err := svc.CheckZone(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, "before", out)

	_, err = svc.AddRecord(ctx, addA("www", "10.0.0.1"))
	require.NoError(t, err)

	f.lookup.Output = "after"
	out, err = svc.CheckZone(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, "after", out)
	assert.Len(t, f.lookup.Queried, 2)
}

// cancellingStore cancels the request context once a record has been written.
type cancellingStore struct {
	*zonefile.Store
	cancel context.CancelFunc
}

func (s *cancellingStore) AppendRecord(ctx context.Context, zone string, record domain.Record) error {
	err := s.Store.AppendRecord(ctx, zone, record)
	s.cancel()
	return err
}

func (s *cancellingStore) RemoveRecord(ctx context.Context, zone string, name string) (int, error) {
	n, err := s.Store.RemoveRecord(ctx, zone, name)
	s.cancel()
	return n, err
}

// ctxReloader records whether the context was still live when a reload was requested.
type ctxReloader struct {
	mu    sync.Mutex
	zones []string
	errs  []error
}

func (r *ctxReloader) Reload(ctx context.Context, zone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zones = append(r.zones, zone)
	r.errs = append(r.errs, ctx.Err())
	return nil
}

func TestZoneService_CancelAfterWriteCompletesMutation(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.AddRecord(context.Background(), addA("www", "10.0.0.1"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloader := &ctxReloader{}
	journal := &testutil.MockJournal{}
	svc := services.NewZoneService(&cancellingStore{Store: f.store, cancel: cancel},
		registry.NewNamedConf(f.registryPath), reloader, f.lookup, journal, nil)

	res, err := svc.AddRecord(ctx, addA("api", "10.0.0.2"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2026101701), res.Serial)
	assert.Contains(t, f.zoneFile(t, "example.com"), "2026101701  ; Serial number")
	assert.Contains(t, f.zoneFile(t, "example.com"), "api IN A 10.0.0.2\n")

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	svc = services.NewZoneService(&cancellingStore{Store: f.store, cancel: cancel},
		registry.NewNamedConf(f.registryPath), reloader, f.lookup, journal, nil)

	res, err = svc.DeleteRecord(ctx, domain.DeleteRecordRequest{Domain: "example.com", Name: "api"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, uint64(2026101702), res.Serial)
	assert.NotContains(t, f.zoneFile(t, "example.com"), "api IN A")

	assert.Equal(t, []string{"example.com", "example.com"}, reloader.zones)
	assert.Equal(t, []error{nil, nil}, reloader.errs, "reloads run with a live context")
	assert.Len(t, journal.Changes, 2)
}

func TestZoneService_CancelBeforeWriteChangesNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.AddRecord(ctx, addA("www", "10.0.0.1"))
	assert.ErrorIs(t, err, context.Canceled)

	exists, err := f.store.Exists(context.Background(), "example.com")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, f.registryFile(t))
	assert.Empty(t, f.reloader.Calls())
}
