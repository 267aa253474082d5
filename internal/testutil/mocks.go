package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/poyrazK/zonectl/internal/core/domain"
)

// MockReloader implements ports.Reloader for testing.
type MockReloader struct {
	mu    sync.Mutex
	Zones []string
	Fail  bool
}

func (m *MockReloader) Reload(_ context.Context, zone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Zones = append(m.Zones, zone)
	if m.Fail {
		return errors.New("reload failed")
	}
	return nil
}

// Calls returns a copy of the zones reloaded so far.
func (m *MockReloader) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Zones...)
}

// MockLookup implements ports.Lookup for testing.
type MockLookup struct {
	Output  string
	Err     error
	Queried []string
}

func (m *MockLookup) Query(_ context.Context, zone string) (string, error) {
	m.Queried = append(m.Queried, zone)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Output, nil
}

// MockJournal implements ports.ChangeJournal in memory.
type MockJournal struct {
	mu         sync.Mutex
	Changes    []domain.ZoneChange
	FailRecord bool
	PingErr    error
}

func (m *MockJournal) RecordChange(_ context.Context, change *domain.ZoneChange) error {
	if m.FailRecord {
		return errors.New("journal unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Changes = append(m.Changes, *change)
	return nil
}

func (m *MockJournal) ListChanges(_ context.Context, zone string, fromSerial uint64) ([]domain.ZoneChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.ZoneChange{}
	for _, c := range m.Changes {
		if c.Zone == zone && c.Serial > fromSerial {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockJournal) Ping(_ context.Context) error { return m.PingErr }

// MockRegistry implements ports.Registry in memory.
type MockRegistry struct {
	mu           sync.Mutex
	Files        map[string]string
	FailRegister bool
}

func (m *MockRegistry) Register(_ context.Context, zone string, file string) error {
	if m.FailRegister {
		return errors.New("registry not writable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Files == nil {
		m.Files = make(map[string]string)
	}
	m.Files[zone] = file
	return nil
}

func (m *MockRegistry) Zones(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	zones := make([]string, 0, len(m.Files))
	for z := range m.Files {
		zones = append(zones, z)
	}
	return zones, nil
}

// MockPinger implements services.Pinger for testing.
type MockPinger struct {
	Err error
}

func (m *MockPinger) Ping(_ context.Context) error { return m.Err }

// MockSubscriber implements ports.ReloadSubscriber on a caller-owned channel.
type MockSubscriber struct {
	C   chan string
	Err error
}

func (m *MockSubscriber) Subscribe(_ context.Context) (<-chan string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.C, nil
}

// MockZoneService implements ports.ZoneService with overridable functions.
type MockZoneService struct {
	AddRecordFunc    func(ctx context.Context, req domain.AddRecordRequest) (*domain.MutationResult, error)
	DeleteRecordFunc func(ctx context.Context, req domain.DeleteRecordRequest) (*domain.MutationResult, error)
	CheckZoneFunc    func(ctx context.Context, zone string) (string, error)
	ListRecordsFunc  func(ctx context.Context, zone string) ([]domain.Record, error)
	ListChangesFunc  func(ctx context.Context, zone string, fromSerial uint64) ([]domain.ZoneChange, error)
	Health           map[string]error
}

func (m *MockZoneService) AddRecord(ctx context.Context, req domain.AddRecordRequest) (*domain.MutationResult, error) {
	if m.AddRecordFunc != nil {
		return m.AddRecordFunc(ctx, req)
	}
	return &domain.MutationResult{Zone: req.Domain}, nil
}

func (m *MockZoneService) DeleteRecord(ctx context.Context, req domain.DeleteRecordRequest) (*domain.MutationResult, error) {
	if m.DeleteRecordFunc != nil {
		return m.DeleteRecordFunc(ctx, req)
	}
	return &domain.MutationResult{Zone: req.Domain}, nil
}

func (m *MockZoneService) CheckZone(ctx context.Context, zone string) (string, error) {
	if m.CheckZoneFunc != nil {
		return m.CheckZoneFunc(ctx, zone)
	}
	return "", nil
}

func (m *MockZoneService) ListRecords(ctx context.Context, zone string) ([]domain.Record, error) {
	if m.ListRecordsFunc != nil {
		return m.ListRecordsFunc(ctx, zone)
	}
	return []domain.Record{}, nil
}

func (m *MockZoneService) ListChanges(ctx context.Context, zone string, fromSerial uint64) ([]domain.ZoneChange, error) {
	if m.ListChangesFunc != nil {
		return m.ListChangesFunc(ctx, zone, fromSerial)
	}
	return []domain.ZoneChange{}, nil
}

func (m *MockZoneService) HealthCheck(_ context.Context) map[string]error {
	if m.Health == nil {
		return map[string]error{}
	}
	return m.Health
}
