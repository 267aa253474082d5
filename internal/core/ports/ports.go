package ports

import (
	"context"

	"github.com/poyrazK/zonectl/internal/core/domain"
)

// ZoneStore owns the on-disk representation of zones.
type ZoneStore interface {
	Path(zone string) string
	Exists(ctx context.Context, zone string) (bool, error)
	Create(ctx context.Context, zone string) error
	Discard(ctx context.Context, zone string) error
	AppendRecord(ctx context.Context, zone string, record domain.Record) error
	// RemoveRecord drops the lines matching name and returns how many went.
	// A match inside the SOA record is refused with domain.ErrInvalidInput
	// and the file is left untouched.
	RemoveRecord(ctx context.Context, zone string, name string) (int, error)
	BumpSerial(ctx context.Context, zone string) (uint64, error)
	Records(ctx context.Context, zone string) ([]domain.Record, error)
}

// Registry owns the name-server's master list of zones.
type Registry interface {
	Register(ctx context.Context, zone string, file string) error
	Zones(ctx context.Context) ([]string, error)
}

// Reloader asks the name-server daemon to pick up changes to a zone.
type Reloader interface {
	Reload(ctx context.Context, zone string) error
}

// Lookup queries a name-server for a zone and returns its raw diagnostic text.
type Lookup interface {
	Query(ctx context.Context, zone string) (string, error)
}

// ChangeJournal persists a history of zone mutations.
type ChangeJournal interface {
	RecordChange(ctx context.Context, change *domain.ZoneChange) error
	ListChanges(ctx context.Context, zone string, fromSerial uint64) ([]domain.ZoneChange, error)
	Ping(ctx context.Context) error
}

type ZoneService interface {
	AddRecord(ctx context.Context, req domain.AddRecordRequest) (*domain.MutationResult, error)
	DeleteRecord(ctx context.Context, req domain.DeleteRecordRequest) (*domain.MutationResult, error)
	CheckZone(ctx context.Context, zone string) (string, error)
	ListRecords(ctx context.Context, zone string) ([]domain.Record, error)
	ListChanges(ctx context.Context, zone string, fromSerial uint64) ([]domain.ZoneChange, error)
	HealthCheck(ctx context.Context) map[string]error
}

// ReloadSubscriber streams zone names announced by a remote Reloader.
type ReloadSubscriber interface {
	Subscribe(ctx context.Context) (<-chan string, error)
}
