// Package repository keeps the change journal of zone mutations in PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/poyrazK/zonectl/internal/core/domain"
)

//go:embed schema.sql
var Schema string

// PostgresJournal implements ports.ChangeJournal using PostgreSQL.
type PostgresJournal struct {
	db *sql.DB
}

// NewPostgresJournal creates and returns a new PostgresJournal instance.
func NewPostgresJournal(db *sql.DB) *PostgresJournal {
	return &PostgresJournal{db: db}
}

// Migrate creates the journal table if it does not exist yet.
func (r *PostgresJournal) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return errors.Wrap(err, "apply journal schema")
	}
	return nil
}

// RecordChange inserts change. A missing ID or timestamp is filled in.
func (r *PostgresJournal) RecordChange(ctx context.Context, change *domain.ZoneChange) error {
	if change.ID == "" {
		change.ID = uuid.New().String()
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO zone_changes (id, zone, serial, action, name, type, value, removed, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, change.ID, change.Zone, int64(change.Serial), change.Action,
		change.Name, string(change.Type), change.Value, change.Removed, change.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "record change of %s", change.Zone)
	}
	return nil
}

// ListChanges returns the changes of zone with a serial above fromSerial, oldest first.
func (r *PostgresJournal) ListChanges(ctx context.Context, zone string, fromSerial uint64) ([]domain.ZoneChange, error) {
	query := `SELECT id, zone, serial, action, name, type, value, removed, created_at
	          FROM zone_changes WHERE zone = $1 AND serial > $2 ORDER BY serial ASC, created_at ASC`
	rows, errQuery := r.db.QueryContext(ctx, query, zone, int64(fromSerial))
	if errQuery != nil {
		return nil, errors.Wrapf(errQuery, "list changes of %s", zone)
	}
	defer func() {
		if errClose := rows.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close rows")
		}
	}()

	changes := []domain.ZoneChange{}
	for rows.Next() {
		var c domain.ZoneChange
		var serial int64
		var rtype string
		if errScan := rows.Scan(&c.ID, &c.Zone, &serial, &c.Action, &c.Name, &rtype, &c.Value, &c.Removed, &c.CreatedAt); errScan != nil {
			return nil, errors.Wrap(errScan, "scan change")
		}
		c.Serial = uint64(serial)
		c.Type = domain.RecordType(rtype)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func (r *PostgresJournal) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// NopJournal implements ports.ChangeJournal when no database is configured.
type NopJournal struct{}

func (NopJournal) RecordChange(context.Context, *domain.ZoneChange) error { return nil }

func (NopJournal) ListChanges(context.Context, string, uint64) ([]domain.ZoneChange, error) {
	return []domain.ZoneChange{}, nil
}

func (NopJournal) Ping(context.Context) error { return nil }
