// Package store persists order-book snapshots as flat tick rows and serves
// them back by contract and time range.
//
// Each row holds up to three bid and three offer levels (bp1..bp3, bq1..bq3,
// op1..op3, oq1..oq3). Missing levels are stored as NULL. Timestamps are
// stored as Unix microseconds.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/tickplant/internal/config"
	"github.com/rickgao/tickplant/internal/model"
)

// Store persists and queries ticks.
type Store interface {
	// EnsureSchema creates the ticks table and index if missing.
	EnsureSchema(ctx context.Context) error

	// Write stores one row per instrument in snap, all stamped at ts, in a
	// single transaction.
	Write(ctx context.Context, snap model.Snapshot, ts time.Time) error

	// ReadRange returns ticks for the given contracts within r, ordered by
	// timestamp ascending. Rows without a best bid or best offer are skipped.
	ReadRange(ctx context.Context, contractIDs []string, r TimeRange) ([]model.Tick, error)

	// Latest returns up to n most recent two-sided ticks for a contract,
	// newest first.
	Latest(ctx context.Context, contractID string, n int) ([]model.Tick, error)

	Close() error
}

// TimeRange bounds a query. Both ends are inclusive; a zero bound is open.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls within the range.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// bounds returns the range in Unix microseconds, open ends widened to the
// full int64 span.
func (r TimeRange) bounds() (from, to int64) {
	from, to = minMicros, maxMicros
	if !r.From.IsZero() {
		from = r.From.UnixMicro()
	}
	if !r.To.IsZero() {
		to = r.To.UnixMicro()
	}
	return from, to
}

const (
	minMicros = -1 << 63
	maxMicros = 1<<63 - 1
)

// Open returns the Store selected by cfg.Driver with its schema ensured.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.Driver {
	case config.DriverSQLite, "":
		s, err = OpenSQLite(cfg.Path, logger)
	case config.DriverPostgres:
		s, err = OpenPostgres(ctx, cfg.Postgres, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.EnsureSchema(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}
