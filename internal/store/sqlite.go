package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rickgao/tickplant/internal/model"
)

// SQLiteStore is a Store backed by a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	insert string
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer at a time; also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
		insert: insertStatement(sqlitePlaceholder),
	}, nil
}

// EnsureSchema creates the ticks table and its lookup index.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ticks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		contract_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		` + levelColumnDefs("REAL") + `
	)`,
		`CREATE INDEX IF NOT EXISTS ticks_contract_ts ON ticks (contract_id, timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}

// Write inserts one row per instrument inside a single transaction.
func (s *SQLiteStore) Write(ctx context.Context, snap model.Snapshot, ts time.Time) error {
	if len(snap) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, contractID := range snap.ContractIDs() {
		row := flatten(contractID, snap[contractID], ts)
		if _, err := stmt.ExecContext(ctx, row.args()...); err != nil {
			return fmt.Errorf("insert tick %s: %w", contractID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Debug("stored ticks", "count", len(snap), "timestamp", ts)
	return nil
}

// ReadRange returns two-sided ticks for contractIDs within r.
func (s *SQLiteStore) ReadRange(ctx context.Context, contractIDs []string, r TimeRange) ([]model.Tick, error) {
	if len(contractIDs) == 0 {
		return nil, nil
	}

	from, to := r.bounds()
	query := fmt.Sprintf(`SELECT %s FROM ticks
		WHERE contract_id IN (%s)
		AND timestamp >= ? AND timestamp <= ?
		AND `+twoSided+`
		ORDER BY timestamp, id`,
		selectColumns, inList(sqlitePlaceholder, 1, len(contractIDs)))

	args := make([]any, 0, len(contractIDs)+2)
	for _, id := range contractIDs {
		args = append(args, id)
	}
	args = append(args, from, to)

	return s.query(ctx, query, args...)
}

// Latest returns up to n recent two-sided ticks for contractID, newest first.
func (s *SQLiteStore) Latest(ctx context.Context, contractID string, n int) ([]model.Tick, error) {
	query := fmt.Sprintf(`SELECT %s FROM ticks
		WHERE contract_id = ?
		AND `+twoSided+`
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, selectColumns)
	return s.query(ctx, query, contractID, n)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]model.Tick, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	var ticks []model.Tick
	for rows.Next() {
		var row tickRow
		if err := rows.Scan(row.scanDest()...); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		ticks = append(ticks, unflatten(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticks: %w", err)
	}
	return ticks, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
