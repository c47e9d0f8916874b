package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/tickplant/internal/config"
	"github.com/rickgao/tickplant/internal/database"
	"github.com/rickgao/tickplant/internal/model"
)

// PostgresStore is a Store backed by a PostgreSQL pool.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *slog.Logger
	insert string
}

// OpenPostgres connects to PostgreSQL using cfg.
func OpenPostgres(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewPostgresStore(pool, logger), nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:     pool,
		logger: logger,
		insert: insertStatement(postgresPlaceholder),
	}
}

// EnsureSchema creates the ticks table and its lookup index.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ticks (
		id BIGSERIAL PRIMARY KEY,
		contract_id TEXT NOT NULL,
		timestamp BIGINT NOT NULL,
		` + levelColumnDefs("DOUBLE PRECISION") + `
	)`,
		`CREATE INDEX IF NOT EXISTS ticks_contract_ts ON ticks (contract_id, timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}

// Write queues one insert per instrument in a batch sent inside a
// transaction.
func (s *PostgresStore) Write(ctx context.Context, snap model.Snapshot, ts time.Time) error {
	if len(snap) == 0 {
		return nil
	}

	ids := snap.ContractIDs()
	batch := &pgx.Batch{}
	for _, contractID := range ids {
		row := flatten(contractID, snap[contractID], ts)
		batch.Queue(s.insert, row.args()...)
	}

	err := database.InTx(ctx, s.db, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for _, contractID := range ids {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("insert tick %s: %w", contractID, err)
			}
		}
		return results.Close()
	})
	if err != nil {
		return err
	}

	s.logger.Debug("stored ticks", "count", len(snap), "timestamp", ts)
	return nil
}

// ReadRange returns two-sided ticks for contractIDs within r.
func (s *PostgresStore) ReadRange(ctx context.Context, contractIDs []string, r TimeRange) ([]model.Tick, error) {
	if len(contractIDs) == 0 {
		return nil, nil
	}

	from, to := r.bounds()
	query := fmt.Sprintf(`SELECT %s FROM ticks
		WHERE contract_id = ANY($1)
		AND timestamp >= $2 AND timestamp <= $3
		AND `+twoSided+`
		ORDER BY timestamp, id`, selectColumns)

	return s.query(ctx, query, contractIDs, from, to)
}

// Latest returns up to n recent two-sided ticks for contractID, newest first.
func (s *PostgresStore) Latest(ctx context.Context, contractID string, n int) ([]model.Tick, error) {
	query := fmt.Sprintf(`SELECT %s FROM ticks
		WHERE contract_id = $1
		AND `+twoSided+`
		ORDER BY timestamp DESC, id DESC
		LIMIT $2`, selectColumns)
	return s.query(ctx, query, contractID, n)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]model.Tick, error) {
	rows, err := s.db.Query(ctx, query, args...)
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

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
