package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/tickplant/internal/metrics"
	"github.com/rickgao/tickplant/internal/model"
	"github.com/rickgao/tickplant/internal/store"
)

// ErrExhausted is returned by Next once every requested market has run out.
var ErrExhausted = errors.New("replay exhausted")

// ContractResolver maps markets to their contracts. *api.Client implements it.
type ContractResolver interface {
	RelatedContracts(ctx context.Context, marketIDs []string) ([]model.Contract, error)
}

// TickReader reads stored history. store.Store implements it.
type TickReader interface {
	ReadRange(ctx context.Context, contractIDs []string, r store.TimeRange) ([]model.Tick, error)
}

// Config holds replay settings.
type Config struct {
	Interval time.Duration   // Grid period
	Range    store.TimeRange // History window; zero bounds are open
}

// Engine replays stored ticks market by market.
type Engine struct {
	cfg      Config
	resolver ContractResolver
	reader   TickReader
	logger   *slog.Logger

	mu      sync.Mutex
	cursors map[string]*cursor
	clock   time.Time // latest grid point produced
}

// New creates an Engine.
func New(cfg Config, resolver ContractResolver, reader TickReader, logger *slog.Logger) (*Engine, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("replay: interval must be positive, got %v", cfg.Interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		resolver: resolver,
		reader:   reader,
		logger:   logger,
		cursors:  make(map[string]*cursor),
	}, nil
}

// Next advances every requested market by one grid point and merges the
// books into one snapshot. Markets already exhausted contribute nothing.
// When all of them are exhausted Next returns ErrExhausted.
func (e *Engine) Next(ctx context.Context, marketIDs []string) (model.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Resolve every cursor before pulling any, so a failed lookup does not
	// consume grid points from markets earlier in the list.
	cursors := make([]*cursor, len(marketIDs))
	for i, marketID := range marketIDs {
		c, err := e.cursorFor(ctx, marketID)
		if err != nil {
			return nil, err
		}
		cursors[i] = c
	}

	merged := make(model.Snapshot)
	produced := false

	for _, c := range cursors {
		at, snap, ok := c.pull()
		if !ok {
			continue
		}
		produced = true
		merged.Merge(snap)
		if at.After(e.clock) {
			e.clock = at
		}
	}

	if !produced {
		return nil, ErrExhausted
	}

	metrics.ReplaySnapshots.Inc()
	return merged, nil
}

// Now returns the latest grid point produced so far, zero before the first.
func (e *Engine) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock
}

// State reports a market's cursor state.
func (e *Engine) State(marketID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.cursors[marketID]
	if !ok {
		return stateUninitialized.String()
	}
	return c.state.String()
}

// cursorFor returns the market's cursor, building it on first use. A build
// failure leaves the market uninitialized.
func (e *Engine) cursorFor(ctx context.Context, marketID string) (*cursor, error) {
	if c, ok := e.cursors[marketID]; ok {
		return c, nil
	}

	contracts, err := e.resolver.RelatedContracts(ctx, []string{marketID})
	if err != nil {
		return nil, fmt.Errorf("resolve contracts for market %s: %w", marketID, err)
	}

	var ticks []model.Tick
	if len(contracts) > 0 {
		ids := make([]string, len(contracts))
		for i, ct := range contracts {
			ids[i] = ct.ID
		}
		ticks, err = e.reader.ReadRange(ctx, ids, e.cfg.Range)
		if err != nil {
			return nil, fmt.Errorf("read ticks for market %s: %w", marketID, err)
		}
	}

	c := newCursor(ticks, e.cfg.Interval, e.cfg.Range.To)
	if len(ticks) == 0 {
		metrics.ReplayDataGaps.Inc()
		e.logger.Warn("no recorded ticks for market",
			"market_id", marketID,
			"contracts", len(contracts),
		)
	} else {
		e.logger.Debug("replay cursor ready",
			"market_id", marketID,
			"contracts", len(c.series),
			"ticks", len(ticks),
			"start", c.next,
			"end", c.end,
		)
	}

	e.cursors[marketID] = c
	return c, nil
}
