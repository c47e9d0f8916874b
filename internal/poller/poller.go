package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/tickplant/internal/metrics"
	"github.com/rickgao/tickplant/internal/model"
	"github.com/rickgao/tickplant/internal/retry"
)

// Gateway fetches live quotes. *api.Client implements it.
type Gateway interface {
	Quotes(ctx context.Context, marketIDs []string) (model.Snapshot, error)
}

// Writer appends snapshots to the tick store. store.Store implements it.
type Writer interface {
	Write(ctx context.Context, snap model.Snapshot, ts time.Time) error
}

// SnapshotHandler receives each stored snapshot.
type SnapshotHandler interface {
	HandleSnapshot(ctx context.Context, ts time.Time, snap model.Snapshot) error
}

// SnapshotHandlerFunc is a function adapter for SnapshotHandler.
type SnapshotHandlerFunc func(ctx context.Context, ts time.Time, snap model.Snapshot) error

func (f SnapshotHandlerFunc) HandleSnapshot(ctx context.Context, ts time.Time, snap model.Snapshot) error {
	return f(ctx, ts, snap)
}

// Config holds poller configuration.
type Config struct {
	Interval  time.Duration // Target cycle period (default: 1s)
	MarketIDs []string      // Markets whose contracts are quoted
	Retry     retry.Policy  // Applied to each quote fetch
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: time.Second,
		Retry:    retry.DefaultPolicy(),
	}
}

// ErrNoMarkets is returned by Start when no market ids are configured.
var ErrNoMarkets = errors.New("poller: no markets configured")

// Poller periodically fetches quotes and stores them.
type Poller struct {
	cfg      Config
	gateway  Gateway
	writer   Writer
	handlers []SnapshotHandler
	logger   *slog.Logger
	now      func() time.Time

	statusMu sync.Mutex
	status   Status

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Status summarizes recent poll cycles.
type Status struct {
	Cycles      int64
	Failures    int64
	LastSuccess time.Time
	LastError   string
}

// Option configures a Poller.
type Option func(*Poller)

// WithHandler registers a handler called after each successful write.
func WithHandler(h SnapshotHandler) Option {
	return func(p *Poller) {
		p.handlers = append(p.handlers, h)
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		p.now = now
	}
}

// New creates a new Poller.
func New(cfg Config, gateway Gateway, writer Writer, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Retry.Logger == nil {
		cfg.Retry.Logger = logger
	}
	p := &Poller{
		cfg:     cfg,
		gateway: gateway,
		writer:  writer,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	if len(p.cfg.MarketIDs) == 0 {
		return ErrNoMarkets
	}
	if p.cfg.Interval <= 0 {
		return fmt.Errorf("poller: interval must be positive, got %v", p.cfg.Interval)
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("quote poller started",
		"interval", p.cfg.Interval,
		"markets", len(p.cfg.MarketIDs),
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("quote poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the poller and blocks until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// Status returns a snapshot of the poller's cycle counters.
func (p *Poller) Status() Status {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	return p.status
}

func (p *Poller) record(ts time.Time, err error) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.Cycles++
	if err != nil {
		p.status.Failures++
		p.status.LastError = err.Error()
		return
	}
	p.status.LastSuccess = ts
	p.status.LastError = ""
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-timer.C:
		}

		start := p.now()
		p.PollOnce(p.ctx)
		timer.Reset(sleepFor(p.cfg.Interval, p.now().Sub(start)))
	}
}

// sleepFor returns interval minus elapsed, floored at zero.
func sleepFor(interval, elapsed time.Duration) time.Duration {
	if d := interval - elapsed; d > 0 {
		return d
	}
	return 0
}

// PollOnce runs a single fetch-store-dispatch cycle. Errors are logged and
// counted; the returned error is for callers driving cycles by hand.
func (p *Poller) PollOnce(ctx context.Context) error {
	ts, err := p.pollOnce(ctx)
	p.record(ts, err)
	return err
}

func (p *Poller) pollOnce(ctx context.Context) (time.Time, error) {
	start := time.Now()
	defer func() {
		metrics.PollCycleDuration.Observe(time.Since(start).Seconds())
	}()

	var snap model.Snapshot
	err := retry.Do(ctx, p.cfg.Retry, "quotes", func(ctx context.Context) error {
		s, err := p.gateway.Quotes(ctx, p.cfg.MarketIDs)
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	if err != nil {
		metrics.PollCycles.WithLabelValues("fetch_error").Inc()
		p.logger.Warn("quote fetch failed", "markets", len(p.cfg.MarketIDs), "error", err)
		return time.Time{}, fmt.Errorf("fetch quotes: %w", err)
	}

	ts := p.now().UTC()
	if err := p.writer.Write(ctx, snap, ts); err != nil {
		metrics.PollCycles.WithLabelValues("store_error").Inc()
		p.logger.Error("tick write failed", "contracts", len(snap), "error", err)
		return ts, fmt.Errorf("write ticks: %w", err)
	}
	metrics.TicksWritten.Add(float64(len(snap)))

	for _, h := range p.handlers {
		if err := h.HandleSnapshot(ctx, ts, snap); err != nil {
			p.logger.Warn("snapshot handler failed", "error", err)
		}
	}

	metrics.PollCycles.WithLabelValues("ok").Inc()
	p.logger.Debug("poll cycle complete",
		"contracts", len(snap),
		"duration", time.Since(start),
	)
	return ts, nil
}
