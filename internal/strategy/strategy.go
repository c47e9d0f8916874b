// Package strategy holds the example mean-reversion strategy. It consumes
// snapshots from either the quote poller or the replay engine and trades
// through a venue.Venue, so the same code runs live and in backtests.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/tickplant/internal/api"
	"github.com/rickgao/tickplant/internal/model"
	"github.com/rickgao/tickplant/internal/venue"
)

// Defaults for Config.
const (
	DefaultWindow   = 10
	DefaultQuantity = 1000 // 10p in exchange quantity units
)

// Signal is a trading decision for one contract.
type Signal int

const (
	Hold Signal = iota
	Buy
	Sell
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "hold"
	}
}

// Config holds strategy parameters.
type Config struct {
	Window   int     // Past two-sided quotes averaged per contract
	Quantity float64 // Fixed order size

	// Aggressive crosses the spread: buys at the offer and sells at the bid.
	// Otherwise orders rest at the touch on their own side.
	Aggressive bool
}

// Stats summarizes activity so far.
type Stats struct {
	Snapshots int
	Signals   int
	Orders    int
	Rejected  int
	Executed  float64
}

// MeanReversion buys when the best bid rises above its recent mean and sells
// when the best offer falls below its recent mean.
type MeanReversion struct {
	cfg       Config
	venue     venue.Venue
	contracts map[string]model.Contract
	logger    *slog.Logger

	mu      sync.Mutex
	windows map[string]*window
	stats   Stats
}

// quote is the top of book kept per observation.
type quote struct {
	bid, offer float64
}

// window holds the last n+1 quotes, oldest first.
type window struct {
	quotes []quote
	size   int
}

func (w *window) push(q quote) {
	w.quotes = append(w.quotes, q)
	if len(w.quotes) > w.size+1 {
		w.quotes = w.quotes[1:]
	}
}

// NewMeanReversion creates the strategy for the given contracts.
func NewMeanReversion(cfg Config, v venue.Venue, contracts []model.Contract, logger *slog.Logger) *MeanReversion {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Quantity <= 0 {
		cfg.Quantity = DefaultQuantity
	}
	if logger == nil {
		logger = slog.Default()
	}

	byID := make(map[string]model.Contract, len(contracts))
	for _, c := range contracts {
		byID[c.ID] = c
	}

	return &MeanReversion{
		cfg:       cfg,
		venue:     v,
		contracts: byID,
		logger:    logger,
		windows:   make(map[string]*window),
	}
}

// History supplies recent stored ticks, newest first. store.Store
// implements it.
type History interface {
	Latest(ctx context.Context, contractID string, n int) ([]model.Tick, error)
}

// Seed preloads each contract's window from stored history so a live run
// can trade from its first snapshot.
func (m *MeanReversion) Seed(ctx context.Context, h History) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range m.contracts {
		ticks, err := h.Latest(ctx, id, m.cfg.Window)
		if err != nil {
			return fmt.Errorf("seed %s: %w", id, err)
		}
		w := m.windowFor(id)
		for i := len(ticks) - 1; i >= 0; i-- {
			if q, ok := topOfBook(ticks[i].Book); ok {
				w.push(q)
			}
		}
	}
	return nil
}

// HandleSnapshot updates every known contract's window and places an order
// for each contract that signals.
func (m *MeanReversion) HandleSnapshot(ctx context.Context, ts time.Time, snap model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.Snapshots++

	var errs []error
	for _, id := range snap.ContractIDs() {
		contract, known := m.contracts[id]
		if !known {
			continue
		}

		q, ok := topOfBook(snap[id])
		if !ok {
			continue
		}
		w := m.windowFor(id)
		w.push(q)

		signal := evaluate(w.quotes, m.cfg.Window)
		if signal == Hold {
			continue
		}
		m.stats.Signals++

		if err := m.place(ctx, contract, signal, q); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns a copy of the running totals.
func (m *MeanReversion) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *MeanReversion) windowFor(id string) *window {
	w, ok := m.windows[id]
	if !ok {
		w = &window{size: m.cfg.Window}
		m.windows[id] = w
	}
	return w
}

func (m *MeanReversion) place(ctx context.Context, c model.Contract, signal Signal, q quote) error {
	req := model.OrderRequest{
		MarketID:   c.MarketID,
		ContractID: c.ID,
		Quantity:   m.cfg.Quantity,
	}
	switch signal {
	case Buy:
		req.Side, req.Price = model.SideBuy, q.bid
		if m.cfg.Aggressive {
			req.Price = q.offer
		}
	case Sell:
		req.Side, req.Price = model.SideSell, q.offer
		if m.cfg.Aggressive {
			req.Price = q.bid
		}
	}

	m.logger.Info("strategy signal",
		"contract_id", c.ID,
		"signal", signal.String(),
		"bid", q.bid,
		"offer", q.offer,
		"price", req.Price,
	)

	res, err := m.venue.PlaceOrder(ctx, req)
	if err != nil {
		var placeErr *api.OrderPlaceError
		if errors.As(err, &placeErr) && !errors.Is(err, api.ErrUnauthorized) {
			m.stats.Rejected++
			m.logger.Warn("order rejected",
				"contract_id", c.ID,
				"type", placeErr.Type,
			)
			return nil
		}
		return fmt.Errorf("place %s %s: %w", signal, c.ID, err)
	}

	m.stats.Orders++
	m.stats.Executed += res.TotalExecutedQuantity
	return nil
}

// evaluate compares the newest quote against the mean of the preceding
// ones. It holds until n past quotes are available.
func evaluate(quotes []quote, n int) Signal {
	if len(quotes) < n+1 {
		return Hold
	}
	current, past := quotes[len(quotes)-1], quotes[len(quotes)-1-n:len(quotes)-1]

	var bidSum, offerSum float64
	for _, q := range past {
		bidSum += q.bid
		offerSum += q.offer
	}
	bidMean := bidSum / float64(len(past))
	offerMean := offerSum / float64(len(past))

	switch {
	case current.bid > bidMean:
		return Buy
	case current.offer < offerMean:
		return Sell
	default:
		return Hold
	}
}

// topOfBook returns the best bid and offer when both exist.
func topOfBook(b model.OrderBook) (quote, bool) {
	bid, okBid := b.BestBid()
	offer, okOffer := b.BestOffer()
	if !okBid || !okOffer {
		return quote{}, false
	}
	return quote{bid: bid.Price, offer: offer.Price}, true
}
