package replay

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/tickplant/internal/api"
	"github.com/rickgao/tickplant/internal/model"
	"github.com/rickgao/tickplant/internal/venue"
)

// Reference data lookups delegated to the live gateway.
type Reference interface {
	ContractResolver
	RelatedMarkets(ctx context.Context, eventIDs []string) ([]model.Market, error)
}

// Fill is one paper execution.
type Fill struct {
	OrderID     string
	ReferenceID string
	MarketID    string
	ContractID  string
	Side        model.Side
	Price       float64
	Quantity    float64
	At          time.Time
}

// Venue serves quotes from an Engine and fills orders against the most
// recent replayed book. Orders are immediate-or-cancel: whatever the touch
// cannot absorb is dropped.
type Venue struct {
	engine *Engine
	ref    Reference

	mu       sync.Mutex
	book     model.Snapshot
	balance  decimal.Decimal
	exposure decimal.Decimal
	fills    []Fill
	seq      int
}

var _ venue.Venue = (*Venue)(nil)

// NewVenue creates a replay venue with a starting balance.
func NewVenue(engine *Engine, ref Reference, balance decimal.Decimal) *Venue {
	return &Venue{
		engine:  engine,
		ref:     ref,
		balance: balance,
	}
}

// Quotes advances the replay by one step for marketIDs. It returns
// ErrExhausted once the history has run out.
func (v *Venue) Quotes(ctx context.Context, marketIDs []string) (model.Snapshot, error) {
	snap, err := v.engine.Next(ctx, marketIDs)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.book = snap
	v.mu.Unlock()

	return snap, nil
}

// RelatedMarkets delegates to the reference source.
func (v *Venue) RelatedMarkets(ctx context.Context, eventIDs []string) ([]model.Market, error) {
	return v.ref.RelatedMarkets(ctx, eventIDs)
}

// RelatedContracts delegates to the reference source.
func (v *Venue) RelatedContracts(ctx context.Context, marketIDs []string) ([]model.Contract, error) {
	return v.ref.RelatedContracts(ctx, marketIDs)
}

// PlaceOrder fills req against the top of the current book. A buy lifts the
// best offer when it is at or below the limit price; a sell hits the best
// bid when it is at or above it. Rejections use the exchange's error
// classifications.
func (v *Venue) PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	if !req.Side.Valid() {
		return nil, fmt.Errorf("place order: invalid side %q", req.Side)
	}
	if req.ReferenceID == "" {
		req.ReferenceID = api.NewReferenceID()
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	book, ok := v.book[req.ContractID]
	if !ok {
		return nil, &api.OrderPlaceError{StatusCode: http.StatusBadRequest, Type: "CONTRACT_NOT_QUOTED"}
	}

	var (
		touch model.PriceLevel
		has   bool
	)
	switch req.Side {
	case model.SideBuy:
		touch, has = book.BestOffer()
		has = has && touch.Price <= req.Price
	case model.SideSell:
		touch, has = book.BestBid()
		has = has && touch.Price >= req.Price
	}

	v.seq++
	orderID := fmt.Sprintf("paper-%d", v.seq)

	executed := 0.0
	if has {
		executed = min(req.Quantity, touch.Quantity)
		cost := model.Stake(req.Side, touch.Price, executed)
		if cost.GreaterThan(v.balance) {
			return nil, &api.OrderPlaceError{StatusCode: http.StatusBadRequest, Type: "INSUFFICIENT_FUNDS"}
		}
		v.balance = v.balance.Sub(cost)
		v.exposure = v.exposure.Add(cost)
		v.fills = append(v.fills, Fill{
			OrderID:     orderID,
			ReferenceID: req.ReferenceID,
			MarketID:    req.MarketID,
			ContractID:  req.ContractID,
			Side:        req.Side,
			Price:       touch.Price,
			Quantity:    executed,
			At:          v.engine.Now(),
		})
	}

	return &model.OrderResult{
		OrderID:               orderID,
		AvailableBalance:      v.balance,
		TotalExecutedQuantity: executed,
		Exposure:              v.exposure,
	}, nil
}

// CancelOrder is a no-op: paper orders never rest.
func (v *Venue) CancelOrder(ctx context.Context, orderID string) error {
	return nil
}

// Fills returns a copy of the executions so far.
func (v *Venue) Fills() []Fill {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Fill, len(v.fills))
	copy(out, v.fills)
	return out
}

// Balance returns the available balance and the exposure.
func (v *Venue) Balance() (available, exposure decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balance, v.exposure
}
