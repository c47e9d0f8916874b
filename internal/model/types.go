package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MaxDepth is the number of price levels per side kept in storage.
const MaxDepth = 3

// Exchange units. Prices are basis points of probability (10000 is 100%);
// quantities are ten-thousandths of the account currency.
const (
	PriceScale    = 10000
	QuantityScale = 10000
)

// Stake is the money at risk on a matched quantity: price times quantity
// for a buy, the complement of the price times quantity for a sell.
func Stake(side Side, price, quantity float64) decimal.Decimal {
	p := decimal.NewFromFloat(price)
	if side == SideSell {
		p = decimal.NewFromInt(PriceScale).Sub(p)
	}
	return p.Mul(decimal.NewFromFloat(quantity)).
		Div(decimal.NewFromInt(PriceScale * QuantityScale))
}

// -----------------------------------------------------------------------------
// Reference Types
// -----------------------------------------------------------------------------

// Event is a real-world occurrence that markets are listed on.
type Event struct {
	ID            string    // Primary key
	ParentID      string    // Parent event, empty for top-level events
	Name          string    // Display name
	Slug          string    // URL slug
	Type          string    // e.g. "football_match", "tennis_match"
	State         string    // upcoming, live, ended, ...
	StartDatetime time.Time // Scheduled start
}

// Market is a group of mutually exclusive contracts on one event.
type Market struct {
	ID           string // Primary key
	EventID      string // Foreign key to Event
	Name         string // Display name
	Slug         string // URL slug
	State        string // open, halted, settled, ...
	DisplayOrder int    // Ordering within the event
	Volume       int64  // Matched volume, zero unless requested with volumes
}

// Contract is a single tradable outcome within a market.
type Contract struct {
	ID           string // Primary key
	MarketID     string // Foreign key to Market
	Name         string // Display name
	Slug         string // URL slug
	State        string // Contract state
	DisplayOrder int    // Ordering within the market
}

// -----------------------------------------------------------------------------
// Order Book Types
// -----------------------------------------------------------------------------

// PriceLevel is a single price/quantity pair in an order book.
type PriceLevel struct {
	Price    float64
	Quantity float64
}

// OrderBook holds the best available levels for one contract, best to worst.
// Missing depth is an absent entry, never a zero-valued level.
type OrderBook struct {
	Bids   []PriceLevel
	Offers []PriceLevel
}

// BestBid returns the top bid level.
func (b OrderBook) BestBid() (PriceLevel, bool) {
	if len(b.Bids) == 0 {
		return PriceLevel{}, false
	}
	return b.Bids[0], true
}

// BestOffer returns the top offer level.
func (b OrderBook) BestOffer() (PriceLevel, bool) {
	if len(b.Offers) == 0 {
		return PriceLevel{}, false
	}
	return b.Offers[0], true
}

// Truncate returns a copy limited to depth levels per side.
func (b OrderBook) Truncate(depth int) OrderBook {
	return OrderBook{
		Bids:   truncateLevels(b.Bids, depth),
		Offers: truncateLevels(b.Offers, depth),
	}
}

func truncateLevels(levels []PriceLevel, depth int) []PriceLevel {
	if len(levels) > depth {
		levels = levels[:depth]
	}
	if len(levels) == 0 {
		return nil
	}
	out := make([]PriceLevel, len(levels))
	copy(out, levels)
	return out
}

// Snapshot maps contract id to its order book at one instant. It is the unit
// delivered by both the live poller and the replay engine.
type Snapshot map[string]OrderBook

// ContractIDs returns the snapshot keys in sorted order.
func (s Snapshot) ContractIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Merge copies books from other that are not already present.
func (s Snapshot) Merge(other Snapshot) {
	for id, book := range other {
		if _, ok := s[id]; ok {
			continue
		}
		s[id] = book
	}
}

// Tick is one persisted order book snapshot for one contract.
type Tick struct {
	ID         int64     // Surrogate key, insertion order
	ContractID string    // Contract the book belongs to
	Timestamp  time.Time // Poll cycle time
	Book       OrderBook // Levels, at most MaxDepth per side
}

// -----------------------------------------------------------------------------
// Trading Types
// -----------------------------------------------------------------------------

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// OrderRequest describes an order placement.
type OrderRequest struct {
	MarketID    string
	ContractID  string
	Price       float64
	Quantity    float64
	Side        Side
	ReferenceID string // Idempotency key, unique per placement attempt
}

// OrderResult is the account state reported after a successful placement.
type OrderResult struct {
	OrderID               string
	AvailableBalance      decimal.Decimal
	TotalExecutedQuantity float64
	Exposure              decimal.Decimal
}

// Order is an order as observed on the exchange. Its state only changes
// remotely.
type Order struct {
	ID                  string
	MarketID            string
	ContractID          string
	Price               float64
	Quantity            float64
	QuantityFilled      float64
	AveragePriceMatched float64
	Side                Side
	State               string
	ReferenceID         string
	CreatedDatetime     time.Time
}

// Account holds balance information for the session's account.
type Account struct {
	ID               string
	Currency         string
	Balance          decimal.Decimal
	AvailableBalance decimal.Decimal
	Exposure         decimal.Decimal
}

// Activity is one row of account activity.
type Activity struct {
	Source     string
	MarketID   string
	ContractID string
	OrderID    string
	Amount     decimal.Decimal
	Money      decimal.Decimal
	Timestamp  time.Time
}
