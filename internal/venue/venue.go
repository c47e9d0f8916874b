// Package venue defines the trading surface a strategy runs against, so the
// same strategy code drives the live exchange and a backtest replay.
package venue

import (
	"context"
	"errors"
	"fmt"

	"github.com/rickgao/tickplant/internal/model"
)

// Venue is the capability set shared by the live gateway and replay.
type Venue interface {
	// Quotes returns the current book for every contract of marketIDs.
	Quotes(ctx context.Context, marketIDs []string) (model.Snapshot, error)

	RelatedMarkets(ctx context.Context, eventIDs []string) ([]model.Market, error)
	RelatedContracts(ctx context.Context, marketIDs []string) ([]model.Contract, error)

	PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// Mode selects which Venue implementation a command wires up.
type Mode string

const (
	ModeLive   Mode = "live"
	ModeReplay Mode = "replay"
)

// ParseMode validates a configured mode name. Empty means live.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLive, "":
		return ModeLive, nil
	case ModeReplay:
		return ModeReplay, nil
	default:
		return "", fmt.Errorf("unknown venue mode %q (want %q or %q)", s, ModeLive, ModeReplay)
	}
}

// ErrUnsupportedMode is returned by Open when no builder is registered for
// the configured mode.
var ErrUnsupportedMode = errors.New("venue mode not supported")

// Builder constructs a Venue. It only runs when its mode is selected.
type Builder func() (Venue, error)

// Builders holds one constructor per mode. A nil entry means the mode is
// unavailable to the caller.
type Builders struct {
	Live   Builder
	Replay Builder
}

// Open parses the configured mode and builds the matching Venue.
func Open(mode string, b Builders) (Venue, Mode, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return nil, "", err
	}

	build := b.Live
	if m == ModeReplay {
		build = b.Replay
	}
	if build == nil {
		return nil, m, fmt.Errorf("%w: %q", ErrUnsupportedMode, m)
	}

	v, err := build()
	if err != nil {
		return nil, m, fmt.Errorf("open %s venue: %w", m, err)
	}
	return v, m, nil
}
