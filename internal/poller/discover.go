package poller

import (
	"context"
	"fmt"

	"github.com/rickgao/tickplant/internal/api"
	"github.com/rickgao/tickplant/internal/model"
)

// EventSource lists events and their markets. *api.Client implements it.
type EventSource interface {
	ListEvents(ctx context.Context, filter api.EventFilter) ([]model.Event, error)
	RelatedMarkets(ctx context.Context, eventIDs []string) ([]model.Market, error)
}

// Discover resolves the market ids of every event matching filter, in event
// and display order, without duplicates.
func Discover(ctx context.Context, src EventSource, filter api.EventFilter) ([]string, error) {
	events, err := src.ListEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("discover events: %w", err)
	}
	if len(events) == 0 {
		return nil, nil
	}

	eventIDs := make([]string, len(events))
	for i, e := range events {
		eventIDs[i] = e.ID
	}

	markets, err := src.RelatedMarkets(ctx, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("discover markets: %w", err)
	}

	seen := make(map[string]bool, len(markets))
	ids := make([]string, 0, len(markets))
	for _, m := range markets {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		ids = append(ids, m.ID)
	}
	return ids, nil
}
