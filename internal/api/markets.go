package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rickgao/tickplant/internal/model"
)

// Markets fetches markets by id.
func (c *Client) Markets(ctx context.Context, ids []string, withVolumes bool) ([]model.Market, error) {
	return fetchChunked(ctx, c, ids, func(ctx context.Context, chunk []string) ([]model.Market, error) {
		path := "markets/" + joinIDs(chunk) + "/?with_volumes=" + strconv.FormatBool(withVolumes)
		var resp MarketsResponse
		if err := c.get(ctx, "markets", path, &resp); err != nil {
			return nil, fmt.Errorf("get markets: %w", err)
		}
		return marketsToModel(resp.Markets), nil
	})
}

// RelatedMarkets fetches the markets listed on the given events, ordered by
// event and display order within each chunk.
func (c *Client) RelatedMarkets(ctx context.Context, eventIDs []string) ([]model.Market, error) {
	return fetchChunked(ctx, c, eventIDs, func(ctx context.Context, chunk []string) ([]model.Market, error) {
		path := "events/" + joinIDs(chunk) + "/markets/?sort=event_id,display_order&with_volumes=true"
		var resp MarketsResponse
		if err := c.get(ctx, "event_markets", path, &resp); err != nil {
			return nil, fmt.Errorf("get related markets: %w", err)
		}
		return marketsToModel(resp.Markets), nil
	})
}

// RelatedContracts fetches the contracts of the given markets.
func (c *Client) RelatedContracts(ctx context.Context, marketIDs []string) ([]model.Contract, error) {
	return fetchChunked(ctx, c, marketIDs, func(ctx context.Context, chunk []string) ([]model.Contract, error) {
		var resp ContractsResponse
		if err := c.get(ctx, "market_contracts", "markets/"+joinIDs(chunk)+"/contracts/", &resp); err != nil {
			return nil, fmt.Errorf("get related contracts: %w", err)
		}
		contracts := make([]model.Contract, len(resp.Contracts))
		for i := range resp.Contracts {
			contracts[i] = resp.Contracts[i].ToModel()
		}
		return contracts, nil
	})
}

// Quotes fetches live order books for every contract of the given markets.
// Chunk results are merged into one snapshot; contract ids are disjoint
// across chunks, and an earlier chunk's entry is never overwritten.
func (c *Client) Quotes(ctx context.Context, marketIDs []string) (model.Snapshot, error) {
	snapshot := make(model.Snapshot)
	for _, chunk := range chunkIDs(marketIDs, c.chunkSize) {
		var resp QuotesResponse
		if err := c.get(ctx, "quotes", "markets/"+joinIDs(chunk)+"/quotes/", &resp); err != nil {
			return nil, fmt.Errorf("get quotes: %w", err)
		}
		for contractID, book := range resp {
			if _, seen := snapshot[contractID]; seen {
				continue
			}
			snapshot[contractID] = book.ToModel()
		}
	}
	return snapshot, nil
}

func marketsToModel(in []APIMarket) []model.Market {
	out := make([]model.Market, len(in))
	for i := range in {
		out[i] = in[i].ToModel()
	}
	return out
}
