package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rickgao/tickplant/internal/model"
)

// Account fetches the session's account balances.
func (c *Client) Account(ctx context.Context) (*model.Account, error) {
	var resp AccountResponse
	if err := c.get(ctx, "accounts", "accounts/", &resp); err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	account := resp.Account.ToModel()
	return &account, nil
}

// AccountActivity fetches all account activity rows matching filter.
func (c *Client) AccountActivity(ctx context.Context, filter ActivityFilter) ([]model.Activity, error) {
	query := url.Values{}
	if filter.MarketID != "" {
		query.Set("market_id", filter.MarketID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = c.chunkSize
	}
	query.Set("limit", strconv.Itoa(limit))

	rows, err := collectPages(ctx, c, "account_activity", "accounts/activity/", query, func(body []byte) ([]APIActivity, string, error) {
		var resp ActivityResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, "", err
		}
		return resp.Account, resp.Pagination.Next(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("account activity: %w", err)
	}

	activity := make([]model.Activity, len(rows))
	for i := range rows {
		activity[i] = rows[i].ToModel()
	}
	return activity, nil
}
