package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rickgao/tickplant/internal/model"
)

// ListEvents fetches all events matching filter by walking the cursor.
func (c *Client) ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error) {
	query := url.Values{}
	for _, s := range filter.States {
		query.Add("states", s)
	}
	for _, t := range filter.Types {
		query.Add("types", t)
	}
	query.Set("sort", "id")
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.StartDatetimeMax != "" {
		query.Set("start_datetime_max", filter.StartDatetimeMax)
	}

	apiEvents, err := collectPages(ctx, c, "events", "events/", query, func(body []byte) ([]APIEvent, string, error) {
		var resp EventsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, "", err
		}
		return resp.Events, resp.Pagination.Next(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]model.Event, len(apiEvents))
	for i := range apiEvents {
		events[i] = apiEvents[i].ToModel()
	}
	return events, nil
}

// Events fetches events by id.
func (c *Client) Events(ctx context.Context, ids []string) ([]model.Event, error) {
	return fetchChunked(ctx, c, ids, func(ctx context.Context, chunk []string) ([]model.Event, error) {
		query := url.Values{"ids": chunk}
		var resp EventsResponse
		if err := c.get(ctx, "events", "events/"+encodeQuery(query), &resp); err != nil {
			return nil, fmt.Errorf("get events: %w", err)
		}
		events := make([]model.Event, len(resp.Events))
		for i := range resp.Events {
			events[i] = resp.Events[i].ToModel()
		}
		return events, nil
	})
}
