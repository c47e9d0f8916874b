package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/rickgao/tickplant/internal/model"
)

// OrderPlaceError reports an order rejected by the exchange.
type OrderPlaceError struct {
	StatusCode int
	Type       string // Exchange error classification, e.g. INSUFFICIENT_FUNDS
	Err        error  // Underlying response error, nil for rejections raised locally
}

// UnknownRejection is the Type of a rejection whose body carries no
// classification.
const UnknownRejection = "UNKNOWN"

func (e *OrderPlaceError) Error() string {
	return fmt.Sprintf("order placement rejected (%d): %s", e.StatusCode, e.Type)
}

func (e *OrderPlaceError) Unwrap() error {
	return e.Err
}

// NewReferenceID returns a fresh idempotency key for an order placement.
func NewReferenceID() string {
	return uuid.NewString()
}

// PlaceOrder submits an order. An empty ReferenceID is filled with a new
// unique key; resubmitting a rejected order should use a new key.
func (c *Client) PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	if !req.Side.Valid() {
		return nil, fmt.Errorf("place order: invalid side %q", req.Side)
	}
	if req.ReferenceID == "" {
		req.ReferenceID = NewReferenceID()
	}

	c.logger.Info("placing order",
		"market_id", req.MarketID,
		"contract_id", req.ContractID,
		"side", req.Side,
		"quantity", req.Quantity,
		"price", req.Price,
		"reference_id", req.ReferenceID,
	)

	body, err := c.doRequest(ctx, http.MethodPost, "orders", "orders/", PlaceOrderRequest{
		MarketID:    req.MarketID,
		ContractID:  req.ContractID,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Side:        string(req.Side),
		ReferenceID: req.ReferenceID,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			eb := errorBody{ErrorType: UnknownRejection}
			if err := json.Unmarshal(apiErr.Body, &eb); err != nil {
				c.logger.Warn("unreadable order rejection body",
					"status", apiErr.StatusCode,
					"error", err,
				)
			}
			return nil, &OrderPlaceError{StatusCode: apiErr.StatusCode, Type: eb.ErrorType, Err: apiErr}
		}
		return nil, fmt.Errorf("place order: %w", err)
	}

	var resp PlaceOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("place order: unmarshal response: %w", err)
	}

	result := resp.ToModel()
	c.logger.Info("order placed",
		"market_id", req.MarketID,
		"contract_id", req.ContractID,
		"balance", result.AvailableBalance.String(),
		"executed", result.TotalExecutedQuantity,
		"exposure", result.Exposure.String(),
	)
	return &result, nil
}

// CancelOrder cancels an order by id. Failures are returned unchanged.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "orders", "orders/"+url.PathEscape(orderID)+"/", nil)
	return err
}

// ListOrders fetches all orders in the given states.
func (c *Client) ListOrders(ctx context.Context, states []string) ([]model.Order, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.chunkSize))
	for _, s := range states {
		query.Add("states", s)
	}

	apiOrders, err := collectPages(ctx, c, "orders", "orders/", query, func(body []byte) ([]APIOrder, string, error) {
		var resp OrdersResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, "", err
		}
		return resp.Orders, resp.Pagination.Next(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]model.Order, len(apiOrders))
	for i := range apiOrders {
		orders[i] = apiOrders[i].ToModel()
	}
	return orders, nil
}
