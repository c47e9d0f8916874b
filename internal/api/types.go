package api

import "github.com/shopspring/decimal"

// Pagination is the cursor envelope on paginated responses.
type Pagination struct {
	NextPage *string `json:"next_page"`
}

// Next returns the next-page fragment, or "" when pagination has ended.
// A missing envelope or field is treated as the end.
func (p *Pagination) Next() string {
	if p == nil || p.NextPage == nil {
		return ""
	}
	return *p.NextPage
}

// EventsResponse from GET events/
type EventsResponse struct {
	Events     []APIEvent  `json:"events"`
	Pagination *Pagination `json:"pagination"`
}

// APIEvent represents an event from the exchange API.
type APIEvent struct {
	ID            string `json:"id"`
	ParentID      string `json:"parent_id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Type          string `json:"type"`
	State         string `json:"state"`
	StartDatetime string `json:"start_datetime"`
}

// MarketsResponse from GET markets/{ids}/ and events/{ids}/markets/
type MarketsResponse struct {
	Markets []APIMarket `json:"markets"`
}

// APIMarket represents a market from the exchange API.
type APIMarket struct {
	ID           string `json:"id"`
	EventID      string `json:"event_id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	State        string `json:"state"`
	DisplayOrder int    `json:"display_order"`
	Volume       int64  `json:"volume"`
}

// ContractsResponse from GET markets/{ids}/contracts/
type ContractsResponse struct {
	Contracts []APIContract `json:"contracts"`
}

// APIContract represents a contract from the exchange API.
type APIContract struct {
	ID           string `json:"id"`
	MarketID     string `json:"market_id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	State        string `json:"state_or_outcome"`
	DisplayOrder int    `json:"display_order"`
}

// QuotesResponse from GET markets/{ids}/quotes/: contract id to order book.
type QuotesResponse map[string]APIOrderBook

// APIOrderBook is a quote entry for one contract.
type APIOrderBook struct {
	Bids   []APIPriceLevel `json:"bids"`
	Offers []APIPriceLevel `json:"offers"`
}

// APIPriceLevel is one price/quantity pair.
type APIPriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// PlaceOrderRequest is the body of POST orders/
type PlaceOrderRequest struct {
	MarketID    string  `json:"market_id"`
	ContractID  string  `json:"contract_id"`
	Price       float64 `json:"price"`
	Quantity    float64 `json:"quantity"`
	Side        string  `json:"side"`
	ReferenceID string  `json:"reference_id"`
}

// PlaceOrderResponse from POST orders/
type PlaceOrderResponse struct {
	OrderID               string          `json:"order_id"`
	AvailableBalance      decimal.Decimal `json:"available_balance"`
	TotalExecutedQuantity float64         `json:"total_executed_quantity"`
	Exposure              decimal.Decimal `json:"exposure"`
}

// OrdersResponse from GET orders/
type OrdersResponse struct {
	Orders     []APIOrder  `json:"orders"`
	Pagination *Pagination `json:"pagination"`
}

// APIOrder represents an order from the exchange API.
type APIOrder struct {
	ID                  string  `json:"id"`
	MarketID            string  `json:"market_id"`
	ContractID          string  `json:"contract_id"`
	Price               float64 `json:"price"`
	Quantity            float64 `json:"quantity"`
	QuantityFilled      float64 `json:"quantity_filled"`
	AveragePriceMatched float64 `json:"average_price_matched"`
	Side                string  `json:"side"`
	State               string  `json:"state"`
	ReferenceID         string  `json:"reference_id"`
	CreatedDatetime     string  `json:"created_datetime"`
}

// AccountResponse from GET accounts/
type AccountResponse struct {
	Account APIAccount `json:"account"`
}

// APIAccount represents the session's account.
type APIAccount struct {
	AccountID        string          `json:"account_id"`
	Currency         string          `json:"currency"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	Exposure         decimal.Decimal `json:"exposure"`
}

// ActivityResponse from GET accounts/activity/
type ActivityResponse struct {
	Account    []APIActivity `json:"account_activity"`
	Pagination *Pagination   `json:"pagination"`
}

// APIActivity is one account activity row.
type APIActivity struct {
	Source     string          `json:"source"`
	MarketID   string          `json:"market_id"`
	ContractID string          `json:"contract_id"`
	OrderID    string          `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Money      decimal.Decimal `json:"money_change"`
	Timestamp  string          `json:"timestamp"`
}

// EventFilter configures ListEvents.
type EventFilter struct {
	States           []string
	Types            []string
	StartDatetimeMax string // Passed through verbatim when set
	Limit            int
}

// ActivityFilter configures AccountActivity.
type ActivityFilter struct {
	MarketID string
	Limit    int
}
