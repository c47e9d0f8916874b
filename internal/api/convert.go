package api

import (
	"time"

	"github.com/rickgao/tickplant/internal/model"
)

// ParseTimestamp parses an ISO 8601 timestamp.
// Returns the zero time for empty or invalid input.
func ParseTimestamp(iso string) time.Time {
	if iso == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		// Try without timezone
		t, err = time.Parse("2006-01-02T15:04:05", iso)
		if err != nil {
			return time.Time{}
		}
	}

	return t.UTC()
}

// ToModel converts an APIEvent to model.Event.
func (e *APIEvent) ToModel() model.Event {
	return model.Event{
		ID:            e.ID,
		ParentID:      e.ParentID,
		Name:          e.Name,
		Slug:          e.Slug,
		Type:          e.Type,
		State:         e.State,
		StartDatetime: ParseTimestamp(e.StartDatetime),
	}
}

// ToModel converts an APIMarket to model.Market.
func (m *APIMarket) ToModel() model.Market {
	return model.Market{
		ID:           m.ID,
		EventID:      m.EventID,
		Name:         m.Name,
		Slug:         m.Slug,
		State:        m.State,
		DisplayOrder: m.DisplayOrder,
		Volume:       m.Volume,
	}
}

// ToModel converts an APIContract to model.Contract.
func (c *APIContract) ToModel() model.Contract {
	return model.Contract{
		ID:           c.ID,
		MarketID:     c.MarketID,
		Name:         c.Name,
		Slug:         c.Slug,
		State:        c.State,
		DisplayOrder: c.DisplayOrder,
	}
}

// ToModel converts an APIOrderBook to model.OrderBook.
func (o *APIOrderBook) ToModel() model.OrderBook {
	return model.OrderBook{
		Bids:   levelsToModel(o.Bids),
		Offers: levelsToModel(o.Offers),
	}
}

func levelsToModel(levels []APIPriceLevel) []model.PriceLevel {
	if len(levels) == 0 {
		return nil
	}
	out := make([]model.PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = model.PriceLevel{Price: l.Price, Quantity: l.Quantity}
	}
	return out
}

// ToModel converts an APIOrder to model.Order.
func (o *APIOrder) ToModel() model.Order {
	return model.Order{
		ID:                  o.ID,
		MarketID:            o.MarketID,
		ContractID:          o.ContractID,
		Price:               o.Price,
		Quantity:            o.Quantity,
		QuantityFilled:      o.QuantityFilled,
		AveragePriceMatched: o.AveragePriceMatched,
		Side:                model.Side(o.Side),
		State:               o.State,
		ReferenceID:         o.ReferenceID,
		CreatedDatetime:     ParseTimestamp(o.CreatedDatetime),
	}
}

// ToModel converts an APIAccount to model.Account.
func (a *APIAccount) ToModel() model.Account {
	return model.Account{
		ID:               a.AccountID,
		Currency:         a.Currency,
		Balance:          a.Balance,
		AvailableBalance: a.AvailableBalance,
		Exposure:         a.Exposure,
	}
}

// ToModel converts an APIActivity to model.Activity.
func (a *APIActivity) ToModel() model.Activity {
	return model.Activity{
		Source:     a.Source,
		MarketID:   a.MarketID,
		ContractID: a.ContractID,
		OrderID:    a.OrderID,
		Amount:     a.Amount,
		Money:      a.Money,
		Timestamp:  ParseTimestamp(a.Timestamp),
	}
}

// ToModel converts a PlaceOrderResponse to model.OrderResult.
func (r *PlaceOrderResponse) ToModel() model.OrderResult {
	return model.OrderResult{
		OrderID:               r.OrderID,
		AvailableBalance:      r.AvailableBalance,
		TotalExecutedQuantity: r.TotalExecutedQuantity,
		Exposure:              r.Exposure,
	}
}
