package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/rickgao/tickplant/internal/model"
)

// Position is the matched exposure on one contract marked against the
// current book.
type Position struct {
	MarketID   string
	ContractID string
	Bought     float64 // Matched buy quantity
	Sold       float64 // Matched sell quantity
	Stake      decimal.Decimal
	Value      decimal.Decimal // Profit if every fill were closed at the touch now
	Quoted     bool            // False when the closing side of the book is empty
}

// ExpectedValue marks filled and partially filled orders to market. A buy
// is closed against the best bid and a sell against the best offer.
// Positions come back in the order their contracts first appear in orders.
func ExpectedValue(orders []model.Order, snap model.Snapshot) []Position {
	var out []Position
	index := make(map[string]int)
	scale := decimal.NewFromInt(model.PriceScale * model.QuantityScale)

	for _, o := range orders {
		if o.QuantityFilled <= 0 || o.AveragePriceMatched <= 0 || !o.Side.Valid() {
			continue
		}

		i, ok := index[o.ContractID]
		if !ok {
			i = len(out)
			index[o.ContractID] = i
			out = append(out, Position{
				MarketID:   o.MarketID,
				ContractID: o.ContractID,
				Quoted:     true,
			})
		}
		p := &out[i]

		p.Stake = p.Stake.Add(model.Stake(o.Side, o.AveragePriceMatched, o.QuantityFilled))

		book := snap[o.ContractID]
		var edge float64
		if o.Side == model.SideBuy {
			p.Bought += o.QuantityFilled
			bid, ok := book.BestBid()
			if !ok {
				p.Quoted = false
				continue
			}
			edge = bid.Price - o.AveragePriceMatched
		} else {
			p.Sold += o.QuantityFilled
			offer, ok := book.BestOffer()
			if !ok {
				p.Quoted = false
				continue
			}
			edge = o.AveragePriceMatched - offer.Price
		}
		p.Value = p.Value.Add(decimal.NewFromFloat(edge).
			Mul(decimal.NewFromFloat(o.QuantityFilled)).
			Div(scale))
	}

	for i := range out {
		if !out[i].Quoted {
			out[i].Value = decimal.Zero
		}
	}
	return out
}

// TotalValue sums the value of quoted positions.
func TotalValue(positions []Position) decimal.Decimal {
	total := decimal.Zero
	for _, p := range positions {
		if p.Quoted {
			total = total.Add(p.Value)
		}
	}
	return total
}
