package store

import (
	"math"
	"time"

	"github.com/rickgao/tickplant/internal/model"
)

// levelColumns is the number of price/quantity columns per row:
// bids then offers, depth 1..MaxDepth, price then quantity.
const levelColumns = 2 * 2 * model.MaxDepth

// tickColumns lists the level columns in storage order.
var tickColumns = [levelColumns]string{
	"bp1", "bq1", "bp2", "bq2", "bp3", "bq3",
	"op1", "oq1", "op2", "oq2", "op3", "oq3",
}

// tickRow is the flat storage form of one instrument's book at one instant.
type tickRow struct {
	ID         int64
	ContractID string
	Timestamp  int64 // Unix microseconds
	Levels     [levelColumns]*float64
}

// flatten converts a book to its flat row. Levels beyond MaxDepth are
// dropped. A missing level, or one whose price or quantity is non-finite,
// is stored as NULL in both columns.
func flatten(contractID string, book model.OrderBook, ts time.Time) tickRow {
	row := tickRow{ContractID: contractID, Timestamp: ts.UnixMicro()}
	for side, levels := range [2][]model.PriceLevel{book.Bids, book.Offers} {
		for depth := 0; depth < model.MaxDepth && depth < len(levels); depth++ {
			price, qty := finite(levels[depth].Price), finite(levels[depth].Quantity)
			if price == nil || qty == nil {
				continue
			}
			base := side*2*model.MaxDepth + depth*2
			row.Levels[base] = price
			row.Levels[base+1] = qty
		}
	}
	return row
}

// unflatten converts a stored row back to a tick. A level is kept only when
// both its price and quantity are present.
func unflatten(row tickRow) model.Tick {
	tick := model.Tick{
		ID:         row.ID,
		ContractID: row.ContractID,
		Timestamp:  time.UnixMicro(row.Timestamp).UTC(),
	}
	sides := [2]*[]model.PriceLevel{&tick.Book.Bids, &tick.Book.Offers}
	for side, dst := range sides {
		for depth := 0; depth < model.MaxDepth; depth++ {
			base := side*2*model.MaxDepth + depth*2
			price, qty := row.Levels[base], row.Levels[base+1]
			if price == nil || qty == nil {
				continue
			}
			*dst = append(*dst, model.PriceLevel{Price: *price, Quantity: *qty})
		}
	}
	return tick
}

// args returns the insert arguments: contract_id, timestamp, then levels.
func (r tickRow) args() []any {
	out := make([]any, 0, 2+levelColumns)
	out = append(out, r.ContractID, r.Timestamp)
	for _, v := range r.Levels {
		out = append(out, v)
	}
	return out
}

// scanDest returns scan targets matching selectColumns.
func (r *tickRow) scanDest() []any {
	out := make([]any, 0, 3+levelColumns)
	out = append(out, &r.ID, &r.ContractID, &r.Timestamp)
	for i := range r.Levels {
		out = append(out, &r.Levels[i])
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
