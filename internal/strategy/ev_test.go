package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rickgao/tickplant/internal/model"
)

func TestExpectedValue(t *testing.T) {
	snap := model.Snapshot{
		"c1": {
			Bids:   []model.PriceLevel{{Price: 4500, Quantity: 100}},
			Offers: []model.PriceLevel{{Price: 4600, Quantity: 100}},
		},
		"c2": {
			Bids:   []model.PriceLevel{{Price: 5400, Quantity: 100}},
			Offers: []model.PriceLevel{{Price: 5500, Quantity: 100}},
		},
		"c3": {
			Offers: []model.PriceLevel{{Price: 3000, Quantity: 100}},
		},
	}
	orders := []model.Order{
		{MarketID: "m1", ContractID: "c1", Side: model.SideBuy, QuantityFilled: 1000, AveragePriceMatched: 4000},
		{MarketID: "m1", ContractID: "c2", Side: model.SideSell, QuantityFilled: 2000, AveragePriceMatched: 6000},
		{MarketID: "m1", ContractID: "c1", Side: model.SideBuy, QuantityFilled: 1000, AveragePriceMatched: 5000},
		{MarketID: "m2", ContractID: "c3", Side: model.SideBuy, QuantityFilled: 500, AveragePriceMatched: 2500},
		{MarketID: "m2", ContractID: "c4", Side: model.SideBuy, QuantityFilled: 0, AveragePriceMatched: 2500},
	}

	got := ExpectedValue(orders, snap)
	if len(got) != 3 {
		t.Fatalf("positions = %d, want 3 (unfilled order skipped)", len(got))
	}

	tests := []struct {
		contract string
		bought   float64
		sold     float64
		stake    string
		value    string
		quoted   bool
	}{
		// (4500-4000)*1000/1e8 + (4500-5000)*1000/1e8 = 0
		{"c1", 2000, 0, "0.09", "0", true},
		// (6000-5500)*2000/1e8 = 0.01; stake (10000-6000)*2000/1e8
		{"c2", 0, 2000, "0.08", "0.01", true},
		// No bid to close a buy against.
		{"c3", 500, 0, "0.0125", "0", false},
	}
	for i, tt := range tests {
		p := got[i]
		if p.ContractID != tt.contract {
			t.Fatalf("position %d = %s, want %s", i, p.ContractID, tt.contract)
		}
		if p.Bought != tt.bought || p.Sold != tt.sold {
			t.Errorf("%s bought/sold = %v/%v, want %v/%v", tt.contract, p.Bought, p.Sold, tt.bought, tt.sold)
		}
		if !p.Stake.Equal(decimal.RequireFromString(tt.stake)) {
			t.Errorf("%s stake = %s, want %s", tt.contract, p.Stake, tt.stake)
		}
		if !p.Value.Equal(decimal.RequireFromString(tt.value)) {
			t.Errorf("%s value = %s, want %s", tt.contract, p.Value, tt.value)
		}
		if p.Quoted != tt.quoted {
			t.Errorf("%s quoted = %v, want %v", tt.contract, p.Quoted, tt.quoted)
		}
	}

	if total := TotalValue(got); !total.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("TotalValue = %s, want 0.01", total)
	}
}

func TestExpectedValue_Empty(t *testing.T) {
	if got := ExpectedValue(nil, model.Snapshot{}); len(got) != 0 {
		t.Errorf("ExpectedValue(nil) = %v, want empty", got)
	}
	if total := TotalValue(nil); !total.IsZero() {
		t.Errorf("TotalValue(nil) = %s, want 0", total)
	}
}
