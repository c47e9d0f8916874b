package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/tickplant/internal/model"
	"github.com/rickgao/tickplant/internal/replay"
	"github.com/rickgao/tickplant/internal/strategy"
)

func TestWriteReport(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 5, 0, time.UTC)
	var buf bytes.Buffer
	writeReport(&buf, summary{
		Steps:     12,
		Start:     decimal.NewFromInt(1000),
		Available: decimal.RequireFromString("999.9664"),
		Exposure:  decimal.RequireFromString("0.0336"),
		Stats:     strategy.Stats{Snapshots: 12, Signals: 2, Orders: 1, Executed: 800},
		Fills: []replay.Fill{
			{MarketID: "m1", ContractID: "c1", Side: model.SideBuy, Price: 4200, Quantity: 800, At: at},
		},
	})

	out := buf.String()
	for _, want := range []string{
		"Fills", "Summary",
		"2024-05-01 12:00:05",
		"c1", "buy", "42.00%",
		"1000.00", "999.97", "0.0336",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price float64
		want  string
	}{
		{0, "0.00%"},
		{4200, "42.00%"},
		{10000, "100.00%"},
		{125, "1.25%"},
	}
	for _, tt := range tests {
		if got := formatPrice(tt.price); got != tt.want {
			t.Errorf("formatPrice(%v) = %q, want %q", tt.price, got, tt.want)
		}
	}
}

func TestTotalQuantity(t *testing.T) {
	fills := []replay.Fill{{Quantity: 800}, {Quantity: 200}}
	if got := totalQuantity(fills); got != 1000 {
		t.Errorf("totalQuantity = %v, want 1000", got)
	}
	if got := totalQuantity(nil); got != 0 {
		t.Errorf("totalQuantity(nil) = %v, want 0", got)
	}
}
