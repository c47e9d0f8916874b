package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"

	"github.com/rickgao/tickplant/internal/model"
	"github.com/rickgao/tickplant/internal/replay"
	"github.com/rickgao/tickplant/internal/strategy"
)

// summary is the outcome of one backtest run.
type summary struct {
	Steps     int
	Start     decimal.Decimal
	Available decimal.Decimal
	Exposure  decimal.Decimal
	Stats     strategy.Stats
	Fills     []replay.Fill
}

func writeReport(w io.Writer, s summary) {
	fills := table.NewWriter()
	fills.SetOutputMirror(w)
	fills.SetTitle("Fills")
	fills.AppendHeader(table.Row{"#", "Time", "Market", "Contract", "Side", "Price", "Quantity"})
	for i, f := range s.Fills {
		fills.AppendRow(table.Row{
			i + 1,
			f.At.UTC().Format("2006-01-02 15:04:05"),
			f.MarketID,
			f.ContractID,
			f.Side,
			formatPrice(f.Price),
			f.Quantity,
		})
	}
	fills.AppendFooter(table.Row{"", "", "", "", "", "Total", totalQuantity(s.Fills)})
	fills.SetStyle(table.StyleLight)
	fills.Render()

	fmt.Fprintln(w)

	totals := table.NewWriter()
	totals.SetOutputMirror(w)
	totals.SetTitle("Summary")
	totals.AppendRows([]table.Row{
		{"Replay steps", s.Steps},
		{"Snapshots seen", s.Stats.Snapshots},
		{"Signals", s.Stats.Signals},
		{"Orders placed", s.Stats.Orders},
		{"Orders rejected", s.Stats.Rejected},
		{"Quantity executed", s.Stats.Executed},
		{"Starting balance", s.Start.StringFixed(2)},
		{"Available balance", s.Available.StringFixed(2)},
		{"Exposure", s.Exposure.StringFixed(4)},
	})
	totals.SetStyle(table.StyleLight)
	totals.Render()
}

// formatPrice renders a basis-point price as a percentage.
func formatPrice(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100/model.PriceScale)
}

func totalQuantity(fills []replay.Fill) float64 {
	var n float64
	for _, f := range fills {
		n += f.Quantity
	}
	return n
}
