// quotes prints a one-shot view of markets, their top of book, open orders,
// and the account balance.
// Usage: go run ./cmd/quotes --config configs/collector.yaml --markets 123,456
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"github.com/rickgao/tickplant/internal/api"
	"github.com/rickgao/tickplant/internal/auth"
	"github.com/rickgao/tickplant/internal/config"
	"github.com/rickgao/tickplant/internal/logging"
	"github.com/rickgao/tickplant/internal/model"
	"github.com/rickgao/tickplant/internal/strategy"
)

func main() {
	configPath := flag.String("config", "configs/collector.yaml", "path to config file")
	envFile := flag.String("env", ".env", "optional dotenv file")
	markets := flag.String("markets", "", "comma-separated market ids (default: discover from events)")
	showOrders := flag.Bool("orders", false, "list live orders")
	showEV := flag.Bool("ev", false, "mark filled orders to market")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := auth.NewManager(cfg.API.BaseURL,
		auth.Credentials{
			Login:    cfg.Auth.Login,
			Password: cfg.Auth.Password,
			Token:    cfg.Auth.Token,
		},
		auth.WithLogger(logger),
		auth.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
	)
	if _, err := sessions.Acquire(ctx); err != nil {
		logger.Error("failed to acquire session", "error", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.API.BaseURL, sessions,
		api.WithTimeout(cfg.API.Timeout),
		api.WithChunkSize(cfg.API.ChunkSize),
		api.WithMaxPages(cfg.API.MaxPages),
		api.WithLogger(logger),
	)

	if err := run(ctx, client, cfg, splitIDs(*markets), views{orders: *showOrders, ev: *showEV}, os.Stdout); err != nil {
		logger.Error("quotes failed", "error", err)
		os.Exit(1)
	}
}

// views selects the optional sections of the report.
type views struct {
	orders bool
	ev     bool
}

func run(ctx context.Context, client *api.Client, cfg *config.Config, marketIDs []string, show views, w io.Writer) error {
	if len(marketIDs) == 0 {
		marketIDs = cfg.Poller.MarketIDs
	}
	if len(marketIDs) == 0 {
		events, err := client.ListEvents(ctx, api.EventFilter{
			States: cfg.Poller.EventStates,
			Types:  cfg.Poller.EventTypes,
			Limit:  cfg.Poller.EventLimit,
		})
		if err != nil {
			return err
		}
		writeEvents(w, events)

		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		mkts, err := client.RelatedMarkets(ctx, ids)
		if err != nil {
			return err
		}
		for _, m := range mkts {
			marketIDs = append(marketIDs, m.ID)
		}
	}
	if len(marketIDs) == 0 {
		fmt.Fprintln(w, "no markets found")
		return nil
	}

	contracts, err := client.RelatedContracts(ctx, marketIDs)
	if err != nil {
		return err
	}
	snap, err := client.Quotes(ctx, marketIDs)
	if err != nil {
		return err
	}
	writeQuotes(w, contracts, snap)

	if show.orders {
		orders, err := client.ListOrders(ctx, []string{"created", "partial"})
		if err != nil {
			return err
		}
		writeOrders(w, orders)
	}

	if show.ev {
		if err := expectedValue(ctx, client, w); err != nil {
			return err
		}
	}

	account, err := client.Account(ctx)
	if err != nil {
		return err
	}
	writeAccount(w, account)
	return nil
}

func writeEvents(w io.Writer, events []model.Event) {
	t := newTable(w, "Events")
	t.AppendHeader(table.Row{"ID", "Name", "Type", "State", "Start"})
	for _, e := range events {
		t.AppendRow(table.Row{e.ID, e.Name, e.Type, e.State, e.StartDatetime.UTC().Format("2006-01-02 15:04")})
	}
	t.Render()
	fmt.Fprintln(w)
}

func writeQuotes(w io.Writer, contracts []model.Contract, snap model.Snapshot) {
	t := newTable(w, "Quotes")
	t.AppendHeader(table.Row{"Market", "Contract", "Name", "Bid", "Bid Qty", "Offer", "Offer Qty"})
	for _, c := range contracts {
		book := snap[c.ID]
		row := table.Row{c.MarketID, c.ID, c.Name, "-", "-", "-", "-"}
		if len(book.Bids) > 0 {
			row[3], row[4] = book.Bids[0].Price, book.Bids[0].Quantity
		}
		if len(book.Offers) > 0 {
			row[5], row[6] = book.Offers[0].Price, book.Offers[0].Quantity
		}
		t.AppendRow(row)
	}
	t.Render()
	fmt.Fprintln(w)
}

func writeOrders(w io.Writer, orders []model.Order) {
	t := newTable(w, "Orders")
	t.AppendHeader(table.Row{"ID", "Contract", "Side", "Price", "Quantity", "Filled", "State"})
	for _, o := range orders {
		t.AppendRow(table.Row{o.ID, o.ContractID, o.Side, o.Price, o.Quantity, o.QuantityFilled, o.State})
	}
	t.Render()
	fmt.Fprintln(w)
}

// expectedValue marks filled and partially filled orders against the
// current quotes of their markets.
func expectedValue(ctx context.Context, client *api.Client, w io.Writer) error {
	orders, err := client.ListOrders(ctx, []string{"filled", "partial"})
	if err != nil {
		return err
	}

	var marketIDs []string
	seen := make(map[string]bool)
	for _, o := range orders {
		if !seen[o.MarketID] {
			seen[o.MarketID] = true
			marketIDs = append(marketIDs, o.MarketID)
		}
	}

	snap := model.Snapshot{}
	if len(marketIDs) > 0 {
		if snap, err = client.Quotes(ctx, marketIDs); err != nil {
			return err
		}
	}
	writeExpectedValue(w, strategy.ExpectedValue(orders, snap))
	return nil
}

func writeExpectedValue(w io.Writer, positions []strategy.Position) {
	t := newTable(w, "Expected Value")
	t.AppendHeader(table.Row{"Market", "Contract", "Bought", "Sold", "Stake", "Value"})
	for _, p := range positions {
		value := p.Value.StringFixed(4)
		if !p.Quoted {
			value = "unquoted"
		}
		t.AppendRow(table.Row{p.MarketID, p.ContractID, p.Bought, p.Sold, p.Stake.StringFixed(4), value})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", strategy.TotalValue(positions).StringFixed(4)})
	t.Render()
	fmt.Fprintln(w)
}

func writeAccount(w io.Writer, a *model.Account) {
	t := newTable(w, "Account")
	t.AppendRows([]table.Row{
		{"ID", a.ID},
		{"Currency", a.Currency},
		{"Balance", a.Balance.StringFixed(2)},
		{"Available", a.AvailableBalance.StringFixed(2)},
		{"Exposure", a.Exposure.StringFixed(2)},
	})
	t.Render()
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleLight)
	return t
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
