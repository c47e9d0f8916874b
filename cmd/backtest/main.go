// backtest replays stored ticks through the mean-reversion strategy against
// a paper venue and prints the resulting fills.
// Usage: go run ./cmd/backtest --config configs/backtest.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/rickgao/tickplant/internal/api"
	"github.com/rickgao/tickplant/internal/auth"
	"github.com/rickgao/tickplant/internal/config"
	"github.com/rickgao/tickplant/internal/logging"
	"github.com/rickgao/tickplant/internal/replay"
	"github.com/rickgao/tickplant/internal/store"
	"github.com/rickgao/tickplant/internal/strategy"
	"github.com/rickgao/tickplant/internal/venue"
)

func main() {
	configPath := flag.String("config", "configs/backtest.yaml", "path to config file")
	envFile := flag.String("env", ".env", "optional dotenv file")
	balance := flag.String("balance", "1000", "starting paper balance")
	window := flag.Int("window", strategy.DefaultWindow, "mean-reversion window")
	quantity := flag.Float64("quantity", strategy.DefaultQuantity, "order quantity in exchange units")
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

	start, err := decimal.NewFromString(*balance)
	if err != nil {
		logger.Error("invalid balance", "balance", *balance, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := run(ctx, cfg, start, strategy.Config{
		Window:     *window,
		Quantity:   *quantity,
		Aggressive: true,
	}, logger)
	if err != nil {
		logger.Error("backtest failed", "error", err)
		os.Exit(1)
	}

	writeReport(os.Stdout, sum)
}

func run(ctx context.Context, cfg *config.Config, start decimal.Decimal, stratCfg strategy.Config, logger *slog.Logger) (summary, error) {
	marketIDs := cfg.Replay.MarketIDs
	if len(marketIDs) == 0 {
		marketIDs = cfg.Poller.MarketIDs
	}
	if len(marketIDs) == 0 {
		return summary{}, errors.New("no market ids to replay")
	}

	// Relationships come from the live API; prices only from the store.
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
		return summary{}, fmt.Errorf("acquire session: %w", err)
	}
	client := api.NewClient(cfg.API.BaseURL, sessions,
		api.WithTimeout(cfg.API.Timeout),
		api.WithChunkSize(cfg.API.ChunkSize),
		api.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
		api.WithLogger(logger),
	)

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return summary{}, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var (
		engine *replay.Engine
		paper  *replay.Venue
	)
	v, _, err := venue.Open(cfg.Mode, venue.Builders{
		Replay: func() (venue.Venue, error) {
			e, err := replay.New(replay.Config{
				Interval: cfg.Replay.Interval,
				Range:    store.TimeRange{From: cfg.Replay.From, To: cfg.Replay.To},
			}, client, st, logger)
			if err != nil {
				return nil, err
			}
			engine, paper = e, replay.NewVenue(e, client, start)
			return paper, nil
		},
	})
	if err != nil {
		return summary{}, fmt.Errorf("backtest needs mode %q: %w", venue.ModeReplay, err)
	}

	contracts, err := v.RelatedContracts(ctx, marketIDs)
	if err != nil {
		return summary{}, fmt.Errorf("resolve contracts: %w", err)
	}
	mr := strategy.NewMeanReversion(stratCfg, v, contracts, logger)

	logger.Info("starting backtest",
		"markets", len(marketIDs),
		"contracts", len(contracts),
		"interval", cfg.Replay.Interval,
	)

	steps := 0
	for {
		if err := ctx.Err(); err != nil {
			return summary{}, err
		}
		snap, err := v.Quotes(ctx, marketIDs)
		if errors.Is(err, replay.ErrExhausted) {
			break
		}
		if err != nil {
			return summary{}, err
		}
		steps++
		if err := mr.HandleSnapshot(ctx, engine.Now(), snap); err != nil {
			logger.Warn("strategy error", "at", engine.Now(), "error", err)
		}
	}

	available, exposure := paper.Balance()
	logger.Info("backtest complete", "steps", steps, "fills", len(paper.Fills()))

	return summary{
		Steps:     steps,
		Start:     start,
		Available: available,
		Exposure:  exposure,
		Stats:     mr.Stats(),
		Fills:     paper.Fills(),
	}, nil
}
