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
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/tickplant/internal/api"
	"github.com/rickgao/tickplant/internal/auth"
	"github.com/rickgao/tickplant/internal/cache"
	"github.com/rickgao/tickplant/internal/config"
	"github.com/rickgao/tickplant/internal/logging"
	"github.com/rickgao/tickplant/internal/poller"
	"github.com/rickgao/tickplant/internal/retry"
	"github.com/rickgao/tickplant/internal/store"
	"github.com/rickgao/tickplant/internal/strategy"
	"github.com/rickgao/tickplant/internal/venue"
	"github.com/rickgao/tickplant/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/collector.yaml", "path to config file")
	envFile := flag.String("env", ".env", "optional dotenv file")
	trade := flag.Bool("trade", false, "run the mean-reversion strategy on every poll")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

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
	slog.SetDefault(logger)

	logger.Info("starting collector",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, *trade, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("collector failed", "error", err)
		os.Exit(1)
	}

	logger.Info("collector stopped")
}

func run(ctx context.Context, cfg *config.Config, trade bool, logger *slog.Logger) error {
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
		return fmt.Errorf("acquire session: %w", err)
	}

	client := api.NewClient(cfg.API.BaseURL, sessions,
		api.WithTimeout(cfg.API.Timeout),
		api.WithChunkSize(cfg.API.ChunkSize),
		api.WithMaxPages(cfg.API.MaxPages),
		api.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
		api.WithLogger(logger),
	)

	trader, mode, err := venue.Open(cfg.Mode, venue.Builders{
		Live: func() (venue.Venue, error) { return client, nil },
	})
	if err != nil {
		return fmt.Errorf("collector needs mode %q: %w", venue.ModeLive, err)
	}

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("tick store ready", "driver", cfg.Store.Driver)

	policy := retry.Policy{
		Attempts:   cfg.Poller.RetryAttempts,
		Backoff:    cfg.Poller.RetryBackoff,
		MaxBackoff: retry.DefaultMaxBackoff,
		Logger:     logger,
	}

	marketIDs := cfg.Poller.MarketIDs
	if len(marketIDs) == 0 {
		filter := api.EventFilter{
			States: cfg.Poller.EventStates,
			Types:  cfg.Poller.EventTypes,
			Limit:  cfg.Poller.EventLimit,
		}
		err := retry.Do(ctx, policy, "discover", func(ctx context.Context) error {
			ids, err := poller.Discover(ctx, client, filter)
			marketIDs = ids
			return err
		})
		if err != nil {
			return err
		}
		logger.Info("discovered markets", "count", len(marketIDs))
	}

	var opts []poller.Option
	var quotes quoteReader

	if cfg.Cache.RedisAddr != "" {
		qc, err := cache.Open(ctx, cfg.Cache)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer qc.Close()
		opts = append(opts, poller.WithHandler(qc))
		quotes = qc
		logger.Info("redis quote mirror enabled", "addr", cfg.Cache.RedisAddr)
	}

	if trade {
		contracts, err := trader.RelatedContracts(ctx, marketIDs)
		if err != nil {
			return fmt.Errorf("resolve contracts: %w", err)
		}
		mr := strategy.NewMeanReversion(strategy.Config{}, trader, contracts, logger)
		if err := mr.Seed(ctx, st); err != nil {
			return err
		}
		opts = append(opts, poller.WithHandler(mr))
		logger.Info("strategy enabled", "venue", mode, "contracts", len(contracts))
	}

	p := poller.New(poller.Config{
		Interval:  cfg.Poller.Interval,
		MarketIDs: marketIDs,
		Retry:     policy,
	}, client, st, logger, opts...)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: newRouter(&healthHandler{
			sessions:   sessions,
			poller:     p,
			quotes:     quotes,
			staleAfter: 3 * cfg.Poller.Interval,
			now:        time.Now,
		}, cfg.Metrics.Path),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sessions.RunRenewal(gctx, cfg.Auth.ReauthInterval)
	})

	g.Go(func() error {
		return p.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("collector running",
		"markets", len(marketIDs),
		"interval", cfg.Poller.Interval,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	return g.Wait()
}
