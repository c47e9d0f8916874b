// Package cache mirrors the latest quote of every polled contract into Redis
// so external readers can see the live book without touching the tick store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/tickplant/internal/config"
	"github.com/rickgao/tickplant/internal/model"
)

// QuoteCache writes each polled snapshot to Redis, one key per contract.
type QuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// entry is the cached JSON document.
type entry struct {
	Timestamp time.Time          `json:"timestamp"`
	Bids      []model.PriceLevel `json:"bids"`
	Offers    []model.PriceLevel `json:"offers"`
}

// New wraps an existing client. Entries expire after ttl; zero keeps them.
func New(rdb *redis.Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{rdb: rdb, ttl: ttl}
}

// Open connects to the Redis server named by cfg. RedisAddr may be a
// host:port or a redis:// URL.
func Open(ctx context.Context, cfg config.CacheConfig) (*QuoteCache, error) {
	var opt *redis.Options
	if strings.HasPrefix(cfg.RedisAddr, "redis://") || strings.HasPrefix(cfg.RedisAddr, "rediss://") {
		parsed, err := redis.ParseURL(cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt = parsed
	} else {
		opt = &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(rdb, cfg.TTL), nil
}

// HandleSnapshot stores every book in snap in one pipeline.
func (c *QuoteCache) HandleSnapshot(ctx context.Context, ts time.Time, snap model.Snapshot) error {
	if len(snap) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for _, contractID := range snap.ContractIDs() {
		book := snap[contractID]
		data, err := json.Marshal(entry{Timestamp: ts, Bids: book.Bids, Offers: book.Offers})
		if err != nil {
			return fmt.Errorf("encode quote %s: %w", contractID, err)
		}
		pipe.Set(ctx, quoteKey(contractID), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror quotes: %w", err)
	}
	return nil
}

// Latest returns the cached book for contractID. ok is false on a miss.
func (c *QuoteCache) Latest(ctx context.Context, contractID string) (tick model.Tick, ok bool, err error) {
	data, err := c.rdb.Get(ctx, quoteKey(contractID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Tick{}, false, nil
	}
	if err != nil {
		return model.Tick{}, false, fmt.Errorf("get quote %s: %w", contractID, err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return model.Tick{}, false, fmt.Errorf("decode quote %s: %w", contractID, err)
	}
	return model.Tick{
		ContractID: contractID,
		Timestamp:  e.Timestamp,
		Book:       model.OrderBook{Bids: e.Bids, Offers: e.Offers},
	}, true, nil
}

// Close closes the Redis client.
func (c *QuoteCache) Close() error {
	return c.rdb.Close()
}

func quoteKey(contractID string) string { return fmt.Sprintf("quote:%s", contractID) }
