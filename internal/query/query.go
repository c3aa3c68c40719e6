// Package query serves collection, item and coin reads through a TTL cache.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"go.uber.org/zap"

	"github.com/meur/mintforge/internal/config"
	"github.com/meur/mintforge/internal/events"
	"github.com/meur/mintforge/internal/format"
	"github.com/meur/mintforge/internal/metrics"
	"github.com/meur/mintforge/internal/mint"
	"github.com/meur/mintforge/internal/models"
)

const defaultTTL = 30 * time.Second

// Chain is the read side of the node client
type Chain interface {
	GetCollection(ctx context.Context, id string) (*models.Collection, error)
	GetClock(ctx context.Context) (time.Time, error)
	ListOwnedItems(ctx context.Context, owner, itemType string) ([]models.Item, error)
	GetCoins(ctx context.Context, owner, coinType string) ([]models.Coin, error)
	GetBalance(ctx context.Context, owner, coinType string) (*models.Balance, error)
	GetItem(ctx context.Context, objectID string) (*models.Item, error)
}

// Service caches chain reads per key and drops them after a mint
type Service struct {
	chain    Chain
	network  *config.NetworkConfig
	itemType string
	cache    *bigcache.BigCache
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithBus invalidates the sender's entries whenever a mint confirms
func WithBus(b *events.Bus) Option {
	return func(s *Service) {
		if err := b.OnMintConfirmed(func(e events.MintConfirmed) {
			s.Invalidate(e.Mint.Sender)
		}); err != nil {
			s.logger.Error("query.subscribe.failed", zap.Error(err))
		}
	}
}

// New creates a query service for one network deployment
func New(ctx context.Context, c Chain, network *config.NetworkConfig, module string, cfg config.CacheConfig, opts ...Option) (*Service, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	cc := bigcache.DefaultConfig(ttl)
	cc.Shards = 64
	cc.CleanWindow = ttl / 2
	if cc.CleanWindow < time.Second {
		cc.CleanWindow = time.Second
	}
	cc.Verbose = false

	cache, err := bigcache.New(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	s := &Service{
		chain:    c,
		network:  network,
		itemType: network.ItemType(module),
		cache:    cache,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the cache
func (s *Service) Close() error {
	return s.cache.Close()
}

// Network returns the deployment this service reads
func (s *Service) Network() *config.NetworkConfig {
	return s.network
}

const collectionKey = "collection"

// Addresses are hex, so keys fold case to match however the caller typed them.
func itemsKey(owner string) string   { return "items:" + strings.ToLower(owner) }
func coinsKey(owner string) string   { return "coins:" + strings.ToLower(owner) }
func balanceKey(owner string) string { return "balance:" + strings.ToLower(owner) }
func itemKey(id string) string       { return "item:" + strings.ToLower(id) }

// cached returns the value under key, loading and storing it on a miss
func cached[T any](s *Service, key string, load func() (T, error)) (T, error) {
	var out T
	if b, err := s.cache.Get(key); err == nil {
		if err := json.Unmarshal(b, &out); err == nil {
			s.metrics.CacheResult("hit")
			return out, nil
		}
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		s.logger.Warn("query.cache.get", zap.String("key", key), zap.Error(err))
	}
	s.metrics.CacheResult("miss")

	out, err := load()
	if err != nil {
		return out, err
	}
	if b, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(key, b); err != nil {
			s.logger.Warn("query.cache.set", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

// Collection returns the collection object
func (s *Service) Collection(ctx context.Context) (*models.Collection, error) {
	return cached(s, collectionKey, func() (*models.Collection, error) {
		if err := s.network.RequireCollection(); err != nil {
			return nil, err
		}
		return s.chain.GetCollection(ctx, s.network.CollectionID)
	})
}

// CollectionView returns the collection with values derived at the chain's current time
func (s *Service) CollectionView(ctx context.Context) (*models.CollectionView, error) {
	c, err := s.Collection(ctx)
	if err != nil {
		return nil, err
	}
	now, err := s.chain.GetClock(ctx)
	if err != nil {
		return nil, err
	}
	v := mint.View(c, now)
	return &v, nil
}

// OwnedItems lists the collection's items owned by owner
func (s *Service) OwnedItems(ctx context.Context, owner string) ([]models.Item, error) {
	return cached(s, itemsKey(owner), func() ([]models.Item, error) {
		items, err := s.chain.ListOwnedItems(ctx, owner, s.itemType)
		if items == nil && err == nil {
			items = []models.Item{}
		}
		return items, err
	})
}

// Coins lists owner's SUI coins with the formatted total
func (s *Service) Coins(ctx context.Context, owner string) (*models.CoinList, error) {
	return cached(s, coinsKey(owner), func() (*models.CoinList, error) {
		coins, err := s.chain.GetCoins(ctx, owner, models.SUICoinType)
		if err != nil {
			return nil, err
		}
		list := &models.CoinList{Coins: coins}
		if list.Coins == nil {
			list.Coins = []models.Coin{}
		}
		for _, c := range coins {
			list.TotalBalance += c.Balance
		}
		list.Formatted = format.FormatSUI(list.TotalBalance)
		return list, nil
	})
}

// Balance returns owner's aggregate SUI balance
func (s *Service) Balance(ctx context.Context, owner string) (*models.Balance, error) {
	return cached(s, balanceKey(owner), func() (*models.Balance, error) {
		return s.chain.GetBalance(ctx, owner, models.SUICoinType)
	})
}

// Item returns one item with its attributes
func (s *Service) Item(ctx context.Context, objectID string) (*models.Item, error) {
	return cached(s, itemKey(objectID), func() (*models.Item, error) {
		return s.chain.GetItem(ctx, objectID)
	})
}

// Invalidate drops the collection and every entry keyed by owner
func (s *Service) Invalidate(owner string) {
	keys := []string{collectionKey}
	if owner != "" {
		keys = append(keys, itemsKey(owner), coinsKey(owner), balanceKey(owner))
	}
	for _, k := range keys {
		if err := s.cache.Delete(k); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			s.logger.Warn("query.cache.delete", zap.String("key", k), zap.Error(err))
		}
	}
	s.metrics.CacheResult("invalidate")
	s.logger.Debug("query.invalidated", zap.String("owner", owner))
}
