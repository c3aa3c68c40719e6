// Package indexer copies minted items from chain events into the local index.
package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/meur/mintforge/internal/chain"
	"github.com/meur/mintforge/internal/config"
	"github.com/meur/mintforge/internal/events"
	"github.com/meur/mintforge/internal/models"
)

const defaultPageSize = 50

// Chain is the event and object reader the indexer needs
type Chain interface {
	QueryEvents(ctx context.Context, eventType string, cursor *chain.EventID, limit int) (*chain.EventsPage, error)
	GetItem(ctx context.Context, objectID string) (*models.Item, error)
}

// Store persists items and the event cursor
type Store interface {
	UpsertItems(items []models.Item) error
	ReadProperty(key string) (string, error)
	WriteProperty(key, value string) error
}

// Stats summarizes one Run
type Stats struct {
	Pages   int
	Events  int
	Indexed int
	Skipped int
}

// Indexer walks NFTMinted events from the stored cursor
type Indexer struct {
	chain        Chain
	store        Store
	network      *config.NetworkConfig
	eventType    string
	collectionID string
	cursorKey    string
	pageSize     int
	logger       *zap.Logger
}

type Option func(*Indexer)

func WithLogger(l *zap.Logger) Option {
	return func(ix *Indexer) { ix.logger = l }
}

func WithPageSize(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.pageSize = n
		}
	}
}

// New creates an indexer for the network's collection
func New(c Chain, s Store, network *config.NetworkConfig, module string, opts ...Option) *Indexer {
	ix := &Indexer{
		chain:        c,
		store:        s,
		network:      network,
		eventType:    network.MintEventType(module),
		collectionID: network.CollectionID,
		cursorKey:    "mint_cursor:" + network.Name + ":" + network.CollectionID,
		pageSize:     defaultPageSize,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Cursor returns the last stored event position, nil before the first run
func (ix *Indexer) Cursor() (*chain.EventID, error) {
	raw, err := ix.store.ReadProperty(ix.cursorKey)
	if err != nil || raw == "" {
		return nil, err
	}
	var id chain.EventID
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, fmt.Errorf("corrupt cursor %q: %w", raw, err)
	}
	return &id, nil
}

// Reset forgets the cursor so the next run starts from the first event
func (ix *Indexer) Reset() error {
	return ix.store.WriteProperty(ix.cursorKey, "")
}

// Run indexes every event after the stored cursor
func (ix *Indexer) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := ix.network.RequireCollection(); err != nil {
		return stats, err
	}
	cursor, err := ix.Cursor()
	if err != nil {
		return stats, err
	}

	for {
		page, err := ix.chain.QueryEvents(ctx, ix.eventType, cursor, ix.pageSize)
		if err != nil {
			return stats, fmt.Errorf("querying events: %w", err)
		}
		stats.Pages++

		items := make([]models.Item, 0, len(page.Data))
		for _, e := range page.Data {
			stats.Events++
			item, err := ix.itemFor(ctx, e)
			if err != nil {
				return stats, err
			}
			if item == nil {
				stats.Skipped++
				continue
			}
			items = append(items, *item)
		}
		if len(items) > 0 {
			if err := ix.store.UpsertItems(items); err != nil {
				return stats, fmt.Errorf("storing items: %w", err)
			}
			stats.Indexed += len(items)
		}

		if page.NextCursor != nil {
			cursor = page.NextCursor
			b, _ := json.Marshal(cursor)
			if err := ix.store.WriteProperty(ix.cursorKey, string(b)); err != nil {
				return stats, fmt.Errorf("storing cursor: %w", err)
			}
		}
		ix.logger.Debug("indexer.page", zap.Int("events", len(page.Data)), zap.Int("indexed", len(items)))

		if !page.HasNextPage || len(page.Data) == 0 {
			return stats, nil
		}
	}
}

// itemFor returns nil for events of other collections and for deleted objects
func (ix *Indexer) itemFor(ctx context.Context, e chain.Event) (*models.Item, error) {
	if col, ok := e.ParsedJSON["collection_id"].(string); ok && col != ix.collectionID {
		return nil, nil
	}
	objectID, minter, err := chain.ParseMintEvent(e)
	if err != nil {
		ix.logger.Warn("indexer.event.malformed", zap.String("tx", e.ID.TxDigest), zap.Error(err))
		return nil, nil
	}

	item, err := ix.chain.GetItem(ctx, objectID)
	if errors.Is(err, chain.ErrObjectNotFound) {
		ix.logger.Info("indexer.item.gone", zap.String("object_id", objectID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", objectID, err)
	}

	item.CollectionID = ix.collectionID
	item.Digest = e.ID.TxDigest
	if item.Owner == "" {
		item.Owner = minter
	}
	if ms, err := strconv.ParseInt(e.TimestampMs, 10, 64); err == nil {
		item.MintedAt = time.UnixMilli(ms).UTC()
	}
	return item, nil
}

// Watch runs until ctx is done, pausing interval between runs
func (ix *Indexer) Watch(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		stats, err := ix.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ix.logger.Warn("indexer.run.failed", zap.Error(err))
		} else if stats.Indexed > 0 {
			ix.logger.Info("indexer.run", zap.Int("indexed", stats.Indexed), zap.Int("skipped", stats.Skipped))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// IndexConfirmed writes a just-confirmed mint into the index without waiting for a sync
func (ix *Indexer) IndexConfirmed(e events.MintConfirmed) {
	if e.Receipt.ObjectID == "" {
		return
	}
	item := models.Item{
		ObjectID:     e.Receipt.ObjectID,
		CollectionID: ix.collectionID,
		Owner:        e.Mint.Sender,
		Name:         e.Mint.Name,
		Description:  e.Mint.Description,
		ImageURL:     e.Mint.ImageURL,
		Creator:      e.Mint.Sender,
		Attributes:   e.Mint.Attributes,
		Digest:       e.Receipt.Digest,
		MintedAt:     e.Mint.UpdatedAt,
	}
	if err := ix.store.UpsertItems([]models.Item{item}); err != nil {
		ix.logger.Warn("indexer.confirmed.failed", zap.String("object_id", item.ObjectID), zap.Error(err))
	}
}
