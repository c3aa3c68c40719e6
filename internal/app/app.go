// Package app wires configuration into the services shared by every binary.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/meur/mintforge/internal/chain"
	"github.com/meur/mintforge/internal/config"
	"github.com/meur/mintforge/internal/events"
	"github.com/meur/mintforge/internal/indexer"
	"github.com/meur/mintforge/internal/logging"
	"github.com/meur/mintforge/internal/metrics"
	"github.com/meur/mintforge/internal/mint"
	"github.com/meur/mintforge/internal/pinning"
	"github.com/meur/mintforge/internal/query"
	"github.com/meur/mintforge/internal/storage"
	"github.com/meur/mintforge/internal/wallet"
)

// App holds the services built from one configuration
type App struct {
	Config  *config.Config
	Network *config.NetworkConfig
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Bus     *events.Bus
	Chain   *chain.Client
	Store   *storage.Store
	Minter  *mint.Minter
	Queries *query.Service
	Indexer *indexer.Indexer
	Signer  *wallet.Keypair
}

// New builds every service for the active network
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	network, err := cfg.ActiveNetwork()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger = logger.With(zap.String("network", network.Name))

	a := &App{
		Config:  cfg,
		Network: network,
		Logger:  logger,
		Metrics: metrics.New(),
		Bus:     events.NewBus(),
	}

	a.Chain = chain.NewClient(network.RPCURL,
		chain.WithLogger(logger.Named("chain")),
		chain.WithMetrics(a.Metrics))

	var pinner mint.Pinner
	pc, err := pinning.New(cfg.Pinning,
		pinning.WithLogger(logger.Named("pinning")),
		pinning.WithMetrics(a.Metrics))
	switch {
	case errors.Is(err, pinning.ErrNoCredentials):
		logger.Warn("app.pinning.disabled", zap.String("hint", "set PINATA_JWT or PINATA_API_KEY/PINATA_API_SECRET"))
		pinner = pinning.Disabled{Gateway: cfg.Pinning.Gateway}
	case err != nil:
		return nil, err
	default:
		pinner = pc
	}

	if a.Signer, err = wallet.Load(cfg.Signer); err != nil {
		return nil, fmt.Errorf("loading signer: %w", err)
	}

	if a.Store, err = storage.New(cfg.Server.DBPath); err != nil {
		return nil, err
	}

	a.Minter = mint.New(a.Chain, pinner, a.Store, network, cfg.Mint,
		mint.WithBus(a.Bus),
		mint.WithMetrics(a.Metrics),
		mint.WithLogger(logger.Named("mint")))

	a.Queries, err = query.New(ctx, a.Chain, network, cfg.Mint.Module, cfg.Cache,
		query.WithBus(a.Bus),
		query.WithMetrics(a.Metrics),
		query.WithLogger(logger.Named("query")))
	if err != nil {
		a.Store.Close()
		return nil, err
	}

	a.Indexer = indexer.New(a.Chain, a.Store, network, cfg.Mint.Module,
		indexer.WithLogger(logger.Named("indexer")))
	if err := a.Bus.OnMintConfirmed(a.Indexer.IndexConfirmed); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// RequireSigner returns the configured key or an error explaining how to set one
func (a *App) RequireSigner() (*wallet.Keypair, error) {
	if a.Signer == nil {
		return nil, errors.New("no signing key: set MINTFORGE_PRIVATE_KEY or MINTFORGE_MNEMONIC")
	}
	return a.Signer, nil
}

// Close releases the store, cache and logger
func (a *App) Close() {
	if a.Queries != nil {
		a.Queries.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	a.Logger.Sync()
}
