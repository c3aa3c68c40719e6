package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/meur/mintforge/internal/app"
	"github.com/meur/mintforge/internal/config"
	"github.com/meur/mintforge/internal/indexer"
)

func main() {
	configPath := flag.String("config", os.Getenv("MINTFORGE_CONFIG"), "YAML config file")
	dbPath := flag.String("db", "", "SQLite database path (overrides server.db_path)")
	network := flag.String("network", "", "Network to index")
	watch := flag.Duration("watch", 0, "Keep polling at this interval instead of exiting")
	reset := flag.Bool("reset", false, "Start again from the first event")
	pageSize := flag.Int("page-size", 50, "Events per query")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}
	if *network != "" {
		cfg.Network = *network
	}

	n, err := cfg.ActiveNetwork()
	if err != nil {
		log.Fatalf("Invalid network: %v", err)
	}
	if err := n.RequireCollection(); err != nil {
		log.Fatalf("Nothing to sync: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	ix := indexer.New(a.Chain, a.Store, a.Network, cfg.Mint.Module,
		indexer.WithLogger(a.Logger.Named("indexer")),
		indexer.WithPageSize(*pageSize))
	if *reset {
		if err := ix.Reset(); err != nil {
			log.Fatalf("Failed to reset cursor: %v", err)
		}
	}

	if *watch > 0 {
		a.Logger.Info("sync.watching", zap.Duration("interval", *watch))
		if err := ix.Watch(ctx, *watch); err != nil && ctx.Err() == nil {
			log.Fatalf("Sync failed: %v", err)
		}
		return
	}

	start := time.Now()
	stats, err := ix.Run(ctx)
	if err != nil {
		log.Fatalf("Sync failed: %v", err)
	}
	log.Printf("Indexed %d items from %d events in %d pages (%d skipped) in %s",
		stats.Indexed, stats.Events, stats.Pages, stats.Skipped, time.Since(start).Round(time.Millisecond))
}
