package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/meur/mintforge/internal/api"
	"github.com/meur/mintforge/internal/app"
	"github.com/meur/mintforge/internal/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", getEnv("MINTFORGE_CONFIG", ""), "YAML config file")
	addr := flag.String("addr", getEnv("ADDR", ""), "Listen address (overrides server.addr)")
	dbPath := flag.String("db", getEnv("DB_PATH", ""), "SQLite database path (overrides server.db_path)")
	network := flag.String("network", "", "Network to use (overrides MINTFORGE_NETWORK)")
	static := flag.String("static", getEnv("STATIC_DIR", ""), "Serve a built frontend from this directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}
	if *network != "" {
		cfg.Network = *network
	}

	if err := run(cfg, *static); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(cfg *config.Config, static string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer a.Close()
	if err := a.Network.RequireCollection(); err != nil {
		return err
	}

	opts := []api.Option{
		api.WithLogger(a.Logger.Named("api")),
		api.WithMetrics(a.Metrics),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
	}
	if a.Signer != nil {
		opts = append(opts, api.WithSigner(a.Signer))
		a.Logger.Info("server.custodial", zap.String("address", a.Signer.Address()))
	}
	srv := api.New(a.Store, a.Queries, a.Minter, a.Network, opts...)
	if static != "" {
		srv.ServeStatic(static)
	}

	httpServer := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return err
	}

	a.Logger.Info("server.starting",
		zap.String("addr", ln.Addr().String()),
		zap.String("db", cfg.Server.DBPath),
		zap.String("package_id", a.Network.PackageID),
		zap.String("collection_id", a.Network.CollectionID))

	// In-flight submits may be polling for confirmation; give them the confirm timeout.
	shutdownTimeout := max(cfg.Mint.ConfirmTimeout, 10*time.Second)
	if err := serve(ctx, httpServer, ln, shutdownTimeout, a.Logger); err != nil {
		return err
	}
	a.Logger.Info("server.stopped")
	return nil
}

// serve runs srv on ln until ctx is done, then drains in-flight requests
func serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, logger *zap.Logger) error {
	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Info("server.shutting_down", zap.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	// Serve returns as soon as Shutdown starts; wait for the drain to finish.
	return <-shutdownErr
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
