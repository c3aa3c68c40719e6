package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/meur/mintforge/internal/config"
	"github.com/meur/mintforge/internal/metrics"
	"github.com/meur/mintforge/internal/mint"
	"github.com/meur/mintforge/internal/models"
)

// Store is the local index the API reads history from
type Store interface {
	GetMint(id string) (*models.Mint, error)
	ListMints(sender string, limit int) ([]models.Mint, error)
	GetItems(collectionID string, limit int) (*models.ItemList, error)
}

// Queries serves cached chain reads
type Queries interface {
	CollectionView(ctx context.Context) (*models.CollectionView, error)
	OwnedItems(ctx context.Context, owner string) ([]models.Item, error)
	Coins(ctx context.Context, owner string) (*models.CoinList, error)
	Item(ctx context.Context, objectID string) (*models.Item, error)
}

// Minter runs the mint flow
type Minter interface {
	Prepare(ctx context.Context, form *mint.Form, sender string) (*models.PreparedMint, error)
	Submit(ctx context.Context, mintID, signature string, opts ...mint.CallOption) (*models.Receipt, error)
	Mint(ctx context.Context, form *mint.Form, signer mint.Signer, opts ...mint.CallOption) (*models.Receipt, error)
	Validator() *mint.Validator
}

// Server holds the HTTP server dependencies
type Server struct {
	store   Store
	queries Queries
	minter  Minter
	network *config.NetworkConfig
	signer  mint.Signer
	origins []string
	logger  *zap.Logger
	metrics *metrics.Metrics
	router  chi.Router
}

type Option func(*Server)

// WithSigner enables custodial minting with the server's key
func WithSigner(sg mint.Signer) Option {
	return func(s *Server) { s.signer = sg }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithAllowedOrigins sets the CORS origin patterns
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// New creates a new API server
func New(store Store, queries Queries, minter Minter, network *config.NetworkConfig, opts ...Option) *Server {
	s := &Server{
		store:   store,
		queries: queries,
		minter:  minter,
		network: network,
		origins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		logger:  zap.NewNop(),
		router:  chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/network", s.handleGetNetwork)

		// Collection
		r.Get("/collection", s.handleGetCollection)
		r.Get("/collection/items", s.handleGetCollectionItems)
		r.Get("/items/{objectID}", s.handleGetItem)

		// Accounts
		r.Get("/accounts/{address}/items", s.handleGetAccountItems)
		r.Get("/accounts/{address}/coins", s.handleGetAccountCoins)

		// Mints
		r.Post("/mint/prepare", s.handlePrepareMint)
		r.Post("/mint/{id}/submit", s.handleSubmitMint)
		r.Post("/mint", s.handleCustodialMint)
		r.Get("/mints", s.handleListMints)
		r.Get("/mints/{id}", s.handleGetMint)
	})

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	// Health check
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
