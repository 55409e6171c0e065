package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/catalog"
	"github.com/dukerupert/larder/internal/checkout"
	"github.com/dukerupert/larder/internal/config"
	"github.com/dukerupert/larder/internal/handler"
	"github.com/dukerupert/larder/internal/middleware"
	"github.com/dukerupert/larder/internal/store"
	ws "github.com/dukerupert/larder/internal/websocket"
)

const (
	tokenRateLimit  = 10
	tokenRateWindow = time.Minute
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	tokens      *auth.Tokens
	itemH       *handler.ItemHandler
	searchH     *handler.SearchHandler
	tagH        *handler.AttributeHandler
	groupH      *handler.AttributeHandler
	listH       *handler.ShoppingListHandler
	checkoutH   *handler.CheckoutHandler
	sessionH    *handler.SessionHandler
	tokenH      *handler.TokenHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New wires the stores, services and handlers. Checkout events go to notifier;
// a nil notifier delivers them straight to the local hub.
func New(db *sql.DB, hub *ws.Hub, notifier checkout.Notifier, cfg config.Config, logger *slog.Logger) *Server {
	if notifier == nil {
		notifier = hub
	}

	gw := store.NewGateway(db)
	subscriptionStore := store.NewSubscriptionStore(db)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	catalogSvc := catalog.NewService(gw, logger.With("component", "catalog"), cfg.ShoppingListCatalogSize, cfg.LowQuantityThreshold)
	coordinator := checkout.NewCoordinator(gw, notifier, logger.With("component", "checkout"), cfg.NotifyTimeout)

	return &Server{
		db:          db,
		hub:         hub,
		tokens:      tokens,
		itemH:       handler.NewItemHandler(catalogSvc),
		searchH:     handler.NewSearchHandler(catalogSvc),
		tagH:        handler.NewTagHandler(catalogSvc),
		groupH:      handler.NewGroupHandler(catalogSvc),
		listH:       handler.NewShoppingListHandler(catalogSvc),
		checkoutH:   handler.NewCheckoutHandler(coordinator),
		sessionH:    handler.NewSessionHandler(catalogSvc),
		tokenH:      handler.NewTokenHandler(subscriptionStore, tokens, logger.With("component", "token")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("POST /api/token", middleware.RateLimit(
		s.rateLimiter, middleware.ByRealIP("token"), tokenRateLimit, tokenRateWindow,
	)(http.HandlerFunc(s.tokenH.Issue)))

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	outerMux.Handle("/", middleware.RequireAuth(s.tokens)(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"status": status, "clients": s.hub.ClientCount()})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/session", s.sessionH.Get)

	// Items
	mux.HandleFunc("GET /api/items/{id}", s.itemH.Get)
	mux.HandleFunc("POST /api/items", s.itemH.Upsert)
	mux.HandleFunc("POST /api/items/query", s.itemH.Query)
	mux.HandleFunc("POST /api/items/by-id", s.itemH.ByID)
	mux.HandleFunc("POST /api/items/low-quantity", s.itemH.LowQuantity)

	// Search
	mux.HandleFunc("POST /api/search", s.searchH.Search)
	mux.HandleFunc("POST /api/search/groups", s.searchH.ByGroup)
	mux.HandleFunc("POST /api/search/tags", s.searchH.ByTag)
	mux.HandleFunc("POST /api/search/low-quantity", s.searchH.LowQuantity)

	// Tags and groups
	mux.HandleFunc("GET /api/tags", s.tagH.List)
	mux.HandleFunc("POST /api/tags/query", s.tagH.Query)
	mux.HandleFunc("POST /api/tags", s.tagH.Upsert)
	mux.HandleFunc("GET /api/groups", s.groupH.List)
	mux.HandleFunc("POST /api/groups/query", s.groupH.Query)
	mux.HandleFunc("POST /api/groups", s.groupH.Upsert)
	mux.HandleFunc("GET /api/item-tags/{item_id}", s.tagH.ItemLinks)
	mux.HandleFunc("PUT /api/item-tags", s.tagH.UpsertItemLinks)
	mux.HandleFunc("GET /api/item-groups/{item_id}", s.groupH.ItemLinks)
	mux.HandleFunc("PUT /api/item-groups", s.groupH.UpsertItemLinks)

	// Shopping lists
	mux.HandleFunc("POST /api/shopping-lists/query", s.listH.Query)
	mux.HandleFunc("POST /api/shopping-lists", s.listH.Upsert)
	mux.HandleFunc("POST /api/shopping-lists/{id}/items", s.listH.Items)
	mux.HandleFunc("PUT /api/shopping-lists/{id}/items", s.listH.UpsertItems)

	// Checkout
	mux.HandleFunc("POST /api/checkout/init", s.checkoutH.Init)
	mux.HandleFunc("POST /api/checkout/item", s.checkoutH.UpdateItem)
	mux.HandleFunc("GET /api/checkout/{list_id}", s.checkoutH.Sync)
	mux.HandleFunc("POST /api/checkout/commit", s.checkoutH.Commit)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
