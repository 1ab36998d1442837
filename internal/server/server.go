package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/server/handler"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/server/middleware"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health  *handler.HealthHandler
	Book    *handler.BookHandler
	Chart   *handler.ChartHandler
	Account *handler.AccountHandler
}

// Server is the HTTP + WebSocket API surface of the aggregator.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS) and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Consolidated book endpoints.
	mux.HandleFunc("GET /api/orderbook", handlers.Book.GetOrderBook)
	mux.HandleFunc("GET /api/nbbo", handlers.Book.GetNbbo)

	// Candle endpoint.
	mux.HandleFunc("GET /api/chart/{symbol}", handlers.Chart.GetChart)

	// Account proxy endpoints.
	if handlers.Account != nil {
		mux.HandleFunc("GET /api/account/balance", handlers.Account.GetBalance)
		mux.HandleFunc("GET /api/account/positions", handlers.Account.GetPositions)
		mux.HandleFunc("GET /api/account/orders", handlers.Account.GetOrders)
	}

	// WebSocket endpoints.
	if wsHub != nil {
		mux.HandleFunc("GET /ws/prices", wsHub.HandlePrices)
		mux.HandleFunc("GET /ws/trades", wsHub.HandleTrades)
	}

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
