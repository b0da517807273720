package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vitos/crypto_signal_trader/internal/domain"
	"go.uber.org/zap"
)

type Server struct {
	router   *http.ServeMux
	server   *http.Server
	store    domain.PositionStore
	exchange domain.Exchange
	logger   *zap.Logger
}

func NewServer(
	port int,
	store domain.PositionStore,
	exchange domain.Exchange,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:   http.NewServeMux(),
		store:    store,
		exchange: exchange,
		logger:   logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Signals
	s.router.HandleFunc("POST /api/signals", s.handleIngestSignal)
	s.router.HandleFunc("GET /api/signals", s.handleListSignals)

	// Positions
	s.router.HandleFunc("GET /api/positions", s.handleListPositions)

	// Status
	s.router.HandleFunc("GET /status", s.handleStatus)
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
