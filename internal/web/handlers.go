package web

import (
	"encoding/json"
	"net/http"

	"github.com/vitos/crypto_signal_trader/internal/domain"
	"go.uber.org/zap"
)

// handleIngestSignal accepts a trade signal and queues it for the next
// evaluation cycle. Re-posting a pair replaces the queued payload.
func (s *Server) handleIngestSignal(w http.ResponseWriter, r *http.Request) {
	var sig domain.Signal
	if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if sig.CoinPair == "" {
		http.Error(w, "coin_pair is required", http.StatusBadRequest)
		return
	}
	if sig.EntryPrice <= 0 {
		http.Error(w, "entry_price must be positive", http.StatusBadRequest)
		return
	}

	if err := s.store.UpsertSignal(r.Context(), &sig); err != nil {
		s.logger.Error("Failed to store signal", zap.String("coin_pair", sig.CoinPair), zap.Error(err))
		http.Error(w, "Failed to store signal", http.StatusInternalServerError)
		return
	}

	s.logger.Info("Signal ingested", zap.String("coin_pair", sig.CoinPair))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"status": "queued", "coin_pair": sig.CoinPair})
}

func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := s.store.ListPendingSignals(r.Context())
	if err != nil {
		s.logger.Error("Failed to list signals", zap.Error(err))
		http.Error(w, "Failed to list signals", http.StatusInternalServerError)
		return
	}
	if signals == nil {
		signals = []*domain.Signal{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(signals); err != nil {
		s.logger.Error("Failed to encode signals", zap.Error(err))
	}
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.store.GetAllOpenPositions(r.Context())
	if err != nil {
		s.logger.Error("Failed to list positions", zap.Error(err))
		http.Error(w, "Failed to list positions", http.StatusInternalServerError)
		return
	}
	if positions == nil {
		positions = []*domain.Position{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(positions); err != nil {
		s.logger.Error("Failed to encode positions", zap.Error(err))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	positions, err := s.store.GetAllOpenPositions(r.Context())
	if err != nil {
		s.logger.Error("Failed to load positions for status", zap.Error(err))
		http.Error(w, "Failed to load positions", http.StatusInternalServerError)
		return
	}
	orders, err := s.exchange.GetOpenOrders(r.Context(), "")
	if err != nil {
		s.logger.Error("Failed to load open orders for status", zap.Error(err))
		http.Error(w, "Failed to load open orders", http.StatusInternalServerError)
		return
	}

	status := map[string]any{
		"tracked_positions": len(positions),
		"open_orders":       len(orders),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("Failed to encode status", zap.Error(err))
	}
}
