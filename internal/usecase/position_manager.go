package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/crypto_signal_trader/internal/domain"
)

// ManagerConfig carries the per-cycle reconciliation policies.
type ManagerConfig struct {
	TrailingEnabled  bool
	StuckExitEnabled bool
	StuckThreshold   time.Duration
	SettlementWait   time.Duration
}

// CycleReport summarizes one reconcile pass over the tracked positions.
type CycleReport struct {
	Checked          int      `json:"checked"`
	ClosedExternally int      `json:"closed_externally"`
	ForcedExits      int      `json:"forced_exits"`
	Ratcheted        int      `json:"ratcheted"`
	Skipped          int      `json:"skipped"`
	Criticals        []string `json:"criticals,omitempty"`
}

// PositionManager reconciles stored positions against live exchange state
// once per cycle: it drops externally closed positions, force-exits stuck
// ones and ratchets the trailing stop by replacing the bracket order.
// Positions are processed strictly one at a time; the cancel-then-replace
// sequence is not atomic at the exchange and must never overlap another order
// action on the same symbol.
type PositionManager struct {
	exchange   domain.Exchange
	store      domain.PositionStore
	trailing   TrailingPolicy
	takeProfit TakeProfitPolicy
	cfg        ManagerConfig
	logger     *zap.Logger
	timeNow    func() time.Time    // For testing
	sleep      func(time.Duration) // For testing
}

func NewPositionManager(exchange domain.Exchange, store domain.PositionStore, trailing TrailingPolicy, takeProfit TakeProfitPolicy, cfg ManagerConfig, logger *zap.Logger) *PositionManager {
	return &PositionManager{
		exchange:   exchange,
		store:      store,
		trailing:   trailing,
		takeProfit: takeProfit,
		cfg:        cfg,
		logger:     logger,
		timeNow:    time.Now,
		sleep:      time.Sleep,
	}
}

// Reconcile runs one pass over every stored position. Open exchange orders
// are fetched once at cycle start; later exchange-side changes are only seen
// on the next cycle. One symbol's failure never blocks the rest.
func (m *PositionManager) Reconcile(ctx context.Context) (*CycleReport, error) {
	report := &CycleReport{}

	positions, err := m.store.GetAllOpenPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tracked positions: %w", err)
	}
	if len(positions) == 0 {
		return report, nil
	}

	openOrders, err := m.exchange.GetOpenOrders(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetch open orders snapshot: %w", err)
	}
	ordersBySymbol := make(map[string][]domain.OpenOrder)
	for _, o := range openOrders {
		ordersBySymbol[o.Symbol] = append(ordersBySymbol[o.Symbol], o)
	}

	for _, pos := range positions {
		m.reconcileOne(ctx, pos, ordersBySymbol[pos.CoinPair], report)
	}
	return report, nil
}

func (m *PositionManager) reconcileOne(ctx context.Context, pos *domain.Position, orders []domain.OpenOrder, report *CycleReport) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Panic while reconciling position, continuing with next symbol",
				zap.String("coin_pair", pos.CoinPair), zap.Any("panic", r))
			report.Skipped++
		}
	}()
	report.Checked++
	symbol := pos.CoinPair

	// 1. Sync: no open orders at all means the bracket filled or was
	// cancelled externally, so the position is closed.
	if len(orders) == 0 {
		m.logger.Info("Position closed on exchange, dropping from tracking", zap.String("coin_pair", symbol))
		if _, err := m.store.DeletePosition(ctx, symbol); err != nil {
			m.logger.Error("Failed to delete closed position", zap.String("coin_pair", symbol), zap.Error(err))
			return
		}
		report.ClosedExternally++
		return
	}

	// 2. Locate the live protective leg.
	var slOrder *domain.OpenOrder
	for i := range orders {
		if orders[i].Type == domain.OrderTypeStopLossLimit {
			slOrder = &orders[i]
			break
		}
	}
	if slOrder == nil {
		m.logger.Warn("No stop-loss order found for tracked position, will resync next cycle", zap.String("coin_pair", symbol))
		report.Skipped++
		return
	}

	currentPrice, err := m.exchange.GetCurrentPrice(ctx, symbol)
	if err != nil {
		m.logger.Warn("Failed to fetch current price, skipping symbol this cycle", zap.String("coin_pair", symbol), zap.Error(err))
		report.Skipped++
		return
	}

	// 3. Stuck-position check supersedes trailing for this symbol this cycle.
	if m.cfg.StuckExitEnabled && m.cfg.StuckThreshold > 0 {
		elapsed := m.timeNow().Sub(pos.OpenedAt)
		tp1, hasTP1 := domain.TargetPrice(pos.SignalData.Targets, 1)
		if elapsed >= m.cfg.StuckThreshold && hasTP1 && currentPrice < tp1 {
			m.forceExit(ctx, pos, currentPrice, elapsed, report)
			return
		}
	}

	// 4. Trailing ratchet.
	if !m.cfg.TrailingEnabled || m.trailing == nil {
		return
	}
	candidate, ok := m.trailing.Candidate(pos.BuyPrice, pos.SignalData.Targets, currentPrice)
	if !ok || candidate <= slOrder.StopPrice {
		return
	}

	tpPrice, tpOK := m.takeProfit.TakeProfitPrice(pos.SignalData.Targets, pos.BuyPrice)
	if !tpOK {
		m.logger.Warn("No take-profit price available for bracket replacement", zap.String("coin_pair", symbol))
		report.Skipped++
		return
	}

	m.logger.Info("Trailing condition met, ratcheting stop-loss",
		zap.String("coin_pair", symbol),
		zap.Float64("current_sl", slOrder.StopPrice),
		zap.Float64("new_sl", candidate),
		zap.Float64("current_price", currentPrice))

	if err := m.exchange.CancelBracket(ctx, symbol, pos.BracketOrderID); err != nil {
		m.critical(report, fmt.Sprintf("%s: could not cancel bracket %d for trailing update, stale stop remains: %v", symbol, pos.BracketOrderID, err))
		return
	}
	m.sleep(m.cfg.SettlementWait)

	bracket, err := m.exchange.PlaceBracketSell(ctx, symbol, pos.Quantity, tpPrice, candidate)
	if err != nil {
		// The old bracket is gone and the new one failed: the position is
		// live and unprotected. It stays tracked so the next cycle retries
		// and the operator keeps seeing it.
		m.critical(report, fmt.Sprintf("%s: position UNPROTECTED, bracket cancelled but replacement failed: %v", symbol, err))
		return
	}

	pos.BracketOrderID = bracket.OrderListID
	if err := m.store.UpsertPosition(ctx, pos); err != nil {
		m.logger.Error("Failed to persist replaced bracket id", zap.String("coin_pair", symbol), zap.Error(err))
	}
	report.Ratcheted++
}

// forceExit closes a stuck position: cancel the bracket, settle, market-sell
// the recorded quantity.
func (m *PositionManager) forceExit(ctx context.Context, pos *domain.Position, currentPrice float64, elapsed time.Duration, report *CycleReport) {
	symbol := pos.CoinPair
	m.logger.Info("Position stuck below first target, forcing exit",
		zap.String("coin_pair", symbol),
		zap.Duration("age", elapsed),
		zap.Float64("current_price", currentPrice))

	if err := m.exchange.CancelBracket(ctx, symbol, pos.BracketOrderID); err != nil {
		m.critical(report, fmt.Sprintf("%s: could not cancel bracket %d for stuck exit, retrying next cycle: %v", symbol, pos.BracketOrderID, err))
		return
	}
	m.sleep(m.cfg.SettlementWait)

	if _, err := m.exchange.PlaceMarketSell(ctx, symbol, pos.Quantity); err != nil {
		m.critical(report, fmt.Sprintf("%s: position UNPROTECTED and UNSOLD, bracket cancelled but market sell failed: %v", symbol, err))
		return
	}

	if _, err := m.store.DeletePosition(ctx, symbol); err != nil {
		m.logger.Error("Stuck position sold but delete failed", zap.String("coin_pair", symbol), zap.Error(err))
		return
	}
	report.ForcedExits++
}

func (m *PositionManager) critical(report *CycleReport, msg string) {
	report.Criticals = append(report.Criticals, msg)
	m.logger.Error("CRITICAL position state", zap.String("detail", msg))
}
