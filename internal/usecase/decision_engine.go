package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/crypto_signal_trader/internal/domain"
)

// EngineConfig carries the gate parameters for signal evaluation.
type EngineConfig struct {
	// Reference asset for the macro gate, e.g. BTCUSDT on 4h.
	ReferenceSymbol   string
	ReferenceInterval string
	SMAPeriod         int

	// Freshness gate: signals older than SignalValidity are rejected.
	FreshnessEnabled bool
	SignalValidity   time.Duration
}

// DecisionEngine gates a signal through expiry, macro health, optional micro
// health and price safety, short-circuiting on the first failure.
type DecisionEngine struct {
	exchange domain.Exchange
	analyzer *MarketAnalyzer
	cfg      EngineConfig
	logger   *zap.Logger
	timeNow  func() time.Time // For testing
}

func NewDecisionEngine(exchange domain.Exchange, analyzer *MarketAnalyzer, cfg EngineConfig, logger *zap.Logger) *DecisionEngine {
	return &DecisionEngine{
		exchange: exchange,
		analyzer: analyzer,
		cfg:      cfg,
		logger:   logger,
		timeNow:  time.Now,
	}
}

// Evaluate runs the gate sequence for one signal and returns the resulting
// decision. It never mutates the signal and performs no order actions.
func (e *DecisionEngine) Evaluate(ctx context.Context, signal *domain.Signal) domain.Decision {
	// 1. Structural validation.
	if signal.CoinPair == "" || signal.EntryPrice <= 0 {
		return domain.Decision{
			Decision: domain.DecisionFail,
			CoinPair: signal.CoinPair,
			Reason:   "invalid signal: coin_pair or entry_price missing",
			Terminal: true,
		}
	}

	// 2. Freshness gate.
	if e.cfg.FreshnessEnabled {
		ts, err := time.Parse(time.RFC3339, signal.Timestamp)
		if err != nil {
			return e.fail(signal, fmt.Sprintf("invalid signal timestamp %q: %v", signal.Timestamp, err), true)
		}
		age := e.timeNow().Sub(ts)
		if age > e.cfg.SignalValidity {
			return e.fail(signal, fmt.Sprintf("signal expired: age %s exceeds validity window %s", age.Round(time.Second), e.cfg.SignalValidity), true)
		}
	}

	// 3. Macro gate on the reference asset.
	macro, err := e.analyzer.Analyze(ctx, e.cfg.ReferenceSymbol, e.cfg.ReferenceInterval, e.cfg.SMAPeriod)
	if err != nil {
		return e.fail(signal, fmt.Sprintf("reference market check failed: %v", err), false)
	}
	if macro.Warning != "" {
		e.logger.Warn("Macro analysis degraded", zap.String("symbol", e.cfg.ReferenceSymbol), zap.String("warning", macro.Warning))
	}

	// 4. Micro gate: a neutral macro market still admits coins showing their
	// own strength.
	if !macro.IsAboveSMA {
		micro, err := e.analyzer.Analyze(ctx, signal.CoinPair, e.cfg.ReferenceInterval, e.cfg.SMAPeriod)
		if err != nil {
			return e.fail(signal, fmt.Sprintf("local trend check failed for %s: %v", signal.CoinPair, err), false)
		}
		if !micro.IsAboveSMA {
			return e.fail(signal, fmt.Sprintf("macro neutral and local trend weak: %s below its %d-period SMA", signal.CoinPair, e.cfg.SMAPeriod), false)
		}
		e.logger.Info("Macro neutral but local trend strong, proceeding",
			zap.String("coin_pair", signal.CoinPair))
	}

	// 5. Price and safety validation.
	currentPrice, err := e.exchange.GetCurrentPrice(ctx, signal.CoinPair)
	if err != nil {
		return e.fail(signal, fmt.Sprintf("failed to fetch current price for %s: %v", signal.CoinPair, err), false)
	}

	if len(signal.StopLosses) == 0 || signal.StopLosses[0].Price <= 0 {
		return e.fail(signal, "no valid SL1 to validate against", true)
	}
	sl1 := signal.StopLosses[0].Price
	if currentPrice < sl1 {
		d := e.fail(signal, fmt.Sprintf("current price %.8g already below SL1 %.8g, unsafe to enter", currentPrice, sl1), false)
		d.CurrentPrice = currentPrice
		return d
	}

	if currentPrice <= signal.EntryPrice {
		return domain.Decision{
			Decision:     domain.DecisionBuy,
			CoinPair:     signal.CoinPair,
			Reason:       fmt.Sprintf("current price %.8g at or below entry %.8g", currentPrice, signal.EntryPrice),
			CurrentPrice: currentPrice,
			EntryPrice:   signal.EntryPrice,
			RiskLevel:    signal.RiskLevel,
			Targets:      signal.Targets,
			StopLosses:   signal.StopLosses,
		}
	}

	return domain.Decision{
		Decision:     domain.DecisionSkip,
		CoinPair:     signal.CoinPair,
		Reason:       fmt.Sprintf("price above entry: current %.8g > entry %.8g", currentPrice, signal.EntryPrice),
		CurrentPrice: currentPrice,
		EntryPrice:   signal.EntryPrice,
	}
}

func (e *DecisionEngine) fail(signal *domain.Signal, reason string, terminal bool) domain.Decision {
	return domain.Decision{
		Decision:   domain.DecisionFail,
		CoinPair:   signal.CoinPair,
		Reason:     reason,
		EntryPrice: signal.EntryPrice,
		Terminal:   terminal,
	}
}
