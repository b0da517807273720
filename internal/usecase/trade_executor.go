package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/crypto_signal_trader/internal/domain"
)

type ExecStatus string

const (
	ExecSuccess ExecStatus = "SUCCESS"
	ExecSkip    ExecStatus = "SKIP"
	ExecFail    ExecStatus = "FAIL"
	// ExecCriticalFail means capital is committed but the position state is
	// unknown or unprotected.
	ExecCriticalFail ExecStatus = "CRITICAL_FAIL"
)

// ExecutionResult is the structured outcome of one entry attempt.
type ExecutionResult struct {
	Status   ExecStatus           `json:"status"`
	Reason   string               `json:"reason"`
	BuyOrder *domain.BuyOrder     `json:"buy_order,omitempty"`
	Bracket  *domain.BracketOrder `json:"bracket_order,omitempty"`
}

// ExecutorConfig carries the sizing and bracket parameters for entries.
type ExecutorConfig struct {
	QuoteAsset      string  // e.g. USDT
	QuotePerTrade   float64 // fixed trade size in quote currency
	TakeProfitLevel int     // target level used as the entry bracket's TP
	SettlementWait  time.Duration
}

// TradeExecutor turns a BUY decision into a filled entry protected by a
// bracket order. Guard rejections take no side effects; a position record is
// written by the caller only after a SUCCESS result.
type TradeExecutor struct {
	exchange   domain.Exchange
	takeProfit TakeProfitPolicy
	cfg        ExecutorConfig
	logger     *zap.Logger
	sleep      func(time.Duration) // For testing
}

func NewTradeExecutor(exchange domain.Exchange, takeProfit TakeProfitPolicy, cfg ExecutorConfig, logger *zap.Logger) *TradeExecutor {
	return &TradeExecutor{
		exchange:   exchange,
		takeProfit: takeProfit,
		cfg:        cfg,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// Execute runs the guard checks, places the market buy, confirms the actual
// filled balance and places the protective bracket.
func (e *TradeExecutor) Execute(ctx context.Context, decision domain.Decision, account *domain.AccountSnapshot) ExecutionResult {
	coinPair := decision.CoinPair
	baseAsset := strings.TrimSuffix(coinPair, e.cfg.QuoteAsset)

	// 1. Duplicate-order guard.
	openOrders, err := e.exchange.GetOpenOrders(ctx, coinPair)
	if err != nil {
		return ExecutionResult{Status: ExecFail, Reason: fmt.Sprintf("failed to check open orders for %s: %v", coinPair, err)}
	}
	if len(openOrders) > 0 {
		return ExecutionResult{Status: ExecSkip, Reason: fmt.Sprintf("%d active order(s) already exist for %s, skipping to prevent a duplicate entry", len(openOrders), coinPair)}
	}

	// 2. Balance guard.
	quoteBalance := account.FreeBalance(e.cfg.QuoteAsset)
	if quoteBalance < e.cfg.QuotePerTrade {
		return ExecutionResult{Status: ExecFail, Reason: fmt.Sprintf("insufficient %s balance: available %.2f, required %.2f", e.cfg.QuoteAsset, quoteBalance, e.cfg.QuotePerTrade)}
	}

	// 3. Exposure guard: do not stack onto an asset already held in size.
	if heldValue := account.AssetValue(baseAsset); heldValue >= e.cfg.QuotePerTrade*0.5 {
		return ExecutionResult{Status: ExecSkip, Reason: fmt.Sprintf("%s already held with significant value (%.2f %s)", baseAsset, heldValue, e.cfg.QuoteAsset)}
	}

	// 4. Trading-rules guard.
	rules, err := e.exchange.GetSymbolRules(ctx, coinPair)
	if err != nil {
		return ExecutionResult{Status: ExecFail, Reason: fmt.Sprintf("failed to fetch trading rules for %s: %v", coinPair, err)}
	}
	if minNotional, ok := rules.MinNotional(); ok && e.cfg.QuotePerTrade < minNotional {
		return ExecutionResult{Status: ExecFail, Reason: fmt.Sprintf("trade size %.2f below minimum notional %.2f for %s", e.cfg.QuotePerTrade, minNotional, coinPair)}
	}

	// 5. Entry.
	e.logger.Info("Placing market buy",
		zap.String("coin_pair", coinPair),
		zap.Float64("quote_amount", e.cfg.QuotePerTrade))
	buyOrder, err := e.exchange.PlaceMarketBuyByQuote(ctx, coinPair, e.cfg.QuotePerTrade)
	if err != nil {
		return ExecutionResult{Status: ExecFail, Reason: fmt.Sprintf("market buy failed for %s: %v", coinPair, err)}
	}
	if buyOrder.Status != "FILLED" {
		return ExecutionResult{
			Status:   ExecFail,
			Reason:   fmt.Sprintf("market buy not fully filled for %s: status %s, executed %.8g", coinPair, buyOrder.Status, buyOrder.ExecutedQty),
			BuyOrder: buyOrder,
		}
	}

	// 6. Diagnostic average fill price.
	e.logger.Info("Market buy filled",
		zap.String("coin_pair", coinPair),
		zap.Float64("executed_qty", buyOrder.ExecutedQty),
		zap.Float64("avg_price", buyOrder.AvgFillPrice()))

	// 7. Settle, then size the bracket from the actual free balance so fee
	// deductions on the base asset are absorbed.
	e.sleep(e.cfg.SettlementWait)
	fresh, err := e.exchange.GetAccountSnapshot(ctx)
	if err != nil {
		return ExecutionResult{
			Status:   ExecCriticalFail,
			Reason:   fmt.Sprintf("asset bought but account refresh failed, %s position unprotected: %v", coinPair, err),
			BuyOrder: buyOrder,
		}
	}
	actualBalance := fresh.FreeBalance(baseAsset)
	if actualBalance <= 0 {
		return ExecutionResult{
			Status:   ExecCriticalFail,
			Reason:   fmt.Sprintf("asset bought but %s balance is missing or zero after settlement", baseAsset),
			BuyOrder: buyOrder,
		}
	}

	// 8. Bracket prices from the decision's levels.
	tpPrice, tpOK := e.takeProfit.TakeProfitPrice(decision.Targets, buyOrder.AvgFillPrice())
	if !tpOK || len(decision.StopLosses) == 0 || decision.StopLosses[0].Price <= 0 {
		return ExecutionResult{
			Status:   ExecCriticalFail,
			Reason:   fmt.Sprintf("asset bought but take-profit or SL1 level missing in signal for %s", coinPair),
			BuyOrder: buyOrder,
		}
	}
	slPrice := decision.StopLosses[0].Price

	// 9. Protective bracket sized by the settled balance.
	e.logger.Info("Placing bracket sell",
		zap.String("coin_pair", coinPair),
		zap.Float64("quantity", actualBalance),
		zap.Float64("take_profit", tpPrice),
		zap.Float64("stop_loss", slPrice))
	bracket, err := e.exchange.PlaceBracketSell(ctx, coinPair, actualBalance, tpPrice, slPrice)
	if err != nil {
		return ExecutionResult{
			Status:   ExecCriticalFail,
			Reason:   fmt.Sprintf("asset bought but bracket placement failed, %s position unprotected: %v", coinPair, err),
			BuyOrder: buyOrder,
		}
	}

	return ExecutionResult{
		Status:   ExecSuccess,
		Reason:   "entry filled and protective bracket placed",
		BuyOrder: buyOrder,
		Bracket:  bracket,
	}
}
