package usecase

import (
	"context"
	"fmt"

	"github.com/vitos/crypto_signal_trader/internal/domain"
)

// minCandleFloor is the hard minimum of history below which no average is
// computed at all.
const minCandleFloor = 14

// MarketCondition is the trend-health verdict for one asset.
type MarketCondition struct {
	IsAboveSMA bool    `json:"is_above_sma"`
	SMA        float64 `json:"sma"`
	LastClose  float64 `json:"last_close"`
	Warning    string  `json:"warning,omitempty"`
}

// MarketAnalyzer computes simple trend health from a candle series. It holds
// no state of its own, so identical inputs always produce identical output.
type MarketAnalyzer struct {
	exchange domain.Exchange
}

func NewMarketAnalyzer(exchange domain.Exchange) *MarketAnalyzer {
	return &MarketAnalyzer{exchange: exchange}
}

// Analyze fetches smaPeriod+1 recent candles and compares the last close
// against the simple moving average of the last effective-period closes.
// Receiving fewer candles than requested degrades to a shorter average with a
// warning; fewer than the floor is an error.
func (a *MarketAnalyzer) Analyze(ctx context.Context, symbol, interval string, smaPeriod int) (*MarketCondition, error) {
	if smaPeriod <= 0 {
		return nil, fmt.Errorf("sma period must be positive, got %d", smaPeriod)
	}

	requested := smaPeriod + 1
	candles, err := a.exchange.GetKlines(ctx, symbol, interval, requested)
	if err != nil {
		return nil, fmt.Errorf("fetch klines for %s %s: %w", symbol, interval, err)
	}
	if len(candles) < minCandleFloor {
		return nil, fmt.Errorf("insufficient candle history for %s: got %d, need at least %d", symbol, len(candles), minCandleFloor)
	}

	effective := smaPeriod
	warning := ""
	if len(candles) < requested {
		if len(candles) < effective {
			effective = len(candles)
		}
		warning = fmt.Sprintf("requested %d candles for %s but received %d, using %d-period average", requested, symbol, len(candles), effective)
	}

	var sum float64
	for _, c := range candles[len(candles)-effective:] {
		sum += c.Close
	}
	sma := sum / float64(effective)
	lastClose := candles[len(candles)-1].Close

	return &MarketCondition{
		IsAboveSMA: lastClose >= sma,
		SMA:        sma,
		LastClose:  lastClose,
		Warning:    warning,
	}, nil
}
