package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitos/crypto_signal_trader/internal/domain"
)

func candlesFromCloses(closes ...float64) []domain.Candle {
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		out[i] = domain.Candle{Close: c}
	}
	return out
}

// risingCloses produces n closes increasing from start, which keeps the last
// close above any simple average of the series.
func risingCloses(n int, start float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

func fallingCloses(n int, start float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start - float64(i)
	}
	return out
}

func TestAnalyze_InsufficientHistory(t *testing.T) {
	ex := &MockExchange{CandlesBySymbol: map[string][]domain.Candle{
		"BTCUSDT": candlesFromCloses(risingCloses(10, 100)...),
	}}
	analyzer := NewMarketAnalyzer(ex)

	_, err := analyzer.Analyze(context.Background(), "BTCUSDT", "4h", 50)
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient candle history")
}

func TestAnalyze_ShortHistoryDegradesWithWarning(t *testing.T) {
	ex := &MockExchange{CandlesBySymbol: map[string][]domain.Candle{
		"BTCUSDT": candlesFromCloses(risingCloses(20, 100)...),
	}}
	analyzer := NewMarketAnalyzer(ex)

	cond, err := analyzer.Analyze(context.Background(), "BTCUSDT", "4h", 50)
	require.NoError(t, err)
	require.NotEmpty(t, cond.Warning)
	require.True(t, cond.IsAboveSMA)
}

func TestAnalyze_AboveSMA(t *testing.T) {
	ex := &MockExchange{CandlesBySymbol: map[string][]domain.Candle{
		"BTCUSDT": candlesFromCloses(risingCloses(15, 100)...),
	}}
	analyzer := NewMarketAnalyzer(ex)

	cond, err := analyzer.Analyze(context.Background(), "BTCUSDT", "4h", 14)
	require.NoError(t, err)
	require.True(t, cond.IsAboveSMA)
	require.Equal(t, 114.0, cond.LastClose)
	require.Empty(t, cond.Warning)
}

func TestAnalyze_BelowSMA(t *testing.T) {
	ex := &MockExchange{CandlesBySymbol: map[string][]domain.Candle{
		"BTCUSDT": candlesFromCloses(fallingCloses(15, 100)...),
	}}
	analyzer := NewMarketAnalyzer(ex)

	cond, err := analyzer.Analyze(context.Background(), "BTCUSDT", "4h", 14)
	require.NoError(t, err)
	require.False(t, cond.IsAboveSMA)
}

func TestAnalyze_InvalidPeriod(t *testing.T) {
	analyzer := NewMarketAnalyzer(&MockExchange{})

	_, err := analyzer.Analyze(context.Background(), "BTCUSDT", "4h", 0)
	require.Error(t, err)
}
