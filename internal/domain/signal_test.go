package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTargetPrice(t *testing.T) {
	targets := []TargetInfo{
		{Level: 1, Price: 11},
		{Level: 4, Price: 14},
	}

	price, ok := TargetPrice(targets, 4)
	require.True(t, ok)
	require.Equal(t, 14.0, price)

	_, ok = TargetPrice(targets, 3)
	require.False(t, ok)

	_, ok = TargetPrice(nil, 1)
	require.False(t, ok)
}

func TestBuyOrderAvgFillPrice(t *testing.T) {
	o := &BuyOrder{ExecutedQty: 10.5, CumulativeQuoteQty: 99.75}
	require.InDelta(t, 9.5, o.AvgFillPrice(), 1e-9)

	require.Zero(t, (&BuyOrder{}).AvgFillPrice())
}

func TestDecisionTerminalNotSerialized(t *testing.T) {
	d := Decision{Decision: DecisionFail, CoinPair: "ABCUSDT", Reason: "bad timestamp", Terminal: true}
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "Terminal")
	require.NotContains(t, string(raw), "terminal")
}

func TestAccountSnapshotLookups(t *testing.T) {
	snap := &AccountSnapshot{
		HeldAssets: []HeldAsset{
			{Asset: "USDT", Free: 500, ValueInQuote: 500},
			{Asset: "ABC", Free: 10, Locked: 2, ValueInQuote: 120},
		},
	}

	require.Equal(t, 500.0, snap.FreeBalance("USDT"))
	require.Equal(t, 120.0, snap.AssetValue("ABC"))
	require.Zero(t, snap.FreeBalance("XYZ"))
	require.Zero(t, snap.AssetValue("XYZ"))
}
