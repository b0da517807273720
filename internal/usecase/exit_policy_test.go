package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitos/crypto_signal_trader/internal/domain"
)

var twoTargets = []domain.TargetInfo{
	{Level: 1, Price: 12},
	{Level: 2, Price: 14},
}

func TestLevelMapTrailing(t *testing.T) {
	policy := LevelMapTrailing{Triggers: map[int]int{1: 0, 2: 1}}

	// Price reached level 1: stop moves to break-even.
	candidate, ok := policy.Candidate(10, twoTargets, 12.5)
	require.True(t, ok)
	require.Equal(t, 10.0, candidate)

	// Price reached level 2: level 1 becomes the stop.
	candidate, ok = policy.Candidate(10, twoTargets, 14.5)
	require.True(t, ok)
	require.Equal(t, 12.0, candidate)

	// Below every trigger: nothing to propose.
	_, ok = policy.Candidate(10, twoTargets, 11.5)
	require.False(t, ok)
}

func TestLevelMapTrailing_UnknownLevelsIgnored(t *testing.T) {
	policy := LevelMapTrailing{Triggers: map[int]int{7: 6}}

	_, ok := policy.Candidate(10, twoTargets, 100)
	require.False(t, ok)
}

func TestPercentAboveTrailing(t *testing.T) {
	policy := PercentAboveTrailing{TriggerPct: 0.02, MinLevel: 1}

	// 12 * 1.02 = 12.24, price 12.3 clears it.
	candidate, ok := policy.Candidate(10, twoTargets, 12.3)
	require.True(t, ok)
	require.Equal(t, 12.0, candidate)

	// Just above the target but inside the margin.
	_, ok = policy.Candidate(10, twoTargets, 12.1)
	require.False(t, ok)

	// Clearing both targets picks the highest.
	candidate, ok = policy.Candidate(10, twoTargets, 14.3)
	require.True(t, ok)
	require.Equal(t, 14.0, candidate)
}

func TestPercentAboveTrailing_MinLevel(t *testing.T) {
	policy := PercentAboveTrailing{TriggerPct: 0.02, MinLevel: 2}

	candidate, ok := policy.Candidate(10, twoTargets, 14.3)
	require.True(t, ok)
	require.Equal(t, 14.0, candidate)

	// Level 1 can never become the stop.
	_, ok = policy.Candidate(10, twoTargets, 12.3)
	require.False(t, ok)
}

func TestFixedLevelTakeProfit(t *testing.T) {
	policy := FixedLevelTakeProfit{Level: 2}

	price, ok := policy.TakeProfitPrice(twoTargets, 10)
	require.True(t, ok)
	require.Equal(t, 14.0, price)

	_, ok = FixedLevelTakeProfit{Level: 4}.TakeProfitPrice(twoTargets, 10)
	require.False(t, ok)
}

func TestHighestTargetTakeProfit(t *testing.T) {
	price, ok := HighestTargetTakeProfit{}.TakeProfitPrice(twoTargets, 10)
	require.True(t, ok)
	require.Equal(t, 14.0, price)

	// No targets: fall back to a fixed markup over the buy price.
	price, ok = HighestTargetTakeProfit{}.TakeProfitPrice(nil, 10)
	require.True(t, ok)
	require.Equal(t, 15.0, price)

	_, ok = HighestTargetTakeProfit{}.TakeProfitPrice(nil, 0)
	require.False(t, ok)
}
