package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vitos/crypto_signal_trader/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPositionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pos := &domain.Position{
		CoinPair:       "ABCUSDT",
		BuyPrice:       9.5,
		Quantity:       10.48,
		BracketOrderID: 777,
		SignalData: domain.Decision{
			Decision: domain.DecisionBuy,
			CoinPair: "ABCUSDT",
			Targets:  []domain.TargetInfo{{Level: 1, Price: 11}, {Level: 4, Price: 14}},
			StopLosses: []domain.StopLossInfo{
				{Level: 1, Price: 9},
			},
		},
		OpenedAt: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.UpsertPosition(ctx, pos))

	got, err := store.GetPosition(ctx, "ABCUSDT")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, pos.BuyPrice, got.BuyPrice)
	require.Equal(t, pos.BracketOrderID, got.BracketOrderID)
	require.Len(t, got.SignalData.Targets, 2)
	require.True(t, got.OpenedAt.Equal(pos.OpenedAt))

	// Upsert replaces in place.
	pos.BracketOrderID = 888
	require.NoError(t, store.UpsertPosition(ctx, pos))
	all, err := store.GetAllOpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, int64(888), all[0].BracketOrderID)

	deleted, err := store.DeletePosition(ctx, "ABCUSDT")
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = store.DeletePosition(ctx, "ABCUSDT")
	require.NoError(t, err)
	require.False(t, deleted)

	got, err = store.GetPosition(ctx, "ABCUSDT")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSignalLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sig := &domain.Signal{
		CoinPair:   "ABCUSDT",
		EntryPrice: 10,
		Timestamp:  "2026-03-15T12:00:00Z",
		Targets:    []domain.TargetInfo{{Level: 1, Price: 11}},
		StopLosses: []domain.StopLossInfo{{Level: 1, Price: 9}},
	}
	require.NoError(t, store.UpsertSignal(ctx, sig))

	pending, err := store.ListPendingSignals(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "ABCUSDT", pending[0].CoinPair)

	require.NoError(t, store.MarkSignalProcessed(ctx, "ABCUSDT"))
	pending, err = store.ListPendingSignals(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)

	// The signal itself is still retrievable by pair.
	got, err := store.GetSignalByPair(ctx, "ABCUSDT")
	require.NoError(t, err)
	require.NotNil(t, got)

	// Re-ingesting the pair resets the processed flag.
	sig.EntryPrice = 9.8
	require.NoError(t, store.UpsertSignal(ctx, sig))
	pending, err = store.ListPendingSignals(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, 9.8, pending[0].EntryPrice)
}

func TestGetSignalByPair_Missing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetSignalByPair(context.Background(), "NOPEUSDT")
	require.NoError(t, err)
	require.Nil(t, got)
}
