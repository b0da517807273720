package usecase

import (
	"context"

	"github.com/vitos/crypto_signal_trader/internal/domain"
)

// PlacedBracket records one PlaceBracketSell call.
type PlacedBracket struct {
	Symbol     string
	Quantity   float64
	TakeProfit float64
	StopPrice  float64
}

// PlacedSell records one PlaceMarketSell call.
type PlacedSell struct {
	Symbol   string
	Quantity float64
}

// MockExchange is a hand-rolled domain.Exchange for tests. Set the response
// fields per scenario; call records accumulate for assertions.
type MockExchange struct {
	Prices          map[string]float64
	PriceErr        error
	CandlesBySymbol map[string][]domain.Candle
	KlinesErr       map[string]error
	OpenOrders      []domain.OpenOrder
	OpenOrdersErr   error
	Rules           *domain.SymbolRules
	RulesErr        error
	Buy             *domain.BuyOrder
	BuyErr          error
	Bracket         *domain.BracketOrder
	BracketErr      error
	CancelErr       error
	SellErr         error
	Snapshot        *domain.AccountSnapshot
	SnapshotErr     error

	PlacedBuys     []string
	PlacedBrackets []PlacedBracket
	CancelledLists []int64
	MarketSells    []PlacedSell
}

func (m *MockExchange) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if m.PriceErr != nil {
		return 0, m.PriceErr
	}
	return m.Prices[symbol], nil
}

func (m *MockExchange) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	if err := m.KlinesErr[symbol]; err != nil {
		return nil, err
	}
	return m.CandlesBySymbol[symbol], nil
}

func (m *MockExchange) GetOrderBook(ctx context.Context, symbol string, limit int) (*domain.OrderBook, error) {
	return &domain.OrderBook{Symbol: symbol}, nil
}

func (m *MockExchange) GetOpenOrders(ctx context.Context, symbol string) ([]domain.OpenOrder, error) {
	if m.OpenOrdersErr != nil {
		return nil, m.OpenOrdersErr
	}
	if symbol == "" {
		return m.OpenOrders, nil
	}
	var out []domain.OpenOrder
	for _, o := range m.OpenOrders {
		if o.Symbol == symbol {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockExchange) GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	if m.RulesErr != nil {
		return nil, m.RulesErr
	}
	if m.Rules != nil {
		return m.Rules, nil
	}
	return &domain.SymbolRules{Symbol: symbol}, nil
}

func (m *MockExchange) PlaceMarketBuyByQuote(ctx context.Context, symbol string, quoteAmount float64) (*domain.BuyOrder, error) {
	if m.BuyErr != nil {
		return nil, m.BuyErr
	}
	m.PlacedBuys = append(m.PlacedBuys, symbol)
	return m.Buy, nil
}

func (m *MockExchange) PlaceBracketSell(ctx context.Context, symbol string, quantity, takeProfitPrice, stopPrice float64) (*domain.BracketOrder, error) {
	if m.BracketErr != nil {
		return nil, m.BracketErr
	}
	m.PlacedBrackets = append(m.PlacedBrackets, PlacedBracket{
		Symbol:     symbol,
		Quantity:   quantity,
		TakeProfit: takeProfitPrice,
		StopPrice:  stopPrice,
	})
	if m.Bracket != nil {
		return m.Bracket, nil
	}
	return &domain.BracketOrder{OrderListID: 999}, nil
}

func (m *MockExchange) CancelBracket(ctx context.Context, symbol string, orderListID int64) error {
	if m.CancelErr != nil {
		return m.CancelErr
	}
	m.CancelledLists = append(m.CancelledLists, orderListID)
	return nil
}

func (m *MockExchange) PlaceMarketSell(ctx context.Context, symbol string, quantity float64) (*domain.SellReceipt, error) {
	if m.SellErr != nil {
		return nil, m.SellErr
	}
	m.MarketSells = append(m.MarketSells, PlacedSell{Symbol: symbol, Quantity: quantity})
	return &domain.SellReceipt{Symbol: symbol, Status: "FILLED", ExecutedQty: quantity}, nil
}

func (m *MockExchange) GetAccountSnapshot(ctx context.Context) (*domain.AccountSnapshot, error) {
	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	return m.Snapshot, nil
}

// MockStore is an in-memory domain.PositionStore for tests.
type MockStore struct {
	Positions map[string]*domain.Position
	Signals   map[string]*domain.Signal
	Processed []string
	Deleted   []string

	UpsertErr error
	ListErr   error
	DeleteErr error
}

func NewMockStore() *MockStore {
	return &MockStore{
		Positions: make(map[string]*domain.Position),
		Signals:   make(map[string]*domain.Signal),
	}
}

func (m *MockStore) UpsertPosition(ctx context.Context, pos *domain.Position) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.Positions[pos.CoinPair] = pos
	return nil
}

func (m *MockStore) GetAllOpenPositions(ctx context.Context) ([]*domain.Position, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*domain.Position
	for _, p := range m.Positions {
		out = append(out, p)
	}
	return out, nil
}

func (m *MockStore) GetPosition(ctx context.Context, coinPair string) (*domain.Position, error) {
	return m.Positions[coinPair], nil
}

func (m *MockStore) DeletePosition(ctx context.Context, coinPair string) (bool, error) {
	if m.DeleteErr != nil {
		return false, m.DeleteErr
	}
	if _, ok := m.Positions[coinPair]; !ok {
		return false, nil
	}
	delete(m.Positions, coinPair)
	m.Deleted = append(m.Deleted, coinPair)
	return true, nil
}

func (m *MockStore) UpsertSignal(ctx context.Context, sig *domain.Signal) error {
	m.Signals[sig.CoinPair] = sig
	return nil
}

func (m *MockStore) GetSignalByPair(ctx context.Context, coinPair string) (*domain.Signal, error) {
	return m.Signals[coinPair], nil
}

func (m *MockStore) ListPendingSignals(ctx context.Context) ([]*domain.Signal, error) {
	var out []*domain.Signal
	for _, s := range m.Signals {
		out = append(out, s)
	}
	return out, nil
}

func (m *MockStore) MarkSignalProcessed(ctx context.Context, coinPair string) error {
	m.Processed = append(m.Processed, coinPair)
	return nil
}
