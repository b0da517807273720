package domain

import "context"

// Exchange defines the gateway to the spot exchange.
type Exchange interface {
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
	GetOrderBook(ctx context.Context, symbol string, limit int) (*OrderBook, error)
	// GetOpenOrders lists active orders; an empty symbol means all symbols.
	GetOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error)
	GetSymbolRules(ctx context.Context, symbol string) (*SymbolRules, error)
	PlaceMarketBuyByQuote(ctx context.Context, symbol string, quoteAmount float64) (*BuyOrder, error)
	PlaceBracketSell(ctx context.Context, symbol string, quantity, takeProfitPrice, stopPrice float64) (*BracketOrder, error)
	CancelBracket(ctx context.Context, symbol string, orderListID int64) error
	PlaceMarketSell(ctx context.Context, symbol string, quantity float64) (*SellReceipt, error)
	GetAccountSnapshot(ctx context.Context) (*AccountSnapshot, error)
}

// PositionStore defines durable storage for tracked positions and ingested
// signals, both keyed by coin pair.
type PositionStore interface {
	UpsertPosition(ctx context.Context, pos *Position) error
	GetAllOpenPositions(ctx context.Context) ([]*Position, error)
	GetPosition(ctx context.Context, coinPair string) (*Position, error)
	DeletePosition(ctx context.Context, coinPair string) (bool, error)

	UpsertSignal(ctx context.Context, sig *Signal) error
	GetSignalByPair(ctx context.Context, coinPair string) (*Signal, error)
	ListPendingSignals(ctx context.Context) ([]*Signal, error)
	MarkSignalProcessed(ctx context.Context, coinPair string) error
}
