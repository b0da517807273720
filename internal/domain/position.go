package domain

import "time"

// Position is an open spot position tracked by the bot, keyed by coin pair.
// At most one position exists per symbol. It is created by the trade executor
// flow and mutated only by the position manager (bracket replacement); the
// live stop-loss level lives in the exchange's bracket order, not here.
type Position struct {
	CoinPair       string    `json:"coin_pair"`
	BuyPrice       float64   `json:"buy_price"`
	Quantity       float64   `json:"quantity"`
	BracketOrderID int64     `json:"bracket_order_id"`
	SignalData     Decision  `json:"signal_data"`
	OpenedAt       time.Time `json:"opened_at"`
}

// HeldAsset is one balance line of the account snapshot.
type HeldAsset struct {
	Asset        string  `json:"asset"`
	Free         float64 `json:"free_balance"`
	Locked       float64 `json:"locked_balance"`
	ValueInQuote float64 `json:"value_in_quote"`
}

// AccountSnapshot is a read-only view of the account, refreshed before each
// guard check and again after a successful entry.
type AccountSnapshot struct {
	HeldAssets        []HeldAsset `json:"held_assets"`
	TotalValueInQuote float64     `json:"total_balance_in_quote"`
}

// FreeBalance returns the free balance of the given asset, zero if unheld.
func (s *AccountSnapshot) FreeBalance(asset string) float64 {
	for _, a := range s.HeldAssets {
		if a.Asset == asset {
			return a.Free
		}
	}
	return 0
}

// AssetValue returns the quote-currency value of the given asset, zero if unheld.
func (s *AccountSnapshot) AssetValue(asset string) float64 {
	for _, a := range s.HeldAssets {
		if a.Asset == asset {
			return a.ValueInQuote
		}
	}
	return 0
}
