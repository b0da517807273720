package domain

// Candle is one kline as returned by the exchange, oldest first in a series.
type Candle struct {
	Time      int64   `json:"time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"close_time"`
}

// Order types as Binance spot reports them. A bracket (OCO) shows up as two
// open orders sharing an orderListId: the LIMIT_MAKER take-profit leg and the
// STOP_LOSS_LIMIT protective leg.
const (
	OrderTypeLimitMaker    = "LIMIT_MAKER"
	OrderTypeStopLossLimit = "STOP_LOSS_LIMIT"
)

// OpenOrder is a currently active order on the exchange.
type OpenOrder struct {
	Symbol      string  `json:"symbol"`
	OrderID     int64   `json:"order_id"`
	OrderListID int64   `json:"order_list_id"`
	Type        string  `json:"type"`
	Side        string  `json:"side"`
	Price       float64 `json:"price"`
	StopPrice   float64 `json:"stop_price"`
	OrigQty     float64 `json:"orig_qty"`
	Time        int64   `json:"time"`
}

// PriceLevel is one aggregated order-book level.
type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderBook is a depth snapshot, best price first on both sides.
type OrderBook struct {
	Symbol string       `json:"symbol"`
	Bids   []PriceLevel `json:"bids"`
	Asks   []PriceLevel `json:"asks"`
}

// BuyOrder is the receipt of a market buy placed by quote amount.
type BuyOrder struct {
	Symbol             string  `json:"symbol"`
	OrderID            int64   `json:"order_id"`
	Status             string  `json:"status"`
	ExecutedQty        float64 `json:"executed_qty"`
	CumulativeQuoteQty float64 `json:"cumulative_quote_qty"`
}

// AvgFillPrice derives the average entry price from the fill totals.
func (o *BuyOrder) AvgFillPrice() float64 {
	if o.ExecutedQty <= 0 {
		return 0
	}
	return o.CumulativeQuoteQty / o.ExecutedQty
}

// BracketOrder is the receipt of a placed OCO sell (take-profit + stop-limit).
type BracketOrder struct {
	OrderListID int64 `json:"order_list_id"`
}

// SellReceipt is the receipt of a market sell.
type SellReceipt struct {
	Symbol      string  `json:"symbol"`
	OrderID     int64   `json:"order_id"`
	Status      string  `json:"status"`
	ExecutedQty float64 `json:"executed_qty"`
}

const (
	FilterTypeMinNotional = "MIN_NOTIONAL"
	FilterTypeLotSize     = "LOT_SIZE"
	FilterTypePrice       = "PRICE_FILTER"
)

// RuleFilter is one trading-rule filter of a symbol. Only the fields relevant
// to its type are populated.
type RuleFilter struct {
	Type        string  `json:"type"`
	MinNotional float64 `json:"min_notional,omitempty"`
	MinQty      float64 `json:"min_qty,omitempty"`
	StepSize    float64 `json:"step_size,omitempty"`
	TickSize    float64 `json:"tick_size,omitempty"`
}

// SymbolRules are the exchange trading rules for one symbol.
type SymbolRules struct {
	Symbol  string       `json:"symbol"`
	Filters []RuleFilter `json:"filters"`
}

// MinNotional returns the minimum order notional, if the symbol defines one.
func (r *SymbolRules) MinNotional() (float64, bool) {
	for _, f := range r.Filters {
		if f.Type == FilterTypeMinNotional && f.MinNotional > 0 {
			return f.MinNotional, true
		}
	}
	return 0, false
}
