package exchange

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"github.com/vitos/crypto_signal_trader/internal/domain"
)

// stopLimitGap nudges the stop-limit leg below the stop trigger so the limit
// order still fills after the trigger fires.
const stopLimitGap = 0.999

// BinanceAdapter implements domain.Exchange on Binance spot via the
// go-binance SDK. Quantities and prices are truncated to the symbol's
// LOT_SIZE / PRICE_FILTER steps before submission.
type BinanceAdapter struct {
	client     *binance.Client
	quoteAsset string

	mu    sync.Mutex
	steps map[string]symbolSteps
}

type symbolSteps struct {
	qtyStep   decimal.Decimal
	priceTick decimal.Decimal
}

func NewBinanceAdapter(apiKey, apiSecret, baseURL, quoteAsset string) *BinanceAdapter {
	client := binance.NewClient(apiKey, apiSecret)
	if baseURL != "" {
		client.BaseURL = strings.TrimSpace(baseURL)
	}
	return &BinanceAdapter{
		client:     client,
		quoteAsset: quoteAsset,
		steps:      make(map[string]symbolSteps),
	}
}

func (b *BinanceAdapter) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("ticker price for %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("symbol %s not found", symbol)
	}
	return strconv.ParseFloat(prices[0].Price, 64)
}

func (b *BinanceAdapter) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	kls, err := b.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("klines for %s %s: %w", symbol, interval, err)
	}
	out := make([]domain.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, domain.Candle{
			Time:      kl.OpenTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
			CloseTime: kl.CloseTime,
		})
	}
	return out, nil
}

func (b *BinanceAdapter) GetOrderBook(ctx context.Context, symbol string, limit int) (*domain.OrderBook, error) {
	res, err := b.client.NewDepthService().Symbol(symbol).Limit(limit).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("depth for %s: %w", symbol, err)
	}
	book := &domain.OrderBook{Symbol: symbol}
	for _, bid := range res.Bids {
		book.Bids = append(book.Bids, domain.PriceLevel{Price: parseFloat(bid.Price), Quantity: parseFloat(bid.Quantity)})
	}
	for _, ask := range res.Asks {
		book.Asks = append(book.Asks, domain.PriceLevel{Price: parseFloat(ask.Price), Quantity: parseFloat(ask.Quantity)})
	}
	return book, nil
}

func (b *BinanceAdapter) GetOpenOrders(ctx context.Context, symbol string) ([]domain.OpenOrder, error) {
	svc := b.client.NewListOpenOrdersService()
	if symbol != "" {
		svc = svc.Symbol(symbol)
	}
	orders, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("open orders: %w", err)
	}
	out := make([]domain.OpenOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, domain.OpenOrder{
			Symbol:      o.Symbol,
			OrderID:     o.OrderID,
			OrderListID: o.OrderListId,
			Type:        string(o.Type),
			Side:        string(o.Side),
			Price:       parseFloat(o.Price),
			StopPrice:   parseFloat(o.StopPrice),
			OrigQty:     parseFloat(o.OrigQuantity),
			Time:        o.Time,
		})
	}
	return out, nil
}

func (b *BinanceAdapter) GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	info, err := b.client.NewExchangeInfoService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange info for %s: %w", symbol, err)
	}
	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		rules := &domain.SymbolRules{Symbol: symbol}
		if f := s.LotSizeFilter(); f != nil {
			rules.Filters = append(rules.Filters, domain.RuleFilter{
				Type:     domain.FilterTypeLotSize,
				MinQty:   parseFloat(f.MinQuantity),
				StepSize: parseFloat(f.StepSize),
			})
		}
		if f := s.PriceFilter(); f != nil {
			rules.Filters = append(rules.Filters, domain.RuleFilter{
				Type:     domain.FilterTypePrice,
				TickSize: parseFloat(f.TickSize),
			})
		}
		if f := s.NotionalFilter(); f != nil {
			rules.Filters = append(rules.Filters, domain.RuleFilter{
				Type:        domain.FilterTypeMinNotional,
				MinNotional: parseFloat(f.MinNotional),
			})
		} else {
			// Newer symbols carry a NOTIONAL filter instead.
			for _, raw := range s.Filters {
				if raw["filterType"] == "NOTIONAL" {
					if v, ok := raw["minNotional"].(string); ok {
						rules.Filters = append(rules.Filters, domain.RuleFilter{
							Type:        domain.FilterTypeMinNotional,
							MinNotional: parseFloat(v),
						})
					}
				}
			}
		}
		b.cacheSteps(symbol, rules)
		return rules, nil
	}
	return nil, fmt.Errorf("symbol %s not found in exchange info", symbol)
}

func (b *BinanceAdapter) PlaceMarketBuyByQuote(ctx context.Context, symbol string, quoteAmount float64) (*domain.BuyOrder, error) {
	res, err := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(binance.SideTypeBuy).
		Type(binance.OrderTypeMarket).
		QuoteOrderQty(decimal.NewFromFloat(quoteAmount).String()).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("market buy %s: %w", symbol, err)
	}
	return &domain.BuyOrder{
		Symbol:             res.Symbol,
		OrderID:            res.OrderID,
		Status:             string(res.Status),
		ExecutedQty:        parseFloat(res.ExecutedQuantity),
		CumulativeQuoteQty: parseFloat(res.CummulativeQuoteQuantity),
	}, nil
}

func (b *BinanceAdapter) PlaceBracketSell(ctx context.Context, symbol string, quantity, takeProfitPrice, stopPrice float64) (*domain.BracketOrder, error) {
	qty, err := b.formatQuantity(ctx, symbol, quantity)
	if err != nil {
		return nil, err
	}
	tp, err := b.formatPrice(ctx, symbol, takeProfitPrice)
	if err != nil {
		return nil, err
	}
	stop, err := b.formatPrice(ctx, symbol, stopPrice)
	if err != nil {
		return nil, err
	}
	stopLimit, err := b.formatPrice(ctx, symbol, stopPrice*stopLimitGap)
	if err != nil {
		return nil, err
	}

	res, err := b.client.NewCreateOCOService().
		Symbol(symbol).
		Side(binance.SideTypeSell).
		Quantity(qty).
		Price(tp).
		StopPrice(stop).
		StopLimitPrice(stopLimit).
		StopLimitTimeInForce(binance.TimeInForceTypeGTC).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("oco sell %s: %w", symbol, err)
	}
	return &domain.BracketOrder{OrderListID: res.OrderListID}, nil
}

func (b *BinanceAdapter) CancelBracket(ctx context.Context, symbol string, orderListID int64) error {
	_, err := b.client.NewCancelOCOService().
		Symbol(symbol).
		OrderListID(orderListID).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("cancel oco %d on %s: %w", orderListID, symbol, err)
	}
	return nil
}

func (b *BinanceAdapter) PlaceMarketSell(ctx context.Context, symbol string, quantity float64) (*domain.SellReceipt, error) {
	qty, err := b.formatQuantity(ctx, symbol, quantity)
	if err != nil {
		return nil, err
	}
	res, err := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(binance.SideTypeSell).
		Type(binance.OrderTypeMarket).
		Quantity(qty).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("market sell %s: %w", symbol, err)
	}
	return &domain.SellReceipt{
		Symbol:      res.Symbol,
		OrderID:     res.OrderID,
		Status:      string(res.Status),
		ExecutedQty: parseFloat(res.ExecutedQuantity),
	}, nil
}

func (b *BinanceAdapter) GetAccountSnapshot(ctx context.Context) (*domain.AccountSnapshot, error) {
	account, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("account info: %w", err)
	}
	prices, err := b.client.NewListPricesService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("price list for valuation: %w", err)
	}
	priceBySymbol := make(map[string]float64, len(prices))
	for _, p := range prices {
		priceBySymbol[p.Symbol] = parseFloat(p.Price)
	}

	snapshot := &domain.AccountSnapshot{}
	for _, bal := range account.Balances {
		free := parseFloat(bal.Free)
		locked := parseFloat(bal.Locked)
		if free+locked == 0 {
			continue
		}
		value := 0.0
		if bal.Asset == b.quoteAsset {
			value = free + locked
		} else if px, ok := priceBySymbol[bal.Asset+b.quoteAsset]; ok {
			value = (free + locked) * px
		}
		snapshot.HeldAssets = append(snapshot.HeldAssets, domain.HeldAsset{
			Asset:        bal.Asset,
			Free:         free,
			Locked:       locked,
			ValueInQuote: value,
		})
		snapshot.TotalValueInQuote += value
	}
	return snapshot, nil
}

func (b *BinanceAdapter) cacheSteps(symbol string, rules *domain.SymbolRules) {
	steps := symbolSteps{}
	for _, f := range rules.Filters {
		switch f.Type {
		case domain.FilterTypeLotSize:
			steps.qtyStep = decimal.NewFromFloat(f.StepSize)
		case domain.FilterTypePrice:
			steps.priceTick = decimal.NewFromFloat(f.TickSize)
		}
	}
	b.mu.Lock()
	b.steps[symbol] = steps
	b.mu.Unlock()
}

func (b *BinanceAdapter) stepsFor(ctx context.Context, symbol string) (symbolSteps, error) {
	b.mu.Lock()
	steps, ok := b.steps[symbol]
	b.mu.Unlock()
	if ok {
		return steps, nil
	}
	if _, err := b.GetSymbolRules(ctx, symbol); err != nil {
		return symbolSteps{}, err
	}
	b.mu.Lock()
	steps = b.steps[symbol]
	b.mu.Unlock()
	return steps, nil
}

// formatQuantity truncates down to the symbol's lot step; selling a fraction
// of a step too much gets the whole order rejected.
func (b *BinanceAdapter) formatQuantity(ctx context.Context, symbol string, quantity float64) (string, error) {
	steps, err := b.stepsFor(ctx, symbol)
	if err != nil {
		return "", err
	}
	return truncateToStep(quantity, steps.qtyStep), nil
}

func (b *BinanceAdapter) formatPrice(ctx context.Context, symbol string, price float64) (string, error) {
	steps, err := b.stepsFor(ctx, symbol)
	if err != nil {
		return "", err
	}
	return truncateToStep(price, steps.priceTick), nil
}

func truncateToStep(value float64, step decimal.Decimal) string {
	d := decimal.NewFromFloat(value)
	if step.IsPositive() {
		d = d.Div(step).Floor().Mul(step)
	}
	return d.String()
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}

var _ domain.Exchange = (*BinanceAdapter)(nil)
