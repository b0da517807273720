package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vitos/crypto_signal_trader/internal/domain"
	"github.com/vitos/crypto_signal_trader/internal/infrastructure/exchange"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Binance struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"binance"`
	Trade struct {
		QuoteAsset string `yaml:"quote_asset"`
	} `yaml:"trade"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Checking Binance account...\n")
	if len(cfg.Binance.APIKey) >= 4 {
		fmt.Printf("API Key: %s...\n", cfg.Binance.APIKey[:4])
	}

	adapter := exchange.NewBinanceAdapter(cfg.Binance.APIKey, cfg.Binance.APISecret, cfg.Binance.BaseURL, cfg.Trade.QuoteAsset)
	ctx := context.Background()

	snapshot, err := adapter.GetAccountSnapshot(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to get account snapshot: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Account holdings (valued in %s):\n", cfg.Trade.QuoteAsset)
	for _, asset := range snapshot.HeldAssets {
		fmt.Printf("  %-8s free=%.8f locked=%.8f value=%.2f\n",
			asset.Asset, asset.Free, asset.Locked, asset.ValueInQuote)
	}
	fmt.Printf("  Total: %.2f %s\n", snapshot.TotalValueInQuote, cfg.Trade.QuoteAsset)

	orders, err := adapter.GetOpenOrders(ctx, "")
	if err != nil {
		fmt.Printf("❌ Failed to get open orders: %v\n", err)
		os.Exit(1)
	}

	if len(orders) == 0 {
		fmt.Println("✅ No open orders.")
		return
	}
	fmt.Printf("✅ Open orders (%d):\n", len(orders))
	seen := make(map[string]bool)
	for _, o := range orders {
		label := o.Type
		switch o.Type {
		case domain.OrderTypeLimitMaker:
			label = "TAKE PROFIT"
		case domain.OrderTypeStopLossLimit:
			label = "STOP LOSS"
		}
		fmt.Printf("  %-12s %-12s qty=%.8f price=%.8f stop=%.8f list=%d\n",
			o.Symbol, label, o.OrigQty, o.Price, o.StopPrice, o.OrderListID)
		seen[o.Symbol] = true
	}

	for symbol := range seen {
		book, err := adapter.GetOrderBook(ctx, symbol, 5)
		if err != nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
			continue
		}
		fmt.Printf("  %-12s best bid=%.8f ask=%.8f\n", symbol, book.Bids[0].Price, book.Asks[0].Price)
	}
}
