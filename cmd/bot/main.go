package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/vitos/crypto_signal_trader/internal/domain"
	"github.com/vitos/crypto_signal_trader/internal/infrastructure/exchange"
	"github.com/vitos/crypto_signal_trader/internal/infrastructure/logger"
	"github.com/vitos/crypto_signal_trader/internal/infrastructure/storage"
	"github.com/vitos/crypto_signal_trader/internal/usecase"
	"github.com/vitos/crypto_signal_trader/internal/web"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Binance struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"binance"`
	Trade struct {
		QuoteAsset      string  `yaml:"quote_asset"`
		AmountPerTrade  float64 `yaml:"amount_per_trade"`
		TakeProfitLevel int     `yaml:"take_profit_level"`
	} `yaml:"trade"`
	Macro struct {
		ReferenceSymbol string `yaml:"reference_symbol"`
		Interval        string `yaml:"interval"`
		SMAPeriod       int    `yaml:"sma_period"`
	} `yaml:"macro"`
	Trailing struct {
		Enabled  bool        `yaml:"enabled"`
		Strategy string      `yaml:"strategy"`
		Triggers map[int]int `yaml:"triggers"`
		Percent  struct {
			TriggerPct float64 `yaml:"trigger_pct"`
			MinLevel   int     `yaml:"min_level"`
		} `yaml:"percent"`
	} `yaml:"trailing"`
	Stuck struct {
		Enabled       bool `yaml:"enabled"`
		DurationHours int  `yaml:"duration_hours"`
	} `yaml:"stuck"`
	Freshness struct {
		Enabled         bool `yaml:"enabled"`
		ValidityMinutes int  `yaml:"validity_minutes"`
	} `yaml:"freshness"`
	Risk struct {
		PrioritizeNormal bool `yaml:"prioritize_normal"`
	} `yaml:"risk"`
	Polling struct {
		CycleSeconds      int `yaml:"cycle_seconds"`
		SettlementSeconds int `yaml:"settlement_seconds"`
	} `yaml:"polling"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
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

func trailingPolicy(cfg *Config) usecase.TrailingPolicy {
	if cfg.Trailing.Strategy == "percent_above" {
		return &usecase.PercentAboveTrailing{
			TriggerPct: cfg.Trailing.Percent.TriggerPct,
			MinLevel:   cfg.Trailing.Percent.MinLevel,
		}
	}
	triggers := cfg.Trailing.Triggers
	if len(triggers) == 0 {
		// Reaching a target ratchets the stop to the level below it,
		// with level 0 meaning break-even at the buy price.
		triggers = map[int]int{1: 0, 2: 1, 3: 2, 4: 3}
	}
	return &usecase.LevelMapTrailing{Triggers: triggers}
}

func main() {
	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var log *zap.Logger
	if cfg.Logging.File != "" {
		log, err = logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	} else {
		log, err = logger.NewLogger(cfg.Logging.Level)
	}
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath = "bot.db"
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	adapter := exchange.NewBinanceAdapter(cfg.Binance.APIKey, cfg.Binance.APISecret, cfg.Binance.BaseURL, cfg.Trade.QuoteAsset)

	settlementWait := time.Duration(cfg.Polling.SettlementSeconds) * time.Second
	if settlementWait == 0 {
		settlementWait = 2 * time.Second
	}

	analyzer := usecase.NewMarketAnalyzer(adapter)
	engine := usecase.NewDecisionEngine(adapter, analyzer, usecase.EngineConfig{
		ReferenceSymbol:   cfg.Macro.ReferenceSymbol,
		ReferenceInterval: cfg.Macro.Interval,
		SMAPeriod:         cfg.Macro.SMAPeriod,
		FreshnessEnabled:  cfg.Freshness.Enabled,
		SignalValidity:    time.Duration(cfg.Freshness.ValidityMinutes) * time.Minute,
	}, log)
	executor := usecase.NewTradeExecutor(adapter, &usecase.FixedLevelTakeProfit{Level: cfg.Trade.TakeProfitLevel}, usecase.ExecutorConfig{
		QuoteAsset:      cfg.Trade.QuoteAsset,
		QuotePerTrade:   cfg.Trade.AmountPerTrade,
		TakeProfitLevel: cfg.Trade.TakeProfitLevel,
		SettlementWait:  settlementWait,
	}, log)
	manager := usecase.NewPositionManager(adapter, store, trailingPolicy(cfg), &usecase.HighestTargetTakeProfit{}, usecase.ManagerConfig{
		TrailingEnabled:  cfg.Trailing.Enabled,
		StuckExitEnabled: cfg.Stuck.Enabled,
		StuckThreshold:   time.Duration(cfg.Stuck.DurationHours) * time.Hour,
		SettlementWait:   settlementWait,
	}, log)

	bot := &Bot{
		store:            store,
		exchange:         adapter,
		engine:           engine,
		executor:         executor,
		manager:          manager,
		prioritizeNormal: cfg.Risk.PrioritizeNormal,
		logger:           log,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	done := watchShutdown(stop)

	cycleSeconds := cfg.Polling.CycleSeconds
	if cycleSeconds == 0 {
		cycleSeconds = 60
	}
	go func() {
		ticker := time.NewTicker(time.Duration(cycleSeconds) * time.Second)
		defer ticker.Stop()

		for {
			bot.RunCycle(context.Background())

			select {
			case <-ticker.C:
				continue
			case <-done:
				return
			}
		}
	}()

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	server := web.NewServer(port, store, adapter, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-done

	log.Info("Shutting down...")
	server.Shutdown(context.Background())
}

// watchShutdown turns the first received signal into a closed channel, so
// every goroutine waiting on shutdown observes the same event.
func watchShutdown(sig <-chan os.Signal) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		<-sig
		close(done)
	}()
	return done
}

// Bot drives one evaluation and reconciliation pass per polling cycle.
type Bot struct {
	store            domain.PositionStore
	exchange         domain.Exchange
	engine           *usecase.DecisionEngine
	executor         *usecase.TradeExecutor
	manager          *usecase.PositionManager
	prioritizeNormal bool
	logger           *zap.Logger
}

func (b *Bot) RunCycle(ctx context.Context) {
	signals, err := b.store.ListPendingSignals(ctx)
	if err != nil {
		b.logger.Error("Failed to list pending signals", zap.Error(err))
	} else if len(signals) > 0 {
		b.processSignals(ctx, signals)
	}

	report, err := b.manager.Reconcile(ctx)
	if err != nil {
		b.logger.Error("Position reconcile failed", zap.Error(err))
		return
	}
	if report.Checked > 0 {
		b.logger.Info("Reconcile pass complete",
			zap.Int("checked", report.Checked),
			zap.Int("closed_externally", report.ClosedExternally),
			zap.Int("forced_exits", report.ForcedExits),
			zap.Int("ratcheted", report.Ratcheted),
			zap.Int("skipped", report.Skipped))
	}
	for _, msg := range report.Criticals {
		b.logger.Error("Manual intervention may be required", zap.String("detail", msg))
	}
}

func (b *Bot) processSignals(ctx context.Context, signals []*domain.Signal) {
	if b.prioritizeNormal {
		// Stable sort keeps arrival order within each risk class.
		sort.SliceStable(signals, func(i, j int) bool {
			return riskRank(signals[i].RiskLevel) < riskRank(signals[j].RiskLevel)
		})
	}

	for _, sig := range signals {
		decision := b.engine.Evaluate(ctx, sig)
		b.logger.Info("Signal evaluated",
			zap.String("coin_pair", sig.CoinPair),
			zap.String("decision", string(decision.Decision)),
			zap.String("reason", decision.Reason))

		switch decision.Decision {
		case domain.DecisionBuy:
			b.executeBuy(ctx, sig, decision)
		case domain.DecisionFail:
			// Validation failures are final; market-data failures retry
			// next cycle.
			if decision.Terminal {
				b.markProcessed(ctx, sig.CoinPair)
			}
		case domain.DecisionSkip:
			// Price above entry, keep waiting.
		}
	}
}

func (b *Bot) executeBuy(ctx context.Context, sig *domain.Signal, decision domain.Decision) {
	account, err := b.exchange.GetAccountSnapshot(ctx)
	if err != nil {
		b.logger.Error("Failed to fetch account snapshot", zap.Error(err))
		return
	}

	result := b.executor.Execute(ctx, decision, account)
	b.logger.Info("Trade execution finished",
		zap.String("coin_pair", sig.CoinPair),
		zap.String("status", string(result.Status)),
		zap.String("reason", result.Reason))

	switch result.Status {
	case usecase.ExecSuccess:
		pos := &domain.Position{
			CoinPair:       sig.CoinPair,
			BuyPrice:       result.BuyOrder.AvgFillPrice(),
			Quantity:       result.BuyOrder.ExecutedQty,
			BracketOrderID: result.Bracket.OrderListID,
			SignalData:     decision,
			OpenedAt:       time.Now().UTC(),
		}
		if err := b.store.UpsertPosition(ctx, pos); err != nil {
			b.logger.Error("Failed to persist position", zap.String("coin_pair", sig.CoinPair), zap.Error(err))
		}
		b.markProcessed(ctx, sig.CoinPair)
	case usecase.ExecCriticalFail:
		// Capital may be committed; do not retry this signal automatically.
		b.markProcessed(ctx, sig.CoinPair)
	case usecase.ExecSkip, usecase.ExecFail:
		// Retry next cycle while the signal is still fresh.
	}
}

func (b *Bot) markProcessed(ctx context.Context, coinPair string) {
	if err := b.store.MarkSignalProcessed(ctx, coinPair); err != nil {
		b.logger.Error("Failed to mark signal processed", zap.String("coin_pair", coinPair), zap.Error(err))
	}
}

func riskRank(risk string) int {
	if risk == "high" {
		return 1
	}
	return 0
}
