package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kirillm/solana-trade-bot/internal/api"
	"github.com/kirillm/solana-trade-bot/internal/config"
	"github.com/kirillm/solana-trade-bot/internal/executor"
	"github.com/kirillm/solana-trade-bot/internal/feed"
	"github.com/kirillm/solana-trade-bot/internal/ledger"
	"github.com/kirillm/solana-trade-bot/internal/manager"
	"github.com/kirillm/solana-trade-bot/internal/position"
	"github.com/kirillm/solana-trade-bot/internal/snapshot"
	"github.com/kirillm/solana-trade-bot/internal/storage"
	"github.com/kirillm/solana-trade-bot/internal/strategy"
	"github.com/kirillm/solana-trade-bot/internal/telegram"
	"github.com/kirillm/solana-trade-bot/internal/wallet"
	"github.com/kirillm/solana-trade-bot/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)
	utils.SetDefaultLevel(cfg.LogLevel)
	logger.Info("Starting solana-trade-bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Хранилище и журнал сделок
	store, err := storageFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()
	ldg := ledger.New(store.Trades)

	// Кошелек: единственная подписывающая identity процесса
	wlt, err := walletFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize wallet: %v", err)
	}
	logger.Info("Wallet loaded: %s", wlt.PublicKey())

	// Telegram бот создается позже executor, поэтому уведомления
	// идут через переставляемую функцию
	var notifyMu sync.RWMutex
	var notifyTarget func(string)
	notify := func(msg string) {
		notifyMu.RLock()
		fn := notifyTarget
		notifyMu.RUnlock()
		if fn != nil {
			fn(msg)
		}
	}

	// Источники данных. Котировки идут через failover: основной
	// эндпоинт, запасной (если задан), кеш последней удачной цены.
	prices := feed.NewPriceFailover(feed.NewPriceClient(cfg.Feed.JupiterAPI, cfg.Feed.PriceRateLimit), logger)
	if cfg.Feed.JupiterFallbackAPI != "" {
		prices.AddFallbackSource(feed.NewPriceClient(cfg.Feed.JupiterFallbackAPI, cfg.Feed.PriceRateLimit))
	}
	pools := feed.NewPoolWatcher(cfg.Feed.PoolWSEndpoint, logger)
	advisory := feed.NewAdvisoryClient(cfg.Feed.AdvisoryAPI)

	exec := executor.New(wlt, ldg, prices, logger, notify)
	exec.SetSlippageThreshold(cfg.Feed.SlippagePercent)

	tracker := position.NewTracker()

	deps := strategy.Deps{
		Prices:   prices,
		Advisory: advisory,
		Pools:    pools,
		Gateway:  exec,
		Tracker:  tracker,
		Logger:   logger,
		Notify:   notify,
		StopLoss: cfg.Strategy.StopLoss,
	}

	dispatcher := manager.NewDispatcher(ctx, deps, cfg.Strategy, logger, notify)

	bot, err := telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger, dispatcher, exec, ldg, prices)
	if err != nil {
		log.Fatalf("Failed to initialize telegram bot: %v", err)
	}
	notifyMu.Lock()
	notifyTarget = bot.SendMessage
	notifyMu.Unlock()

	scheduler := snapshot.NewScheduler(logger, dispatcher, ldg, prices, store.PnL, cfg.Strategy.WatchMints)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start snapshot scheduler: %v", err)
	}
	defer scheduler.Stop()

	server := api.NewServer(logger, dispatcher, exec, ldg, prices, store.PnL, cfg.APIPort)

	// Токены из watch-листа торгуются с самого старта,
	// остальные добавляются командой /start
	for _, mint := range cfg.Strategy.WatchMints {
		if err := dispatcher.StartAll(mint); err != nil {
			logger.Error("Failed to start strategies for %s: %v", mint, err)
		}
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		pools.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil {
			logger.Error("API server stopped: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		bot.Start(ctx)
	}()

	logger.Info("Bot is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutdown signal received, stopping...")
	dispatcher.StopAll()
	cancel()
	wg.Wait()
	logger.Info("Bot stopped")
}

func storageFromConfig(cfg *config.Config) (*storage.PostgresStorage, error) {
	return storage.NewPostgresStorage(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
	)
}

func walletFromConfig(cfg *config.Config) (*wallet.Wallet, error) {
	return wallet.NewWallet(cfg.Solana.RPCEndpoint, cfg.Solana.WalletPrivateKey)
}
