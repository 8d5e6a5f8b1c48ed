package snapshot

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/ledger"
	"github.com/kirillm/solana-trade-bot/internal/manager"
	"github.com/kirillm/solana-trade-bot/internal/strategy"
	"github.com/kirillm/solana-trade-bot/pkg/utils"
)

// PnLStore сохраняет снапшоты прибыли
type PnLStore interface {
	Save(snapshot *domain.PnLSnapshot) error
}

// Scheduler периодически фиксирует прибыль по всем активным токенам
type Scheduler struct {
	cron       *cron.Cron
	logger     *utils.Logger
	dispatcher *manager.Dispatcher
	ledger     *ledger.Ledger
	prices     strategy.PriceSource
	store      PnLStore
	watched    []string
}

func NewScheduler(
	logger *utils.Logger,
	dispatcher *manager.Dispatcher,
	ldg *ledger.Ledger,
	prices strategy.PriceSource,
	store PnLStore,
	watched []string,
) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		logger:     logger,
		dispatcher: dispatcher,
		ledger:     ldg,
		prices:     prices,
		store:      store,
		watched:    watched,
	}
}

// Start запускает часовые снапшоты; Stop останавливает планировщик
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.takeSnapshots); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("PnL snapshot scheduler started (hourly)")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) takeSnapshots() {
	mints := s.collectMints()
	for _, mint := range mints {
		if err := s.snapshot(mint); err != nil {
			s.logger.Warn("PnL snapshot failed for %s: %v", mint, err)
		}
	}
}

// collectMints объединяет наблюдаемые токены и токены с активными стратегиями
func (s *Scheduler) collectMints() []string {
	seen := make(map[string]bool)
	var mints []string
	for _, mint := range s.watched {
		if !seen[mint] {
			seen[mint] = true
			mints = append(mints, mint)
		}
	}
	for _, mint := range s.dispatcher.Active() {
		if !seen[mint] {
			seen[mint] = true
			mints = append(mints, mint)
		}
	}
	return mints
}

func (s *Scheduler) snapshot(mint string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	price, err := s.prices.GetPrice(ctx, mint, domain.QuoteMintSOL)
	if err != nil {
		return err
	}

	profit, percent, err := s.ledger.Profit(mint, price)
	if err != nil {
		return err
	}

	return s.store.Save(&domain.PnLSnapshot{
		Mint:          mint,
		Profit:        profit,
		ProfitPercent: percent,
		CurrentPrice:  price,
		CreatedAt:     time.Now(),
	})
}
