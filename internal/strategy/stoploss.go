package strategy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/metrics"
	"github.com/kirillm/solana-trade-bot/internal/position"
	"github.com/kirillm/solana-trade-bot/pkg/utils"
)

// StopLoss сторож одной открытой позиции: фиксированный и скользящий
// стоп. Ровно один сторож на позицию; состояние переходит
// Watching → Triggered или Watching → Cancelled, оба терминальны.
// После терминального состояния ни тиков, ни отправок не происходит.
type StopLoss struct {
	mint         string
	strategyKind string
	entryPrice   float64

	fixedRatio    float64
	trailingRatio float64
	interval      time.Duration

	prices  PriceSource
	gateway Gateway
	tracker *position.Tracker
	logger  *utils.Logger
	notify  func(string)

	mu        sync.Mutex
	highWater float64
	status    string
}

func NewStopLoss(
	mint, strategyKind string,
	entryPrice, fixedRatio, trailingRatio float64,
	interval time.Duration,
	prices PriceSource,
	gateway Gateway,
	tracker *position.Tracker,
	logger *utils.Logger,
	notify func(string),
) *StopLoss {
	return &StopLoss{
		mint:          mint,
		strategyKind:  strategyKind,
		entryPrice:    entryPrice,
		fixedRatio:    fixedRatio,
		trailingRatio: trailingRatio,
		interval:      interval,
		prices:        prices,
		gateway:       gateway,
		tracker:       tracker,
		logger:        logger,
		notify:        notify,
		highWater:     entryPrice,
		status:        domain.StopLossWatching,
	}
}

// Status возвращает текущее состояние сторожа
func (s *StopLoss) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Thresholds возвращает текущие пороги (fixed, trailing)
func (s *StopLoss) Thresholds() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entryPrice * (1 - s.fixedRatio), s.highWater * (1 - s.trailingRatio)
}

// Run крутит тики до срабатывания или отмены. Тики одной позиции
// строго последовательны; отмена кооперативная и проверяется между
// тиками, сетевые вызовы внутри тика не прерываются.
func (s *StopLoss) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Stop-loss watching %s/%s: entry %.12f, fixed %.2f%%, trailing %.2f%%",
		s.mint, s.strategyKind, s.entryPrice, s.fixedRatio*100, s.trailingRatio*100)

	for {
		select {
		case <-ctx.Done():
			s.setStatus(domain.StopLossCancelled)
			s.logger.Info("Stop-loss cancelled for %s/%s", s.mint, s.strategyKind)
			return
		case <-ticker.C:
			if s.tick(ctx) {
				return
			}
		}
	}
}

// tick выполняет одну проверку; true означает терминальное состояние
func (s *StopLoss) tick(ctx context.Context) bool {
	currentPrice, err := s.prices.GetPrice(ctx, s.mint, domain.QuoteMintSOL)
	if err != nil {
		metrics.FeedErrors.WithLabelValues("price").Inc()
		s.logger.Warn("Stop-loss price check skipped for %s: %v", s.mint, err)
		return false
	}

	s.mu.Lock()
	if currentPrice > s.highWater {
		s.highWater = currentPrice
	}
	fixedThreshold := s.entryPrice * (1 - s.fixedRatio)
	trailingThreshold := s.highWater * (1 - s.trailingRatio)
	s.mu.Unlock()

	if currentPrice > fixedThreshold && currentPrice > trailingThreshold {
		return false
	}

	// Порог пробит: продаем весь остаток. Неудачная продажа оставляет
	// состояние Watching — повтор на следующем тике, позиция пока
	// защищена только повтором.
	quantity, err := s.gateway.Balance(ctx, s.mint)
	if err != nil {
		s.logger.Error("Stop-loss balance check failed for %s: %v", s.mint, err)
		return false
	}

	if quantity > 0 {
		_, err = s.gateway.Submit(ctx, domain.TradeIntent{
			Mint:     s.mint,
			Side:     domain.SideSell,
			Price:    currentPrice,
			Quantity: quantity,
			Strategy: s.strategyKind,
		})
		if err != nil {
			s.logger.Error("Stop-loss sell failed for %s, retrying next tick: %v", s.mint, err)
			return false
		}
	}

	s.setStatus(domain.StopLossTriggered)
	metrics.StopLossTriggers.Inc()
	s.tracker.Close(s.mint, s.strategyKind)

	s.logger.Info("Stop-loss triggered for %s at %.12f (fixed %.12f, trailing %.12f)",
		s.mint, currentPrice, fixedThreshold, trailingThreshold)
	if s.notify != nil {
		s.notify(fmt.Sprintf("🛑 Stop-loss triggered for %s at %.12f\nFixed: %.12f, Trailing: %.12f",
			s.mint, currentPrice, fixedThreshold, trailingThreshold))
	}
	return true
}

func (s *StopLoss) setStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == domain.StopLossWatching {
		s.status = status
	}
}
