package strategy

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/markcheno/go-talib"

	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/metrics"
)

// Trend индикаторная стратегия: набирает ценовой ряд поштучно,
// считает RSI за окно и покупает на перепроданности. При включенном
// советнике его сигнал первичен, индикатор — запасной путь на случай
// отказа советника.
type Trend struct {
	mint string
	deps Deps

	mu           sync.Mutex
	period       int
	rsiThreshold float64
	useAdvisory  bool
	sampleEvery  time.Duration
	orderSize    float64
}

func NewTrend(mint string, period int, rsiThreshold float64, useAdvisory bool, sampleEvery time.Duration, orderSize float64, deps Deps) *Trend {
	return &Trend{
		mint:         mint,
		deps:         deps,
		period:       period,
		rsiThreshold: rsiThreshold,
		useAdvisory:  useAdvisory,
		sampleEvery:  sampleEvery,
		orderSize:    orderSize,
	}
}

func (t *Trend) Kind() string { return domain.StrategyTrend }

// SetParameter меняет параметр; вступает в силу со следующего окна
func (t *Trend) SetParameter(key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch key {
	case "rsi_threshold":
		threshold, err := strconv.ParseFloat(value, 64)
		if err != nil || threshold <= 0 || threshold >= 100 {
			return fmt.Errorf("%w: rsi_threshold=%q", domain.ErrInvalidParameter, value)
		}
		t.rsiThreshold = threshold
	case "use_ai":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: use_ai=%q", domain.ErrInvalidParameter, value)
		}
		t.useAdvisory = enabled
	case "period":
		period, err := strconv.Atoi(value)
		if err != nil || period < 2 {
			return fmt.Errorf("%w: period=%q", domain.ErrInvalidParameter, value)
		}
		t.period = period
	case "order_size":
		size, err := strconv.ParseFloat(value, 64)
		if err != nil || size <= 0 {
			return fmt.Errorf("%w: order_size=%q", domain.ErrInvalidParameter, value)
		}
		t.orderSize = size
	default:
		return fmt.Errorf("%w: trend has no parameter %q", domain.ErrUnknownParameter, key)
	}
	return nil
}

func (t *Trend) snapshot() (int, float64, bool, time.Duration, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period, t.rsiThreshold, t.useAdvisory, t.sampleEvery, t.orderSize
}

// Start набирает окна и оценивает их до отмены
func (t *Trend) Start(ctx context.Context) {
	t.deps.Logger.Info("Trend started for %s", t.mint)

	for {
		if ctx.Err() != nil {
			t.deps.Logger.Info("Trend stopped for %s", t.mint)
			return
		}

		period, threshold, useAdvisory, sampleEvery, orderSize := t.snapshot()

		if _, open := t.deps.Tracker.Get(t.mint, domain.StrategyTrend); open {
			// позиция уже под сторожем, новое окно не нужно
			if !sleepCtx(ctx, time.Duration(period)*sampleEvery) {
				return
			}
			continue
		}

		series, ok := t.sample(ctx, period+1, sampleEvery)
		if !ok {
			if !sleepCtx(ctx, sampleEvery) {
				return
			}
			continue
		}

		rsi := lastRSI(series, period)
		if !t.shouldBuy(ctx, useAdvisory, rsi, threshold) {
			continue
		}

		currentPrice := series[len(series)-1]
		trade, err := t.deps.Gateway.Submit(ctx, domain.TradeIntent{
			Mint:     t.mint,
			Side:     domain.SideBuy,
			Price:    currentPrice,
			Quantity: orderSize,
			Strategy: domain.StrategyTrend,
		})
		if err != nil {
			t.deps.Logger.Error("Trend buy failed for %s: %v", t.mint, err)
			continue
		}

		if err := t.deps.Tracker.Open(domain.Position{
			Mint:       t.mint,
			Strategy:   domain.StrategyTrend,
			EntryPrice: trade.Price,
			Quantity:   trade.Quantity,
			OpenedAt:   time.Now(),
		}); err != nil {
			t.deps.Logger.Error("Trend position bookkeeping failed for %s: %v", t.mint, err)
			continue
		}

		if t.deps.Notify != nil {
			t.deps.Notify(fmt.Sprintf("📈 Trend bought %s at %.12f (RSI: %.1f)", t.mint, trade.Price, rsi))
		}

		if err := startGuard(ctx, t.deps, t.mint, domain.StrategyTrend, trade.Price); err != nil {
			t.deps.Logger.Error("Trend guard start failed for %s: %v", t.mint, err)
		}
	}
}

// sample набирает n цен с шагом step; false при отказе источника или отмене
func (t *Trend) sample(ctx context.Context, n int, step time.Duration) ([]float64, bool) {
	series := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		price, err := t.deps.Prices.GetPrice(ctx, t.mint, domain.QuoteMintSOL)
		if err != nil {
			metrics.FeedErrors.WithLabelValues("price").Inc()
			t.deps.Logger.Warn("Trend window aborted for %s: %v", t.mint, err)
			return nil, false
		}
		series = append(series, price)

		if i < n-1 && !sleepCtx(ctx, step) {
			return nil, false
		}
	}
	return series, true
}

// shouldBuy решает через советника либо индикатор
func (t *Trend) shouldBuy(ctx context.Context, useAdvisory bool, rsi, threshold float64) bool {
	if useAdvisory {
		signal, err := t.deps.Advisory.GetSignal(ctx, t.mint)
		if err == nil {
			return signal == domain.SignalBuy
		}
		metrics.FeedErrors.WithLabelValues("advisory").Inc()
		t.deps.Logger.Warn("Advisory failed for %s, falling back to RSI: %v", t.mint, err)
	}
	return rsi < threshold
}

// lastRSI считает RSI за окно и возвращает последнее значение
func lastRSI(series []float64, period int) float64 {
	values := talib.Rsi(series, period)
	return values[len(values)-1]
}

// sleepCtx ждет d или отмену; false при отмене
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
