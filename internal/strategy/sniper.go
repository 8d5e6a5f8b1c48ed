package strategy

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/metrics"
)

// Sniper событийная стратегия: ждет появления пула ликвидности по
// своему mint и покупает фиксированный объем. Срабатывает не более
// одного раза за активацию; повторный вход только после явного
// перезапуска через диспетчер.
type Sniper struct {
	mint string
	deps Deps

	mu           sync.Mutex
	profitTarget float64
	orderSize    float64
}

func NewSniper(mint string, profitTarget, orderSize float64, deps Deps) *Sniper {
	return &Sniper{
		mint:         mint,
		deps:         deps,
		profitTarget: profitTarget,
		orderSize:    orderSize,
	}
}

func (s *Sniper) Kind() string { return domain.StrategySniper }

// SetParameter меняет параметр; вступает в силу со следующего события
func (s *Sniper) SetParameter(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch key {
	case "profit_target":
		target, err := strconv.ParseFloat(value, 64)
		if err != nil || target <= 0 {
			return fmt.Errorf("%w: profit_target=%q", domain.ErrInvalidParameter, value)
		}
		s.profitTarget = target
	case "order_size":
		size, err := strconv.ParseFloat(value, 64)
		if err != nil || size <= 0 {
			return fmt.Errorf("%w: order_size=%q", domain.ErrInvalidParameter, value)
		}
		s.orderSize = size
	default:
		return fmt.Errorf("%w: sniper has no parameter %q", domain.ErrUnknownParameter, key)
	}
	return nil
}

func (s *Sniper) params() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profitTarget, s.orderSize
}

// Start слушает события пулов до первого успешного входа или отмены
func (s *Sniper) Start(ctx context.Context) {
	events := s.deps.Pools.Subscribe(s.mint)
	defer s.deps.Pools.Unsubscribe(s.mint, events)

	s.deps.Logger.Info("Sniper armed for %s", s.mint)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if s.snipe(ctx, event) {
				s.deps.Logger.Info("Sniper done for %s", s.mint)
				return
			}
		}
	}
}

// snipe обрабатывает одно событие пула; true если вход состоялся
func (s *Sniper) snipe(ctx context.Context, event domain.PoolEvent) bool {
	if _, open := s.deps.Tracker.Get(s.mint, domain.StrategySniper); open {
		s.deps.Logger.Warn("Sniper position already open for %s, ignoring pool %s", s.mint, event.PoolID)
		return false
	}

	profitTarget, orderSize := s.params()

	price, err := s.deps.Prices.GetPrice(ctx, s.mint, domain.QuoteMintSOL)
	if err != nil {
		metrics.FeedErrors.WithLabelValues("price").Inc()
		s.deps.Logger.Warn("Sniper skipping pool %s: %v", event.PoolID, err)
		return false
	}

	trade, err := s.deps.Gateway.Submit(ctx, domain.TradeIntent{
		Mint:     s.mint,
		Side:     domain.SideBuy,
		Price:    price,
		Quantity: orderSize,
		Strategy: domain.StrategySniper,
	})
	if err != nil {
		// неудачная покупка не создает позицию
		s.deps.Logger.Error("Sniper buy failed for %s: %v", s.mint, err)
		return false
	}

	if err := s.deps.Tracker.Open(domain.Position{
		Mint:       s.mint,
		Strategy:   domain.StrategySniper,
		EntryPrice: trade.Price,
		Quantity:   trade.Quantity,
		OpenedAt:   time.Now(),
	}); err != nil {
		s.deps.Logger.Error("Sniper position bookkeeping failed for %s: %v", s.mint, err)
		return true
	}

	if s.deps.Notify != nil {
		s.deps.Notify(fmt.Sprintf("🎯 Sniped %s at %.12f", s.mint, trade.Price))
	}

	// Одна немедленная проверка профит-таргета. Окно без защиты
	// ограничено этим единственным запросом цены: сторож стартует
	// сразу после него.
	if s.takeProfit(ctx, trade.Price, profitTarget, trade.Quantity) {
		return true
	}

	if err := startGuard(ctx, s.deps, s.mint, domain.StrategySniper, trade.Price); err != nil {
		s.deps.Logger.Error("Sniper guard start failed for %s: %v", s.mint, err)
	}
	return true
}

// takeProfit закрывает позицию если цена уже дошла до цели; true если закрыл
func (s *Sniper) takeProfit(ctx context.Context, entryPrice, profitTarget, quantity float64) bool {
	targetPrice := entryPrice * (1 + profitTarget)

	current, err := s.deps.Prices.GetPrice(ctx, s.mint, domain.QuoteMintSOL)
	if err != nil || current < targetPrice {
		return false
	}

	_, err = s.deps.Gateway.Submit(ctx, domain.TradeIntent{
		Mint:     s.mint,
		Side:     domain.SideSell,
		Price:    current,
		Quantity: quantity,
		Strategy: domain.StrategySniper,
	})
	if err != nil {
		s.deps.Logger.Error("Sniper take-profit sell failed for %s: %v", s.mint, err)
		return false
	}

	s.deps.Tracker.Close(s.mint, domain.StrategySniper)
	if s.deps.Notify != nil {
		s.deps.Notify(fmt.Sprintf("💰 Sold %s at profit target: %.12f", s.mint, current))
	}
	return true
}
