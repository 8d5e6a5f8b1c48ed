package strategy

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/metrics"
)

// Grid лестничная стратегия: упорядоченный набор ценовых уровней и
// фиксированный объем на уровень. Каждый цикл: покупка на уровнях не
// ниже текущей цены, продажа на уровнях не выше ее. Уровень исполняется
// один раз, пока цена не уйдет на другую сторону: без флага "уже
// исполнен" уровень пересабмитился бы каждый цикл, пока цена стоит
// в диапазоне.
type Grid struct {
	mint string
	deps Deps

	interval time.Duration

	mu         sync.Mutex
	levels     []float64
	orderSize  float64
	buyFilled  map[float64]bool
	sellFilled map[float64]bool
}

// levelAction одно действие по уровню за цикл
type levelAction struct {
	Level float64
	Side  string
}

func NewGrid(mint string, levels []float64, orderSize float64, interval time.Duration, deps Deps) *Grid {
	sorted := append([]float64(nil), levels...)
	sort.Float64s(sorted)
	return &Grid{
		mint:       mint,
		deps:       deps,
		interval:   interval,
		levels:     sorted,
		orderSize:  orderSize,
		buyFilled:  make(map[float64]bool),
		sellFilled: make(map[float64]bool),
	}
}

func (g *Grid) Kind() string { return domain.StrategyGrid }

// SetParameter меняет параметр; вступает в силу со следующего цикла
func (g *Grid) SetParameter(key, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch key {
	case "grid_levels":
		levels, err := parseLevels(value)
		if err != nil {
			return err
		}
		g.levels = levels
		// новая сетка — новые флаги
		g.buyFilled = make(map[float64]bool)
		g.sellFilled = make(map[float64]bool)
	case "order_size":
		size, err := strconv.ParseFloat(value, 64)
		if err != nil || size <= 0 {
			return fmt.Errorf("%w: order_size=%q", domain.ErrInvalidParameter, value)
		}
		g.orderSize = size
	default:
		return fmt.Errorf("%w: grid has no parameter %q", domain.ErrUnknownParameter, key)
	}
	return nil
}

func parseLevels(value string) ([]float64, error) {
	parts := strings.Split(value, ",")
	levels := make([]float64, 0, len(parts))
	for _, p := range parts {
		level, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || level <= 0 {
			return nil, fmt.Errorf("%w: grid_levels=%q", domain.ErrInvalidParameter, value)
		}
		levels = append(levels, level)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: empty grid_levels", domain.ErrInvalidParameter)
	}
	sort.Float64s(levels)
	return levels, nil
}

// Start крутит циклы оценки до отмены
func (g *Grid) Start(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.deps.Logger.Info("Grid started for %s: %d levels", g.mint, len(g.levels))

	for {
		select {
		case <-ctx.Done():
			g.deps.Logger.Info("Grid stopped for %s", g.mint)
			return
		case <-ticker.C:
			g.evaluate(ctx)
		}
	}
}

// evaluate один цикл: действия по всем уровням, затем сторож,
// привязанный к цене начала цикла
func (g *Grid) evaluate(ctx context.Context) {
	cycleStartPrice, err := g.deps.Prices.GetPrice(ctx, g.mint, domain.QuoteMintSOL)
	if err != nil {
		metrics.FeedErrors.WithLabelValues("price").Inc()
		g.deps.Logger.Warn("Grid cycle skipped for %s: %v", g.mint, err)
		return
	}

	g.mu.Lock()
	actions := evaluateLevels(cycleStartPrice, g.levels, g.buyFilled, g.sellFilled)
	orderSize := g.orderSize
	g.mu.Unlock()

	var bought, sold int
	for _, action := range actions {
		_, err := g.deps.Gateway.Submit(ctx, domain.TradeIntent{
			Mint:     g.mint,
			Side:     action.Side,
			Price:    action.Level,
			Quantity: orderSize,
			Strategy: domain.StrategyGrid,
		})
		if err != nil {
			g.deps.Logger.Error("Grid %s at level %.12f failed for %s: %v", action.Side, action.Level, g.mint, err)
			continue
		}

		g.markFilled(action)
		if action.Side == domain.SideBuy {
			bought++
		} else {
			sold++
		}
		g.deps.Logger.Info("Grid %s %s: %.6f at level %.12f", action.Side, g.mint, orderSize, action.Level)
	}

	g.reconcilePosition(ctx, cycleStartPrice, orderSize, bought, sold)
}

// evaluateLevels выдает действия по уровням при данной цене.
// Сравнения буквальные: price <= level — покупка, иначе price >= level —
// продажа. Исполненный уровень пропускается, пока цена не пересечет его
// в обратную сторону.
func evaluateLevels(price float64, levels []float64, buyFilled, sellFilled map[float64]bool) []levelAction {
	var actions []levelAction
	for _, level := range levels {
		if price <= level {
			if !buyFilled[level] {
				actions = append(actions, levelAction{Level: level, Side: domain.SideBuy})
			}
		} else if price >= level {
			if !sellFilled[level] {
				actions = append(actions, levelAction{Level: level, Side: domain.SideSell})
			}
		}
	}
	return actions
}

// markFilled ставит флаг исполнения и снимает противоположный,
// чтобы уровень снова работал после пересечения цены
func (g *Grid) markFilled(action levelAction) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if action.Side == domain.SideBuy {
		g.buyFilled[action.Level] = true
		g.sellFilled[action.Level] = false
	} else {
		g.sellFilled[action.Level] = true
		g.buyFilled[action.Level] = false
	}
}

// reconcilePosition открывает позицию и сторожа после покупок либо
// снимает позицию, когда распродан весь остаток
func (g *Grid) reconcilePosition(ctx context.Context, cycleStartPrice, orderSize float64, bought, sold int) {
	if bought > 0 {
		if _, open := g.deps.Tracker.Get(g.mint, domain.StrategyGrid); open {
			// докупка в уже открытую позицию увеличивает учтенную экспозицию
			g.deps.Tracker.AddQuantity(g.mint, domain.StrategyGrid, float64(bought)*orderSize)
		} else {
			err := g.deps.Tracker.Open(domain.Position{
				Mint:       g.mint,
				Strategy:   domain.StrategyGrid,
				EntryPrice: cycleStartPrice,
				Quantity:   float64(bought) * orderSize,
				OpenedAt:   time.Now(),
			})
			if err != nil {
				g.deps.Logger.Error("Grid position bookkeeping failed for %s: %v", g.mint, err)
				return
			}
			if err := startGuard(ctx, g.deps, g.mint, domain.StrategyGrid, cycleStartPrice); err != nil {
				g.deps.Logger.Error("Grid guard start failed for %s: %v", g.mint, err)
			}
		}
		return
	}

	if sold == 0 {
		return
	}
	if _, open := g.deps.Tracker.Get(g.mint, domain.StrategyGrid); !open {
		return
	}

	balance, err := g.deps.Gateway.Balance(ctx, g.mint)
	if err == nil && balance <= 0 {
		g.deps.Tracker.Close(g.mint, domain.StrategyGrid)
		g.deps.Logger.Info("Grid position fully sold for %s", g.mint)
	}
}
