package manager

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kirillm/solana-trade-bot/internal/config"
	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/metrics"
	"github.com/kirillm/solana-trade-bot/internal/strategy"
	"github.com/kirillm/solana-trade-bot/pkg/utils"
)

// running одна запущенная стратегия и handle ее отмены
type running struct {
	inst   strategy.Strategy
	cancel context.CancelFunc
}

// Dispatcher реестр стратегий: mint → не более одного живого
// экземпляра каждого вида. Маршрутизирует команды оператора и
// кооперативно гасит стратегии и сторожей при остановке актива.
type Dispatcher struct {
	root     context.Context
	deps     strategy.Deps
	defaults config.StrategyDefaults
	logger   *utils.Logger
	notify   func(string)

	mu     sync.Mutex
	active map[string]map[string]*running
}

func NewDispatcher(root context.Context, deps strategy.Deps, defaults config.StrategyDefaults, logger *utils.Logger, notify func(string)) *Dispatcher {
	return &Dispatcher{
		root:     root,
		deps:     deps,
		defaults: defaults,
		logger:   logger,
		notify:   notify,
		active:   make(map[string]map[string]*running),
	}
}

// Start запускает один вид стратегии для mint. Повторный запуск
// уже активного вида — no-op.
func (d *Dispatcher) Start(mint, kind string) error {
	if !domain.ValidStrategy(kind) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, kind)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.active[mint][kind]; exists {
		d.logger.Info("%s already active for %s, ignoring start", kind, mint)
		return nil
	}

	inst := d.newStrategy(mint, kind)
	ctx, cancel := context.WithCancel(d.root)

	if d.active[mint] == nil {
		d.active[mint] = make(map[string]*running)
	}
	d.active[mint][kind] = &running{inst: inst, cancel: cancel}
	metrics.ActiveStrategies.WithLabelValues(kind).Inc()

	go inst.Start(ctx)

	d.logger.Info("Started %s for %s", kind, mint)
	return nil
}

// StartAll запускает все виды стратегий для mint
func (d *Dispatcher) StartAll(mint string) error {
	for _, kind := range domain.StrategyKinds {
		if err := d.Start(mint, kind); err != nil {
			return err
		}
	}
	return nil
}

// Stop гасит все стратегии и сторожей по mint. Отмена кооперативная:
// цикл, ожидающий сетевой ответ, сперва дожидается его.
func (d *Dispatcher) Stop(mint string) error {
	d.mu.Lock()
	kinds, exists := d.active[mint]
	if exists {
		delete(d.active, mint)
	}
	d.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrNotActive, mint)
	}

	for kind, r := range kinds {
		r.cancel()
		metrics.ActiveStrategies.WithLabelValues(kind).Dec()
	}
	d.deps.Tracker.CancelGuards(mint)

	d.logger.Info("Stopped strategies for %s", mint)
	return nil
}

// StopAll гасит все активные стратегии (завершение процесса)
func (d *Dispatcher) StopAll() {
	d.mu.Lock()
	mints := make([]string, 0, len(d.active))
	for mint := range d.active {
		mints = append(mints, mint)
	}
	d.mu.Unlock()

	for _, mint := range mints {
		_ = d.Stop(mint)
	}
}

// SetParameter маршрутизирует смену параметра в живой экземпляр.
// Незарегистрированная пара (mint, kind) или неизвестный ключ —
// ошибка вызывающему, никогда не паника.
func (d *Dispatcher) SetParameter(mint, kind, key, value string) error {
	if !domain.ValidStrategy(kind) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, kind)
	}

	d.mu.Lock()
	r, exists := d.active[mint][kind]
	d.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s/%s", domain.ErrNotActive, mint, kind)
	}

	if err := r.inst.SetParameter(key, value); err != nil {
		return err
	}

	d.logger.Info("Set %s=%s for %s/%s", key, value, mint, kind)
	if d.notify != nil {
		d.notify(fmt.Sprintf("⚙️ %s: %s %s=%s", mint, strings.ToLower(kind), key, value))
	}
	return nil
}

// Active возвращает отсортированный список активных mint
func (d *Dispatcher) Active() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	mints := make([]string, 0, len(d.active))
	for mint := range d.active {
		mints = append(mints, mint)
	}
	sort.Strings(mints)
	return mints
}

// ActiveKinds возвращает активные виды стратегий для mint
func (d *Dispatcher) ActiveKinds(mint string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	kinds := make([]string, 0, len(d.active[mint]))
	for kind := range d.active[mint] {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// newStrategy собирает экземпляр стратегии с текущими умолчаниями
func (d *Dispatcher) newStrategy(mint, kind string) strategy.Strategy {
	switch kind {
	case domain.StrategySniper:
		return strategy.NewSniper(mint, d.defaults.Sniper.ProfitTarget, d.defaults.Sniper.OrderSize, d.deps)
	case domain.StrategyGrid:
		return strategy.NewGrid(mint, d.defaults.Grid.Levels, d.defaults.Grid.OrderSize, d.defaults.Grid.EvalEvery, d.deps)
	case domain.StrategyTrend:
		return strategy.NewTrend(mint, d.defaults.Trend.Period, d.defaults.Trend.RSIThreshold,
			d.defaults.Trend.UseAdvisory, d.defaults.Trend.SampleEvery, d.defaults.Trend.OrderSize, d.deps)
	}
	// ValidStrategy проверен вызывающим
	return nil
}
