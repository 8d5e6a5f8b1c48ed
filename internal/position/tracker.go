package position

import (
	"context"
	"fmt"
	"sync"

	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/metrics"
)

type key struct {
	mint     string
	strategy string
}

type entry struct {
	pos         domain.Position
	cancelGuard context.CancelFunc
}

// Tracker учитывает открытые позиции процесса. Инвариант: не более
// одной открытой позиции на пару (mint, strategy); попытка открыть
// вторую отклоняется без изменения состояния. Вместе с позицией
// хранится handle ее стоп-лосса, чтобы Dispatcher.Stop мог
// кооперативно отменить сторожа.
type Tracker struct {
	mu   sync.Mutex
	open map[key]*entry
}

func NewTracker() *Tracker {
	return &Tracker{open: make(map[key]*entry)}
}

// Open регистрирует новую позицию
func (t *Tracker) Open(pos domain.Position) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{pos.Mint, pos.Strategy}
	if _, exists := t.open[k]; exists {
		return fmt.Errorf("%w: %s/%s", domain.ErrPositionOpen, pos.Mint, pos.Strategy)
	}

	t.open[k] = &entry{pos: pos}
	metrics.OpenPositions.Inc()
	return nil
}

// AttachGuard привязывает cancel-функцию стоп-лосса к позиции.
// Второй сторож для той же позиции не допускается.
func (t *Tracker) AttachGuard(mint, strategy string, cancel context.CancelFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, exists := t.open[key{mint, strategy}]
	if !exists {
		return fmt.Errorf("no open position for %s/%s", mint, strategy)
	}
	if e.cancelGuard != nil {
		return fmt.Errorf("guard already attached for %s/%s", mint, strategy)
	}
	e.cancelGuard = cancel
	return nil
}

// AddQuantity увеличивает количество на открытой позиции. Возвращает
// false, если позиции нет.
func (t *Tracker) AddQuantity(mint, strategy string, delta float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, exists := t.open[key{mint, strategy}]
	if !exists {
		return false
	}
	e.pos.Quantity += delta
	return true
}

// Close снимает позицию с учета и возвращает ее
func (t *Tracker) Close(mint, strategy string) (domain.Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{mint, strategy}
	e, exists := t.open[k]
	if !exists {
		return domain.Position{}, false
	}

	delete(t.open, k)
	metrics.OpenPositions.Dec()
	if e.cancelGuard != nil {
		e.cancelGuard()
	}
	return e.pos, true
}

// Get возвращает открытую позицию, если она есть
func (t *Tracker) Get(mint, strategy string) (domain.Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, exists := t.open[key{mint, strategy}]
	if !exists {
		return domain.Position{}, false
	}
	return e.pos, true
}

// CancelGuards отменяет сторожей всех позиций по mint. Сами позиции
// остаются открытыми: экспозиция в сети никуда не делась, повторный
// старт стратегии не сможет открыть дубликат.
func (t *Tracker) CancelGuards(mint string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for k, e := range t.open {
		if k.mint == mint && e.cancelGuard != nil {
			e.cancelGuard()
			e.cancelGuard = nil
		}
	}
}

// OpenCount возвращает число открытых позиций
func (t *Tracker) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}
