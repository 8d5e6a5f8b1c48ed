package ledger

import (
	"fmt"

	"github.com/kirillm/solana-trade-bot/internal/domain"
)

// TradeStore интерфейс хранилища журнала сделок
type TradeStore interface {
	Save(trade *domain.Trade) error
	GetRecent(mint string, limit int) ([]domain.Trade, error)
	GetAllByMint(mint string) ([]domain.Trade, error)
}

// Ledger append-only журнал исполненных сделок и расчет прибыли по нему.
// Все записи идут через executor, поэтому конкурентные вставки безопасны:
// на пути записи ровно один писатель.
type Ledger struct {
	store TradeStore
}

func New(store TradeStore) *Ledger {
	return &Ledger{store: store}
}

// Record добавляет запись о сделке. Ошибка хранилища всегда
// возвращается вызывающему, запись никогда не теряется молча.
func (l *Ledger) Record(trade *domain.Trade) error {
	if err := l.store.Save(trade); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

// Recent возвращает последние limit сделок по mint, новые первыми
func (l *Ledger) Recent(mint string, limit int) ([]domain.Trade, error) {
	trades, err := l.store.GetRecent(mint, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return trades, nil
}

// Profit считает абсолютную и процентную прибыль по mint при текущей цене
func (l *Ledger) Profit(mint string, currentPrice float64) (float64, float64, error) {
	trades, err := l.store.GetAllByMint(mint)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	profit, percent := ComputeProfit(trades, currentPrice)
	return profit, percent, nil
}

// ComputeProfit сворачивает сделки в хронологическом порядке в пару
// (абсолютная прибыль, процент). Модель — средневзвешенная стоимость
// позиции (weighted average cost basis), НЕ FIFO/LIFO лоты: при частичном
// закрытии и повторном открытии позиции процент считается от чистой
// вложенной суммы, а не от стоимости конкретных лотов.
func ComputeProfit(trades []domain.Trade, currentPrice float64) (float64, float64) {
	var netCost, netQuantity float64
	for _, t := range trades {
		switch t.Side {
		case domain.SideBuy:
			netCost += t.Price * t.Quantity
			netQuantity += t.Quantity
		case domain.SideSell:
			netCost -= t.Price * t.Quantity
			netQuantity -= t.Quantity
		}
	}

	currentValue := netQuantity * currentPrice
	profit := currentValue - netCost

	percentage := 0.0
	if netCost > 0 {
		percentage = (profit / netCost) * 100
	}

	return profit, percentage
}
