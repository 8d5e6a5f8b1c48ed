package strategy

import (
	"context"

	"github.com/kirillm/solana-trade-bot/internal/domain"
)

// PriceSource источник котировок
type PriceSource interface {
	GetPrice(ctx context.Context, mint, vsMint string) (float64, error)
}

// Gateway единственный путь отправки сделок. Реализуется executor.Executor.
type Gateway interface {
	Submit(ctx context.Context, intent domain.TradeIntent) (*domain.Trade, error)
	Balance(ctx context.Context, mint string) (float64, error)
}

// AdvisorySource внешний советник buy/sell/neutral
type AdvisorySource interface {
	GetSignal(ctx context.Context, mint string) (string, error)
}

// PoolSource поток событий создания новых пулов
type PoolSource interface {
	Subscribe(mint string) <-chan domain.PoolEvent
	Unsubscribe(mint string, ch <-chan domain.PoolEvent)
}

// Strategy общий контракт торговой стратегии. Start блокирует до отмены
// контекста или естественного завершения; SetParameter применяется со
// следующего цикла оценки, никогда посреди текущего.
type Strategy interface {
	Kind() string
	Start(ctx context.Context)
	SetParameter(key, value string) error
}
