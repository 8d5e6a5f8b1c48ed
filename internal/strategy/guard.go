package strategy

import (
	"context"

	"github.com/kirillm/solana-trade-bot/internal/config"
	"github.com/kirillm/solana-trade-bot/internal/position"
	"github.com/kirillm/solana-trade-bot/pkg/utils"
)

// Deps общие зависимости стратегий. Собираются один раз при старте
// процесса; клиенты и кошелек никогда не пересоздаются на задачу.
type Deps struct {
	Prices   PriceSource
	Advisory AdvisorySource
	Pools    PoolSource
	Gateway  Gateway
	Tracker  *position.Tracker
	Logger   *utils.Logger
	Notify   func(string)
	StopLoss config.StopLossConfig
}

// startGuard запускает сторожа для только что открытой позиции.
// Handle отмены кладется в tracker, так что Dispatcher.Stop дотягивается
// до сторожа. Повторный сторож для той же позиции не стартует.
func startGuard(ctx context.Context, d Deps, mint, kind string, entryPrice float64) error {
	gctx, cancel := context.WithCancel(ctx)

	if err := d.Tracker.AttachGuard(mint, kind, cancel); err != nil {
		cancel()
		return err
	}

	guard := NewStopLoss(
		mint, kind, entryPrice,
		d.StopLoss.FixedRatio, d.StopLoss.TrailingRatio, d.StopLoss.CheckInterval,
		d.Prices, d.Gateway, d.Tracker, d.Logger, d.Notify,
	)
	go guard.Run(gctx)
	return nil
}
