package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/metrics"
	"github.com/kirillm/solana-trade-bot/pkg/utils"
)

// cacheTTL срок годности последней удачной котировки
const cacheTTL = 5 * time.Minute

// PriceSource источник котировок
type PriceSource interface {
	GetPrice(ctx context.Context, mint, vsMint string) (float64, error)
}

// PriceFailover оборачивает основной источник цен запасными и кешем
// последней удачной котировки. Отказ основного источника сначала
// пробует запасные, затем кеш не старше cacheTTL; только после этого
// вызывающий видит ошибку фида.
type PriceFailover struct {
	primary   PriceSource
	fallbacks []PriceSource
	logger    *utils.Logger

	mu    sync.Mutex
	cache map[string]cachedPrice
}

type cachedPrice struct {
	price     float64
	timestamp time.Time
}

func NewPriceFailover(primary PriceSource, logger *utils.Logger) *PriceFailover {
	return &PriceFailover{
		primary: primary,
		logger:  logger,
		cache:   make(map[string]cachedPrice),
	}
}

// AddFallbackSource добавляет запасной источник цен. Источники
// опрашиваются в порядке добавления.
func (pf *PriceFailover) AddFallbackSource(source PriceSource) {
	pf.fallbacks = append(pf.fallbacks, source)
}

// GetPrice получает цену mint с failover
func (pf *PriceFailover) GetPrice(ctx context.Context, mint, vsMint string) (float64, error) {
	price, err := pf.primary.GetPrice(ctx, mint, vsMint)
	if err == nil {
		pf.remember(mint, price)
		return price, nil
	}

	for i, source := range pf.fallbacks {
		price, err := source.GetPrice(ctx, mint, vsMint)
		if err == nil {
			pf.logger.Warn("Using fallback source #%d for %s price", i+1, mint)
			pf.remember(mint, price)
			return price, nil
		}
	}

	pf.mu.Lock()
	cached, ok := pf.cache[mint]
	pf.mu.Unlock()
	if ok {
		age := time.Since(cached.timestamp)
		if age < cacheTTL {
			pf.logger.Warn("Using cached price for %s (age: %s)", mint, age.Round(time.Second))
			return cached.price, nil
		}
	}

	metrics.FeedErrors.WithLabelValues("price").Inc()
	return 0, fmt.Errorf("%w: no price source available for %s", domain.ErrFeed, mint)
}

func (pf *PriceFailover) remember(mint string, price float64) {
	pf.mu.Lock()
	pf.cache[mint] = cachedPrice{price: price, timestamp: time.Now()}
	pf.mu.Unlock()
}
