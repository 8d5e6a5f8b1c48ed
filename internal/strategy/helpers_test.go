package strategy

import (
	"context"
	"sync"
	"time"

	"github.com/kirillm/solana-trade-bot/internal/config"
	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/position"
	"github.com/kirillm/solana-trade-bot/pkg/utils"
)

const testMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

// priceResult один ответ источника цен
type priceResult struct {
	price float64
	err   error
}

// fakePrices выдает ответы из очереди; после исчерпания повторяет последний
type fakePrices struct {
	mu    sync.Mutex
	queue []priceResult
	calls int
}

func (f *fakePrices) GetPrice(ctx context.Context, mint, vsMint string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.queue) == 0 {
		return 0, domain.ErrFeed
	}
	r := f.queue[0]
	if len(f.queue) > 1 {
		f.queue = f.queue[1:]
	}
	return r.price, r.err
}

// fakeGateway записывает отправленные intent и выдает ошибки из очереди
type fakeGateway struct {
	mu         sync.Mutex
	submits    []domain.TradeIntent
	submitErrs []error
	balance    float64
	balanceErr error
}

func (f *fakeGateway) Submit(ctx context.Context, intent domain.TradeIntent) (*domain.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.submitErrs) > 0 {
		err := f.submitErrs[0]
		f.submitErrs = f.submitErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.submits = append(f.submits, intent)
	return &domain.Trade{
		Mint:     intent.Mint,
		Side:     intent.Side,
		Price:    intent.Price,
		Quantity: intent.Quantity,
		Strategy: intent.Strategy,
	}, nil
}

func (f *fakeGateway) Balance(ctx context.Context, mint string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, f.balanceErr
}

func (f *fakeGateway) submitted() []domain.TradeIntent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.TradeIntent, len(f.submits))
	copy(out, f.submits)
	return out
}

// fakeAdvisory фиксированный ответ советника
type fakeAdvisory struct {
	signal string
	err    error
}

func (f *fakeAdvisory) GetSignal(ctx context.Context, mint string) (string, error) {
	return f.signal, f.err
}

// fakePools ручная доставка событий пулов
type fakePools struct {
	mu  sync.Mutex
	chs map[string][]chan domain.PoolEvent
}

func newFakePools() *fakePools {
	return &fakePools{chs: make(map[string][]chan domain.PoolEvent)}
}

func (f *fakePools) Subscribe(mint string) <-chan domain.PoolEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan domain.PoolEvent, 4)
	f.chs[mint] = append(f.chs[mint], ch)
	return ch
}

func (f *fakePools) Unsubscribe(mint string, ch <-chan domain.PoolEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.chs[mint][:0]
	for _, c := range f.chs[mint] {
		if c != ch {
			kept = append(kept, c)
		}
	}
	f.chs[mint] = kept
}

func (f *fakePools) emit(mint string, event domain.PoolEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.chs[mint] {
		ch <- event
	}
}

// testDeps собирает зависимости с большими интервалами, чтобы фоновые
// сторожа в тестах не тикали
func testDeps(prices *fakePrices, gateway *fakeGateway, advisory *fakeAdvisory, pools *fakePools) Deps {
	return Deps{
		Prices:   prices,
		Advisory: advisory,
		Pools:    pools,
		Gateway:  gateway,
		Tracker:  position.NewTracker(),
		Logger:   utils.NewLogger("error"),
		StopLoss: config.StopLossConfig{
			FixedRatio:    0.05,
			TrailingRatio: 0.05,
			CheckInterval: time.Hour,
		},
	}
}
