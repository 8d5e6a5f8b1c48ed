package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/kirillm/solana-trade-bot/internal/config"
	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/position"
	"github.com/kirillm/solana-trade-bot/internal/strategy"
	"github.com/kirillm/solana-trade-bot/pkg/utils"
)

const testMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

// idlePrices источник цен, который всегда отказывает: стратегии
// в тестах диспетчера не должны торговать
type idlePrices struct{}

func (idlePrices) GetPrice(ctx context.Context, mint, vsMint string) (float64, error) {
	return 0, domain.ErrFeed
}

type idleGateway struct{}

func (idleGateway) Submit(ctx context.Context, intent domain.TradeIntent) (*domain.Trade, error) {
	return nil, fmt.Errorf("%w: idle", domain.ErrExecution)
}

func (idleGateway) Balance(ctx context.Context, mint string) (float64, error) {
	return 0, nil
}

type idleAdvisory struct{}

func (idleAdvisory) GetSignal(ctx context.Context, mint string) (string, error) {
	return domain.SignalNeutral, nil
}

type idlePools struct{}

func (idlePools) Subscribe(mint string) <-chan domain.PoolEvent {
	return make(chan domain.PoolEvent)
}

func (idlePools) Unsubscribe(mint string, ch <-chan domain.PoolEvent) {}

func testDefaults() config.StrategyDefaults {
	return config.StrategyDefaults{
		Sniper: config.SniperConfig{ProfitTarget: 0.1, OrderSize: 1000},
		Grid: config.GridConfig{
			Levels:    []float64{0.000018, 0.000019, 0.00002, 0.000021},
			OrderSize: 1000,
			EvalEvery: time.Hour,
		},
		Trend: config.TrendConfig{
			Period:       14,
			RSIThreshold: 30,
			SampleEvery:  time.Hour,
			OrderSize:    1000,
		},
		StopLoss: config.StopLossConfig{
			FixedRatio:    0.05,
			TrailingRatio: 0.05,
			CheckInterval: time.Hour,
		},
	}
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	deps := strategy.Deps{
		Prices:   idlePrices{},
		Advisory: idleAdvisory{},
		Pools:    idlePools{},
		Gateway:  idleGateway{},
		Tracker:  position.NewTracker(),
		Logger:   utils.NewLogger("error"),
		StopLoss: testDefaults().StopLoss,
	}
	return NewDispatcher(ctx, deps, testDefaults(), utils.NewLogger("error"), nil)
}

func TestDispatcher_StartUnknownKind(t *testing.T) {
	d := newTestDispatcher(t)

	err := d.Start(testMint, "MARTINGALE")
	if !errors.Is(err, domain.ErrUnknownStrategy) {
		t.Errorf("Start() error = %v, want ErrUnknownStrategy", err)
	}
}

func TestDispatcher_StartIsIdempotent(t *testing.T) {
	d := newTestDispatcher(t)

	if err := d.Start(testMint, domain.StrategyGrid); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := d.Start(testMint, domain.StrategyGrid); err != nil {
		t.Fatalf("repeated Start() error = %v, want no-op", err)
	}

	kinds := d.ActiveKinds(testMint)
	if len(kinds) != 1 || kinds[0] != domain.StrategyGrid {
		t.Errorf("ActiveKinds() = %v, want [GRID]", kinds)
	}
}

func TestDispatcher_StartAll(t *testing.T) {
	d := newTestDispatcher(t)

	if err := d.StartAll(testMint); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}

	want := append([]string(nil), domain.StrategyKinds...)
	sort.Strings(want)

	got := d.ActiveKinds(testMint)
	if len(got) != len(want) {
		t.Fatalf("ActiveKinds() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("ActiveKinds()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDispatcher_StopInactive(t *testing.T) {
	d := newTestDispatcher(t)

	err := d.Stop(testMint)
	if !errors.Is(err, domain.ErrNotActive) {
		t.Errorf("Stop() error = %v, want ErrNotActive", err)
	}
}

func TestDispatcher_StopClearsMint(t *testing.T) {
	d := newTestDispatcher(t)

	if err := d.StartAll(testMint); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	if err := d.Stop(testMint); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if got := d.Active(); len(got) != 0 {
		t.Errorf("Active() = %v, want empty", got)
	}

	// после остановки стратегии можно запустить заново
	if err := d.Start(testMint, domain.StrategySniper); err != nil {
		t.Errorf("Start() after Stop() error = %v", err)
	}
}

func TestDispatcher_StopAll(t *testing.T) {
	d := newTestDispatcher(t)

	other := "So11111111111111111111111111111111111111112"
	if err := d.Start(testMint, domain.StrategyGrid); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := d.Start(other, domain.StrategyTrend); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	d.StopAll()
	if got := d.Active(); len(got) != 0 {
		t.Errorf("Active() after StopAll = %v, want empty", got)
	}
}

func TestDispatcher_SetParameter(t *testing.T) {
	d := newTestDispatcher(t)
	if err := d.Start(testMint, domain.StrategyGrid); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	tests := []struct {
		name    string
		mint    string
		kind    string
		key     string
		value   string
		wantErr error
	}{
		{"valid", testMint, domain.StrategyGrid, "order_size", "500", nil},
		{"unknown strategy kind", testMint, "MARTINGALE", "order_size", "500", domain.ErrUnknownStrategy},
		{"inactive pair", testMint, domain.StrategyTrend, "rsi_threshold", "25", domain.ErrNotActive},
		{"inactive mint", "UnknownMint1111111111111111111111111111111", domain.StrategyGrid, "order_size", "500", domain.ErrNotActive},
		{"unknown key routed to strategy", testMint, domain.StrategyGrid, "profit_target", "0.1", domain.ErrUnknownParameter},
		{"invalid value routed to strategy", testMint, domain.StrategyGrid, "order_size", "-5", domain.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.SetParameter(tt.mint, tt.kind, tt.key, tt.value)
			if tt.wantErr == nil && err != nil {
				t.Errorf("SetParameter() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("SetParameter() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
