package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/kirillm/solana-trade-bot/internal/domain"
)

const testMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

func buy(price, qty float64) domain.Trade {
	return domain.Trade{Mint: testMint, Side: domain.SideBuy, Price: price, Quantity: qty}
}

func sell(price, qty float64) domain.Trade {
	return domain.Trade{Mint: testMint, Side: domain.SideSell, Price: price, Quantity: qty}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeProfit(t *testing.T) {
	tests := []struct {
		name         string
		trades       []domain.Trade
		currentPrice float64
		wantProfit   float64
		wantPercent  float64
	}{
		{
			name:         "no trades",
			trades:       nil,
			currentPrice: 100,
			wantProfit:   0,
			wantPercent:  0,
		},
		{
			name:         "single buy held",
			trades:       []domain.Trade{buy(100, 10)},
			currentPrice: 110,
			wantProfit:   100,
			wantPercent:  10,
		},
		{
			name:         "buy then partial sell",
			trades:       []domain.Trade{buy(100, 10), sell(120, 4)},
			currentPrice: 130,
			// net cost 1000-480=520, net qty 6, value 780
			wantProfit:  260,
			wantPercent: 50,
		},
		{
			name:         "fully closed at profit",
			trades:       []domain.Trade{buy(100, 10), sell(120, 10)},
			currentPrice: 90,
			// net qty 0, net cost -200: realized profit, percent undefined
			wantProfit:  200,
			wantPercent: 0,
		},
		{
			name:         "held at loss",
			trades:       []domain.Trade{buy(100, 10)},
			currentPrice: 80,
			wantProfit:   -200,
			wantPercent:  -20,
		},
		{
			name:         "reopened after close",
			trades:       []domain.Trade{buy(100, 10), sell(110, 10), buy(105, 5)},
			currentPrice: 105,
			// net cost 1000-1100+525=425, net qty 5, value 525
			wantProfit:  100,
			wantPercent: 100.0 / 425.0 * 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profit, percent := ComputeProfit(tt.trades, tt.currentPrice)
			if !almostEqual(profit, tt.wantProfit) {
				t.Errorf("ComputeProfit() profit = %v, want %v", profit, tt.wantProfit)
			}
			if !almostEqual(percent, tt.wantPercent) {
				t.Errorf("ComputeProfit() percent = %v, want %v", percent, tt.wantPercent)
			}
		})
	}
}

type fakeStore struct {
	saved   []domain.Trade
	saveErr error
}

func (f *fakeStore) Save(trade *domain.Trade) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, *trade)
	return nil
}

func (f *fakeStore) GetRecent(mint string, limit int) ([]domain.Trade, error) {
	if len(f.saved) <= limit {
		return f.saved, nil
	}
	return f.saved[len(f.saved)-limit:], nil
}

func (f *fakeStore) GetAllByMint(mint string) ([]domain.Trade, error) {
	return f.saved, nil
}

func TestLedger_Record(t *testing.T) {
	store := &fakeStore{}
	l := New(store)

	trade := buy(0.00002, 1000)
	if err := l.Record(&trade); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("Record() saved %d trades, want 1", len(store.saved))
	}
}

func TestLedger_RecordStorageError(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("connection refused")}
	l := New(store)

	trade := buy(0.00002, 1000)
	err := l.Record(&trade)
	if err == nil {
		t.Fatal("Record() error = nil, want storage error")
	}
	if !errors.Is(err, domain.ErrStorage) {
		t.Errorf("Record() error = %v, want wrapped ErrStorage", err)
	}
}

func TestLedger_Profit(t *testing.T) {
	store := &fakeStore{saved: []domain.Trade{buy(100, 10), sell(120, 4)}}
	l := New(store)

	profit, percent, err := l.Profit(testMint, 130)
	if err != nil {
		t.Fatalf("Profit() error = %v", err)
	}
	if !almostEqual(profit, 260) || !almostEqual(percent, 50) {
		t.Errorf("Profit() = (%v, %v), want (260, 50)", profit, percent)
	}
}
