package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/metrics"
	"github.com/kirillm/solana-trade-bot/pkg/utils"
)

// Venue интерфейс исполнения: подпись и отправка транзакции,
// запрос баланса. Реализуется wallet.Wallet.
type Venue interface {
	SendTransaction(ctx context.Context, instruction []byte) (string, error)
	GetTokenBalance(ctx context.Context, mint string) (float64, error)
}

// Recorder интерфейс журнала сделок
type Recorder interface {
	Record(trade *domain.Trade) error
}

// Quoter свежая котировка рынка для pre-trade проверки slippage
type Quoter interface {
	GetPrice(ctx context.Context, mint, vsMint string) (float64, error)
}

// Executor единственная точка отправки сделок в сеть. Все стратегии и
// стоп-лоссы делят один подписывающий ключ, поэтому отправки строго
// сериализованы: одна in-flight транзакция за раз, конкурентные
// вызовы ждут в очереди на мьютексе, а не гонятся за blockhash.
type Executor struct {
	venue      Venue
	ledger     Recorder
	quoter     Quoter
	slippage   *SlippageGuard
	killSwitch *KillSwitch
	logger     *utils.Logger
	notifyFunc func(string)

	mu sync.Mutex // держится на всю последовательность sign-submit-confirm-record
}

func New(venue Venue, ledger Recorder, quoter Quoter, logger *utils.Logger, notifyFunc func(string)) *Executor {
	return &Executor{
		venue:      venue,
		ledger:     ledger,
		quoter:     quoter,
		slippage:   NewSlippageGuard(1.0),
		killSwitch: NewKillSwitch(),
		logger:     logger,
		notifyFunc: notifyFunc,
	}
}

// KillSwitch возвращает аварийный выключатель executor
func (e *Executor) KillSwitch() *KillSwitch {
	return e.killSwitch
}

// SetSlippageThreshold устанавливает порог проскальзывания в процентах
func (e *Executor) SetSlippageThreshold(percent float64) {
	e.slippage.SetThreshold(percent)
}

// Submit отправляет intent в сеть и записывает результат в журнал.
// При отказе сети журнал не трогается и возвращается типизированная
// ошибка. При успехе сети и отказе журнала запись повторяется один раз,
// затем поднимается ErrUnrecordedTrade: сделка реальна, но не учтена.
func (e *Executor) Submit(ctx context.Context, intent domain.TradeIntent) (*domain.Trade, error) {
	if err := validateIntent(intent); err != nil {
		return nil, err
	}

	if e.killSwitch.IsActive() {
		metrics.Submissions.WithLabelValues(intent.Side, "rejected").Inc()
		return nil, fmt.Errorf("%w: kill switch active", domain.ErrExecution)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Продажа сверх остатка гарантированно провалится в сети,
	// отсекаем ее до подписи. Отказ проверки баланса не блокирует:
	// пусть решает сеть.
	if intent.Side == domain.SideSell {
		balance, err := e.venue.GetTokenBalance(ctx, intent.Mint)
		if err == nil && balance < intent.Quantity {
			metrics.Submissions.WithLabelValues(intent.Side, "rejected").Inc()
			return nil, fmt.Errorf("%w: have %.6f, need %.6f", domain.ErrInsufficientBalance, balance, intent.Quantity)
		}
	}

	// Цена рынка могла уйти от целевой, пока intent стоял в очереди.
	// Котировка недоступна — подпись продолжается: min_amount_out
	// в инструкции ограничивает исполнение на стороне сети.
	if intent.Price > 0 {
		quote, err := e.quoter.GetPrice(ctx, intent.Mint, domain.QuoteMintSOL)
		if err != nil {
			e.logger.Warn("Slippage pre-check skipped for %s: %v", intent.Mint, err)
		} else if err := e.slippage.Check(quote, intent.Price); err != nil {
			metrics.Submissions.WithLabelValues(intent.Side, "rejected").Inc()
			e.logger.Warn("Submission rejected: %s %s target %.12f, market %.12f: %v",
				intent.Side, intent.Mint, intent.Price, quote, err)
			return nil, err
		}
	}

	instruction := encodeSwapInstruction(intent, e.slippage.Threshold())

	signature, err := e.venue.SendTransaction(ctx, instruction)
	if err != nil {
		metrics.Submissions.WithLabelValues(intent.Side, "rejected").Inc()
		e.logger.Error("Submission rejected: %s %s %.6f: %v", intent.Side, intent.Mint, intent.Quantity, err)
		return nil, err
	}

	trade := &domain.Trade{
		Mint:      intent.Mint,
		Side:      intent.Side,
		Quantity:  intent.Quantity,
		Price:     intent.Price,
		Amount:    intent.Quantity * intent.Price,
		Signature: signature,
		IntentID:  uuid.NewString(),
		Strategy:  intent.Strategy,
		CreatedAt: time.Now(),
	}

	metrics.Submissions.WithLabelValues(intent.Side, "confirmed").Inc()
	e.logger.Info("%s %s %.6f tokens at %.12f (tx: %s)", intent.Side, intent.Mint, intent.Quantity, intent.Price, signature)

	if err := e.record(trade); err != nil {
		return trade, err
	}

	if e.notifyFunc != nil {
		e.notifyFunc(fmt.Sprintf("%s %s %.6f tokens at %.12f SOL\nTx: %s",
			intent.Side, intent.Mint, intent.Quantity, intent.Price, signature))
	}

	return trade, nil
}

// record пишет сделку в журнал с одним повтором. Отказ после повтора —
// самый опасный случай: транзакция в сети прошла, учет поврежден.
func (e *Executor) record(trade *domain.Trade) error {
	err := e.ledger.Record(trade)
	if err == nil {
		return nil
	}

	e.logger.Warn("Ledger write failed for tx %s, retrying: %v", trade.Signature, err)
	if err = e.ledger.Record(trade); err == nil {
		return nil
	}

	metrics.LedgerWriteFailures.Inc()
	e.logger.Error("ALERT: trade %s confirmed on chain but not recorded: %v", trade.Signature, err)
	if e.notifyFunc != nil {
		e.notifyFunc(fmt.Sprintf("🚨 ALERT: trade confirmed on chain but NOT recorded in ledger!\n"+
			"Tx: %s\n%s %s %.6f at %.12f\nProfit accounting is inconsistent until fixed manually.",
			trade.Signature, trade.Side, trade.Mint, trade.Quantity, trade.Price))
	}
	return fmt.Errorf("%w: tx %s: %v", domain.ErrUnrecordedTrade, trade.Signature, err)
}

// Balance возвращает баланс токена на кошельке
func (e *Executor) Balance(ctx context.Context, mint string) (float64, error) {
	return e.venue.GetTokenBalance(ctx, mint)
}

func validateIntent(intent domain.TradeIntent) error {
	if intent.Mint == "" {
		return fmt.Errorf("%w: empty mint", domain.ErrExecution)
	}
	if intent.Side != domain.SideBuy && intent.Side != domain.SideSell {
		return fmt.Errorf("%w: invalid side %q", domain.ErrExecution, intent.Side)
	}
	if intent.Quantity <= 0 {
		return fmt.Errorf("%w: non-positive quantity %.6f", domain.ErrExecution, intent.Quantity)
	}
	return nil
}
