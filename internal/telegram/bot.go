package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/executor"
	"github.com/kirillm/solana-trade-bot/internal/ledger"
	"github.com/kirillm/solana-trade-bot/internal/manager"
	"github.com/kirillm/solana-trade-bot/internal/strategy"
	"github.com/kirillm/solana-trade-bot/pkg/utils"
)

const helpText = `Available commands:
/start <mint> [sniper|grid|trend] - start strategies for a token
/stop <mint> - stop strategies and guards for a token
/balance <mint> - wallet balance for a token
/status - active tokens and strategies
/set_params <mint> <strategy> <key> <value> - tune a running strategy
/profit <mint> - realized + unrealized profit
/trades <mint> [limit] - recent trades
/halt [reason] - emergency stop, reject all submissions
/resume - clear emergency stop
/help - this message`

// Bot консоль оператора. Принимает команды только из настроенного чата.
type Bot struct {
	api        *tgbotapi.BotAPI
	chatID     int64
	logger     *utils.Logger
	dispatcher *manager.Dispatcher
	exec       *executor.Executor
	ledger     *ledger.Ledger
	prices     strategy.PriceSource
}

func NewBot(
	token string,
	chatID int64,
	logger *utils.Logger,
	dispatcher *manager.Dispatcher,
	exec *executor.Executor,
	ldg *ledger.Ledger,
	prices strategy.PriceSource,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Telegram bot authorized: @%s", api.Self.UserName)

	return &Bot{
		api:        api,
		chatID:     chatID,
		logger:     logger,
		dispatcher: dispatcher,
		exec:       exec,
		ledger:     ldg,
		prices:     prices,
	}, nil
}

// SendMessage отправляет сообщение в чат оператора
func (b *Bot) SendMessage(text string) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send telegram message: %v", err)
	}
}

// Start крутит цикл обработки сообщений до отмены контекста
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.SendMessage("🤖 Solana trade bot started!\nUse /help to see available commands.")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}

			// Команды принимаются только от владельца чата
			if update.Message.Chat.ID != b.chatID {
				b.logger.Warn("Ignoring message from unauthorized chat %d", update.Message.Chat.ID)
				continue
			}

			b.handleMessage(ctx, update.Message.Text)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, text string) {
	args, err := ParseCommand(text)
	if err != nil {
		b.SendMessage(fmt.Sprintf("❌ %v\nUse /help to see available commands.", err))
		return
	}

	// Не даем одному медленному запросу повесить консоль
	ctx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	switch args.Command {
	case "help":
		b.SendMessage(helpText)
	case "start":
		b.handleStart(args)
	case "stop":
		b.handleStop(args)
	case "balance":
		b.handleBalance(ctx, args)
	case "status":
		b.handleStatus()
	case "set_params":
		b.handleSetParams(args)
	case "profit":
		b.handleProfit(ctx, args)
	case "trades":
		b.handleTrades(args)
	case "halt":
		b.exec.KillSwitch().Activate(args.Reason)
		b.SendMessage(fmt.Sprintf("🚨 Trading halted: %s", args.Reason))
	case "resume":
		b.exec.KillSwitch().Deactivate()
		b.SendMessage("✅ Trading resumed")
	}
}

func (b *Bot) handleStart(args *CommandArgs) {
	var err error
	if args.Strategy != "" {
		err = b.dispatcher.Start(args.Mint, args.Strategy)
	} else {
		err = b.dispatcher.StartAll(args.Mint)
	}
	if err != nil {
		b.SendMessage(fmt.Sprintf("❌ Failed to start: %v", err))
		return
	}
	b.SendMessage(fmt.Sprintf("▶️ Started strategies for %s", args.Mint))
}

func (b *Bot) handleStop(args *CommandArgs) {
	if err := b.dispatcher.Stop(args.Mint); err != nil {
		b.SendMessage(fmt.Sprintf("❌ Failed to stop: %v", err))
		return
	}
	b.SendMessage(fmt.Sprintf("⏹ Stopped strategies for %s", args.Mint))
}

func (b *Bot) handleBalance(ctx context.Context, args *CommandArgs) {
	balance, err := b.exec.Balance(ctx, args.Mint)
	if err != nil {
		b.SendMessage(fmt.Sprintf("❌ Failed to get balance: %v", err))
		return
	}
	b.SendMessage(fmt.Sprintf("Balance for %s: %.6f tokens", args.Mint, balance))
}

func (b *Bot) handleStatus() {
	active := b.dispatcher.Active()
	if len(active) == 0 {
		b.SendMessage("No active strategies")
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Active tokens:\n")
	for _, mint := range active {
		kinds := b.dispatcher.ActiveKinds(mint)
		sb.WriteString(fmt.Sprintf("%s: %s\n", mint, strings.Join(kinds, ", ")))
	}

	if halted, reason, _ := b.exec.KillSwitch().Status(); halted {
		sb.WriteString(fmt.Sprintf("\n🚨 Trading halted: %s", reason))
	}

	b.SendMessage(sb.String())
}

func (b *Bot) handleSetParams(args *CommandArgs) {
	if err := b.dispatcher.SetParameter(args.Mint, args.Strategy, args.Key, args.Value); err != nil {
		b.SendMessage(fmt.Sprintf("❌ Failed to set parameter: %v", err))
		return
	}
	b.SendMessage(fmt.Sprintf("✅ Set %s=%s for %s on %s", args.Key, args.Value, args.Strategy, args.Mint))
}

func (b *Bot) handleProfit(ctx context.Context, args *CommandArgs) {
	currentPrice, err := b.prices.GetPrice(ctx, args.Mint, domain.QuoteMintSOL)
	if err != nil {
		b.SendMessage(fmt.Sprintf("❌ Failed to get price: %v", err))
		return
	}

	profit, percentage, err := b.ledger.Profit(args.Mint, currentPrice)
	if err != nil {
		b.SendMessage(fmt.Sprintf("❌ Failed to compute profit: %v", err))
		return
	}

	b.SendMessage(fmt.Sprintf("Profit for %s: %.6f SOL (%.2f%%)", args.Mint, profit, percentage))
}

func (b *Bot) handleTrades(args *CommandArgs) {
	trades, err := b.ledger.Recent(args.Mint, args.Limit)
	if err != nil {
		b.SendMessage(fmt.Sprintf("❌ Failed to load trades: %v", err))
		return
	}
	if len(trades) == 0 {
		b.SendMessage(fmt.Sprintf("No trades for %s", args.Mint))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Recent trades for %s:\n", args.Mint))
	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s %s %.6f @ %.12f (%s)\n",
			t.CreatedAt.Format("01-02 15:04"), t.Side, t.Quantity, t.Price, t.Strategy))
	}
	b.SendMessage(sb.String())
}
