package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillm/solana-trade-bot/internal/domain"
)

// CommandArgs разобранная команда оператора
type CommandArgs struct {
	Command  string
	Mint     string
	Strategy string
	Key      string
	Value    string
	Limit    int
	Reason   string
}

// defaultTradesLimit сколько сделок показывает /trades без аргумента
const defaultTradesLimit = 10

// ParseCommand разбирает текст команды оператора.
// Поддерживаются:
//
//	/start <mint> [strategy]
//	/stop <mint>
//	/balance <mint>
//	/status
//	/set_params <mint> <strategy> <key> <value>
//	/profit <mint>
//	/trades <mint> [limit]
//	/halt [reason...]
//	/resume
//	/help
func ParseCommand(text string) (*CommandArgs, error) {
	parts := strings.Fields(text)
	if len(parts) == 0 || !strings.HasPrefix(parts[0], "/") {
		return nil, fmt.Errorf("not a command")
	}

	command := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	args := &CommandArgs{Command: command}

	switch command {
	case "status", "resume", "help":
		return args, nil

	case "halt":
		args.Reason = strings.Join(parts[1:], " ")
		if args.Reason == "" {
			args.Reason = "manual halt"
		}
		return args, nil

	case "start":
		if len(parts) < 2 {
			return nil, fmt.Errorf("usage: /start <mint> [strategy]")
		}
		args.Mint = parts[1]
		if len(parts) >= 3 {
			strategy, err := parseStrategy(parts[2])
			if err != nil {
				return nil, err
			}
			args.Strategy = strategy
		}
		return args, nil

	case "stop", "balance", "profit":
		if len(parts) < 2 {
			return nil, fmt.Errorf("usage: /%s <mint>", command)
		}
		args.Mint = parts[1]
		return args, nil

	case "trades":
		if len(parts) < 2 {
			return nil, fmt.Errorf("usage: /trades <mint> [limit]")
		}
		args.Mint = parts[1]
		args.Limit = defaultTradesLimit
		if len(parts) >= 3 {
			limit, err := strconv.Atoi(parts[2])
			if err != nil || limit <= 0 {
				return nil, fmt.Errorf("invalid limit: %s", parts[2])
			}
			args.Limit = limit
		}
		return args, nil

	case "set_params":
		if len(parts) != 5 {
			return nil, fmt.Errorf("usage: /set_params <mint> <strategy> <key> <value>")
		}
		strategy, err := parseStrategy(parts[2])
		if err != nil {
			return nil, err
		}
		args.Mint = parts[1]
		args.Strategy = strategy
		args.Key = strings.ToLower(parts[3])
		args.Value = parts[4]
		return args, nil

	default:
		return nil, fmt.Errorf("unknown command: /%s", command)
	}
}

// parseStrategy принимает имя стратегии в любом регистре
func parseStrategy(s string) (string, error) {
	switch strings.ToUpper(s) {
	case domain.StrategySniper:
		return domain.StrategySniper, nil
	case domain.StrategyGrid:
		return domain.StrategyGrid, nil
	case domain.StrategyTrend:
		return domain.StrategyTrend, nil
	default:
		return "", fmt.Errorf("unknown strategy: %s", s)
	}
}
