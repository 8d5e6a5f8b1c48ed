package executor

import (
	"encoding/binary"
	"math"

	"github.com/kirillm/solana-trade-bot/internal/domain"
)

// swapInstructionID идентификатор swap-инструкции AMM программы
const swapInstructionID = 9

// lamportScale перевод ui-количества в минимальные единицы
const lamportScale = 1_000_000

// encodeSwapInstruction собирает данные swap-инструкции:
// [instruction_id, amount_in (u64 LE), min_amount_out (u64 LE)].
// minAmountOut выводится из целевой цены intent и допустимого
// проскальзывания; при нулевой целевой цене ограничение не ставится.
func encodeSwapInstruction(intent domain.TradeIntent, slippageThresholdPercent float64) []byte {
	amountIn := uint64(math.Round(intent.Quantity * lamportScale))

	var minOut uint64
	if intent.Price > 0 {
		worstPrice := intent.Price * (1 - slippageThresholdPercent/100)
		if intent.Side == domain.SideBuy {
			worstPrice = intent.Price * (1 + slippageThresholdPercent/100)
		}
		minOut = uint64(math.Round(intent.Quantity * worstPrice * lamportScale))
	}

	data := make([]byte, 17)
	data[0] = swapInstructionID
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], minOut)
	return data
}
