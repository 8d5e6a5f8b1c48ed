package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kirillm/solana-trade-bot/internal/domain"
)

// AdvisoryClient опрашивает внешний сервис-советник. Советник выдает
// рекомендацию buy/sell/neutral и используется trend-стратегией как
// первичный сигнал, если включен; при его отказе стратегия откатывается
// на локальный индикатор.
type AdvisoryClient struct {
	baseURL string
	client  *http.Client
}

type advisoryResponse struct {
	Signal string `json:"signal"`
}

func NewAdvisoryClient(baseURL string) *AdvisoryClient {
	return &AdvisoryClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetSignal возвращает рекомендацию советника по mint
func (a *AdvisoryClient) GetSignal(ctx context.Context, mint string) (string, error) {
	if a.baseURL == "" {
		return "", fmt.Errorf("%w: advisory API not configured", domain.ErrAdvisory)
	}

	url := fmt.Sprintf("%s?mint=%s", a.baseURL, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAdvisory, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAdvisory, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: advisory API returned %d", domain.ErrAdvisory, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAdvisory, err)
	}

	var parsed advisoryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: malformed advisory response: %v", domain.ErrAdvisory, err)
	}

	switch parsed.Signal {
	case domain.SignalBuy, domain.SignalSell, domain.SignalNeutral:
		return parsed.Signal, nil
	default:
		return "", fmt.Errorf("%w: unknown signal %q", domain.ErrAdvisory, parsed.Signal)
	}
}
