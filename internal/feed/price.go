package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillm/solana-trade-bot/internal/domain"
)

// PriceClient получает котировки через quote-агрегатор (Jupiter).
// Запросы ограничены по частоте, чтобы не упираться в лимиты API.
type PriceClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

type quoteResponse struct {
	Data []struct {
		OutAmount float64 `json:"outAmount"`
	} `json:"data"`
}

func NewPriceClient(baseURL string, requestsPerSecond float64) *PriceClient {
	return &PriceClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// GetPrice возвращает цену mint в единицах vsMint. Любая сетевая или
// форматная проблема заворачивается в domain.ErrFeed: вызывающий
// пропускает цикл, а не падает.
func (p *PriceClient) GetPrice(ctx context.Context, mint, vsMint string) (float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrFeed, err)
	}

	url := fmt.Sprintf("%s?inputMint=%s&outputMint=%s&amount=%d",
		p.baseURL, mint, vsMint, domain.QuoteProbeAmount)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrFeed, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrFeed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: quote API returned %d", domain.ErrFeed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrFeed, err)
	}

	var quote quoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return 0, fmt.Errorf("%w: malformed quote response: %v", domain.ErrFeed, err)
	}

	if len(quote.Data) == 0 {
		return 0, fmt.Errorf("%w: empty quote for %s", domain.ErrFeed, mint)
	}

	return quote.Data[0].OutAmount / float64(domain.QuoteProbeAmount), nil
}
