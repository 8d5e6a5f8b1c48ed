package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillm/solana-trade-bot/internal/domain"
)

const testMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

func TestPriceClient_GetPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("inputMint"); got != testMint {
			t.Errorf("inputMint = %v, want %v", got, testMint)
		}
		if got := r.URL.Query().Get("outputMint"); got != domain.QuoteMintSOL {
			t.Errorf("outputMint = %v, want %v", got, domain.QuoteMintSOL)
		}
		w.Write([]byte(`{"data":[{"outAmount":20}]}`))
	}))
	defer server.Close()

	client := NewPriceClient(server.URL, 100)
	price, err := client.GetPrice(context.Background(), testMint, domain.QuoteMintSOL)
	if err != nil {
		t.Fatalf("GetPrice() error = %v", err)
	}

	want := 20.0 / float64(domain.QuoteProbeAmount)
	if price != want {
		t.Errorf("GetPrice() = %v, want %v", price, want)
	}
}

func TestPriceClient_GetPriceErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data":`))
			},
		},
		{
			name: "empty quote",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data":[]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewPriceClient(server.URL, 100)
			_, err := client.GetPrice(context.Background(), testMint, domain.QuoteMintSOL)
			if !errors.Is(err, domain.ErrFeed) {
				t.Errorf("GetPrice() error = %v, want wrapped ErrFeed", err)
			}
		})
	}
}

func TestAdvisoryClient_GetSignal(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"buy", `{"signal":"buy"}`, domain.SignalBuy, false},
		{"sell", `{"signal":"sell"}`, domain.SignalSell, false},
		{"neutral", `{"signal":"neutral"}`, domain.SignalNeutral, false},
		{"unknown signal", `{"signal":"hodl"}`, "", true},
		{"malformed", `{"signal"`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewAdvisoryClient(server.URL)
			got, err := client.GetSignal(context.Background(), testMint)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetSignal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, domain.ErrAdvisory) {
					t.Errorf("GetSignal() error = %v, want wrapped ErrAdvisory", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("GetSignal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdvisoryClient_NotConfigured(t *testing.T) {
	client := NewAdvisoryClient("")
	if _, err := client.GetSignal(context.Background(), testMint); !errors.Is(err, domain.ErrAdvisory) {
		t.Errorf("GetSignal() error = %v, want ErrAdvisory", err)
	}
}
