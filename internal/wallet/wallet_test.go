package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mr-tron/base58"

	"github.com/kirillm/solana-trade-bot/internal/domain"
)

const testMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

func testKeyBase58(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return base58.Encode(priv)
}

func TestNewWallet(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid keypair", "", false}, // ключ генерируется в тесте
		{"not base58", "l0IO", true},
		{"wrong length", base58.Encode([]byte("short")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := tt.key
			if key == "" {
				key = testKeyBase58(t)
			}
			w, err := NewWallet("http://localhost:8899", key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWallet() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && w.PublicKey() == "" {
				t.Error("PublicKey() is empty")
			}
		})
	}
}

// rpcHandler отвечает на JSON-RPC методы из таблицы
func rpcHandler(t *testing.T, responses map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("malformed RPC request: %v", err)
		}
		result, ok := responses[req.Method]
		if !ok {
			t.Fatalf("unexpected RPC method %q", req.Method)
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}
}

func TestWallet_GetTokenBalance(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"getTokenAccountsByOwner": `{"value":[{"pubkey":"TokenAccount111"}]}`,
		"getTokenAccountBalance":  `{"value":{"uiAmount":1234.5}}`,
	}))
	defer server.Close()

	w, err := NewWallet(server.URL, testKeyBase58(t))
	if err != nil {
		t.Fatal(err)
	}

	balance, err := w.GetTokenBalance(context.Background(), testMint)
	if err != nil {
		t.Fatalf("GetTokenBalance() error = %v", err)
	}
	if balance != 1234.5 {
		t.Errorf("GetTokenBalance() = %v, want 1234.5", balance)
	}
}

func TestWallet_GetTokenBalanceNoAccount(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"getTokenAccountsByOwner": `{"value":[]}`,
	}))
	defer server.Close()

	w, err := NewWallet(server.URL, testKeyBase58(t))
	if err != nil {
		t.Fatal(err)
	}

	balance, err := w.GetTokenBalance(context.Background(), testMint)
	if err != nil {
		t.Fatalf("GetTokenBalance() error = %v", err)
	}
	if balance != 0 {
		t.Errorf("GetTokenBalance() = %v, want 0 for missing account", balance)
	}
}

func TestWallet_RPCErrorWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32005,"message":"node is behind"}}`))
	}))
	defer server.Close()

	w, err := NewWallet(server.URL, testKeyBase58(t))
	if err != nil {
		t.Fatal(err)
	}

	_, err = w.GetTokenBalance(context.Background(), testMint)
	if !errors.Is(err, domain.ErrExecution) {
		t.Errorf("GetTokenBalance() error = %v, want wrapped ErrExecution", err)
	}
}

func TestWallet_SendTransaction(t *testing.T) {
	blockhash := base58.Encode(make([]byte, 32))
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"getLatestBlockhash":   `{"value":{"blockhash":"` + blockhash + `"}}`,
		"sendTransaction":      `"sig111"`,
		"getSignatureStatuses": `{"value":[{"confirmationStatus":"confirmed","err":null}]}`,
	}))
	defer server.Close()

	w, err := NewWallet(server.URL, testKeyBase58(t))
	if err != nil {
		t.Fatal(err)
	}

	sig, err := w.SendTransaction(context.Background(), []byte{9, 0, 0})
	if err != nil {
		t.Fatalf("SendTransaction() error = %v", err)
	}
	if sig != "sig111" {
		t.Errorf("SendTransaction() = %v, want sig111", sig)
	}
}

func TestWallet_SendTransactionFailedOnChain(t *testing.T) {
	blockhash := base58.Encode(make([]byte, 32))
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"getLatestBlockhash":   `{"value":{"blockhash":"` + blockhash + `"}}`,
		"sendTransaction":      `"sig111"`,
		"getSignatureStatuses": `{"value":[{"confirmationStatus":"confirmed","err":{"InstructionError":[0,"Custom"]}}]}`,
	}))
	defer server.Close()

	w, err := NewWallet(server.URL, testKeyBase58(t))
	if err != nil {
		t.Fatal(err)
	}

	_, err = w.SendTransaction(context.Background(), []byte{9})
	if !errors.Is(err, domain.ErrExecution) {
		t.Errorf("SendTransaction() error = %v, want wrapped ErrExecution", err)
	}
}
