package wallet

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mr-tron/base58"

	"github.com/kirillm/solana-trade-bot/internal/domain"
)

// Wallet владеет единственным подписывающим ключом процесса и его
// соединением с RPC нодой. Создается один раз при старте и передается
// по указателю; ключ никогда не дублируется между задачами.
type Wallet struct {
	endpoint string
	client   *http.Client
	priv     ed25519.PrivateKey
	pubkey   string
	reqID    atomic.Int64
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// NewWallet создает кошелек из base58-кодированного 64-байтового
// ed25519 ключа (seed + public key, стандартный формат solana keypair)
func NewWallet(endpoint, privateKeyBase58 string) (*Wallet, error) {
	raw, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: %d", len(raw))
	}

	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)

	return &Wallet{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		priv:     priv,
		pubkey:   base58.Encode(pub),
	}, nil
}

// PublicKey возвращает base58 адрес кошелька
func (w *Wallet) PublicKey() string {
	return w.pubkey
}

// SendTransaction подписывает инструкцию свежим blockhash, отправляет
// транзакцию и ждет подтверждения. Кодирование инструкции под конкретную
// DEX-программу — забота вызывающего, здесь она непрозрачный blob.
// Вызывается только из executor, который сериализует все отправки.
func (w *Wallet) SendTransaction(ctx context.Context, instruction []byte) (string, error) {
	blockhash, err := w.latestBlockhash(ctx)
	if err != nil {
		return "", err
	}

	message := make([]byte, 0, len(blockhash)+len(instruction))
	message = append(message, blockhash...)
	message = append(message, instruction...)

	sig := ed25519.Sign(w.priv, message)

	tx := make([]byte, 0, len(sig)+len(message))
	tx = append(tx, sig...)
	tx = append(tx, message...)

	var signature string
	err = w.call(ctx, "sendTransaction", []interface{}{
		base64.StdEncoding.EncodeToString(tx),
		map[string]interface{}{"encoding": "base64", "preflightCommitment": domain.CommitmentLevel},
	}, &signature)
	if err != nil {
		return "", err
	}

	if err := w.awaitConfirmation(ctx, signature); err != nil {
		return "", err
	}

	return signature, nil
}

// GetTokenBalance возвращает баланс токена в ui-единицах
func (w *Wallet) GetTokenBalance(ctx context.Context, mint string) (float64, error) {
	var accounts struct {
		Value []struct {
			Pubkey string `json:"pubkey"`
		} `json:"value"`
	}
	err := w.call(ctx, "getTokenAccountsByOwner", []interface{}{
		w.pubkey,
		map[string]string{"mint": mint},
		map[string]string{"encoding": "jsonParsed"},
	}, &accounts)
	if err != nil {
		return 0, err
	}

	if len(accounts.Value) == 0 {
		return 0, nil
	}

	var balance struct {
		Value struct {
			UIAmount *float64 `json:"uiAmount"`
		} `json:"value"`
	}
	err = w.call(ctx, "getTokenAccountBalance", []interface{}{accounts.Value[0].Pubkey}, &balance)
	if err != nil {
		return 0, err
	}

	if balance.Value.UIAmount == nil {
		return 0, nil
	}
	return *balance.Value.UIAmount, nil
}

func (w *Wallet) latestBlockhash(ctx context.Context) ([]byte, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	err := w.call(ctx, "getLatestBlockhash", []interface{}{
		map[string]string{"commitment": domain.CommitmentLevel},
	}, &result)
	if err != nil {
		return nil, err
	}

	raw, err := base58.Decode(result.Value.Blockhash)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed blockhash: %v", domain.ErrExecution, err)
	}
	return raw, nil
}

// awaitConfirmation опрашивает статус подписи до подтверждения или таймаута
func (w *Wallet) awaitConfirmation(ctx context.Context, signature string) error {
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		var status struct {
			Value []*struct {
				ConfirmationStatus string      `json:"confirmationStatus"`
				Err                interface{} `json:"err"`
			} `json:"value"`
		}
		err := w.call(ctx, "getSignatureStatuses", []interface{}{[]string{signature}}, &status)
		if err != nil {
			return err
		}

		if len(status.Value) > 0 && status.Value[0] != nil {
			s := status.Value[0]
			if s.Err != nil {
				return fmt.Errorf("%w: transaction %s failed on chain", domain.ErrExecution, signature)
			}
			if s.ConfirmationStatus == domain.CommitmentLevel || s.ConfirmationStatus == "finalized" {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrExecution, ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	return fmt.Errorf("%w: confirmation timeout for %s", domain.ErrExecution, signature)
}

func (w *Wallet) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      w.reqID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExecution, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExecution, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExecution, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExecution, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("%w: malformed RPC response: %v", domain.ErrExecution, err)
	}

	if rpcResp.Error != nil {
		return fmt.Errorf("%w: RPC %s: %s (code %d)", domain.ErrExecution, method, rpcResp.Error.Message, rpcResp.Error.Code)
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrExecution, err)
		}
	}

	return nil
}
