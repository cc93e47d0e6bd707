package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrConfirmationTimeout means the transaction was submitted but did
	// not reach a confirmed state within the caller's window.
	ErrConfirmationTimeout = errors.New("transaction not confirmed within timeout")

	// ErrTransactionFailed means the chain reported the transaction as
	// failed after execution.
	ErrTransactionFailed = errors.New("transaction failed on chain")
)

const confirmPollInterval = 500 * time.Millisecond

// Client is a thin wrapper over the chain's JSON-RPC read/submit surface.
type Client struct {
	rpcURL  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a ledger client. Submissions are paced with a token
// bucket so bursts of sends stay under the node's rate limit.
func NewClient(rpcURL string) *Client {
	return &Client{
		rpcURL:  rpcURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decode rpc %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc %s: %s (code %d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal rpc %s result: %w", method, err)
		}
	}
	return nil
}

// GetBalance returns the account's balance in lamports.
func (c *Client) GetBalance(ctx context.Context, address string) (int64, error) {
	var result struct {
		Value int64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", []any{address}, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// LatestBlockhash fetches a fresh ordering token. Each transaction from an
// account needs its own; reusing one across concurrent sends invalidates
// them.
func (c *Client) LatestBlockhash(ctx context.Context) (string, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", []any{}, &result); err != nil {
		return "", err
	}
	if result.Value.Blockhash == "" {
		return "", errors.New("node returned empty blockhash")
	}
	return result.Value.Blockhash, nil
}

// SendTransaction submits signed wire bytes and returns the transaction
// signature reported by the node.
func (c *Client) SendTransaction(ctx context.Context, wire string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("submission pacing: %w", err)
	}
	var signature string
	params := []any{wire, map[string]any{"encoding": "base58", "maxRetries": 3}}
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// ConfirmTransaction polls signature status until the transaction is
// confirmed, fails, or the timeout elapses.
func (c *Client) ConfirmTransaction(ctx context.Context, signature string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		status, err := c.signatureStatus(ctx, signature)
		if err != nil {
			if ctx.Err() != nil {
				return ErrConfirmationTimeout
			}
			zap.L().Debug("signature status check failed", zap.String("signature", signature), zap.Error(err))
		} else {
			switch {
			case status.failed:
				return fmt.Errorf("%w: %s", ErrTransactionFailed, status.errDetail)
			case status.confirmed:
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ErrConfirmationTimeout
		case <-ticker.C:
		}
	}
}

type signatureStatus struct {
	confirmed bool
	failed    bool
	errDetail string
}

func (c *Client) signatureStatus(ctx context.Context, signature string) (signatureStatus, error) {
	var result struct {
		Value []*struct {
			ConfirmationStatus string          `json:"confirmationStatus"`
			Err                json.RawMessage `json:"err"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getSignatureStatuses", []any{[]string{signature}}, &result); err != nil {
		return signatureStatus{}, err
	}
	if len(result.Value) == 0 || result.Value[0] == nil {
		return signatureStatus{}, nil
	}
	entry := result.Value[0]
	if len(entry.Err) > 0 && string(entry.Err) != "null" {
		return signatureStatus{failed: true, errDetail: string(entry.Err)}, nil
	}
	if entry.ConfirmationStatus == "confirmed" || entry.ConfirmationStatus == "finalized" {
		return signatureStatus{confirmed: true}, nil
	}
	return signatureStatus{}, nil
}
