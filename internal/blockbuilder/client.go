package blockbuilder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Bundle confirmation states reported by the block builder.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFinalized = "finalized"
	StatusUnknown   = "unknown"
)

// ErrRateLimited signals the block builder's endpoint is globally rate
// limited. The orchestrator treats this as a cue to degrade to sequential
// submission.
var ErrRateLimited = errors.New("block builder endpoint is rate limited")

// Client talks to the block builder's JSON-RPC bundle API.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		if strings.Contains(strings.ToLower(rpcResp.Error.Message), "rate limit") {
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("%s: %s (code %d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
	}
	return rpcResp.Result, nil
}

// SubmitBundle sends an ordered list of signed wire transactions for atomic
// inclusion and returns the bundle identifier.
func (c *Client) SubmitBundle(ctx context.Context, wireTxs []string) (string, error) {
	result, err := c.call(ctx, "sendBundle", []any{wireTxs})
	if err != nil {
		return "", err
	}
	var bundleID string
	if err := json.Unmarshal(result, &bundleID); err != nil || bundleID == "" {
		return "", fmt.Errorf("sendBundle returned no bundle id")
	}
	return bundleID, nil
}

// GetBundleStatus reports the confirmation state of a previously submitted
// bundle. A missing entry maps to StatusUnknown, not an error.
func (c *Client) GetBundleStatus(ctx context.Context, bundleID string) (string, error) {
	result, err := c.call(ctx, "getBundleStatuses", []any{[]string{bundleID}})
	if err != nil {
		return "", err
	}
	var parsed struct {
		Value []*struct {
			ConfirmationStatus string `json:"confirmation_status"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal bundle statuses: %w", err)
	}
	if len(parsed.Value) == 0 || parsed.Value[0] == nil || parsed.Value[0].ConfirmationStatus == "" {
		return StatusUnknown, nil
	}
	return parsed.Value[0].ConfirmationStatus, nil
}
