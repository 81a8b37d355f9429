// Package facilitator is the gateway's adapter to the external payment
// facilitator. The facilitator validates payment proofs against the chain
// and settles them; this package wraps that service behind a typed
// interface and fails closed on anything ambiguous.
package facilitator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ankushKun/x402bay/internal/x402"
)

// Interface is the payment verification contract the gateway depends on.
type Interface interface {
	// Verify checks a payment proof against a challenge without
	// executing the transaction.
	Verify(ctx context.Context, proof x402.PaymentPayload, challenge x402.PaymentChallenge) (*x402.VerifyResponse, error)

	// Settle executes a verified payment on chain. Only a nil error with
	// Success true grants entitlement; every other outcome denies.
	Settle(ctx context.Context, proof x402.PaymentPayload, challenge x402.PaymentChallenge) (*x402.SettlementResponse, error)
}

// TimeoutConfig holds timeouts for facilitator operations.
type TimeoutConfig struct {
	// VerifyTimeout is the maximum time to wait for proof verification.
	VerifyTimeout time.Duration

	// SettleTimeout is the maximum time to wait for on-chain settlement.
	SettleTimeout time.Duration

	// RequestTimeout is the overall timeout for HTTP requests.
	RequestTimeout time.Duration
}

// DefaultTimeouts provides sensible defaults. Settlement may involve a
// chain confirmation and gets the long budget.
var DefaultTimeouts = TimeoutConfig{
	VerifyTimeout:  5 * time.Second,
	SettleTimeout:  60 * time.Second,
	RequestTimeout: 120 * time.Second,
}

// Validate ensures timeout values are usable.
func (tc TimeoutConfig) Validate() error {
	if tc.VerifyTimeout <= 0 {
		return fmt.Errorf("verify timeout must be positive, got %v", tc.VerifyTimeout)
	}
	if tc.SettleTimeout <= 0 {
		return fmt.Errorf("settle timeout must be positive, got %v", tc.SettleTimeout)
	}
	if tc.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %v", tc.RequestTimeout)
	}
	return nil
}

// Client talks to an x402 facilitator over HTTP.
type Client struct {
	// BaseURL is the facilitator service URL (e.g. "https://x402.org/facilitator").
	BaseURL string

	// Client is the HTTP client to use. If nil, http.DefaultClient is used.
	Client *http.Client

	// Timeouts contains timeout configuration for payment operations.
	Timeouts TimeoutConfig

	// Authorization is an optional static Authorization header value
	// (e.g. "Bearer api-key") sent with every facilitator request.
	Authorization string
}

var _ Interface = (*Client)(nil)

// request is the envelope posted to /verify and /settle.
type request struct {
	X402Version         int                   `json:"x402Version"`
	PaymentPayload      x402.PaymentPayload   `json:"paymentPayload"`
	PaymentRequirements x402.PaymentChallenge `json:"paymentRequirements"`
}

func (c *Client) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

// Verify checks a payment proof against a challenge.
func (c *Client) Verify(ctx context.Context, proof x402.PaymentPayload, challenge x402.PaymentChallenge) (*x402.VerifyResponse, error) {
	body, _, err := c.post(ctx, "/verify", proof, challenge, c.Timeouts.VerifyTimeout, x402.ErrVerificationFailed)
	if err != nil {
		return nil, err
	}

	var verifyResp x402.VerifyResponse
	if err := json.Unmarshal(body, &verifyResp); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}
	return &verifyResp, nil
}

// Settle executes a verified payment on the blockchain. The response body
// and headers are parsed defensively because facilitators differ in how
// they encode settlement facts.
func (c *Client) Settle(ctx context.Context, proof x402.PaymentPayload, challenge x402.PaymentChallenge) (*x402.SettlementResponse, error) {
	body, header, err := c.post(ctx, "/settle", proof, challenge, c.Timeouts.SettleTimeout, x402.ErrSettlementFailed)
	if err != nil {
		return nil, err
	}

	settlement, err := extractSettlement(body, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrSettlementFailed, err)
	}
	return settlement, nil
}

// post sends one facilitator request and returns the raw response body and
// headers. Non-200 statuses become errors carrying any reason the
// facilitator included.
func (c *Client) post(ctx context.Context, path string, proof x402.PaymentPayload, challenge x402.PaymentChallenge, timeout time.Duration, baseErr error) ([]byte, http.Header, error) {
	data, err := json.Marshal(request{
		X402Version:         x402.Version,
		PaymentPayload:      proof,
		PaymentRequirements: challenge,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Apply the operation timeout only if the caller hasn't set a deadline.
	reqCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.Authorization != "" {
		httpReq.Header.Set("Authorization", c.Authorization)
	}

	httpResp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", x402.ErrFacilitatorUnavailable, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading response: %v", x402.ErrFacilitatorUnavailable, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, nil, errorFromResponse(httpResp.StatusCode, body, baseErr)
	}
	return body, httpResp.Header, nil
}

// errorFromResponse extracts error details from a non-200 response.
func errorFromResponse(status int, body []byte, baseErr error) error {
	var errBody map[string]interface{}
	if err := json.Unmarshal(body, &errBody); err == nil {
		if reason, ok := errBody["invalidReason"].(string); ok && reason != "" {
			return fmt.Errorf("%w: status %d, reason: %s", baseErr, status, reason)
		}
		if reason, ok := errBody["errorReason"].(string); ok && reason != "" {
			return fmt.Errorf("%w: status %d, reason: %s", baseErr, status, reason)
		}
	}
	if len(body) > 0 && len(body) < 500 {
		return fmt.Errorf("%w: status %d, body: %s", baseErr, status, string(body))
	}
	return fmt.Errorf("%w: status %d", baseErr, status)
}
