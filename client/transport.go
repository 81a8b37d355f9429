// Package client provides an http.RoundTripper that transparently pays
// x402bay payment challenges. The first attempt goes out unmodified; when
// the gateway answers 402, the transport asks its ProofProvider for a
// payment proof and retries once with the X-Payment header set. Retrying
// on 402 is deliberately a caller-side concern; the gateway itself never
// retries anything.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ankushKun/x402bay/internal/x402"
)

// ProofProvider produces a payment proof satisfying a challenge. A real
// implementation signs with the buyer's wallet; tests stub it.
type ProofProvider interface {
	Proof(challenge x402.PaymentRequired) (x402.PaymentPayload, error)
}

// ProofProviderFunc adapts a function to the ProofProvider interface.
type ProofProviderFunc func(challenge x402.PaymentRequired) (x402.PaymentPayload, error)

// Proof implements ProofProvider.
func (f ProofProviderFunc) Proof(challenge x402.PaymentRequired) (x402.PaymentPayload, error) {
	return f(challenge)
}

// Transport is an http.RoundTripper that handles 402 responses.
type Transport struct {
	// Base is the underlying RoundTripper (typically http.DefaultTransport).
	Base http.RoundTripper

	// Provider produces proofs for challenges.
	Provider ProofProvider
}

// NewHTTPClient returns an *http.Client whose transport pays challenges
// using the given provider.
func NewHTTPClient(provider ProofProvider) *http.Client {
	return &http.Client{Transport: &Transport{Provider: provider}}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req.Clone(req.Context()))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusPaymentRequired || t.Provider == nil {
		return resp, nil
	}

	// A request body has already been consumed by the first attempt;
	// without GetBody the retry cannot be replayed.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	challenge, err := parseChallenge(resp)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("client: parse challenge: %w", err)
	}
	resp.Body.Close()

	proof, err := t.Provider.Proof(*challenge)
	if err != nil {
		return nil, fmt.Errorf("client: obtain proof: %w", err)
	}
	header, err := x402.EncodePayment(proof)
	if err != nil {
		return nil, fmt.Errorf("client: encode proof: %w", err)
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("client: replay body: %w", err)
		}
		retry.Body = body
	}
	retry.Header.Set(x402.PaymentHeader, header)

	return base.RoundTrip(retry)
}

// Settlement extracts the settlement facts from a paid response, or nil if
// the response carries none.
func Settlement(resp *http.Response) *x402.SettlementResponse {
	headerValue := resp.Header.Get(x402.PaymentResponseHeader)
	if headerValue == "" {
		return nil
	}
	settlement, err := x402.DecodeSettlement(headerValue)
	if err != nil {
		return nil
	}
	return &settlement
}

func parseChallenge(resp *http.Response) (*x402.PaymentRequired, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var challenge x402.PaymentRequired
	if err := json.Unmarshal(body, &challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}
