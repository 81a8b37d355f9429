// Package x402 implements the wire-level pieces of the x402 payment
// challenge protocol used by the download gateway: challenge and
// settlement types, header encoding, and the chain-to-network table.
package x402

import (
	"encoding/json"
	"math/big"
)

// Version is the protocol version spoken by this service.
const Version = 1

// Header names used to carry payment data on HTTP requests and responses.
const (
	// PaymentHeader carries the caller's payment proof on a retried request.
	PaymentHeader = "X-Payment"

	// PaymentResponseHeader carries settlement facts back to the caller.
	PaymentResponseHeader = "X-Payment-Response"
)

// PaymentChallenge describes the payment terms for exactly one resource.
// It is built per request from the resource descriptor and returned as the
// body of a 402 response.
type PaymentChallenge struct {
	// Resource is the path of the protected resource this challenge covers.
	Resource string `json:"resource"`

	// Description is a human-readable description of the purchase.
	Description string `json:"description,omitempty"`

	// Price is the decimal price string, denominated in the token.
	Price string `json:"price"`

	// Network is the canonical lowercase hyphenated network name.
	Network string `json:"network"`

	// Asset is the token contract address (EVM) or mint address (Solana).
	Asset string `json:"token"`

	// TokenSymbol is the token's display symbol (e.g. "USDC").
	TokenSymbol string `json:"tokenSymbol,omitempty"`

	// PayTo is the recipient address for the payment.
	PayTo string `json:"payee"`

	// MaxAmountRequired is the price converted to atomic token units.
	MaxAmountRequired string `json:"maxAmountRequired,omitempty"`

	// MaxTimeoutSeconds is the validity period for the payment authorization.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds,omitempty"`
}

// PaymentRequired is the 402 response body. The challenge fields are
// inlined so automated callers can retry without unwrapping.
type PaymentRequired struct {
	X402Version int    `json:"x402Version"`
	Error       string `json:"error,omitempty"`

	PaymentChallenge
}

// PaymentPayload is the decoded form of the X-Payment header. The inner
// payload stays opaque; only the envelope is inspected before the proof is
// forwarded to the facilitator.
type PaymentPayload struct {
	// X402Version is the protocol version the caller speaks.
	X402Version int `json:"x402Version"`

	// Scheme is the payment scheme identifier (e.g., "exact").
	Scheme string `json:"scheme,omitempty"`

	// Network is the network the proof was produced for.
	Network string `json:"network,omitempty"`

	// Payload contains the blockchain-specific signed payment data,
	// passed through to the facilitator untouched.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// VerifyResponse is returned by the facilitator /verify endpoint.
type VerifyResponse struct {
	// IsValid indicates whether the payment proof is valid.
	IsValid bool `json:"isValid"`

	// InvalidReason provides a short error code if the proof is invalid.
	InvalidReason string `json:"invalidReason,omitempty"`

	// Payer is the address that made the payment.
	Payer string `json:"payer,omitempty"`
}

// SettlementResponse is returned by the facilitator /settle endpoint.
type SettlementResponse struct {
	// Success indicates whether the payment was settled on chain.
	Success bool `json:"success"`

	// ErrorReason provides a short error code if settlement failed.
	ErrorReason string `json:"errorReason,omitempty"`

	// Transaction is the blockchain transaction reference.
	Transaction string `json:"transaction,omitempty"`

	// Network is the network where the payment was settled.
	Network string `json:"network,omitempty"`

	// Payer is the address that made the payment.
	Payer string `json:"payer,omitempty"`

	// Amount is the settled amount as a decimal string.
	Amount string `json:"amount,omitempty"`
}

// AmountToAtomic converts a decimal amount string to *big.Int in atomic
// units. For example, "1.5" with 6 decimals becomes 1500000. Returns
// ErrInvalidAmount if the amount is negative, malformed, or has more
// fractional digits than the token allows.
func AmountToAtomic(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, ErrInvalidAmount
	}

	value := new(big.Rat)
	if _, ok := value.SetString(amount); !ok {
		return nil, ErrInvalidAmount
	}
	if value.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	scale := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value.Mul(value, scale)

	if value.Denom().Cmp(big.NewInt(1)) != 0 {
		return nil, ErrInvalidAmount
	}
	return new(big.Int).Set(value.Num()), nil
}

// AtomicToAmount converts a *big.Int in atomic units to a decimal string.
// For example, 1500000 with 6 decimals becomes "1.500000".
func AtomicToAmount(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}

	rat := new(big.Rat).SetInt(value)
	scale := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	rat.Quo(rat, scale)

	return rat.FloatString(decimals)
}
