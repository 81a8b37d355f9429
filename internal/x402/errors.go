package x402

import "errors"

// Sentinel errors for x402 payment gating.
var (
	// ErrMalformedHeader indicates the X-Payment header is malformed.
	ErrMalformedHeader = errors.New("x402: malformed payment header")

	// ErrUnsupportedVersion indicates an unsupported x402 protocol version.
	ErrUnsupportedVersion = errors.New("x402: unsupported protocol version")

	// ErrInvalidNetwork indicates a chain identifier with no known network mapping.
	ErrInvalidNetwork = errors.New("x402: invalid or unsupported network")

	// ErrInvalidAmount indicates an amount string that is not a valid decimal.
	ErrInvalidAmount = errors.New("x402: invalid amount")

	// ErrFacilitatorUnavailable indicates the facilitator service is unavailable.
	ErrFacilitatorUnavailable = errors.New("x402: facilitator service unavailable")

	// ErrVerificationFailed indicates payment verification failed.
	ErrVerificationFailed = errors.New("x402: payment verification failed")

	// ErrSettlementFailed indicates payment settlement failed.
	ErrSettlementFailed = errors.New("x402: payment settlement failed")
)
