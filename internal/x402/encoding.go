package x402

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodePayment converts an X-Payment header value to a PaymentPayload.
// The header is base64-encoded JSON; a bare JSON object is also accepted.
// Returns ErrMalformedHeader (wrapped) if neither form parses, and
// ErrUnsupportedVersion if the envelope declares a version this service
// does not speak.
func DecodePayment(headerValue string) (PaymentPayload, error) {
	var payment PaymentPayload

	raw, err := decodeHeaderBytes(headerValue)
	if err != nil {
		return payment, err
	}
	if err := json.Unmarshal(raw, &payment); err != nil {
		return payment, fmt.Errorf("%w: invalid JSON", ErrMalformedHeader)
	}
	if payment.X402Version != 0 && payment.X402Version != Version {
		return payment, ErrUnsupportedVersion
	}
	return payment, nil
}

// EncodePayment converts a PaymentPayload to a base64-encoded JSON string
// suitable for the X-Payment header.
func EncodePayment(payment PaymentPayload) (string, error) {
	data, err := json.Marshal(payment)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// EncodeSettlement converts a SettlementResponse to a base64-encoded JSON
// string suitable for the X-Payment-Response header.
func EncodeSettlement(settlement SettlementResponse) (string, error) {
	data, err := json.Marshal(settlement)
	if err != nil {
		return "", fmt.Errorf("failed to marshal settlement: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeSettlement converts an X-Payment-Response header value to a
// SettlementResponse. Both base64-encoded JSON and bare JSON are accepted,
// since facilitators differ on which form they emit.
func DecodeSettlement(headerValue string) (SettlementResponse, error) {
	var settlement SettlementResponse

	raw, err := decodeHeaderBytes(headerValue)
	if err != nil {
		return settlement, err
	}
	if err := json.Unmarshal(raw, &settlement); err != nil {
		return settlement, fmt.Errorf("%w: invalid JSON", ErrMalformedHeader)
	}
	return settlement, nil
}

// decodeHeaderBytes returns the JSON bytes carried by a header value,
// trying bare JSON first and falling back to base64.
func decodeHeaderBytes(headerValue string) ([]byte, error) {
	trimmed := strings.TrimSpace(headerValue)
	if trimmed == "" {
		return nil, ErrMalformedHeader
	}
	if strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 encoding", ErrMalformedHeader)
	}
	return decoded, nil
}
