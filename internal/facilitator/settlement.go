package facilitator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ankushKun/x402bay/internal/x402"
)

// Candidate field names for settlement facts, in lookup order. Facilitator
// implementations disagree on naming; the first non-empty match wins.
var (
	payerFields       = []string{"payer", "payerAddress", "from", "buyer"}
	transactionFields = []string{"transaction", "transactionHash", "txHash", "tx"}
	amountFields      = []string{"amount", "value", "settledAmount"}
	networkFields     = []string{"network", "chain"}
)

// extractSettlement builds a SettlementResponse from a facilitator /settle
// response. Facts may arrive inline in the JSON body or as a base64-encoded
// JSON blob in the X-Payment-Response header; the body is consulted first
// and the header fills any gaps.
func extractSettlement(body []byte, header http.Header) (*x402.SettlementResponse, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("settlement body is not a JSON object: %v", err)
	}

	sources := []map[string]interface{}{fields}

	// Some facilitators nest the settlement under a dedicated key.
	if nested, ok := fields["settlement"].(map[string]interface{}); ok {
		sources = append(sources, nested)
	}

	// Others carry the facts only in the response header.
	if headerValue := header.Get(x402.PaymentResponseHeader); headerValue != "" {
		if headerSettlement, err := x402.DecodeSettlement(headerValue); err == nil {
			sources = append(sources, map[string]interface{}{
				"success":     headerSettlement.Success,
				"transaction": headerSettlement.Transaction,
				"network":     headerSettlement.Network,
				"payer":       headerSettlement.Payer,
				"amount":      headerSettlement.Amount,
			})
		}
	}

	settlement := &x402.SettlementResponse{
		Success:     firstBool(sources, "success", "accepted", "isValid"),
		Payer:       firstString(sources, payerFields...),
		Transaction: firstString(sources, transactionFields...),
		Amount:      firstString(sources, amountFields...),
		Network:     firstString(sources, networkFields...),
		ErrorReason: firstString(sources, "errorReason", "error", "invalidReason"),
	}

	// EVM-style payloads bury the payer in the signed authorization.
	if settlement.Payer == "" {
		settlement.Payer = payerFromAuthorization(fields)
	}

	// The payer becomes the ledger's uniqueness key; stray whitespace from a
	// sloppy facilitator must not mint a distinct buyer.
	settlement.Payer = strings.TrimSpace(settlement.Payer)

	return settlement, nil
}

// firstString returns the first non-empty string value found for any of the
// candidate keys, scanning sources in order.
func firstString(sources []map[string]interface{}, keys ...string) string {
	for _, source := range sources {
		for _, key := range keys {
			if value, ok := source[key].(string); ok && value != "" {
				return value
			}
		}
	}
	return ""
}

// firstBool returns the first boolean value found for any of the candidate
// keys, scanning sources in order. Absent keys read as false: an ambiguous
// settlement never grants entitlement.
func firstBool(sources []map[string]interface{}, keys ...string) bool {
	for _, source := range sources {
		for _, key := range keys {
			if value, ok := source[key].(bool); ok {
				return value
			}
		}
	}
	return false
}

// payerFromAuthorization digs the payer out of an echoed EIP-3009
// authorization, the shape EVM facilitators echo back.
func payerFromAuthorization(fields map[string]interface{}) string {
	payload, ok := fields["payload"].(map[string]interface{})
	if !ok {
		return ""
	}
	auth, ok := payload["authorization"].(map[string]interface{})
	if !ok {
		return ""
	}
	from, _ := auth["from"].(string)
	return from
}
