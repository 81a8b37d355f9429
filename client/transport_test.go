package client

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ankushKun/x402bay/internal/x402"
)

func TestTransport_PaysOn402(t *testing.T) {
	var sawProof string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if header := r.Header.Get(x402.PaymentHeader); header != "" {
			sawProof = header
			settlement, _ := x402.EncodeSettlement(x402.SettlementResponse{Success: true, Transaction: "0xTx"})
			w.Header().Set(x402.PaymentResponseHeader, settlement)
			_, _ = w.Write([]byte("the goods"))
			return
		}
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(x402.PaymentRequired{
			X402Version: x402.Version,
			Error:       "Payment required",
			PaymentChallenge: x402.PaymentChallenge{
				Resource: "/resource/it-1",
				Price:    "5.00",
				Network:  "base-sepolia",
			},
		})
	}))
	defer server.Close()

	var sawChallenge *x402.PaymentRequired
	httpClient := NewHTTPClient(ProofProviderFunc(func(challenge x402.PaymentRequired) (x402.PaymentPayload, error) {
		sawChallenge = &challenge
		return x402.PaymentPayload{X402Version: x402.Version, Scheme: "exact", Network: challenge.Network}, nil
	}))

	resp, err := httpClient.Get(server.URL + "/resource/it-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "the goods" {
		t.Errorf("body = %q", body)
	}
	if sawProof == "" {
		t.Error("retry carried no payment header")
	}
	if sawChallenge == nil || sawChallenge.Price != "5.00" {
		t.Errorf("provider challenge = %+v", sawChallenge)
	}

	settlement := Settlement(resp)
	if settlement == nil || !settlement.Success || settlement.Transaction != "0xTx" {
		t.Errorf("Settlement = %+v", settlement)
	}
}

func TestTransport_PassesThroughNon402(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	called := false
	httpClient := NewHTTPClient(ProofProviderFunc(func(x402.PaymentRequired) (x402.PaymentPayload, error) {
		called = true
		return x402.PaymentPayload{}, nil
	}))

	resp, err := httpClient.Get(server.URL + "/resource/missing")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if called {
		t.Error("provider invoked for non-402 response")
	}
}

func TestTransport_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(x402.PaymentRequired{X402Version: x402.Version})
	}))
	defer server.Close()

	wantErr := errors.New("no funds")
	httpClient := NewHTTPClient(ProofProviderFunc(func(x402.PaymentRequired) (x402.PaymentPayload, error) {
		return x402.PaymentPayload{}, wantErr
	}))

	_, err := httpClient.Get(server.URL + "/resource/it-1")
	if err == nil || !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped %v", err, wantErr)
	}
}
