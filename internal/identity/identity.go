// Package identity supplies the verified caller identity for entitlement
// checks. The session layer itself is an external collaborator; this
// package defines the contract and ships the wallet-header implementation
// the service runs with.
package identity

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// WalletHeader carries the caller's wallet address, set by the session
// layer in front of this service.
const WalletHeader = "X-Wallet-Address"

// Verifier extracts a verified wallet address from a request. ok is false
// for anonymous callers; anonymity never grants entitlement, it only means
// the challenge path decides.
type Verifier interface {
	Verify(r *http.Request) (address string, ok bool)
}

// HeaderVerifier reads the wallet address from WalletHeader and accepts it
// only if it is a well-formed address. It trusts the header's provenance;
// authenticating the session that set it is the identity provider's job.
type HeaderVerifier struct{}

// Verify implements Verifier.
func (HeaderVerifier) Verify(r *http.Request) (string, bool) {
	address := strings.TrimSpace(r.Header.Get(WalletHeader))
	if address == "" {
		return "", false
	}
	if !common.IsHexAddress(address) {
		return "", false
	}
	return address, true
}

// Anonymous is a Verifier that never yields an identity. Useful in tests
// and for deployments where buyers are identified purely by settlement.
type Anonymous struct{}

// Verify implements Verifier.
func (Anonymous) Verify(*http.Request) (string, bool) { return "", false }
