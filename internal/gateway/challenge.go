package gateway

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"github.com/ankushKun/x402bay/internal/catalog"
	"github.com/ankushKun/x402bay/internal/x402"
)

// ErrPaymentConfig indicates an item whose pricing or token metadata is
// incomplete. This is a data-integrity defect in the listing, not a client
// error, and surfaces as a 500.
var ErrPaymentConfig = errors.New("gateway: invalid payment configuration")

// challengeTimeoutSeconds is the validity window offered to payers.
const challengeTimeoutSeconds = 300

// BuildChallenge computes the payment challenge for one item. Pure
// function of the descriptor and the request path; nothing about other
// items leaks into the result.
func BuildChallenge(item *catalog.Item, resourcePath string) (x402.PaymentChallenge, error) {
	network, err := x402.NetworkForChain(item.Token.ChainID)
	if err != nil {
		return x402.PaymentChallenge{}, fmt.Errorf("%w: item %s: %v", ErrPaymentConfig, item.ID, err)
	}

	if item.Token.ContractAddress == "" {
		return x402.PaymentChallenge{}, fmt.Errorf("%w: item %s: missing token contract address", ErrPaymentConfig, item.ID)
	}
	if err := validateAsset(network, item.Token.ContractAddress); err != nil {
		return x402.PaymentChallenge{}, fmt.Errorf("%w: item %s: %v", ErrPaymentConfig, item.ID, err)
	}

	if item.UploaderAddress == "" {
		return x402.PaymentChallenge{}, fmt.Errorf("%w: item %s: missing payee address", ErrPaymentConfig, item.ID)
	}

	if item.Price == "" {
		return x402.PaymentChallenge{}, fmt.Errorf("%w: item %s: missing price", ErrPaymentConfig, item.ID)
	}
	atomic, err := x402.AmountToAtomic(item.Price, item.Token.Decimals)
	if err != nil {
		return x402.PaymentChallenge{}, fmt.Errorf("%w: item %s: bad price %q: %v", ErrPaymentConfig, item.ID, item.Price, err)
	}

	description := item.Description
	if description == "" {
		description = "Purchase: " + item.Name
	}

	return x402.PaymentChallenge{
		Resource:          resourcePath,
		Description:       description,
		Price:             item.Price,
		Network:           network,
		Asset:             item.Token.ContractAddress,
		TokenSymbol:       item.Token.Symbol,
		PayTo:             item.UploaderAddress,
		MaxAmountRequired: atomic.String(),
		MaxTimeoutSeconds: challengeTimeoutSeconds,
	}, nil
}

// validateAsset checks that the token address is well formed for the
// network's virtual machine.
func validateAsset(network, asset string) error {
	switch x402.TypeOfNetwork(network) {
	case x402.NetworkTypeEVM:
		if !common.IsHexAddress(asset) {
			return fmt.Errorf("invalid EVM token address %q", asset)
		}
	case x402.NetworkTypeSVM:
		if _, err := solana.PublicKeyFromBase58(asset); err != nil {
			return fmt.Errorf("invalid Solana mint address %q", asset)
		}
	default:
		return fmt.Errorf("unknown network type for %q", network)
	}
	return nil
}
