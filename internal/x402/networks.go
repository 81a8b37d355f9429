package x402

import (
	"fmt"
	"strings"
)

// NetworkType represents the blockchain virtual machine type.
type NetworkType int

const (
	// NetworkTypeUnknown represents an unrecognized network.
	NetworkTypeUnknown NetworkType = iota
	// NetworkTypeEVM represents Ethereum Virtual Machine chains.
	NetworkTypeEVM
	// NetworkTypeSVM represents Solana Virtual Machine chains.
	NetworkTypeSVM
)

// Canonical network names. Lowercase, hyphen-separated.
const (
	NetworkEthereum      = "ethereum"
	NetworkSepolia       = "sepolia"
	NetworkBase          = "base"
	NetworkBaseSepolia   = "base-sepolia"
	NetworkPolygon       = "polygon"
	NetworkPolygonAmoy   = "polygon-amoy"
	NetworkAvalanche     = "avalanche"
	NetworkAvalancheFuji = "avalanche-fuji"
	NetworkSolana        = "solana"
	NetworkSolanaDevnet  = "solana-devnet"
)

// Solana genesis hashes, used as CAIP-2 references.
const (
	solanaMainnetGenesis = "5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp"
	solanaDevnetGenesis  = "EtWTRABZaYq6iMfeYKouRu166VU2xqa1"
)

// networkByChainID maps EIP-155 chain ids to canonical network names.
var networkByChainID = map[string]string{
	"1":        NetworkEthereum,
	"11155111": NetworkSepolia,
	"8453":     NetworkBase,
	"84532":    NetworkBaseSepolia,
	"137":      NetworkPolygon,
	"80002":    NetworkPolygonAmoy,
	"43114":    NetworkAvalanche,
	"43113":    NetworkAvalancheFuji,
}

// networkBySolanaGenesis maps Solana genesis hashes to canonical network names.
var networkBySolanaGenesis = map[string]string{
	solanaMainnetGenesis: NetworkSolana,
	solanaDevnetGenesis:  NetworkSolanaDevnet,
}

// canonicalNames is the set of names NetworkForChain emits, so that a chain
// identifier that is already canonical maps to itself.
var canonicalNames = map[string]struct{}{
	NetworkEthereum:      {},
	NetworkSepolia:       {},
	NetworkBase:          {},
	NetworkBaseSepolia:   {},
	NetworkPolygon:       {},
	NetworkPolygonAmoy:   {},
	NetworkAvalanche:     {},
	NetworkAvalancheFuji: {},
	NetworkSolana:        {},
	NetworkSolanaDevnet:  {},
}

// NetworkForChain maps a resource's chain identifier to its canonical
// network name. Accepted identifier forms:
//
//   - bare EIP-155 chain id, e.g. "84532"
//   - CAIP-2, e.g. "eip155:84532" or "solana:<genesis hash>"
//   - an already-canonical network name, e.g. "base-sepolia"
//
// The mapping is fixed; an unmapped identifier returns ErrInvalidNetwork.
func NetworkForChain(chainID string) (string, error) {
	id := strings.TrimSpace(chainID)
	if id == "" {
		return "", fmt.Errorf("%w: empty chain identifier", ErrInvalidNetwork)
	}

	if namespace, reference, ok := strings.Cut(id, ":"); ok {
		switch namespace {
		case "eip155":
			if name, ok := networkByChainID[reference]; ok {
				return name, nil
			}
		case "solana":
			if name, ok := networkBySolanaGenesis[reference]; ok {
				return name, nil
			}
		}
		return "", fmt.Errorf("%w: %s", ErrInvalidNetwork, id)
	}

	if name, ok := networkByChainID[id]; ok {
		return name, nil
	}
	if name, ok := networkBySolanaGenesis[id]; ok {
		return name, nil
	}
	lower := strings.ToLower(id)
	if _, ok := canonicalNames[lower]; ok {
		return lower, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidNetwork, id)
}

// TypeOfNetwork returns the virtual machine type for a canonical network
// name. Unknown names return NetworkTypeUnknown.
func TypeOfNetwork(network string) NetworkType {
	switch network {
	case NetworkSolana, NetworkSolanaDevnet:
		return NetworkTypeSVM
	case NetworkEthereum, NetworkSepolia, NetworkBase, NetworkBaseSepolia,
		NetworkPolygon, NetworkPolygonAmoy, NetworkAvalanche, NetworkAvalancheFuji:
		return NetworkTypeEVM
	default:
		return NetworkTypeUnknown
	}
}
