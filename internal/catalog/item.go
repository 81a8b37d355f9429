// Package catalog defines the marketplace item descriptor and the resolver
// that maps an item id to its pricing and ownership data.
package catalog

import (
	"context"
	"time"
)

// TokenInfo identifies the payment token an item is priced in.
type TokenInfo struct {
	// ChainID is the chain identifier the token lives on. Either a bare
	// EIP-155 id ("84532") or a CAIP-2 identifier ("eip155:84532").
	ChainID string `json:"chainId"`

	// ContractAddress is the token contract address (EVM) or mint
	// address (Solana).
	ContractAddress string `json:"contractAddress"`

	// Symbol is the token's display symbol (e.g. "USDC").
	Symbol string `json:"symbol"`

	// Decimals is the number of decimal places for the token.
	Decimals int `json:"decimals"`
}

// Item is the descriptor for a purchasable file. Created on publication;
// the gateway only ever reads it and bumps the download counter.
type Item struct {
	// ID is the opaque unique item identifier.
	ID string `json:"id"`

	// Name is the listing title.
	Name string `json:"name"`

	// Description is the listing description.
	Description string `json:"description,omitempty"`

	// Price is the decimal price string, denominated in Token.
	Price string `json:"price"`

	// Token is the payment token the price is denominated in.
	Token TokenInfo `json:"token"`

	// UploaderAddress is the owner's wallet address and the payment payee.
	UploaderAddress string `json:"uploaderAddress"`

	// Filename is the content locator within the content store.
	Filename string `json:"filename"`

	// OriginalName is the filename presented to downloaders.
	OriginalName string `json:"originalName"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// DownloadCount is the number of completed downloads.
	DownloadCount int64 `json:"downloadCount"`

	// UploadedAt is the publication time.
	UploadedAt time.Time `json:"uploadedAt"`
}

// Store is the persistence contract the resolver reads from.
type Store interface {
	// FindByID returns the item with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Item, error)

	// IncrementDownloadCount bumps the item's download counter by one.
	IncrementDownloadCount(ctx context.Context, id string) error
}
