// Package ledger records settled purchases and answers entitlement
// questions. A purchase row is the sole proof that a buyer may download an
// item without paying again, so writes are idempotent and rows are never
// mutated or deleted.
package ledger

import (
	"context"
	"strings"
	"time"
)

// Purchase is a settled payment for one item by one buyer. At most one
// logical Purchase exists per (ItemID, fold(BuyerAddress)) pair.
type Purchase struct {
	// ID is the record id.
	ID string `json:"id"`

	// ItemID is the purchased item's id.
	ItemID string `json:"itemId"`

	// BuyerAddress is the buyer's wallet address, case-preserved for
	// display. Comparisons fold case.
	BuyerAddress string `json:"buyerAddress"`

	// TransactionHash is the settlement transaction reference, if the
	// facilitator reported one.
	TransactionHash string `json:"transactionHash,omitempty"`

	// Amount is the settled amount as a decimal string.
	Amount string `json:"amount"`

	// PurchasedAt is the settlement time.
	PurchasedAt time.Time `json:"purchasedAt"`
}

// Ledger is the durable store of settled purchases.
type Ledger interface {
	// RecordIfAbsent inserts the purchase unless one already exists for
	// (purchase.ItemID, fold(purchase.BuyerAddress)). Returns true if a
	// row was inserted, false if an equivalent row already existed. A
	// racing duplicate insert is absorbed and reported as false, never
	// as an error.
	RecordIfAbsent(ctx context.Context, purchase Purchase) (inserted bool, err error)

	// HasPurchase reports whether a settled purchase exists for the
	// item and buyer, comparing the buyer address case-insensitively.
	// The read must observe writes already committed through
	// RecordIfAbsent.
	HasPurchase(ctx context.Context, itemID, buyerAddress string) (bool, error)

	// ListByBuyer returns all purchases made by the buyer, newest first.
	ListByBuyer(ctx context.Context, buyerAddress string) ([]Purchase, error)
}

// FoldAddress normalizes a wallet address for comparison. Display values
// keep their original casing; only the comparison key folds.
func FoldAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Checker answers entitlement questions against a Ledger. Entitlement is
// derived per call and never cached, so concurrent settlements are visible
// to the next check.
type Checker struct {
	ledger Ledger
}

// NewChecker returns a Checker backed by the given ledger.
func NewChecker(l Ledger) *Checker {
	return &Checker{ledger: l}
}

// IsEntitled reports whether buyerAddress owns a settled purchase for
// itemID. An empty buyer address is never entitled; anonymity does not
// grant access.
func (c *Checker) IsEntitled(ctx context.Context, itemID, buyerAddress string) (bool, error) {
	if strings.TrimSpace(buyerAddress) == "" {
		return false, nil
	}
	return c.ledger.HasPurchase(ctx, itemID, buyerAddress)
}
