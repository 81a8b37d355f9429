// Package memstore provides in-memory implementations of the catalog store
// and the purchase ledger. It backs tests and the "memory" store mode; the
// uniqueness invariant is enforced under the same compound key the Postgres
// store indexes on.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ankushKun/x402bay/internal/catalog"
	"github.com/ankushKun/x402bay/internal/ledger"
)

// Store holds items and purchases in process memory.
type Store struct {
	mu        sync.RWMutex
	items     map[string]catalog.Item
	purchases map[purchaseKey]ledger.Purchase
}

type purchaseKey struct {
	itemID string
	buyer  string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		items:     make(map[string]catalog.Item),
		purchases: make(map[purchaseKey]ledger.Purchase),
	}
}

// PutItem inserts or replaces an item.
func (s *Store) PutItem(item catalog.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// FindByID implements catalog.Store.
func (s *Store) FindByID(_ context.Context, id string) (*catalog.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	copied := item
	return &copied, nil
}

// IncrementDownloadCount implements catalog.Store.
func (s *Store) IncrementDownloadCount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return catalog.ErrNotFound
	}
	item.DownloadCount++
	s.items[id] = item
	return nil
}

// RecordIfAbsent implements ledger.Ledger. The check and insert happen
// under one lock, which is the in-memory equivalent of the database
// uniqueness constraint.
func (s *Store) RecordIfAbsent(_ context.Context, purchase ledger.Purchase) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := purchaseKey{itemID: purchase.ItemID, buyer: ledger.FoldAddress(purchase.BuyerAddress)}
	if _, exists := s.purchases[key]; exists {
		return false, nil
	}

	if purchase.ID == "" {
		purchase.ID = uuid.NewString()
	}
	if purchase.PurchasedAt.IsZero() {
		purchase.PurchasedAt = time.Now().UTC()
	}
	s.purchases[key] = purchase
	return true, nil
}

// HasPurchase implements ledger.Ledger.
func (s *Store) HasPurchase(_ context.Context, itemID, buyerAddress string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.purchases[purchaseKey{itemID: itemID, buyer: ledger.FoldAddress(buyerAddress)}]
	return ok, nil
}

// ListByBuyer implements ledger.Ledger.
func (s *Store) ListByBuyer(_ context.Context, buyerAddress string) ([]ledger.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folded := ledger.FoldAddress(buyerAddress)
	var purchases []ledger.Purchase
	for key, purchase := range s.purchases {
		if key.buyer == folded {
			purchases = append(purchases, purchase)
		}
	}
	sort.Slice(purchases, func(i, j int) bool {
		return purchases[i].PurchasedAt.After(purchases[j].PurchasedAt)
	})
	return purchases, nil
}

// Close implements the store lifecycle; a no-op for memory.
func (s *Store) Close() {}
