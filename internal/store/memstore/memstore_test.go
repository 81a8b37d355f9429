package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ankushKun/x402bay/internal/catalog"
	"github.com/ankushKun/x402bay/internal/ledger"
)

func TestRecordIfAbsent_Idempotent(t *testing.T) {
	store := New()
	ctx := context.Background()

	purchase := ledger.Purchase{ItemID: "it-1", BuyerAddress: "0xAbC", Amount: "5.00", TransactionHash: "0xT1"}

	inserted, err := store.RecordIfAbsent(ctx, purchase)
	if err != nil {
		t.Fatalf("first RecordIfAbsent: %v", err)
	}
	if !inserted {
		t.Error("first call inserted = false, want true")
	}

	inserted, err = store.RecordIfAbsent(ctx, purchase)
	if err != nil {
		t.Fatalf("second RecordIfAbsent: %v", err)
	}
	if inserted {
		t.Error("second call inserted = true, want false")
	}

	purchases, err := store.ListByBuyer(ctx, "0xAbC")
	if err != nil {
		t.Fatalf("ListByBuyer: %v", err)
	}
	if len(purchases) != 1 {
		t.Errorf("stored records = %d, want 1", len(purchases))
	}
}

func TestRecordIfAbsent_CaseFoldedKey(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.RecordIfAbsent(ctx, ledger.Purchase{ItemID: "it-1", BuyerAddress: "0xABCDEF"}); err != nil {
		t.Fatal(err)
	}
	inserted, err := store.RecordIfAbsent(ctx, ledger.Purchase{ItemID: "it-1", BuyerAddress: "0xabcdef"})
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Error("case-variant duplicate inserted, want absorbed")
	}

	has, err := store.HasPurchase(ctx, "it-1", "0xAbCdEf")
	if err != nil || !has {
		t.Errorf("HasPurchase = %v, %v; want true", has, err)
	}
}

func TestRecordIfAbsent_Concurrent(t *testing.T) {
	store := New()
	ctx := context.Background()

	const racers = 16
	inserts := make([]bool, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inserted, err := store.RecordIfAbsent(ctx, ledger.Purchase{ItemID: "it-1", BuyerAddress: "0xRacer"})
			if err != nil {
				t.Errorf("racer %d: %v", i, err)
				return
			}
			inserts[i] = inserted
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, inserted := range inserts {
		if inserted {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}

	has, err := store.HasPurchase(ctx, "it-1", "0xracer")
	if err != nil || !has {
		t.Errorf("HasPurchase after race = %v, %v; want true", has, err)
	}
}

func TestHasPurchase_DistinctItems(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.RecordIfAbsent(ctx, ledger.Purchase{ItemID: "it-1", BuyerAddress: "0xA"}); err != nil {
		t.Fatal(err)
	}

	has, _ := store.HasPurchase(ctx, "it-2", "0xA")
	if has {
		t.Error("purchase of it-1 granted entitlement to it-2")
	}
	has, _ = store.HasPurchase(ctx, "it-1", "0xB")
	if has {
		t.Error("unrelated buyer entitled")
	}
}

func TestListByBuyer_NewestFirst(t *testing.T) {
	store := New()
	ctx := context.Background()

	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	if _, err := store.RecordIfAbsent(ctx, ledger.Purchase{ItemID: "it-1", BuyerAddress: "0xA", PurchasedAt: older}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordIfAbsent(ctx, ledger.Purchase{ItemID: "it-2", BuyerAddress: "0xA", PurchasedAt: newer}); err != nil {
		t.Fatal(err)
	}

	purchases, err := store.ListByBuyer(ctx, "0xA")
	if err != nil {
		t.Fatal(err)
	}
	if len(purchases) != 2 {
		t.Fatalf("purchases = %d, want 2", len(purchases))
	}
	if purchases[0].ItemID != "it-2" {
		t.Errorf("first purchase = %s, want it-2 (newest first)", purchases[0].ItemID)
	}
}

func TestFindByID_And_Increment(t *testing.T) {
	store := New()
	ctx := context.Background()

	store.PutItem(catalog.Item{ID: "it-1", Name: "A"})

	item, err := store.FindByID(ctx, "it-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if item.DownloadCount != 0 {
		t.Errorf("DownloadCount = %d, want 0", item.DownloadCount)
	}

	if err := store.IncrementDownloadCount(ctx, "it-1"); err != nil {
		t.Fatalf("IncrementDownloadCount: %v", err)
	}
	item, _ = store.FindByID(ctx, "it-1")
	if item.DownloadCount != 1 {
		t.Errorf("DownloadCount = %d, want 1", item.DownloadCount)
	}

	if _, err := store.FindByID(ctx, "missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("FindByID(missing) error = %v, want ErrNotFound", err)
	}
	if err := store.IncrementDownloadCount(ctx, "missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("IncrementDownloadCount(missing) error = %v, want ErrNotFound", err)
	}
}

func TestFindByID_ReturnsCopy(t *testing.T) {
	store := New()
	store.PutItem(catalog.Item{ID: "it-1", Name: "A"})

	item, _ := store.FindByID(context.Background(), "it-1")
	item.Name = "mutated"

	fresh, _ := store.FindByID(context.Background(), "it-1")
	if fresh.Name != "A" {
		t.Error("caller mutation leaked into the store")
	}
}
