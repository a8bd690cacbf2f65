package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*CartStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCartStore(rdb), mr
}

func TestCartAddAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	itemID, err := store.Add(ctx, 1, CartLine{ProductID: 10, Quantity: 2, Modifiers: []int64{3}})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !strings.Contains(itemID, "_") {
		t.Fatalf("item id %q missing timestamp/random separator", itemID)
	}

	line, err := store.Get(ctx, 1, itemID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if line.ProductID != 10 || line.Quantity != 2 || len(line.Modifiers) != 1 {
		t.Fatalf("unexpected line: %+v", line)
	}
}

func TestCartOwnershipEnforcedViaIndex(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	itemID, err := store.Add(ctx, 1, CartLine{ProductID: 10, Quantity: 1})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// user 2's index does not contain user 1's item id
	if _, err := store.Get(ctx, 2, itemID); err != ErrCartItemNotFound {
		t.Fatalf("expected ErrCartItemNotFound for foreign item, got %v", err)
	}
	if err := store.Set(ctx, 2, itemID, CartLine{ProductID: 10, Quantity: 5}); err != ErrCartItemNotFound {
		t.Fatalf("expected ErrCartItemNotFound on foreign update, got %v", err)
	}

	// the owner still sees the unchanged line
	line, err := store.Get(ctx, 1, itemID)
	if err != nil {
		t.Fatalf("owner Get failed: %v", err)
	}
	if line.Quantity != 1 {
		t.Fatalf("line mutated by foreign update: %+v", line)
	}
}

func TestCartSetOverwritesInPlace(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	itemID, _ := store.Add(ctx, 1, CartLine{ProductID: 10, Quantity: 1})
	if err := store.Set(ctx, 1, itemID, CartLine{ProductID: 10, Quantity: 4, Modifiers: []int64{8}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	line, err := store.Get(ctx, 1, itemID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if line.Quantity != 4 || len(line.Modifiers) != 1 {
		t.Fatalf("unexpected line after update: %+v", line)
	}
}

func TestCartRemove(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	itemID, _ := store.Add(ctx, 1, CartLine{ProductID: 10, Quantity: 1})
	if err := store.Remove(ctx, 1, itemID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := store.Get(ctx, 1, itemID); err != ErrCartItemNotFound {
		t.Fatalf("expected ErrCartItemNotFound after remove, got %v", err)
	}
	if err := store.Remove(ctx, 1, itemID); err != ErrCartItemNotFound {
		t.Fatalf("expected ErrCartItemNotFound on double remove, got %v", err)
	}
}

func TestCartClear(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	a, _ := store.Add(ctx, 1, CartLine{ProductID: 10, Quantity: 1})
	b, _ := store.Add(ctx, 1, CartLine{ProductID: 11, Quantity: 2})

	if err := store.Clear(ctx, 1); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	ids, err := store.ItemIDs(ctx, 1)
	if err != nil {
		t.Fatalf("ItemIDs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty cart, got %v", ids)
	}
	if mr.Exists(CartItemKey(1, a)) || mr.Exists(CartItemKey(1, b)) {
		t.Fatal("item payload keys survived Clear")
	}

	// clearing an empty cart is fine
	if err := store.Clear(ctx, 1); err != nil {
		t.Fatalf("Clear of empty cart failed: %v", err)
	}
}

func TestCartExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	itemID, _ := store.Add(ctx, 1, CartLine{ProductID: 10, Quantity: 1})
	if mr.TTL(CartKey(1)) != CartTTL {
		t.Fatalf("cart index TTL = %v, want %v", mr.TTL(CartKey(1)), CartTTL)
	}

	mr.FastForward(CartTTL)

	ids, err := store.ItemIDs(ctx, 1)
	if err != nil {
		t.Fatalf("ItemIDs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected expired cart to be empty, got %v", ids)
	}
	if _, err := store.Get(ctx, 1, itemID); err != ErrCartItemNotFound {
		t.Fatalf("expected ErrCartItemNotFound after expiry, got %v", err)
	}
}

func TestCartStaleIndexEntryPruned(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	itemID, _ := store.Add(ctx, 1, CartLine{ProductID: 10, Quantity: 1})

	// simulate a payload key lost while the index survives
	mr.Del(CartItemKey(1, itemID))

	if _, err := store.Get(ctx, 1, itemID); err != ErrCartItemNotFound {
		t.Fatalf("expected ErrCartItemNotFound for dangling index entry, got %v", err)
	}

	ids, err := store.ItemIDs(ctx, 1)
	if err != nil {
		t.Fatalf("ItemIDs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("dangling id not pruned from index: %v", ids)
	}
}
