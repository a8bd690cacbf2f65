package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartTTL is the sliding idle window for a cart. Every read or write of a
// cart refreshes it; an untouched cart expires as a whole.
const CartTTL = 2 * time.Hour

// ErrCartItemNotFound is returned when an item id is not in the user's cart
// index or its payload key has expired.
var ErrCartItemNotFound = errors.New("cart item not found")

// CartLine is the persisted shape of one cart entry. Modifier ids are stored
// raw; joining them against the catalog happens at read time.
type CartLine struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Modifiers []int64 `json:"modifiers"`
}

// CartStore keeps per-user carts in Redis. Each cart is a set of item ids
// plus one JSON payload key per item, all sharing the same idle TTL.
type CartStore struct {
	rdb *redis.Client
}

func NewCartStore(rdb *redis.Client) *CartStore {
	return &CartStore{rdb: rdb}
}

// CartKey is the set holding the item ids of a user's cart.
func CartKey(userID int64) string {
	return fmt.Sprintf("cart:user:%d", userID)
}

// CartItemKey holds the JSON payload of a single cart line.
func CartItemKey(userID int64, itemID string) string {
	return fmt.Sprintf("cart:user:%d:item:%s", userID, itemID)
}

// NewItemID builds a cart item id from the current millisecond timestamp and
// four random bytes. Unique enough per user without coordination.
func NewItemID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		panic(fmt.Sprintf("cart: reading random bytes: %v", err))
	}
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}

// Add stores a new cart line and registers it in the cart index, returning
// the generated item id.
func (s *CartStore) Add(ctx context.Context, userID int64, line CartLine) (string, error) {
	itemID := NewItemID()

	payload, err := json.Marshal(line)
	if err != nil {
		return "", fmt.Errorf("failed to encode cart line: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, CartItemKey(userID, itemID), payload, CartTTL)
	pipe.SAdd(ctx, CartKey(userID), itemID)
	pipe.Expire(ctx, CartKey(userID), CartTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to store cart line: %w", err)
	}

	return itemID, nil
}

// Get returns one cart line. The item must be in the user's index; a payload
// that expired under the index counts as not found.
func (s *CartStore) Get(ctx context.Context, userID int64, itemID string) (*CartLine, error) {
	owned, err := s.rdb.SIsMember(ctx, CartKey(userID), itemID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check cart membership: %w", err)
	}
	if !owned {
		return nil, ErrCartItemNotFound
	}

	data, err := s.rdb.Get(ctx, CartItemKey(userID, itemID)).Bytes()
	if errors.Is(err, redis.Nil) {
		// stale index entry, drop it
		s.rdb.SRem(ctx, CartKey(userID), itemID)
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart line: %w", err)
	}

	var line CartLine
	if err := json.Unmarshal(data, &line); err != nil {
		return nil, fmt.Errorf("failed to decode cart line: %w", err)
	}
	return &line, nil
}

// Set overwrites an existing cart line in place. The item keeps its id.
func (s *CartStore) Set(ctx context.Context, userID int64, itemID string, line CartLine) error {
	owned, err := s.rdb.SIsMember(ctx, CartKey(userID), itemID).Result()
	if err != nil {
		return fmt.Errorf("failed to check cart membership: %w", err)
	}
	if !owned {
		return ErrCartItemNotFound
	}

	payload, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("failed to encode cart line: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, CartItemKey(userID, itemID), payload, CartTTL)
	pipe.Expire(ctx, CartKey(userID), CartTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update cart line: %w", err)
	}
	return nil
}

// Remove deletes one cart line and its index entry.
func (s *CartStore) Remove(ctx context.Context, userID int64, itemID string) error {
	removed, err := s.rdb.SRem(ctx, CartKey(userID), itemID).Result()
	if err != nil {
		return fmt.Errorf("failed to remove cart line: %w", err)
	}
	if removed == 0 {
		return ErrCartItemNotFound
	}
	s.rdb.Del(ctx, CartItemKey(userID, itemID))
	return nil
}

// ItemIDs lists the item ids currently in the cart and refreshes the cart's
// idle TTL.
func (s *CartStore) ItemIDs(ctx context.Context, userID int64) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, CartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	if len(ids) > 0 {
		s.Touch(ctx, userID, ids)
	}
	return ids, nil
}

// Touch refreshes the idle TTL on the cart index and the given item keys.
func (s *CartStore) Touch(ctx context.Context, userID int64, itemIDs []string) {
	pipe := s.rdb.Pipeline()
	pipe.Expire(ctx, CartKey(userID), CartTTL)
	for _, id := range itemIDs {
		pipe.Expire(ctx, CartItemKey(userID, id), CartTTL)
	}
	pipe.Exec(ctx)
}

// Drop removes a stale item id from the index without treating absence as an
// error. Used when a cart line references a product that no longer exists.
func (s *CartStore) Drop(ctx context.Context, userID int64, itemID string) {
	s.rdb.SRem(ctx, CartKey(userID), itemID)
	s.rdb.Del(ctx, CartItemKey(userID, itemID))
}

// Clear deletes the whole cart: every item payload plus the index.
func (s *CartStore) Clear(ctx context.Context, userID int64) error {
	ids, err := s.rdb.SMembers(ctx, CartKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list cart for clearing: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, CartItemKey(userID, id))
	}
	keys = append(keys, CartKey(userID))

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
