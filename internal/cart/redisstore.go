package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tryon-storefront/internal/domain"
)

// RedisStorage persists a session's ledger as a JSON blob under one key, with
// a mirrored count key for cheap badge reads. Like the other Storage
// implementations it is last-write-wins across concurrent writers of the same
// session.
type RedisStorage struct {
	client  *redis.Client
	key     string
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisStorage creates a storage bound to the given session key. A zero
// ttl keeps ledgers forever.
func NewRedisStorage(client *redis.Client, sessionKey string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client:  client,
		key:     "cart:" + sessionKey,
		ttl:     ttl,
		timeout: 3 * time.Second,
	}
}

func (r *RedisStorage) Load() ([]domain.CartLineItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.CartLineItem{}, nil
		}
		return nil, fmt.Errorf("cart: redis load failed: %w", err)
	}
	var items []domain.CartLineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("cart: failed to decode redis ledger: %w", err)
	}
	return items, nil
}

func (r *RedisStorage) Save(items []domain.CartLineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cart: failed to encode ledger: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key, data, r.ttl)
	pipe.Set(ctx, r.key+":count", strconv.Itoa(len(items)), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cart: redis save failed: %w", err)
	}
	return nil
}
