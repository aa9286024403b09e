package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// SlotRepository keeps tab session slots in process memory. Slots vanish on
// restart, which matches the lifetime of a browser tab closely enough for a
// single instance deployment.
type SlotRepository struct {
	cache *cache.Cache
}

func NewSlotRepository(defaultTTL time.Duration) *SlotRepository {
	// Expired slots are purged every 10 minutes
	c := cache.New(defaultTTL, 10*time.Minute)
	return &SlotRepository{
		cache: c,
	}
}

func (r *SlotRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if x, found := r.cache.Get(key); found {
		raw := x.([]byte)
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, true, nil
	}
	return nil, false, nil
}

func (r *SlotRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	r.cache.Set(key, stored, ttl)
	return nil
}

func (r *SlotRepository) Delete(ctx context.Context, key string) error {
	r.cache.Delete(key)
	return nil
}

// Count returns the number of live slots, expired ones included until purged.
func (r *SlotRepository) Count() int {
	return r.cache.ItemCount()
}
