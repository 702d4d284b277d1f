package wfm

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ordersCache is a TTL cache over per-item order boards. A singleflight
// group coalesces concurrent fetches for the same item, so a burst of
// lookups costs one upstream request.
type ordersCache struct {
	mu      sync.RWMutex
	entries map[string]ordersEntry
	group   singleflight.Group
	ttl     time.Duration
}

type ordersEntry struct {
	orders  []Order
	expires time.Time
}

func newOrdersCache(ttl time.Duration) *ordersCache {
	return &ordersCache{
		entries: make(map[string]ordersEntry),
		ttl:     ttl,
	}
}

func (oc *ordersCache) lookup(key string) ([]Order, bool) {
	oc.mu.RLock()
	defer oc.mu.RUnlock()
	e, ok := oc.entries[key]
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.orders, true
}

func (oc *ordersCache) store(key string, orders []Order) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.entries[key] = ordersEntry{orders: orders, expires: time.Now().Add(oc.ttl)}
}

// get returns the cached board or runs fetch once for all concurrent
// callers of the same key. The winning caller's ctx governs the fetch.
func (oc *ordersCache) get(ctx context.Context, key string, fetch func(context.Context, string) ([]Order, error)) ([]Order, error) {
	if orders, ok := oc.lookup(key); ok {
		return orders, nil
	}
	result, err, _ := oc.group.Do(key, func() (interface{}, error) {
		if orders, ok := oc.lookup(key); ok {
			return orders, nil
		}
		orders, err := fetch(ctx, key)
		if err != nil {
			return nil, err
		}
		oc.store(key, orders)
		return orders, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Order), nil
}
