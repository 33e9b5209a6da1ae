package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeliveryLedger records which routed notifications have already been
// handed to the mailer, supporting its at-most-once delivery guarantee.
// The key format is "delivery:{workflowID}:{transitionID}:{notificationID}:{contentID}".
type DeliveryLedger interface {
	// WasDelivered reports whether the key has already been marked.
	WasDelivered(ctx context.Context, key string) (bool, error)

	// MarkDelivered records the key with a TTL. Marking an already marked
	// key is not an error.
	MarkDelivered(ctx context.Context, key string, ttl time.Duration) error
}

// FormatDeliveryKey builds the standard ledger key.
func FormatDeliveryKey(workflowID, transitionID, notificationID, contentID int64) string {
	return fmt.Sprintf("delivery:%d:%d:%d:%d", workflowID, transitionID, notificationID, contentID)
}

// --- MemoryDeliveryLedger ---

// MemoryDeliveryLedger is an in-memory DeliveryLedger with TTL support.
// Suitable for testing and single-instance deployments.
type MemoryDeliveryLedger struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemoryDeliveryLedger creates a new in-memory delivery ledger.
func NewMemoryDeliveryLedger() *MemoryDeliveryLedger {
	return &MemoryDeliveryLedger{entries: make(map[string]time.Time)}
}

// WasDelivered reports whether the key is marked and unexpired.
func (l *MemoryDeliveryLedger) WasDelivered(_ context.Context, key string) (bool, error) {
	l.mu.RLock()
	expiresAt, exists := l.entries[key]
	l.mu.RUnlock()

	if !exists {
		return false, nil
	}
	if time.Now().After(expiresAt) {
		l.mu.Lock()
		delete(l.entries, key)
		l.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// MarkDelivered records the key with a TTL.
func (l *MemoryDeliveryLedger) MarkDelivered(_ context.Context, key string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = time.Now().Add(ttl)
	return nil
}

// Len returns the number of entries (including expired ones). For testing.
func (l *MemoryDeliveryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// --- RedisDeliveryLedger ---

// RedisDeliveryLedger is a Redis-backed DeliveryLedger with TTL keys.
type RedisDeliveryLedger struct {
	client redis.Cmdable
}

// NewRedisDeliveryLedger creates a Redis-backed delivery ledger.
func NewRedisDeliveryLedger(client redis.Cmdable) *RedisDeliveryLedger {
	return &RedisDeliveryLedger{client: client}
}

// WasDelivered reports whether the key exists in Redis.
func (l *RedisDeliveryLedger) WasDelivered(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %q: %w", key, err)
	}
	return n > 0, nil
}

// MarkDelivered records the key in Redis with a TTL.
func (l *RedisDeliveryLedger) MarkDelivered(ctx context.Context, key string, ttl time.Duration) error {
	if err := l.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// HealthCheck verifies Redis connectivity.
func (l *RedisDeliveryLedger) HealthCheck(ctx context.Context) error {
	if pinger, ok := l.client.(interface {
		Ping(context.Context) *redis.StatusCmd
	}); ok {
		if err := pinger.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}
	return nil
}
