// Package outbox queues record writes that failed so they can be retried
// instead of silently drifting from what the user was shown.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"prize_wheel/internal/domain"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis list holding pending writes.
const DefaultKey = "outbox:writes"

// PendingWrite is a record patch that could not be persisted.
type PendingWrite struct {
	UserID     string             `json:"user_id"`
	Patch      domain.RecordPatch `json:"patch"`
	Attempts   int                `json:"attempts"`
	EnqueuedAt time.Time          `json:"enqueued_at"`
	LastError  string             `json:"last_error,omitempty"`
}

// Queue is a FIFO of pending writes.
type Queue interface {
	Push(ctx context.Context, w PendingWrite) error
	// Pop removes the oldest entry; ok is false when the queue is empty.
	Pop(ctx context.Context) (w PendingWrite, ok bool, err error)
	Len(ctx context.Context) (int64, error)
}

// RedisQueue keeps pending writes in a Redis list so they survive restarts.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

// NewRedisQueue creates a queue on key, or DefaultKey when key is empty.
func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultKey
	}
	return &RedisQueue{rdb: rdb, key: key}
}

func (q *RedisQueue) Push(ctx context.Context, w PendingWrite) error {
	b, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, q.key, b).Err()
}

func (q *RedisQueue) Pop(ctx context.Context) (PendingWrite, bool, error) {
	var w PendingWrite
	val, err := q.rdb.LPop(ctx, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return w, false, nil
	}
	if err != nil {
		return w, false, err
	}
	if err := json.Unmarshal([]byte(val), &w); err != nil {
		return w, false, err
	}
	return w, true, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

// MemoryQueue is an in-process queue for tests and Redis-less setups.
type MemoryQueue struct {
	mu    sync.Mutex
	items []PendingWrite
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Push(_ context.Context, w PendingWrite) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, w)
	return nil
}

func (q *MemoryQueue) Pop(context.Context) (PendingWrite, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return PendingWrite{}, false, nil
	}
	w := q.items[0]
	q.items = q.items[1:]
	return w, true, nil
}

func (q *MemoryQueue) Len(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

// Snapshot returns a copy of the queued entries.
func (q *MemoryQueue) Snapshot() []PendingWrite {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]PendingWrite, len(q.items))
	copy(out, q.items)
	return out
}
