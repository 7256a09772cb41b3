package store

import (
	"context"
	"errors"
	"time"
)

// Store-level sentinel errors
var (
	// ErrNotFound is returned when a key or hash field does not exist
	ErrNotFound = errors.New("key not found")

	// ErrConflict is returned when an optimistic transaction loses the race
	// on one of its watched keys
	ErrConflict = errors.New("transaction conflict")
)

// Z is a sorted-set member with its score
type Z struct {
	Member string
	Score  float64
}

// Store is the shared state store consumed by the engine. All cross-request
// state lives here; contended keys are only ever touched through the atomic
// primitives below (single increment, conditional set, or an all-or-nothing
// batch, optionally guarded by a Watch precondition). A non-atomic
// read-then-write across the network is never acceptable for those keys.
//
// Implementations: redisstore (production), memstore (tests, dev mode).
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX sets the key only when absent. Returns true when the write won.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) (int64, error)
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	// GetDel atomically reads and deletes the key. Concurrent callers never
	// both observe the same non-empty value.
	GetDel(ctx context.Context, key string) (string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)

	ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error)
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]Z, error)

	LPush(ctx context.Context, key string, values ...string) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Scan returns all keys matching a glob pattern. Admin paths only.
	Scan(ctx context.Context, pattern string) ([]string, error)

	// Ping reports whether the backing store is reachable
	Ping(ctx context.Context) error

	// Update applies the queued batch atomically: either every command in the
	// batch is applied or none is.
	Update(ctx context.Context, fn func(p Pipe)) error

	// Watch runs fn with an optimistic precondition on the given keys. A batch
	// issued through Tx.Update commits only if no watched key changed since
	// the reads; otherwise Watch returns ErrConflict.
	Watch(ctx context.Context, fn func(tx Tx) error, keys ...string) error
}

// Tx is the view inside a Watch callback
type Tx interface {
	Get(ctx context.Context, key string) (string, error)
	HGet(ctx context.Context, key, field string) (string, error)
	Update(ctx context.Context, fn func(p Pipe)) error
}

// Pipe queues write commands for an atomic batch. Commands are applied in
// order; results are not observable mid-batch.
type Pipe interface {
	Set(key, value string, ttl time.Duration)
	Del(keys ...string)
	IncrBy(key string, delta int64)
	HIncrBy(key, field string, delta int64)
	ZIncrBy(key string, delta float64, member string)
	LPush(key string, values ...string)
	LTrim(key string, start, stop int64)
	Expire(key string, ttl time.Duration)
}
