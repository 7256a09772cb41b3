package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brobot-gg/slots/internal/store"
)

// Store implements store.Store on a Redis client
type Store struct {
	client *redis.Client
}

// Config holds Redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
}

// New connects to Redis and verifies the connection
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &Store{client: client}, nil
}

// Close releases the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return store.ErrNotFound
	}
	if errors.Is(err, redis.TxFailedErr) {
		return store.ErrConflict
	}
	return err
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	return v, wrapErr(err)
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return wrapErr(s.client.Set(ctx, key, value, ttl).Err())
}

func (s *Store) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	return ok, wrapErr(err)
}

func (s *Store) Del(ctx context.Context, keys ...string) (int64, error) {
	n, err := s.client.Del(ctx, keys...).Result()
	return n, wrapErr(err)
}

func (s *Store) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	n, err := s.client.IncrBy(ctx, key, delta).Result()
	return n, wrapErr(err)
}

func (s *Store) GetDel(ctx context.Context, key string) (string, error) {
	v, err := s.client.GetDel(ctx, key).Result()
	return v, wrapErr(err)
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return wrapErr(s.client.Expire(ctx, key, ttl).Err())
}

func (s *Store) HGet(ctx context.Context, key, field string) (string, error) {
	v, err := s.client.HGet(ctx, key, field).Result()
	return v, wrapErr(err)
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.client.HGetAll(ctx, key).Result()
	return m, wrapErr(err)
}

func (s *Store) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	n, err := s.client.HIncrBy(ctx, key, field, delta).Result()
	return n, wrapErr(err)
}

func (s *Store) ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error) {
	f, err := s.client.ZIncrBy(ctx, key, delta, member).Result()
	return f, wrapErr(err)
}

func (s *Store) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]store.Z, error) {
	rows, err := s.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, wrapErr(err)
	}
	out := make([]store.Z, 0, len(rows))
	for _, r := range rows {
		member, _ := r.Member.(string)
		out = append(out, store.Z{Member: member, Score: r.Score})
	}
	return out, nil
}

func (s *Store) LPush(ctx context.Context, key string, values ...string) error {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return wrapErr(s.client.LPush(ctx, key, args...).Err())
}

func (s *Store) LTrim(ctx context.Context, key string, start, stop int64) error {
	return wrapErr(s.client.LTrim(ctx, key, start, stop).Err())
}

func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	v, err := s.client.LRange(ctx, key, start, stop).Result()
	return v, wrapErr(err)
}

func (s *Store) Ping(ctx context.Context) error {
	return wrapErr(s.client.Ping(ctx).Err())
}

func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return keys, nil
}

func (s *Store) Update(ctx context.Context, fn func(p store.Pipe)) error {
	_, err := s.client.TxPipelined(ctx, func(pl redis.Pipeliner) error {
		fn(&pipe{pl: pl})
		return nil
	})
	return wrapErr(err)
}

func (s *Store) Watch(ctx context.Context, fn func(tx store.Tx) error, keys ...string) error {
	err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
		return fn(&tx{rtx: rtx})
	}, keys...)
	return wrapErr(err)
}

// tx adapts *redis.Tx to store.Tx
type tx struct {
	rtx *redis.Tx
}

func (t *tx) Get(ctx context.Context, key string) (string, error) {
	v, err := t.rtx.Get(ctx, key).Result()
	return v, wrapErr(err)
}

func (t *tx) HGet(ctx context.Context, key, field string) (string, error) {
	v, err := t.rtx.HGet(ctx, key, field).Result()
	return v, wrapErr(err)
}

func (t *tx) Update(ctx context.Context, fn func(p store.Pipe)) error {
	_, err := t.rtx.TxPipelined(ctx, func(pl redis.Pipeliner) error {
		fn(&pipe{pl: pl})
		return nil
	})
	return wrapErr(err)
}

// pipe adapts redis.Pipeliner to store.Pipe
type pipe struct {
	pl redis.Pipeliner
}

func (p *pipe) Set(key, value string, ttl time.Duration) {
	p.pl.Set(context.Background(), key, value, ttl)
}

func (p *pipe) Del(keys ...string) {
	p.pl.Del(context.Background(), keys...)
}

func (p *pipe) IncrBy(key string, delta int64) {
	p.pl.IncrBy(context.Background(), key, delta)
}

func (p *pipe) HIncrBy(key, field string, delta int64) {
	p.pl.HIncrBy(context.Background(), key, field, delta)
}

func (p *pipe) ZIncrBy(key string, delta float64, member string) {
	p.pl.ZIncrBy(context.Background(), key, delta, member)
}

func (p *pipe) LPush(key string, values ...string) {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	p.pl.LPush(context.Background(), key, args...)
}

func (p *pipe) LTrim(key string, start, stop int64) {
	p.pl.LTrim(context.Background(), key, start, stop)
}

func (p *pipe) Expire(key string, ttl time.Duration) {
	p.pl.Expire(context.Background(), key, ttl)
}
