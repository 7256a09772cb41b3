package memstore

import (
	"context"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/brobot-gg/slots/internal/store"
)

// Store is an in-memory store.Store used by engine tests and dev mode.
// A single mutex serializes mutations; per-key version counters back the
// optimistic Watch precondition, mirroring the semantics of the Redis
// backend closely enough for the engine's concurrency tests.
type Store struct {
	mu       sync.Mutex
	strings  map[string]string
	hashes   map[string]map[string]string
	zsets    map[string]map[string]float64
	lists    map[string][]string
	expiries map[string]time.Time
	versions map[string]uint64

	// Now is injectable for TTL tests
	Now func() time.Time
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		strings:  make(map[string]string),
		hashes:   make(map[string]map[string]string),
		zsets:    make(map[string]map[string]float64),
		lists:    make(map[string][]string),
		expiries: make(map[string]time.Time),
		versions: make(map[string]uint64),
		Now:      time.Now,
	}
}

func (s *Store) bump(key string) {
	s.versions[key]++
}

// reap drops the key if its TTL has lapsed. Caller holds the lock.
func (s *Store) reap(key string) {
	deadline, ok := s.expiries[key]
	if !ok || s.Now().Before(deadline) {
		return
	}
	delete(s.strings, key)
	delete(s.hashes, key)
	delete(s.zsets, key)
	delete(s.lists, key)
	delete(s.expiries, key)
	s.bump(key)
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reap(key)
	v, ok := s.strings[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, value, ttl)
	return nil
}

func (s *Store) setLocked(key, value string, ttl time.Duration) {
	s.strings[key] = value
	if ttl > 0 {
		s.expiries[key] = s.Now().Add(ttl)
	} else {
		delete(s.expiries, key)
	}
	s.bump(key)
}

func (s *Store) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reap(key)
	if _, ok := s.strings[key]; ok {
		return false, nil
	}
	s.setLocked(key, value, ttl)
	return true, nil
}

func (s *Store) Del(_ context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, key := range keys {
		n += s.delLocked(key)
	}
	return n, nil
}

func (s *Store) delLocked(key string) int64 {
	var n int64
	if _, ok := s.strings[key]; ok {
		delete(s.strings, key)
		n = 1
	}
	if _, ok := s.hashes[key]; ok {
		delete(s.hashes, key)
		n = 1
	}
	if _, ok := s.zsets[key]; ok {
		delete(s.zsets, key)
		n = 1
	}
	if _, ok := s.lists[key]; ok {
		delete(s.lists, key)
		n = 1
	}
	delete(s.expiries, key)
	if n > 0 {
		s.bump(key)
	}
	return n
}

func (s *Store) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrLocked(key, delta)
}

func (s *Store) incrLocked(key string, delta int64) (int64, error) {
	s.reap(key)
	cur := int64(0)
	if raw, ok := s.strings[key]; ok {
		parsed, err := parseInt(raw)
		if err != nil {
			return 0, err
		}
		cur = parsed
	}
	cur += delta
	s.strings[key] = formatInt(cur)
	s.bump(key)
	return cur, nil
}

func (s *Store) GetDel(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reap(key)
	v, ok := s.strings[key]
	if !ok {
		return "", store.ErrNotFound
	}
	s.delLocked(key)
	return v, nil
}

func (s *Store) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reap(key)
	s.expiries[key] = s.Now().Add(ttl)
	return nil
}

func (s *Store) HGet(_ context.Context, key, field string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reap(key)
	h, ok := s.hashes[key]
	if !ok {
		return "", store.ErrNotFound
	}
	v, ok := h[field]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reap(key)
	out := make(map[string]string, len(s.hashes[key]))
	for f, v := range s.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (s *Store) HIncrBy(_ context.Context, key, field string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hincrLocked(key, field, delta)
}

func (s *Store) hincrLocked(key, field string, delta int64) (int64, error) {
	s.reap(key)
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string)
		s.hashes[key] = h
	}
	cur := int64(0)
	if raw, ok := h[field]; ok {
		parsed, err := parseInt(raw)
		if err != nil {
			return 0, err
		}
		cur = parsed
	}
	cur += delta
	h[field] = formatInt(cur)
	s.bump(key)
	return cur, nil
}

func (s *Store) ZIncrBy(_ context.Context, key string, delta float64, member string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zincrLocked(key, delta, member), nil
}

func (s *Store) zincrLocked(key string, delta float64, member string) float64 {
	z, ok := s.zsets[key]
	if !ok {
		z = make(map[string]float64)
		s.zsets[key] = z
	}
	z[member] += delta
	s.bump(key)
	return z[member]
}

func (s *Store) ZRevRangeWithScores(_ context.Context, key string, start, stop int64) ([]store.Z, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reap(key)
	all := make([]store.Z, 0, len(s.zsets[key]))
	for m, sc := range s.zsets[key] {
		all = append(all, store.Z{Member: m, Score: sc})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].Member > all[j].Member
	})
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= int64(len(all)) {
		stop = int64(len(all)) - 1
	}
	if start > stop {
		return nil, nil
	}
	return all[start : stop+1], nil
}

func (s *Store) LPush(_ context.Context, key string, values ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lpushLocked(key, values...)
	return nil
}

func (s *Store) lpushLocked(key string, values ...string) {
	for _, v := range values {
		s.lists[key] = append([]string{v}, s.lists[key]...)
	}
	s.bump(key)
}

func (s *Store) LTrim(_ context.Context, key string, start, stop int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ltrimLocked(key, start, stop)
	return nil
}

func (s *Store) ltrimLocked(key string, start, stop int64) {
	l := s.lists[key]
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= int64(len(l)) {
		stop = int64(len(l)) - 1
	}
	if start > stop {
		s.lists[key] = nil
	} else {
		s.lists[key] = l[start : stop+1]
	}
	s.bump(key)
}

func (s *Store) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.lists[key]
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= int64(len(l)) {
		stop = int64(len(l)) - 1
	}
	if start > stop {
		return nil, nil
	}
	out := make([]string, stop-start+1)
	copy(out, l[start:stop+1])
	return out, nil
}

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	var keys []string
	match := func(key string) {
		if _, dup := seen[key]; dup {
			return
		}
		if ok, _ := path.Match(pattern, key); ok {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	for k := range s.strings {
		match(k)
	}
	for k := range s.hashes {
		match(k)
	}
	for k := range s.zsets {
		match(k)
	}
	for k := range s.lists {
		match(k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Update(_ context.Context, fn func(p store.Pipe)) error {
	p := &pipe{}
	fn(p)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(p)
}

func (s *Store) applyLocked(p *pipe) error {
	for _, op := range p.ops {
		if err := op(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Watch(ctx context.Context, fn func(tx store.Tx) error, keys ...string) error {
	s.mu.Lock()
	snapshot := make(map[string]uint64, len(keys))
	for _, k := range keys {
		s.reap(k)
		snapshot[k] = s.versions[k]
	}
	s.mu.Unlock()

	return fn(&tx{store: s, snapshot: snapshot})
}

// tx implements store.Tx with optimistic version checks
type tx struct {
	store    *Store
	snapshot map[string]uint64
}

func (t *tx) Get(ctx context.Context, key string) (string, error) {
	return t.store.Get(ctx, key)
}

func (t *tx) HGet(ctx context.Context, key, field string) (string, error) {
	return t.store.HGet(ctx, key, field)
}

func (t *tx) Update(_ context.Context, fn func(p store.Pipe)) error {
	p := &pipe{}
	fn(p)
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for k, v := range t.snapshot {
		if t.store.versions[k] != v {
			return store.ErrConflict
		}
	}
	return t.store.applyLocked(p)
}

// pipe records write commands and replays them under the store lock
type pipe struct {
	ops []func(s *Store) error
}

func (p *pipe) Set(key, value string, ttl time.Duration) {
	p.ops = append(p.ops, func(s *Store) error {
		s.setLocked(key, value, ttl)
		return nil
	})
}

func (p *pipe) Del(keys ...string) {
	p.ops = append(p.ops, func(s *Store) error {
		for _, k := range keys {
			s.delLocked(k)
		}
		return nil
	})
}

func (p *pipe) IncrBy(key string, delta int64) {
	p.ops = append(p.ops, func(s *Store) error {
		_, err := s.incrLocked(key, delta)
		return err
	})
}

func (p *pipe) HIncrBy(key, field string, delta int64) {
	p.ops = append(p.ops, func(s *Store) error {
		_, err := s.hincrLocked(key, field, delta)
		return err
	})
}

func (p *pipe) ZIncrBy(key string, delta float64, member string) {
	p.ops = append(p.ops, func(s *Store) error {
		s.zincrLocked(key, delta, member)
		return nil
	})
}

func (p *pipe) LPush(key string, values ...string) {
	p.ops = append(p.ops, func(s *Store) error {
		s.lpushLocked(key, values...)
		return nil
	})
}

func (p *pipe) LTrim(key string, start, stop int64) {
	p.ops = append(p.ops, func(s *Store) error {
		s.ltrimLocked(key, start, stop)
		return nil
	})
}

func (p *pipe) Expire(key string, ttl time.Duration) {
	p.ops = append(p.ops, func(s *Store) error {
		s.expiries[key] = s.Now().Add(ttl)
		return nil
	})
}

func parseInt(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func formatInt(v int64) string {
	return store.FormatInt64(v)
}
