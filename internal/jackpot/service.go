package jackpot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/brobot-gg/slots/internal/logger"
	"github.com/brobot-gg/slots/internal/store"
)

const (
	// PoolKey is the single shared progressive pot
	PoolKey = "slots:jackpot:pool"

	// DefaultGrowthFraction is the share of the current pool added on every
	// standard spin (compounding)
	DefaultGrowthFraction = 0.01
)

// Service is the progressive jackpot accumulator. The pool is a single
// shared counter in the store; it grows from premium-spin costs and a small
// fraction of itself per standard spin, and is zeroed atomically on payout.
type Service interface {
	// Contribute adds a fixed amount to the pool (premium-spin costs,
	// duel house cuts go through the settlement pipeline instead).
	Contribute(ctx context.Context, amount int64) error
	// Grow compounds the pool by the configured fraction. No-op when the
	// pool is empty or another spin grew it concurrently.
	Grow(ctx context.Context) error
	// Claim atomically reads and zeroes the pool. Concurrent claimers never
	// both receive the same non-zero amount.
	Claim(ctx context.Context) (int64, error)
	// Peek reads the current pool value.
	Peek(ctx context.Context) (int64, error)
}

type service struct {
	store    store.Store
	fraction float64
}

// NewService creates a jackpot accumulator
func NewService(st store.Store, growthFraction float64) Service {
	if growthFraction <= 0 {
		growthFraction = DefaultGrowthFraction
	}
	return &service{store: st, fraction: growthFraction}
}

func (s *service) Contribute(ctx context.Context, amount int64) error {
	if amount <= 0 {
		return nil
	}
	if _, err := s.store.IncrBy(ctx, PoolKey, amount); err != nil {
		return fmt.Errorf("failed to grow jackpot pool: %w", err)
	}
	return nil
}

func (s *service) Grow(ctx context.Context) error {
	err := s.store.Watch(ctx, func(tx store.Tx) error {
		current, err := store.GetInt64(ctx, tx, PoolKey)
		if err != nil {
			return err
		}
		if current <= 0 {
			return nil
		}
		delta := int64(math.Floor(float64(current) * s.fraction))
		if delta <= 0 {
			return nil
		}
		return tx.Update(ctx, func(p store.Pipe) {
			p.IncrBy(PoolKey, delta)
		})
	}, PoolKey)

	if errors.Is(err, store.ErrConflict) {
		// Another spin touched the pool first; its growth stands.
		logger.FromContext(ctx).Debug("jackpot growth skipped on conflict")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to compound jackpot pool: %w", err)
	}
	return nil
}

func (s *service) Claim(ctx context.Context) (int64, error) {
	raw, err := s.store.GetDel(ctx, PoolKey)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to claim jackpot pool: %w", err)
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt jackpot pool value %q: %w", raw, err)
	}
	if amount < 0 {
		return 0, nil
	}
	return amount, nil
}

func (s *service) Peek(ctx context.Context) (int64, error) {
	v, err := store.GetInt64(ctx, s.store, PoolKey)
	if err != nil {
		return 0, fmt.Errorf("failed to read jackpot pool: %w", err)
	}
	return v, nil
}
