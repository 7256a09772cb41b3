package tokenbucket

import (
	"context"
	"fmt"
	"time"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/logger"
	"github.com/brobot-gg/slots/internal/store"
)

// Quota limits premium spins per user per local day. Counters reset at
// midnight in the configured location because the key carries the date.
type Quota interface {
	// Consume takes one premium spin. Returns spins left today, or
	// ErrQuotaExhausted.
	Consume(ctx context.Context, userID string, now time.Time) (int64, error)
	// Refund hands back a consumed slot when a later step of the same
	// premium spin fails before any money moves.
	Refund(ctx context.Context, userID string, now time.Time)
	// Remaining reports spins left today without consuming.
	Remaining(ctx context.Context, userID string, now time.Time) (int64, error)
	// ResetToday clears the current day's counters (admin refill).
	ResetToday(ctx context.Context, now time.Time) (int, error)
}

type quota struct {
	store  store.Store
	perDay int64
	loc    *time.Location
}

// NewQuota creates a daily premium-spin quota
func NewQuota(st store.Store, perDay int64, loc *time.Location) Quota {
	if perDay <= 0 {
		perDay = DefaultPremiumPerDay
	}
	if loc == nil {
		loc = time.UTC
	}
	return &quota{store: st, perDay: perDay, loc: loc}
}

// DateStr renders the local calendar day used in quota keys
func (q *quota) DateStr(now time.Time) string {
	return now.In(q.loc).Format("2006-01-02")
}

func (q *quota) key(userID string, now time.Time) string {
	return fmt.Sprintf(keyPremium, q.DateStr(now), userID)
}

func (q *quota) Consume(ctx context.Context, userID string, now time.Time) (int64, error) {
	key := q.key(userID, now)
	used, err := q.store.IncrBy(ctx, key, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to count premium spin: %w", err)
	}
	if err := q.store.Expire(ctx, key, QuotaTTL); err != nil {
		logger.FromContext(ctx).Warn("failed to set quota TTL", "key", key, "error", err)
	}
	if used > q.perDay {
		// Hand the slot back so Remaining stays accurate
		if _, err := q.store.IncrBy(ctx, key, -1); err != nil {
			logger.FromContext(ctx).Warn("failed to return premium slot", "key", key, "error", err)
		}
		return 0, fmt.Errorf("%w: %d per day", domain.ErrQuotaExhausted, q.perDay)
	}
	return q.perDay - used, nil
}

func (q *quota) Refund(ctx context.Context, userID string, now time.Time) {
	if _, err := q.store.IncrBy(ctx, q.key(userID, now), -1); err != nil {
		logger.FromContext(ctx).Warn("failed to refund premium slot", "user_id", userID, "error", err)
	}
}

func (q *quota) Remaining(ctx context.Context, userID string, now time.Time) (int64, error) {
	used, err := store.GetInt64(ctx, q.store, q.key(userID, now))
	if err != nil {
		return 0, fmt.Errorf("failed to read premium quota: %w", err)
	}
	left := q.perDay - used
	if left < 0 {
		left = 0
	}
	return left, nil
}

func (q *quota) ResetToday(ctx context.Context, now time.Time) (int, error) {
	pattern := fmt.Sprintf(keyPremium, q.DateStr(now), "*")
	keys, err := q.store.Scan(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("failed to scan quota keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if _, err := q.store.Del(ctx, keys...); err != nil {
		return 0, fmt.Errorf("failed to clear quota keys: %w", err)
	}
	return len(keys), nil
}
