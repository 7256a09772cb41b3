package tokenbucket

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/logger"
	"github.com/brobot-gg/slots/internal/store"
)

// ErrNoTokens is returned when a consume is denied. NextIn is always in
// (0, period], so the caller can tell the user when the next spin charges.
type ErrNoTokens struct {
	NextIn time.Duration
	Cap    int64
}

func (e ErrNoTokens) Error() string {
	return fmt.Sprintf("%s: next spin in %s", domain.ErrMsgNoSpinsLeft, e.NextIn.Round(time.Second))
}

// Is allows errors.Is() to match both the typed error and the sentinel
func (e ErrNoTokens) Is(target error) bool {
	if target == domain.ErrNoSpinsLeft {
		return true
	}
	_, ok := target.(ErrNoTokens)
	return ok
}

// Service is the per-user spin-allowance limiter. State lives in the store;
// refill is computed lazily on access so idle users cost nothing.
type Service interface {
	// Consume takes one token. Returns tokens remaining, or ErrNoTokens.
	Consume(ctx context.Context, userID string) (int64, error)
	// Remaining reports tokens and time until the next one, without consuming.
	Remaining(ctx context.Context, userID string) (int64, time.Duration, error)
	// ForceRefill sets every tracked user back to cap (admin).
	ForceRefill(ctx context.Context) (int, error)
}

type service struct {
	store  store.Store
	cap    int64
	period time.Duration
	now    func() time.Time
}

// NewService creates a token bucket limiter
func NewService(st store.Store, capacity int64, period time.Duration) Service {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	if period <= 0 {
		period = DefaultRefillPeriod
	}
	return &service{store: st, cap: capacity, period: period, now: time.Now}
}

func tokensKey(userID string) string { return fmt.Sprintf(keyTokens, userID) }
func lastKey(userID string) string   { return fmt.Sprintf(keyLast, userID) }

func (s *service) Consume(ctx context.Context, userID string) (int64, error) {
	tokens, nextIn, err := s.refill(ctx, userID)
	if err != nil {
		return 0, err
	}
	if tokens <= 0 {
		return 0, ErrNoTokens{NextIn: nextIn, Cap: s.cap}
	}

	// Atomic decrement: concurrent consumers race on the same counter, but
	// an overdraw is detected and handed back, so the bucket never goes
	// below zero from the caller's point of view.
	remaining, err := s.store.IncrBy(ctx, tokensKey(userID), -1)
	if err != nil {
		return 0, fmt.Errorf("failed to consume token: %w", err)
	}
	if remaining < 0 {
		if _, err := s.store.IncrBy(ctx, tokensKey(userID), 1); err != nil {
			logger.FromContext(ctx).Warn("failed to return overdrawn token", "user_id", userID, "error", err)
		}
		return 0, ErrNoTokens{NextIn: nextIn, Cap: s.cap}
	}
	return remaining, nil
}

func (s *service) Remaining(ctx context.Context, userID string) (int64, time.Duration, error) {
	return s.refill(ctx, userID)
}

// refill lazily credits whole elapsed periods. last_refill advances only by
// gained*period so fractional progress toward the next token survives; it is
// pinned to now only at cap, which bounds backlog growth at the cost of
// forfeiting partial progress right when the bucket fills (kept as-is,
// covered by a boundary test).
func (s *service) refill(ctx context.Context, userID string) (int64, time.Duration, error) {
	tk, lk := tokensKey(userID), lastKey(userID)
	now := s.now().Unix()

	var tokens, last int64
	err := s.store.Watch(ctx, func(tx store.Tx) error {
		var err error
		tokens, err = store.GetInt64(ctx, tx, tk)
		if err != nil {
			return err
		}
		rawLast, err := tx.Get(ctx, lk)
		if errors.Is(err, store.ErrNotFound) {
			// First sighting: start at full cap
			tokens, last = s.cap, now
			return tx.Update(ctx, func(p store.Pipe) {
				p.Set(tk, store.FormatInt64(tokens), 0)
				p.Set(lk, store.FormatInt64(last), 0)
			})
		}
		if err != nil {
			return err
		}
		last, err = parseUnix(rawLast)
		if err != nil {
			return err
		}

		if tokens >= s.cap {
			if last == now {
				return nil
			}
			last = now
			return tx.Update(ctx, func(p store.Pipe) {
				p.Set(lk, store.FormatInt64(last), 0)
			})
		}

		elapsed := now - last
		if elapsed < 0 {
			elapsed = 0
		}
		gained := elapsed / int64(s.period.Seconds())
		if gained <= 0 {
			return nil
		}
		tokens = min(s.cap, tokens+gained)
		last += gained * int64(s.period.Seconds())
		return tx.Update(ctx, func(p store.Pipe) {
			p.Set(tk, store.FormatInt64(tokens), 0)
			p.Set(lk, store.FormatInt64(last), 0)
		})
	}, tk, lk)

	if errors.Is(err, store.ErrConflict) {
		// A concurrent handler for the same user refilled first. Re-read;
		// the race grants at most one extra token and cap still holds.
		tokens, err = store.GetInt64(ctx, s.store, tk)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to re-read tokens: %w", err)
		}
		lastV, lerr := store.GetInt64(ctx, s.store, lk)
		if lerr != nil {
			return 0, 0, fmt.Errorf("failed to re-read last refill: %w", lerr)
		}
		last = lastV
	} else if err != nil {
		return 0, 0, fmt.Errorf("failed to refill tokens: %w", err)
	}

	return tokens, s.nextIn(tokens, last, now), nil
}

// nextIn is 0 at cap, otherwise in (0, period]
func (s *service) nextIn(tokens, last, now int64) time.Duration {
	if tokens >= s.cap {
		return 0
	}
	elapsed := now - last
	if elapsed < 0 {
		elapsed = 0
	}
	periodSec := int64(s.period.Seconds())
	return time.Duration(periodSec-elapsed%periodSec) * time.Second
}

func (s *service) ForceRefill(ctx context.Context) (int, error) {
	keys, err := s.store.Scan(ctx, ScanTokensPattern)
	if err != nil {
		return 0, fmt.Errorf("failed to scan token keys: %w", err)
	}

	now := s.now().Unix()
	err = s.store.Update(ctx, func(p store.Pipe) {
		for _, tk := range keys {
			userID := tk[strings.LastIndex(tk, ":")+1:]
			p.Set(tk, store.FormatInt64(s.cap), 0)
			p.Set(lastKey(userID), store.FormatInt64(now), 0)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("failed to refill tokens: %w", err)
	}
	return len(keys), nil
}

func parseUnix(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
