package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/jackpot"
	"github.com/brobot-gg/slots/internal/logger"
	"github.com/brobot-gg/slots/internal/store"
)

// Service owns per-user cumulative stats, the live leaderboard projection,
// and the bounded win feeds. All balance mutations go through transactional
// batches; nothing here does a read-then-write on a contended key.
type Service interface {
	Points(ctx context.Context, userID string) (int64, error)
	Entry(ctx context.Context, userID string) (*domain.LedgerEntry, error)
	TopK(ctx context.Context, k int64) ([]domain.LeaderboardRow, error)
	BigWins(ctx context.Context, n int64) ([]domain.FeedEntry, error)
	BiggestSpins(ctx context.Context, n int64) ([]domain.FeedEntry, error)

	// CreditSpin applies a scored spin's whole ledger tail in one batch:
	// gross credit, spin counters, and feed entries. Big-win comparisons use
	// the net delta, after cost deduction.
	CreditSpin(ctx context.Context, userID, username string, out *domain.SpinOutcome, date string) error

	// EscrowPremiumCost debits the premium-spin cost and routes it into the
	// jackpot pool as one batch. The debit is only considered applied once
	// this confirms.
	EscrowPremiumCost(ctx context.Context, userID string, cost int64) error

	// RefundPremiumCost reverses an escrow whose settlement never committed:
	// the cost moves from the jackpot pool back to the user in one batch.
	RefundPremiumCost(ctx context.Context, userID string, cost int64) error

	// SetBigWinThreshold swaps the big-win feed cutoff (admin reload).
	SetBigWinThreshold(v int64)

	// HardReset clears every ledger, feed, quota, and jackpot key (admin).
	HardReset(ctx context.Context) (int64, error)
}

type service struct {
	store           store.Store
	feedLen         int64
	bigWinThreshold atomic.Int64
}

// NewService creates a ledger service
func NewService(st store.Store, feedLen, bigWinThreshold int64) Service {
	if feedLen <= 0 {
		feedLen = DefaultFeedLen
	}
	s := &service{store: st, feedLen: feedLen}
	s.bigWinThreshold.Store(bigWinThreshold)
	return s
}

func (s *service) SetBigWinThreshold(v int64) {
	s.bigWinThreshold.Store(v)
}

func (s *service) Points(ctx context.Context, userID string) (int64, error) {
	v, err := store.HGetInt64(ctx, s.store, KeyPoints, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read points: %w", err)
	}
	return v, nil
}

func (s *service) Entry(ctx context.Context, userID string) (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{UserID: userID}
	for _, f := range []struct {
		key string
		dst *int64
	}{
		{KeyPoints, &entry.TotalPoints},
		{KeySpins, &entry.TotalSpins},
		{KeyPremiumSpins, &entry.TotalPremiumSpins},
		{KeyDuelWins, &entry.DuelWins},
		{KeyDuelLosses, &entry.DuelLosses},
	} {
		v, err := store.HGetInt64(ctx, s.store, f.key, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger entry: %w", err)
		}
		*f.dst = v
	}
	return entry, nil
}

func (s *service) TopK(ctx context.Context, k int64) ([]domain.LeaderboardRow, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	top, err := s.store.ZRevRangeWithScores(ctx, KeyLeaderboard, 0, k-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	spins, err := s.store.HGetAll(ctx, KeySpins)
	if err != nil {
		return nil, fmt.Errorf("failed to read spin counts: %w", err)
	}

	rows := make([]domain.LeaderboardRow, 0, len(top))
	for i, z := range top {
		row := domain.LeaderboardRow{
			Rank:        i + 1,
			UserID:      z.Member,
			TotalPoints: int64(z.Score),
		}
		if raw, ok := spins[z.Member]; ok {
			if n, err := parseInt(raw); err == nil {
				row.TotalSpins = n
			}
		}
		if row.TotalSpins > 0 {
			row.AvgPerSpin = float64(row.TotalPoints) / float64(row.TotalSpins)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *service) BigWins(ctx context.Context, n int64) ([]domain.FeedEntry, error) {
	return s.feed(ctx, KeyBigWins, n)
}

func (s *service) BiggestSpins(ctx context.Context, n int64) ([]domain.FeedEntry, error) {
	return s.feed(ctx, KeyBiggestSpins, n)
}

func (s *service) feed(ctx context.Context, key string, n int64) ([]domain.FeedEntry, error) {
	if n <= 0 {
		n = s.feedLen
	}
	raw, err := s.store.LRange(ctx, key, 0, n-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed %s: %w", key, err)
	}
	entries := make([]domain.FeedEntry, 0, len(raw))
	for _, item := range raw {
		var e domain.FeedEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			// Skip corrupted entries rather than failing the projection
			logger.FromContext(ctx).Warn("skipping corrupt feed entry", "key", key, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *service) CreditSpin(ctx context.Context, userID, username string, out *domain.SpinOutcome, date string) error {
	gross := out.TotalPayout + out.JackpotAwarded
	err := s.store.Update(ctx, func(p store.Pipe) {
		PipeCredit(p, userID, gross)
		PipeSpinCounters(p, userID, out.Mode == domain.ModePremium)

		entry := domain.FeedEntry{
			UserID:   userID,
			Username: username,
			Amount:   out.NetDelta,
			Date:     date,
			Premium:  out.Mode == domain.ModePremium,
			Jackpot:  out.JackpotAwarded,
		}
		if out.NetDelta >= s.bigWinThreshold.Load() || out.JackpotAwarded > 0 {
			PipeFeed(p, KeyBigWins, entry, s.feedLen)
		}
		if out.NetDelta > 0 {
			PipeFeed(p, KeyBiggestSpins, entry, s.feedLen)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to credit spin: %w", err)
	}
	return nil
}

func (s *service) EscrowPremiumCost(ctx context.Context, userID string, cost int64) error {
	if cost <= 0 {
		return nil
	}
	err := s.store.Update(ctx, func(p store.Pipe) {
		PipeCredit(p, userID, -cost)
		p.IncrBy(jackpot.PoolKey, cost)
	})
	if err != nil {
		return fmt.Errorf("failed to escrow premium cost: %w", err)
	}
	return nil
}

func (s *service) RefundPremiumCost(ctx context.Context, userID string, cost int64) error {
	if cost <= 0 {
		return nil
	}
	err := s.store.Update(ctx, func(p store.Pipe) {
		PipeCredit(p, userID, cost)
		p.IncrBy(jackpot.PoolKey, -cost)
	})
	if err != nil {
		return fmt.Errorf("failed to refund premium cost: %w", err)
	}
	return nil
}

func (s *service) HardReset(ctx context.Context) (int64, error) {
	var cleared int64

	// Per-day keys first
	for _, pattern := range []string{"slots:premium:*", "slots:tokens:*", "slots:last:*"} {
		keys, err := s.store.Scan(ctx, pattern)
		if err != nil {
			return cleared, fmt.Errorf("failed to scan %s: %w", pattern, err)
		}
		if len(keys) == 0 {
			continue
		}
		n, err := s.store.Del(ctx, keys...)
		if err != nil {
			return cleared, fmt.Errorf("failed to clear %s: %w", pattern, err)
		}
		cleared += n
	}

	n, err := s.store.Del(ctx,
		KeyLeaderboard,
		KeyPoints,
		KeySpins,
		KeyPremiumSpins,
		KeyDuelWins,
		KeyDuelLosses,
		KeyBigWins,
		KeyBiggestSpins,
		jackpot.PoolKey,
	)
	if err != nil {
		return cleared, fmt.Errorf("failed to clear global keys: %w", err)
	}
	return cleared + n, nil
}

func parseInt(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
