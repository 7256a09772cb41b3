package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/jackpot"
	"github.com/brobot-gg/slots/internal/store/memstore"
)

func TestCreditSpinUpdatesAllProjections(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewService(st, 10, 1000)

	out := &domain.SpinOutcome{
		Mode:        domain.ModeStandard,
		TotalPayout: 120,
		NetDelta:    120,
	}
	require.NoError(t, svc.CreditSpin(ctx, "u1", "alice", out, "2025-06-01"))

	points, err := svc.Points(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(120), points)

	entry, err := svc.Entry(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(120), entry.TotalPoints)
	assert.Equal(t, int64(1), entry.TotalSpins)
	assert.Equal(t, int64(0), entry.TotalPremiumSpins)

	rows, err := svc.TopK(ctx, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "u1", rows[0].UserID)
	assert.Equal(t, int64(120), rows[0].TotalPoints)
	assert.Equal(t, int64(1), rows[0].TotalSpins)
	assert.InDelta(t, 120.0, rows[0].AvgPerSpin, 1e-9)
}

func TestCreditSpinPremiumCountersAndJackpot(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), 10, 1000)

	out := &domain.SpinOutcome{
		Mode:           domain.ModePremium,
		TotalPayout:    300,
		JackpotAwarded: 700,
		Cost:           100,
		NetDelta:       900,
	}
	require.NoError(t, svc.CreditSpin(ctx, "u1", "alice", out, "2025-06-01"))

	entry, err := svc.Entry(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), entry.TotalPoints, "payout plus jackpot, gross")
	assert.Equal(t, int64(1), entry.TotalPremiumSpins)

	// Jackpot hit lands in big wins even below the threshold check on amount
	wins, err := svc.BigWins(ctx, 5)
	require.NoError(t, err)
	require.Len(t, wins, 1)
	assert.Equal(t, "alice", wins[0].Username)
	assert.Equal(t, int64(900), wins[0].Amount)
	assert.True(t, wins[0].Premium)
	assert.Equal(t, int64(700), wins[0].Jackpot)
}

func TestBigWinThreshold(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), 10, 500)

	small := &domain.SpinOutcome{Mode: domain.ModeStandard, TotalPayout: 100, NetDelta: 100}
	big := &domain.SpinOutcome{Mode: domain.ModeStandard, TotalPayout: 500, NetDelta: 500}
	require.NoError(t, svc.CreditSpin(ctx, "u1", "alice", small, "2025-06-01"))
	require.NoError(t, svc.CreditSpin(ctx, "u1", "alice", big, "2025-06-01"))

	wins, err := svc.BigWins(ctx, 5)
	require.NoError(t, err)
	require.Len(t, wins, 1)
	assert.Equal(t, int64(500), wins[0].Amount)

	// Both positive spins appear in the biggest-spins feed, newest first
	spins, err := svc.BiggestSpins(ctx, 5)
	require.NoError(t, err)
	require.Len(t, spins, 2)
	assert.Equal(t, int64(500), spins[0].Amount)
	assert.Equal(t, int64(100), spins[1].Amount)
}

func TestFeedBounded(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), 3, 1)

	for i := int64(1); i <= 5; i++ {
		out := &domain.SpinOutcome{Mode: domain.ModeStandard, TotalPayout: i, NetDelta: i}
		require.NoError(t, svc.CreditSpin(ctx, "u1", "alice", out, "2025-06-01"))
	}

	wins, err := svc.BigWins(ctx, 10)
	require.NoError(t, err)
	require.Len(t, wins, 3)
	assert.Equal(t, int64(5), wins[0].Amount)
	assert.Equal(t, int64(3), wins[2].Amount)
}

func TestFeedSkipsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewService(st, 10, 1)

	out := &domain.SpinOutcome{Mode: domain.ModeStandard, TotalPayout: 50, NetDelta: 50}
	require.NoError(t, svc.CreditSpin(ctx, "u1", "alice", out, "2025-06-01"))
	require.NoError(t, st.LPush(ctx, KeyBigWins, "{not json"))

	wins, err := svc.BigWins(ctx, 10)
	require.NoError(t, err)
	require.Len(t, wins, 1)
	assert.Equal(t, int64(50), wins[0].Amount)
}

func TestEscrowPremiumCost(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewService(st, 10, 1000)
	pot := jackpot.NewService(st, 0.01)

	seed := &domain.SpinOutcome{Mode: domain.ModeStandard, TotalPayout: 1000, NetDelta: 1000}
	require.NoError(t, svc.CreditSpin(ctx, "u1", "alice", seed, "2025-06-01"))

	require.NoError(t, svc.EscrowPremiumCost(ctx, "u1", 100))

	points, err := svc.Points(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(900), points)

	pool, err := pot.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), pool, "debited cost lands in the pool")

	// Zero cost moves nothing
	require.NoError(t, svc.EscrowPremiumCost(ctx, "u1", 0))
	points, err = svc.Points(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(900), points)
}

func TestRefundPremiumCost(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewService(st, 10, 1000)
	pot := jackpot.NewService(st, 0.01)

	seed := &domain.SpinOutcome{Mode: domain.ModeStandard, TotalPayout: 1000, NetDelta: 1000}
	require.NoError(t, svc.CreditSpin(ctx, "u1", "alice", seed, "2025-06-01"))
	require.NoError(t, svc.EscrowPremiumCost(ctx, "u1", 100))

	require.NoError(t, svc.RefundPremiumCost(ctx, "u1", 100))

	points, err := svc.Points(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), points, "escrow fully reversed")

	pool, err := pot.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pool)

	// Zero cost moves nothing
	require.NoError(t, svc.RefundPremiumCost(ctx, "u1", 0))
	points, err = svc.Points(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), points)
}

func TestSetBigWinThreshold(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), 10, 1000)

	out := &domain.SpinOutcome{Mode: domain.ModeStandard, TotalPayout: 500, NetDelta: 500}
	require.NoError(t, svc.CreditSpin(ctx, "u1", "alice", out, "2025-06-01"))

	wins, err := svc.BigWins(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, wins)

	svc.SetBigWinThreshold(500)
	require.NoError(t, svc.CreditSpin(ctx, "u1", "alice", out, "2025-06-01"))

	wins, err = svc.BigWins(ctx, 5)
	require.NoError(t, err)
	require.Len(t, wins, 1)
	assert.Equal(t, int64(500), wins[0].Amount)
}

func TestTopKOrdering(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), 10, 10_000)

	for user, payout := range map[string]int64{"u1": 50, "u2": 200, "u3": 120} {
		out := &domain.SpinOutcome{Mode: domain.ModeStandard, TotalPayout: payout, NetDelta: payout}
		require.NoError(t, svc.CreditSpin(ctx, user, user, out, "2025-06-01"))
	}

	rows, err := svc.TopK(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "u2", rows[0].UserID)
	assert.Equal(t, "u3", rows[1].UserID)
	assert.Equal(t, 2, rows[1].Rank)
}

func TestHardReset(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewService(st, 10, 100)
	pot := jackpot.NewService(st, 0.01)

	out := &domain.SpinOutcome{Mode: domain.ModeStandard, TotalPayout: 500, NetDelta: 500}
	require.NoError(t, svc.CreditSpin(ctx, "u1", "alice", out, "2025-06-01"))
	require.NoError(t, pot.Contribute(ctx, 250))
	require.NoError(t, st.Set(ctx, "slots:tokens:u1", "2", 0))
	require.NoError(t, st.Set(ctx, "slots:premium:2025-06-01:u1", "1", 0))

	cleared, err := svc.HardReset(ctx)
	require.NoError(t, err)
	assert.Greater(t, cleared, int64(0))

	points, err := svc.Points(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), points)

	rows, err := svc.TopK(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, rows)

	pool, err := pot.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pool)
}
