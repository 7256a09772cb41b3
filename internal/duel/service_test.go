package duel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/jackpot"
	"github.com/brobot-gg/slots/internal/ledger"
	"github.com/brobot-gg/slots/internal/store"
	"github.com/brobot-gg/slots/internal/store/memstore"
)

// scriptedSpinner returns per-user fixed spin totals
type scriptedSpinner struct {
	totals map[string]int64
}

func (s *scriptedSpinner) StandardSpinTotal(_ context.Context, userID string) (int64, error) {
	return s.totals[userID], nil
}

type fixture struct {
	store   *memstore.Store
	ledger  ledger.Service
	spinner *scriptedSpinner
	svc     Service
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	led := ledger.NewService(st, 10, 1000)
	sp := &scriptedSpinner{totals: map[string]int64{}}
	svc := NewService(st, led, sp, Config{
		FeeFraction:   0.05,
		HouseFraction: 0.10,
		Expiry:        5 * time.Minute,
	})
	return &fixture{
		store:   st,
		ledger:  led,
		spinner: sp,
		svc:     svc,
		now:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) seed(t *testing.T, userID string, points int64) {
	t.Helper()
	err := f.store.Update(context.Background(), func(p store.Pipe) {
		ledger.PipeCredit(p, userID, points)
	})
	require.NoError(t, err)
}

func TestStartEscrowsFee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "init", 2000)

	d, err := f.svc.Start(ctx, "init", f.now)
	require.NoError(t, err)
	assert.Equal(t, int64(100), d.Fee, "5% of 2000")
	assert.Equal(t, domain.DuelStateOpen, d.State)
	assert.Equal(t, f.now.Add(5*time.Minute), d.ExpiresAt)

	points, err := f.ledger.Points(ctx, "init")
	require.NoError(t, err)
	assert.Equal(t, int64(1900), points)

	active, err := f.svc.ActiveFor(ctx, "init")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, d.ID, active.ID)
}

func TestStartMinFeeAndInsufficientPoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Start(ctx, "broke", f.now)
	assert.ErrorIs(t, err, domain.ErrInsufficientPoints)

	// Tiny balances still pay at least the minimum fee
	f.seed(t, "small", 10)
	d, err := f.svc.Start(ctx, "small", f.now)
	require.NoError(t, err)
	assert.Equal(t, int64(MinFee), d.Fee)
}

func TestStartRejectsSecondOpenDuel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "init", 2000)

	_, err := f.svc.Start(ctx, "init", f.now)
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, "init", f.now)
	assert.ErrorIs(t, err, domain.ErrDuelActive)
}

func TestAcceptSettlesWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "init", 2000)
	f.seed(t, "opp", 1000)
	f.spinner.totals["init"] = 300
	f.spinner.totals["opp"] = 100

	d, err := f.svc.Start(ctx, "init", f.now)
	require.NoError(t, err)

	out, err := f.svc.Accept(ctx, d.ID, "opp", f.now)
	require.NoError(t, err)
	assert.Equal(t, "init", out.WinnerID)
	assert.False(t, out.Tie)
	assert.Equal(t, int64(100), out.Fee)
	assert.Equal(t, int64(600), out.Pot, "2*fee + both spins")
	assert.Equal(t, int64(60), out.HouseCut)
	assert.Equal(t, int64(540), out.Payout)
	assert.Equal(t, out.Pot, out.Payout+out.HouseCut, "nothing minted or lost")

	initPoints, err := f.ledger.Points(ctx, "init")
	require.NoError(t, err)
	assert.Equal(t, int64(2440), initPoints, "2000 - 100 fee + 540 payout")

	oppPoints, err := f.ledger.Points(ctx, "opp")
	require.NoError(t, err)
	assert.Equal(t, int64(900), oppPoints)

	pool, err := jackpot.NewService(f.store, 0.01).Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(60), pool)

	entry, err := f.ledger.Entry(ctx, "init")
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.DuelWins)
	entry, err = f.ledger.Entry(ctx, "opp")
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.DuelLosses)

	// The duel is gone and the slot is free again
	active, err := f.svc.ActiveFor(ctx, "init")
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestAcceptTieSplitsRemainder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "init", 2000)
	f.seed(t, "opp", 2000)
	f.spinner.totals["init"] = 145
	f.spinner.totals["opp"] = 145

	d, err := f.svc.Start(ctx, "init", f.now)
	require.NoError(t, err)

	out, err := f.svc.Accept(ctx, d.ID, "opp", f.now)
	require.NoError(t, err)
	assert.True(t, out.Tie)
	assert.Empty(t, out.WinnerID)

	// Pot 490, house 49, remainder 441: initiator gets the odd point
	initPoints, _ := f.ledger.Points(ctx, "init")
	oppPoints, _ := f.ledger.Points(ctx, "opp")
	assert.Equal(t, int64(2121), initPoints, "2000 - 100 + 221")
	assert.Equal(t, int64(2120), oppPoints, "2000 - 100 + 220")

	// Ties do not touch win/loss counters
	entry, err := f.ledger.Entry(ctx, "init")
	require.NoError(t, err)
	assert.Equal(t, int64(0), entry.DuelWins)
	assert.Equal(t, int64(0), entry.DuelLosses)
}

func TestAcceptValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "init", 2000)

	d, err := f.svc.Start(ctx, "init", f.now)
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, d.ID, "init", f.now)
	assert.ErrorIs(t, err, domain.ErrSelfDuel, "initiator cannot accept their own duel")

	_, err = f.svc.Accept(ctx, d.ID, "broke", f.now)
	assert.ErrorIs(t, err, domain.ErrInsufficientPoints)

	// Validation failures release the close lock; a funded accept still works
	f.seed(t, "opp", 500)
	_, err = f.svc.Accept(ctx, d.ID, "opp", f.now)
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, d.ID, "opp", f.now)
	assert.ErrorIs(t, err, domain.ErrDuelClosed)
}

func TestAcceptAfterDeadlineStands(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "init", 2000)
	f.seed(t, "opp", 2000)
	f.spinner.totals["init"] = 300
	f.spinner.totals["opp"] = 100

	d, err := f.svc.Start(ctx, "init", f.now)
	require.NoError(t, err)

	// An accept past the deadline settles normally as long as it takes the
	// close lock before the expiry sweep does.
	late := f.now.Add(6 * time.Minute)
	out, err := f.svc.Accept(ctx, d.ID, "opp", late)
	require.NoError(t, err)
	assert.Equal(t, "init", out.WinnerID)

	// The losing sweep finds the record gone and refunds nothing
	err = f.svc.Expire(ctx, d.ID, late)
	assert.ErrorIs(t, err, domain.ErrDuelClosed)

	initPoints, err := f.ledger.Points(ctx, "init")
	require.NoError(t, err)
	assert.Equal(t, int64(2440), initPoints)
}

func TestCancelRefundsInitiator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "init", 2000)

	d, err := f.svc.Start(ctx, "init", f.now)
	require.NoError(t, err)

	err = f.svc.Cancel(ctx, d.ID, "someone-else")
	assert.ErrorIs(t, err, domain.ErrNotInitiator)

	require.NoError(t, f.svc.Cancel(ctx, d.ID, "init"))

	points, err := f.ledger.Points(ctx, "init")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), points)

	err = f.svc.Cancel(ctx, d.ID, "init")
	assert.ErrorIs(t, err, domain.ErrDuelClosed)
}

func TestExpireRefundsAfterDeadline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "init", 2000)

	d, err := f.svc.Start(ctx, "init", f.now)
	require.NoError(t, err)

	// Before the deadline nothing happens and the duel stays open
	require.NoError(t, f.svc.Expire(ctx, d.ID, f.now.Add(time.Minute)))
	got, err := f.svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DuelStateOpen, got.State)

	require.NoError(t, f.svc.Expire(ctx, d.ID, f.now.Add(6*time.Minute)))

	points, err := f.ledger.Points(ctx, "init")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), points)

	err = f.svc.Expire(ctx, d.ID, f.now.Add(6*time.Minute))
	assert.ErrorIs(t, err, domain.ErrDuelClosed)
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "a", 2000)
	f.seed(t, "b", 2000)

	_, err := f.svc.Start(ctx, "a", f.now)
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, "b", f.now.Add(4*time.Minute))
	require.NoError(t, err)

	// Only the first duel is past its deadline
	n, err := f.svc.SweepExpired(ctx, f.now.Add(6*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pointsA, _ := f.ledger.Points(ctx, "a")
	assert.Equal(t, int64(2000), pointsA)

	active, err := f.svc.ActiveFor(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, active)
}

func TestGetUnknownDuel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrDuelNotFound)

	active, err := f.svc.ActiveFor(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, active)
}
