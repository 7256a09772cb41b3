package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/logger"
	"github.com/brobot-gg/slots/internal/metrics"
	"github.com/brobot-gg/slots/internal/slots"
	"github.com/brobot-gg/slots/internal/tokenbucket"
)

func (e *Engine) spin(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	table, err := e.tables.Load()
	if err != nil {
		return nil, err
	}

	remaining, err := e.bucket.Consume(ctx, inv.UserID)
	var denied tokenbucket.ErrNoTokens
	if errors.As(err, &denied) {
		metrics.SpinsDenied.WithLabelValues(metrics.ReasonNoTokens).Inc()
		return &domain.Result{
			Kind:     domain.OutcomeDenied,
			NextIn:   denied.NextIn,
			Messages: []string{denied.Error()},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	// Standard spins compound the shared pot before drawing
	if err := e.jackpot.Grow(ctx); err != nil {
		logger.FromContext(ctx).Warn("jackpot growth failed", "error", err)
	}

	out, err := e.scoreAndSettle(ctx, table, inv, domain.ModeStandard, 0)
	if err != nil {
		return nil, err
	}
	return &domain.Result{
		Kind:      domain.OutcomeSpin,
		Outcome:   out,
		Remaining: remaining,
		Messages:  out.Breakdown,
	}, nil
}

func (e *Engine) premiumSpin(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	table, err := e.tables.Load()
	if err != nil {
		return nil, err
	}

	left, err := e.quota.Consume(ctx, inv.UserID, inv.Now)
	if errors.Is(err, domain.ErrQuotaExhausted) {
		metrics.SpinsDenied.WithLabelValues(metrics.ReasonQuota).Inc()
		return &domain.Result{
			Kind:     domain.OutcomeDenied,
			Messages: []string{err.Error()},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	points, err := e.ledger.Points(ctx, inv.UserID)
	if err != nil {
		e.quota.Refund(ctx, inv.UserID, inv.Now)
		return nil, err
	}
	if points <= e.cfg.PremiumMinPoints {
		e.quota.Refund(ctx, inv.UserID, inv.Now)
		metrics.SpinsDenied.WithLabelValues(metrics.ReasonInsufficient).Inc()
		return &domain.Result{
			Kind: domain.OutcomeDenied,
			Messages: []string{fmt.Sprintf("%s: premium spins require more than %d points, you have %d",
				domain.ErrMsgInsufficientPoints, e.cfg.PremiumMinPoints, points)},
		}, nil
	}
	cost := int64(math.Floor(float64(points) * e.cfg.PremiumCostFrac))
	if cost < 1 {
		cost = 1
	}

	// Escrow: the cost leaves the ledger and lands in the shared pot, one batch
	if err := e.ledger.EscrowPremiumCost(ctx, inv.UserID, cost); err != nil {
		e.quota.Refund(ctx, inv.UserID, inv.Now)
		return nil, err
	}

	out, err := e.scoreAndSettle(ctx, table, inv, domain.ModePremium, cost)
	if err != nil {
		e.quota.Refund(ctx, inv.UserID, inv.Now)
		return nil, err
	}
	return &domain.Result{
		Kind:      domain.OutcomeSpin,
		Outcome:   out,
		Remaining: left,
		Messages:  out.Breakdown,
	}, nil
}

// scoreAndSettle draws, scores, claims the jackpot on a trigger, and applies
// the ledger tail. cost is already escrowed (premium) or zero (standard).
func (e *Engine) scoreAndSettle(ctx context.Context, table *slots.Table, inv domain.Invocation, mode string, cost int64) (*domain.SpinOutcome, error) {
	size := domain.StandardGridSize
	bonus := 1.0
	if mode == domain.ModePremium {
		size = domain.PremiumGridSize
		bonus = e.cfg.PremiumBonusMult
	}

	res := e.scorer.Spin(table, size, bonus)

	var jackpotAward int64
	if res.Jackpot != nil {
		award, err := e.jackpot.Claim(ctx)
		if err != nil {
			logger.FromContext(ctx).Warn("jackpot claim failed", "error", err)
		} else {
			jackpotAward = award
		}
		if jackpotAward > 0 {
			res.Breakdown = append(res.Breakdown, fmt.Sprintf(
				"JACKPOT: %s reached %d (incl. wilds) -> +%d",
				res.Jackpot.Key, res.Jackpot.Effective, jackpotAward))
		}
	}

	out := &domain.SpinOutcome{
		Mode:           mode,
		GridKeys:       gridKeys(res.Grid),
		BasePayout:     res.BasePayout,
		GridMultiplier: res.GridMultiplier,
		TotalPayout:    res.Total,
		JackpotAwarded: jackpotAward,
		Cost:           cost,
		NetDelta:       res.Total + jackpotAward - cost,
		Breakdown:      res.Breakdown,
	}

	date := inv.Now.In(e.cfg.Location).Format(DateFormat)
	if err := e.ledger.CreditSpin(ctx, inv.UserID, inv.Username, out, date); err != nil {
		e.unwind(ctx, inv.UserID, cost, jackpotAward)
		return nil, err
	}

	if jackpotAward > 0 {
		metrics.JackpotPayouts.Inc()
		metrics.JackpotPaidPoints.Add(float64(jackpotAward))
	}
	outcome := metrics.OutcomeLoss
	if out.NetDelta > 0 {
		outcome = metrics.OutcomeWin
	}
	metrics.SpinsTotal.WithLabelValues(mode, outcome).Inc()
	e.refresh()
	return out, nil
}

// unwind compensates a spin whose ledger credit never committed: a claimed
// jackpot goes back into the pool and an escrowed premium cost returns to
// the user. Funds are never left debited without a matching credit.
func (e *Engine) unwind(ctx context.Context, userID string, cost, jackpotAward int64) {
	log := logger.FromContext(ctx)
	if jackpotAward > 0 {
		if err := e.jackpot.Contribute(ctx, jackpotAward); err != nil {
			log.Error("failed to restore claimed jackpot",
				"user_id", userID, "amount", jackpotAward, "error", err)
		}
	}
	if cost > 0 {
		if err := e.ledger.RefundPremiumCost(ctx, userID, cost); err != nil {
			log.Error("failed to refund premium escrow",
				"user_id", userID, "cost", cost, "error", err)
		}
	}
}

// StandardSpinTotal is the duel.Spinner hook: a bare standard-mode draw
// whose total feeds the pot. Tokens are not consumed and the ledger is not
// credited; jackpot eligibility follows the policy flag.
func (e *Engine) StandardSpinTotal(ctx context.Context, userID string) (int64, error) {
	table, err := e.tables.Load()
	if err != nil {
		return 0, err
	}
	res := e.scorer.Spin(table, domain.StandardGridSize, 1.0)

	if e.cfg.JackpotDuelSpins && res.Jackpot != nil {
		award, err := e.jackpot.Claim(ctx)
		if err != nil {
			logger.FromContext(ctx).Warn("duel jackpot claim failed", "user_id", userID, "error", err)
		} else if award > 0 {
			metrics.JackpotPayouts.Inc()
			metrics.JackpotPaidPoints.Add(float64(award))
			return res.Total + award, nil
		}
	}
	return res.Total, nil
}

func gridKeys(grid [][]slots.Symbol) [][]string {
	keys := make([][]string, len(grid))
	for r, row := range grid {
		keys[r] = make([]string, len(row))
		for c, sym := range row {
			keys[r][c] = sym.Key
		}
	}
	return keys
}
