package duel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/jackpot"
	"github.com/brobot-gg/slots/internal/ledger"
	"github.com/brobot-gg/slots/internal/logger"
	"github.com/brobot-gg/slots/internal/store"
)

// Spinner produces one standard-mode spin total for duel resolution.
// Whether those spins are jackpot-eligible is the engine's policy call.
type Spinner interface {
	StandardSpinTotal(ctx context.Context, userID string) (int64, error)
}

// Service is the peer-wager state machine: OPEN -> ACCEPTED -> RESOLVED,
// OPEN -> CANCELLED, OPEN -> EXPIRED. Accept, cancel and expire all race for
// a single close lock per duel; losers get ErrDuelClosed, never a partial
// transition. Settlement applies as one all-or-nothing batch.
type Service interface {
	Start(ctx context.Context, initiatorID string, now time.Time) (*domain.Duel, error)
	Accept(ctx context.Context, duelID, opponentID string, now time.Time) (*domain.DuelOutcome, error)
	Cancel(ctx context.Context, duelID, userID string) error
	Expire(ctx context.Context, duelID string, now time.Time) error
	// SweepExpired expires every open duel past its deadline. Idempotent;
	// duels closed by a racing accept or cancel are skipped silently.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
	ActiveFor(ctx context.Context, userID string) (*domain.Duel, error)
	Get(ctx context.Context, duelID string) (*domain.Duel, error)
}

// Config holds duel economics and timing
type Config struct {
	FeeFraction   float64
	HouseFraction float64
	Expiry        time.Duration
}

type service struct {
	store   store.Store
	ledger  ledger.Service
	spinner Spinner
	cfg     Config
}

// NewService creates a duel service
func NewService(st store.Store, led ledger.Service, spinner Spinner, cfg Config) Service {
	if cfg.FeeFraction <= 0 {
		cfg.FeeFraction = DefaultFeeFraction
	}
	if cfg.HouseFraction < 0 {
		cfg.HouseFraction = DefaultHouseFraction
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultExpiry
	}
	return &service{store: st, ledger: led, spinner: spinner, cfg: cfg}
}

func recordKey(id string) string   { return fmt.Sprintf(keyRecord, id) }
func activeKey(user string) string { return fmt.Sprintf(keyActive, user) }
func lockKey(id string) string     { return fmt.Sprintf(keyLock, id) }

func (s *service) Start(ctx context.Context, initiatorID string, now time.Time) (*domain.Duel, error) {
	points, err := s.ledger.Points(ctx, initiatorID)
	if err != nil {
		return nil, err
	}
	fee := int64(math.Floor(float64(points) * s.cfg.FeeFraction))
	if fee < MinFee {
		fee = MinFee
	}
	if points < fee {
		return nil, fmt.Errorf("%w: need %d points for the duel fee, have %d",
			domain.ErrInsufficientPoints, fee, points)
	}

	d := &domain.Duel{
		ID:        uuid.NewString(),
		Initiator: initiatorID,
		State:     domain.DuelStateOpen,
		Fee:       fee,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Expiry),
	}
	raw, err := domain.MarshalDuel(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode duel: %w", err)
	}

	// One open/accepted duel per initiator, enforced by the mapping write.
	// The TTL self-heals a dangling mapping if the record write below fails.
	won, err := s.store.SetNX(ctx, activeKey(initiatorID), d.ID, s.cfg.Expiry+recordGrace)
	if err != nil {
		return nil, fmt.Errorf("failed to claim duel slot: %w", err)
	}
	if !won {
		return nil, domain.ErrDuelActive
	}

	// Escrow the fee and create the record in one batch
	err = s.store.Update(ctx, func(p store.Pipe) {
		ledger.PipeCredit(p, initiatorID, -fee)
		p.Set(recordKey(d.ID), string(raw), s.cfg.Expiry+recordGrace)
	})
	if err != nil {
		if _, derr := s.store.Del(ctx, activeKey(initiatorID)); derr != nil {
			logger.FromContext(ctx).Warn("failed to release duel slot after failed start",
				"duel_id", d.ID, "error", derr)
		}
		return nil, fmt.Errorf("failed to escrow duel fee: %w", err)
	}
	return d, nil
}

// acquire takes the close lock and loads the record. Callers that bail out
// on validation release the lock so other closers can proceed.
func (s *service) acquire(ctx context.Context, duelID, ownerID string) (*domain.Duel, error) {
	won, err := s.store.SetNX(ctx, lockKey(duelID), ownerID, LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire duel lock: %w", err)
	}
	if !won {
		return nil, domain.ErrDuelClosed
	}

	raw, err := s.store.Get(ctx, recordKey(duelID))
	if errors.Is(err, store.ErrNotFound) {
		s.release(ctx, duelID)
		return nil, domain.ErrDuelClosed
	}
	if err != nil {
		s.release(ctx, duelID)
		return nil, fmt.Errorf("failed to load duel: %w", err)
	}
	d, err := domain.UnmarshalDuel([]byte(raw))
	if err != nil {
		s.release(ctx, duelID)
		return nil, fmt.Errorf("corrupt duel record %s: %w", duelID, err)
	}
	if d.State != domain.DuelStateOpen {
		s.release(ctx, duelID)
		return nil, domain.ErrDuelClosed
	}
	return d, nil
}

func (s *service) release(ctx context.Context, duelID string) {
	if _, err := s.store.Del(ctx, lockKey(duelID)); err != nil {
		logger.FromContext(ctx).Warn("failed to release duel lock", "duel_id", duelID, "error", err)
	}
}

func (s *service) Accept(ctx context.Context, duelID, opponentID string, now time.Time) (*domain.DuelOutcome, error) {
	d, err := s.acquire(ctx, duelID, opponentID)
	if err != nil {
		return nil, err
	}
	// Expiry is soft: a post-deadline accept stands if it won the lock
	// before the sweep fired.

	if opponentID == d.Initiator {
		s.release(ctx, duelID)
		return nil, domain.ErrSelfDuel
	}
	oppPoints, err := s.ledger.Points(ctx, opponentID)
	if err != nil {
		s.release(ctx, duelID)
		return nil, err
	}
	if oppPoints < d.Fee {
		s.release(ctx, duelID)
		return nil, fmt.Errorf("%w: duel fee is %d, opponent has %d",
			domain.ErrInsufficientPoints, d.Fee, oppPoints)
	}

	initiatorSpin, err := s.spinner.StandardSpinTotal(ctx, d.Initiator)
	if err != nil {
		s.release(ctx, duelID)
		return nil, fmt.Errorf("initiator duel spin failed: %w", err)
	}
	opponentSpin, err := s.spinner.StandardSpinTotal(ctx, opponentID)
	if err != nil {
		s.release(ctx, duelID)
		return nil, fmt.Errorf("opponent duel spin failed: %w", err)
	}

	pot := 2*d.Fee + initiatorSpin + opponentSpin
	houseCut := int64(math.Floor(float64(pot) * s.cfg.HouseFraction))
	remainder := pot - houseCut

	out := &domain.DuelOutcome{
		DuelID:        d.ID,
		Initiator:     d.Initiator,
		Opponent:      opponentID,
		Fee:           d.Fee,
		InitiatorSpin: initiatorSpin,
		OpponentSpin:  opponentSpin,
		Pot:           pot,
		HouseCut:      houseCut,
		Payout:        remainder,
	}

	// Settle in a single all-or-nothing batch: opponent escrow, payout,
	// counters, house cut, record and mapping removal. On store failure
	// nothing applies and the duel stays OPEN behind its lock TTL.
	err = s.store.Update(ctx, func(p store.Pipe) {
		ledger.PipeCredit(p, opponentID, -d.Fee)
		switch {
		case initiatorSpin > opponentSpin:
			out.WinnerID = d.Initiator
			ledger.PipeCredit(p, d.Initiator, remainder)
			ledger.PipeDuelCounters(p, d.Initiator, opponentID)
		case opponentSpin > initiatorSpin:
			out.WinnerID = opponentID
			ledger.PipeCredit(p, opponentID, remainder)
			ledger.PipeDuelCounters(p, opponentID, d.Initiator)
		default:
			out.Tie = true
			half := remainder / 2
			ledger.PipeCredit(p, opponentID, half)
			ledger.PipeCredit(p, d.Initiator, remainder-half)
		}
		p.IncrBy(jackpot.PoolKey, houseCut)
		p.Del(recordKey(d.ID), activeKey(d.Initiator), lockKey(d.ID))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to settle duel: %w", err)
	}
	return out, nil
}

func (s *service) Cancel(ctx context.Context, duelID, userID string) error {
	d, err := s.acquire(ctx, duelID, userID)
	if err != nil {
		return err
	}
	if d.Initiator != userID {
		s.release(ctx, duelID)
		return domain.ErrNotInitiator
	}

	err = s.store.Update(ctx, func(p store.Pipe) {
		ledger.PipeCredit(p, d.Initiator, d.Fee)
		p.Del(recordKey(d.ID), activeKey(d.Initiator), lockKey(d.ID))
	})
	if err != nil {
		return fmt.Errorf("failed to refund cancelled duel: %w", err)
	}
	return nil
}

func (s *service) Expire(ctx context.Context, duelID string, now time.Time) error {
	d, err := s.acquire(ctx, duelID, "expiry-sweep")
	if err != nil {
		return err
	}
	if !d.Expired(now) {
		s.release(ctx, duelID)
		return nil
	}

	err = s.store.Update(ctx, func(p store.Pipe) {
		ledger.PipeCredit(p, d.Initiator, d.Fee)
		p.Del(recordKey(d.ID), activeKey(d.Initiator), lockKey(d.ID))
	})
	if err != nil {
		return fmt.Errorf("failed to refund expired duel: %w", err)
	}
	return nil
}

func (s *service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	keys, err := s.store.Scan(ctx, ScanRecordsPattern)
	if err != nil {
		return 0, fmt.Errorf("failed to scan duel records: %w", err)
	}

	log := logger.FromContext(ctx)
	expired := 0
	for _, key := range keys {
		raw, err := s.store.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Warn("failed to read duel record during sweep", "key", key, "error", err)
			continue
		}
		d, err := domain.UnmarshalDuel([]byte(raw))
		if err != nil {
			log.Warn("skipping corrupt duel record", "key", key, "error", err)
			continue
		}
		if !d.Expired(now) {
			continue
		}
		switch err := s.Expire(ctx, d.ID, now); {
		case err == nil:
			expired++
		case errors.Is(err, domain.ErrDuelClosed):
			// Lost the race to an accept or cancel; nothing to do
		default:
			log.Warn("failed to expire duel", "duel_id", d.ID, "error", err)
		}
	}
	return expired, nil
}

func (s *service) ActiveFor(ctx context.Context, userID string) (*domain.Duel, error) {
	id, err := s.store.Get(ctx, activeKey(userID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read active duel mapping: %w", err)
	}
	d, err := s.Get(ctx, id)
	if errors.Is(err, domain.ErrDuelNotFound) {
		return nil, nil
	}
	return d, err
}

func (s *service) Get(ctx context.Context, duelID string) (*domain.Duel, error) {
	raw, err := s.store.Get(ctx, recordKey(duelID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrDuelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load duel: %w", err)
	}
	return domain.UnmarshalDuel([]byte(raw))
}
