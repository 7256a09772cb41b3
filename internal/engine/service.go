package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/duel"
	"github.com/brobot-gg/slots/internal/jackpot"
	"github.com/brobot-gg/slots/internal/ledger"
	"github.com/brobot-gg/slots/internal/logger"
	"github.com/brobot-gg/slots/internal/metrics"
	"github.com/brobot-gg/slots/internal/slots"
	"github.com/brobot-gg/slots/internal/tokenbucket"
)

// DisplayRefresher asks the display layer to re-render the persistent
// message. Best effort; never part of the economic transaction.
type DisplayRefresher interface {
	RequestRefresh()
}

// DuelScheduler arms and disarms the per-duel expiry timer. The periodic
// sweep remains the correctness backstop; this only makes expiry prompt.
type DuelScheduler interface {
	ScheduleExpiry(d *domain.Duel)
	CancelExpiry(duelID string)
}

// Service is the engine façade. It consumes validated invocations from the
// routing layer and returns structured results for the display layer; no
// platform-specific formatting happens here.
type Service interface {
	Handle(ctx context.Context, inv domain.Invocation) (*domain.Result, error)
	// StandardSpinTotal implements duel.Spinner: one standard-mode spin
	// total, outside the token bucket and the ledger (the pot absorbs it).
	StandardSpinTotal(ctx context.Context, userID string) (int64, error)
}

// Config holds engine policy knobs
type Config struct {
	SymbolConfigPath string
	PremiumBonusMult float64
	PremiumMinPoints int64
	PremiumCostFrac  float64
	// JackpotDuelSpins extends jackpot eligibility to spins performed as
	// part of duel resolution. Off by default.
	JackpotDuelSpins bool
	// BigWinThreshold overrides the symbol config's big_win_threshold when
	// positive; zero follows the symbol config across reloads.
	BigWinThreshold int64
	Location        *time.Location
}

type service struct {
	cfg       Config
	tables    *slots.Holder
	scorer    *slots.Scorer
	bucket    tokenbucket.Service
	quota     tokenbucket.Quota
	jackpot   jackpot.Service
	ledger    ledger.Service
	duels     duel.Service
	refresher DisplayRefresher
	expiries  DuelScheduler
	now       func() time.Time
}

// NewService creates the engine façade. duels is set afterwards via
// SetDuelService because the duel service needs the engine as its Spinner.
func NewService(
	cfg Config,
	tables *slots.Holder,
	scorer *slots.Scorer,
	bucket tokenbucket.Service,
	quota tokenbucket.Quota,
	jackpotSvc jackpot.Service,
	ledgerSvc ledger.Service,
	refresher DisplayRefresher,
) *Engine {
	if cfg.PremiumBonusMult <= 1 {
		cfg.PremiumBonusMult = DefaultPremiumBonusMult
	}
	if cfg.PremiumMinPoints <= 0 {
		cfg.PremiumMinPoints = DefaultPremiumMinPoints
	}
	if cfg.PremiumCostFrac <= 0 {
		cfg.PremiumCostFrac = DefaultPremiumCostFrac
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Engine{service{
		cfg:       cfg,
		tables:    tables,
		scorer:    scorer,
		bucket:    bucket,
		quota:     quota,
		jackpot:   jackpotSvc,
		ledger:    ledgerSvc,
		refresher: refresher,
		now:       time.Now,
	}}
}

// Engine is the concrete façade; exported so wiring can close the
// engine <-> duel dependency loop.
type Engine struct {
	service
}

// SetDuelService closes the dependency loop after construction
func (e *Engine) SetDuelService(d duel.Service) {
	e.duels = d
}

// SetRefresher installs the display layer once it exists. The engine only
// ever calls RequestRefresh, so a nil refresher just means no display.
func (e *Engine) SetRefresher(r DisplayRefresher) {
	e.refresher = r
}

// SetDuelScheduler installs the expiry timer worker; nil is fine, the
// periodic sweep still expires duels on its own.
func (e *Engine) SetDuelScheduler(s DuelScheduler) {
	e.expiries = s
}

func (e *Engine) Handle(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	if inv.Now.IsZero() {
		inv.Now = e.now()
	}
	log := logger.FromContext(ctx)

	switch inv.Action {
	case domain.ActionSpin:
		return e.spin(ctx, inv)
	case domain.ActionPremiumSpin:
		return e.premiumSpin(ctx, inv)
	case domain.ActionStartDuel:
		return e.startDuel(ctx, inv)
	case domain.ActionAcceptDuel:
		return e.acceptDuel(ctx, inv)
	case domain.ActionCancelDuel:
		return e.cancelDuel(ctx, inv)
	case domain.ActionAdminReset:
		return e.adminReset(ctx)
	case domain.ActionAdminReload:
		return e.adminReload(ctx)
	case domain.ActionAdminRefill:
		return e.adminRefill(ctx, inv)
	default:
		log.Warn("unknown engine action", "action", inv.Action)
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAction, inv.Action)
	}
}

func (e *Engine) startDuel(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	d, err := e.duels.Start(ctx, inv.UserID, inv.Now)
	if err != nil {
		return nil, err
	}
	if e.expiries != nil {
		e.expiries.ScheduleExpiry(d)
	}
	e.refresh()
	return &domain.Result{
		Kind: domain.OutcomeDuelOpen,
		Duel: d,
		Messages: []string{
			fmt.Sprintf("duel opened with fee %d, expires at %s", d.Fee, d.ExpiresAt.Format(time.RFC3339)),
		},
	}, nil
}

func (e *Engine) acceptDuel(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	duelID := inv.DuelID
	if duelID == "" && inv.Opponent != "" {
		// Accepting "someone's duel" rather than a known id
		d, err := e.duels.ActiveFor(ctx, inv.Opponent)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, domain.ErrDuelNotFound
		}
		duelID = d.ID
	}

	out, err := e.duels.Accept(ctx, duelID, inv.UserID, inv.Now)
	if errors.Is(err, domain.ErrDuelClosed) {
		metrics.DuelsTotal.WithLabelValues("already_closed").Inc()
		return &domain.Result{
			Kind:     domain.OutcomeDuelClosed,
			Messages: []string{domain.ErrMsgDuelClosed},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	metrics.DuelsTotal.WithLabelValues(string(domain.DuelStateResolved)).Inc()
	if e.expiries != nil {
		e.expiries.CancelExpiry(duelID)
	}
	e.refresh()
	return &domain.Result{Kind: domain.OutcomeDuelDone, DuelOut: out}, nil
}

func (e *Engine) cancelDuel(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	duelID := inv.DuelID
	if duelID == "" {
		d, err := e.duels.ActiveFor(ctx, inv.UserID)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, domain.ErrDuelNotFound
		}
		duelID = d.ID
	}

	err := e.duels.Cancel(ctx, duelID, inv.UserID)
	if errors.Is(err, domain.ErrDuelClosed) {
		return &domain.Result{
			Kind:     domain.OutcomeDuelClosed,
			Messages: []string{domain.ErrMsgDuelClosed},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	metrics.DuelsTotal.WithLabelValues(string(domain.DuelStateCancelled)).Inc()
	if e.expiries != nil {
		e.expiries.CancelExpiry(duelID)
	}
	e.refresh()
	return &domain.Result{
		Kind:     domain.OutcomeAdmin,
		Messages: []string{"duel cancelled, fee refunded"},
	}, nil
}

// refresh nudges the display layer; failures there are not our problem
func (e *Engine) refresh() {
	if e.refresher != nil {
		e.refresher.RequestRefresh()
	}
}
