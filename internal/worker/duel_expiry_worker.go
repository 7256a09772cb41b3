package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/duel"
	"github.com/brobot-gg/slots/internal/logger"
)

// DuelExpiryWorker refunds open duels whose accept window closed. One timer
// per open duel; a periodic sweep catches anything a timer missed (process
// restarts, clock skew).
type DuelExpiryWorker struct {
	service  duel.Service
	mu       sync.Mutex
	timers   map[string]*time.Timer // duelID -> timer
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewDuelExpiryWorker creates a new DuelExpiryWorker
func NewDuelExpiryWorker(service duel.Service) *DuelExpiryWorker {
	return &DuelExpiryWorker{
		service:  service,
		timers:   make(map[string]*time.Timer),
		shutdown: make(chan struct{}),
	}
}

// Start sweeps once so duels opened before a restart still expire on time
func (w *DuelExpiryWorker) Start() {
	ctx := context.Background()
	log := logger.FromContext(ctx)

	expired, err := w.service.SweepExpired(ctx, time.Now())
	if err != nil {
		log.Error(LogMsgFailedToSweepOnStartup, "error", err)
		return
	}
	if expired > 0 {
		log.Info("Expired stale duels on startup", "count", expired)
	}
}

// ScheduleExpiry arms a timer that expires the duel at its deadline
func (w *DuelExpiryWorker) ScheduleExpiry(d *domain.Duel) {
	duration := time.Until(d.ExpiresAt)

	log := logger.FromContext(context.Background())
	log.Info(LogMsgSchedulingDuelExpiry, "duelID", d.ID, "duration", duration)

	if duration <= 0 {
		w.expireDuel(d.ID)
		return
	}

	w.mu.Lock()
	if existingTimer, ok := w.timers[d.ID]; ok {
		existingTimer.Stop()
		delete(w.timers, d.ID)
	}

	timer := time.AfterFunc(duration, func() {
		select {
		case <-w.shutdown:
			return
		default:
		}

		w.expireDuel(d.ID)

		w.mu.Lock()
		delete(w.timers, d.ID)
		w.mu.Unlock()
	})

	w.timers[d.ID] = timer
	w.mu.Unlock()
}

// CancelExpiry drops a duel's timer after an accept or cancel closed it
func (w *DuelExpiryWorker) CancelExpiry(duelID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[duelID]; ok {
		timer.Stop()
		delete(w.timers, duelID)
	}
}

func (w *DuelExpiryWorker) expireDuel(duelID string) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ctx := context.Background()
		log := logger.FromContext(ctx)
		log.Info(LogMsgExecutingScheduledExpiry, "duelID", duelID)

		err := w.service.Expire(ctx, duelID, time.Now())
		// A racing accept or cancel already closed it; nothing to do
		if err != nil && !errors.Is(err, domain.ErrDuelClosed) {
			log.Error(LogMsgFailedToExpireDuel, "duelID", duelID, "error", err)
		}
	}()
}

// Shutdown cancels pending timers and waits for in-flight expirations
func (w *DuelExpiryWorker) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Shutting down duel expiry worker")

	close(w.shutdown)

	w.mu.Lock()
	for duelID, timer := range w.timers {
		timer.Stop()
		log.Info("Cancelled pending duel expiry", "duelID", duelID)
	}
	w.timers = make(map[string]*time.Timer)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Duel expiry worker shutdown complete")
		return nil
	case <-ctx.Done():
		log.Warn("Duel expiry worker shutdown timeout, some expirations may still be running")
		return ctx.Err()
	}
}
