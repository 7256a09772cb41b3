package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/engine"
	"github.com/brobot-gg/slots/internal/jackpot"
	"github.com/brobot-gg/slots/internal/ledger"
	"github.com/brobot-gg/slots/internal/logger"
	"github.com/brobot-gg/slots/internal/store"
)

// HandleHealthz reports process liveness
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// HandleReadyz reports store reachability
func HandleReadyz(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "store unreachable")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// HandleLeaderboard returns the top point holders
func HandleLeaderboard(ledgerSvc ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k := int64(ledger.DefaultTopK)
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed <= 0 || parsed > 100 {
				respondError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			k = parsed
		}

		rows, err := ledgerSvc.TopK(r.Context(), k)
		if err != nil {
			logger.FromContext(r.Context()).Error("Failed to read leaderboard", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to read leaderboard")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"rows": rows})
	}
}

// HandleUserEntry returns one user's ledger entry
func HandleUserEntry(ledgerSvc ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			respondError(w, http.StatusBadRequest, "user_id is required")
			return
		}

		entry, err := ledgerSvc.Entry(r.Context(), userID)
		if err != nil {
			logger.FromContext(r.Context()).Error("Failed to read ledger entry",
				"user_id", userID, "error", err)
			respondError(w, http.StatusInternalServerError, "failed to read ledger entry")
			return
		}
		respondJSON(w, http.StatusOK, entry)
	}
}

// HandleBigWins returns the recent big-win feed
func HandleBigWins(ledgerSvc ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := ledgerSvc.BigWins(r.Context(), ledger.DefaultFeedLen)
		if err != nil {
			logger.FromContext(r.Context()).Error("Failed to read big wins", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to read big wins")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
	}
}

// HandleBiggestSpins returns the all-session biggest single-spin feed
func HandleBiggestSpins(ledgerSvc ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := ledgerSvc.BiggestSpins(r.Context(), ledger.DefaultFeedLen)
		if err != nil {
			logger.FromContext(r.Context()).Error("Failed to read biggest spins", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to read biggest spins")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
	}
}

// HandleJackpot returns the current pool size
func HandleJackpot(jackpotSvc jackpot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pool, err := jackpotSvc.Peek(r.Context())
		if err != nil {
			logger.FromContext(r.Context()).Error("Failed to read jackpot pool", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to read jackpot pool")
			return
		}
		respondJSON(w, http.StatusOK, map[string]int64{"pool": pool})
	}
}

// handleAdminAction routes an admin action through the engine so that the
// HTTP surface and the chat surface share one code path.
func handleAdminAction(engineSvc engine.Service, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContext(ctx)
		log.Info("Admin action requested", "action", action)

		res, err := engineSvc.Handle(ctx, domain.Invocation{
			UserID:   "admin-api",
			Username: "admin-api",
			Action:   action,
			Now:      time.Now(),
		})
		if err != nil {
			log.Error("Admin action failed", "action", action, "error", err)
			respondError(w, http.StatusInternalServerError, "admin action failed")
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"action":   action,
			"messages": res.Messages,
		})
	}
}

// HandleAdminReset wipes all economy state
func HandleAdminReset(engineSvc engine.Service) http.HandlerFunc {
	return handleAdminAction(engineSvc, domain.ActionAdminReset)
}

// HandleAdminReload re-reads the symbol configuration
func HandleAdminReload(engineSvc engine.Service) http.HandlerFunc {
	return handleAdminAction(engineSvc, domain.ActionAdminReload)
}

// HandleAdminRefill refills every user's spin tokens and premium quota
func HandleAdminRefill(engineSvc engine.Service) http.HandlerFunc {
	return handleAdminAction(engineSvc, domain.ActionAdminRefill)
}
