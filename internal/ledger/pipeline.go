package ledger

import (
	"encoding/json"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/store"
)

// Pipeline helpers. Multi-step economic updates (escrow debits, settlement
// credits, win/loss counters) must land in a single all-or-nothing batch;
// these append the ledger's share of such a batch to the caller's Pipe.

// PipeCredit adds points to a user, keeping hash and leaderboard in step.
// Negative amounts debit.
func PipeCredit(p store.Pipe, userID string, amount int64) {
	if amount == 0 {
		return
	}
	p.HIncrBy(KeyPoints, userID, amount)
	p.ZIncrBy(KeyLeaderboard, float64(amount), userID)
}

// PipeSpinCounters bumps per-user spin totals
func PipeSpinCounters(p store.Pipe, userID string, premium bool) {
	p.HIncrBy(KeySpins, userID, 1)
	if premium {
		p.HIncrBy(KeyPremiumSpins, userID, 1)
	}
}

// PipeDuelCounters records a decided duel (skipped for ties)
func PipeDuelCounters(p store.Pipe, winnerID, loserID string) {
	p.HIncrBy(KeyDuelWins, winnerID, 1)
	p.HIncrBy(KeyDuelLosses, loserID, 1)
}

// PipeFeed appends an entry to a bounded feed, evicting the oldest
func PipeFeed(p store.Pipe, key string, entry domain.FeedEntry, maxLen int64) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	p.LPush(key, string(raw))
	p.LTrim(key, 0, maxLen-1)
}
