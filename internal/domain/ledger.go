package domain

// LedgerEntry holds per-user cumulative stats
type LedgerEntry struct {
	UserID            string `json:"user_id"`
	TotalPoints       int64  `json:"total_points"`
	TotalSpins        int64  `json:"total_spins"`
	TotalPremiumSpins int64  `json:"total_premium_spins"`
	DuelWins          int64  `json:"duel_wins"`
	DuelLosses        int64  `json:"duel_losses"`
}

// LeaderboardRow is one entry of the live top-K projection
type LeaderboardRow struct {
	Rank        int     `json:"rank"`
	UserID      string  `json:"user_id"`
	TotalPoints int64   `json:"total_points"`
	TotalSpins  int64   `json:"total_spins"`
	AvgPerSpin  float64 `json:"avg_per_spin"`
}

// FeedEntry is one item of a bounded recent-history feed.
// Amount is the net delta of the spin, after cost deduction.
type FeedEntry struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Amount   int64  `json:"amount"`
	Date     string `json:"date"`
	Premium  bool   `json:"premium"`
	Jackpot  int64  `json:"jackpot"`
}
