package ledger

// Store keys. The zset score and the points hash field are maintained in the
// same batch so the leaderboard is a live projection, never a cached copy.
const (
	KeyLeaderboard = "slots:leaderboard"

	KeyPoints       = "slots:stats:points"
	KeySpins        = "slots:stats:spins"
	KeyPremiumSpins = "slots:stats:spins_premium"
	KeyDuelWins     = "slots:stats:duel_wins"
	KeyDuelLosses   = "slots:stats:duel_losses"

	KeyBigWins      = "slots:bigwins"
	KeyBiggestSpins = "slots:bigspins"
)

const (
	// DefaultFeedLen bounds the big-win and biggest-spin ring buffers
	DefaultFeedLen = 20

	// DefaultTopK is the leaderboard projection size
	DefaultTopK = 10
)
