package tokenbucket

import "time"

const (
	// DefaultCap is how many standard spins a user can store
	DefaultCap = 5

	// DefaultRefillPeriod is the time to regain one stored spin
	DefaultRefillPeriod = 5 * time.Minute

	// DefaultPremiumPerDay is the premium-spin allowance per local day
	DefaultPremiumPerDay = 3

	// QuotaTTL keeps per-day quota counters around long enough to survive
	// clock skew around midnight, then lets them expire
	QuotaTTL = 48 * time.Hour
)

// Store key formats
const (
	keyTokens  = "slots:tokens:%s"
	keyLast    = "slots:last:%s"
	keyPremium = "slots:premium:%s:%s" // date, user

	// ScanTokensPattern matches every tracked user's token key (admin refill)
	ScanTokensPattern = "slots:tokens:*"
)
