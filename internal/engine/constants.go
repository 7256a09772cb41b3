package engine

// Premium spin defaults, matching the long-running production config
const (
	DefaultPremiumBonusMult = 3.69
	DefaultPremiumMinPoints = 1000
	DefaultPremiumCostFrac  = 0.10
)

// DateFormat renders the local day used in feed entries and quota keys
const DateFormat = "2006-01-02"
