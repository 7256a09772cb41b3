package domain

// Action names for engine invocations
const (
	ActionSpin        = "spin"
	ActionPremiumSpin = "premium_spin"
	ActionStartDuel   = "start_duel"
	ActionAcceptDuel  = "accept_duel"
	ActionCancelDuel  = "cancel_duel"
	ActionAdminReset  = "admin_reset"
	ActionAdminReload = "admin_reload"
	ActionAdminRefill = "admin_refill"
)

// Spin modes
const (
	ModeStandard = "standard"
	ModePremium  = "premium"
)

// Grid sizes per mode
const (
	StandardGridSize = 5
	PremiumGridSize  = 7
)
