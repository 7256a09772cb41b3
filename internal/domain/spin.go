package domain

import "time"

// Invocation is a validated engine request handed over by the routing layer.
// Access control for admin actions is the router's responsibility.
type Invocation struct {
	UserID   string
	Username string
	Action   string
	// Opponent is set for accept_duel; DuelID for accept/cancel.
	Opponent string
	DuelID   string
	Now      time.Time
}

// OutcomeKind classifies a Result for the display layer
type OutcomeKind string

const (
	OutcomeSpin       OutcomeKind = "spin"
	OutcomeDenied     OutcomeKind = "denied"
	OutcomeDuelOpen   OutcomeKind = "duel_open"
	OutcomeDuelDone   OutcomeKind = "duel_done"
	OutcomeDuelClosed OutcomeKind = "duel_closed"
	OutcomeAdmin      OutcomeKind = "admin"
)

// SpinOutcome is the write-once summary of a scored grid.
// The grid itself is ephemeral; only this summary persists.
type SpinOutcome struct {
	Mode           string   `json:"mode"`
	GridKeys       [][]string `json:"grid_keys"`
	BasePayout     int64    `json:"base_payout"`
	GridMultiplier int64    `json:"grid_multiplier"`
	TotalPayout    int64    `json:"total_payout"`
	JackpotAwarded int64    `json:"jackpot_awarded"`
	Cost           int64    `json:"cost"`
	NetDelta       int64    `json:"net_delta"`
	Breakdown      []string `json:"breakdown"`
}

// Result is the structured engine response consumed by the display layer.
// The engine performs no platform-specific text formatting.
type Result struct {
	Kind      OutcomeKind
	Outcome   *SpinOutcome
	Duel      *Duel
	DuelOut   *DuelOutcome
	Remaining int64         // tokens left (standard) or premium spins left today
	NextIn    time.Duration // time until next token when denied
	Messages  []string
}
