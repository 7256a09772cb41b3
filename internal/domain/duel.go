package domain

import (
	"encoding/json"
	"time"
)

// DuelState represents the state of a duel
type DuelState string

const (
	DuelStateOpen      DuelState = "open"
	DuelStateAccepted  DuelState = "accepted"
	DuelStateResolved  DuelState = "resolved"
	DuelStateCancelled DuelState = "cancelled"
	DuelStateExpired   DuelState = "expired"
)

// Terminal reports whether no further transition is possible
func (s DuelState) Terminal() bool {
	return s == DuelStateResolved || s == DuelStateCancelled || s == DuelStateExpired
}

// Duel is a peer wager record. The initiator's fee is escrowed at creation.
type Duel struct {
	ID        string    `json:"id"`
	Initiator string    `json:"initiator"`
	Opponent  string    `json:"opponent,omitempty"`
	State     DuelState `json:"state"`
	Fee       int64     `json:"fee"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the duel's deadline has passed.
// Expiry is soft: an accept may still win the race until the sweep fires.
func (d *Duel) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// MarshalDuel encodes a duel for storage
func MarshalDuel(d *Duel) ([]byte, error) {
	return json.Marshal(d)
}

// UnmarshalDuel decodes a stored duel record
func UnmarshalDuel(data []byte) (*Duel, error) {
	var d Duel
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DuelOutcome is the settlement summary of a resolved duel.
// Invariant: Payout + HouseCut == Pot == 2*Fee + InitiatorSpin + OpponentSpin.
type DuelOutcome struct {
	DuelID        string `json:"duel_id"`
	Initiator     string `json:"initiator"`
	Opponent      string `json:"opponent"`
	Fee           int64  `json:"fee"`
	InitiatorSpin int64  `json:"initiator_spin"`
	OpponentSpin  int64  `json:"opponent_spin"`
	Pot           int64  `json:"pot"`
	HouseCut      int64  `json:"house_cut"`
	Payout        int64  `json:"payout"`
	WinnerID      string `json:"winner_id,omitempty"` // empty on a tie
	Tie           bool   `json:"tie"`
}
