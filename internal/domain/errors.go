package domain

import "errors"

// Error message string constants - single source of truth for error messages
const (
	ErrMsgInsufficientPoints = "insufficient points"
	ErrMsgNoSpinsLeft        = "no spins left"
	ErrMsgQuotaExhausted     = "premium spin quota exhausted"
	ErrMsgSelfDuel           = "cannot duel yourself"
	ErrMsgDuelActive         = "a duel is already active for this user"
	ErrMsgDuelClosed         = "duel already closed"
	ErrMsgNotInitiator       = "only the initiator can cancel"
	ErrMsgDuelNotFound       = "duel not found"
	ErrMsgConfigInvalid      = "symbol table config is invalid"
	ErrMsgStoreUnavailable   = "store unavailable"
	ErrMsgUnknownAction      = "unknown action"
)

// Sentinel errors for the engine.
// Wrap with fmt.Errorf("%w: details", ...) for additional context.
var (
	// Validation errors - surfaced directly, never retried
	ErrInsufficientPoints = errors.New(ErrMsgInsufficientPoints)
	ErrNoSpinsLeft        = errors.New(ErrMsgNoSpinsLeft)
	ErrQuotaExhausted     = errors.New(ErrMsgQuotaExhausted)
	ErrSelfDuel           = errors.New(ErrMsgSelfDuel)
	ErrDuelActive         = errors.New(ErrMsgDuelActive)
	ErrNotInitiator       = errors.New(ErrMsgNotInitiator)

	// Concurrency conflicts - surfaced as "already closed", never retried
	ErrDuelClosed   = errors.New(ErrMsgDuelClosed)
	ErrDuelNotFound = errors.New(ErrMsgDuelNotFound)

	// Config errors - fatal to spin operations until an admin reload succeeds
	ErrConfigInvalid = errors.New(ErrMsgConfigInvalid)

	// Store errors - the action is not committed; callers surface "try again"
	ErrStoreUnavailable = errors.New(ErrMsgStoreUnavailable)

	ErrUnknownAction = errors.New(ErrMsgUnknownAction)
)
