package duel

import "time"

const (
	// DefaultFeeFraction of the initiator's points, escrowed on start
	DefaultFeeFraction = 0.05

	// MinFee keeps zero-balance users out of free duels
	MinFee = 1

	// DefaultHouseFraction of the pot routed to the jackpot pool
	DefaultHouseFraction = 0.10

	// DefaultExpiry is how long an open duel waits for an opponent
	DefaultExpiry = 5 * time.Minute

	// LockTTL bounds how long a crashed closer can hold a duel's close lock
	LockTTL = 30 * time.Second

	// recordGrace keeps records and mappings around past the deadline so the
	// expiry sweep can refund before the store reaps them
	recordGrace = 24 * time.Hour
)

// Store key formats
const (
	keyRecord = "slots:duel:rec:%s"    // duel id -> JSON record
	keyActive = "slots:duel:active:%s" // initiator -> duel id
	keyLock   = "slots:duel:lock:%s"   // duel id -> closer id

	// ScanRecordsPattern matches every live duel record (expiry sweep)
	ScanRecordsPattern = "slots:duel:rec:*"
)
