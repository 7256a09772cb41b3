package discord

import "time"

// Component custom IDs. Duel accept/cancel carry the duel id as a suffix.
const (
	CustomIDSpin       = "slots:spin"
	CustomIDMegaSpin   = "slots:mega"
	CustomIDDuel       = "slots:duel"
	CustomIDDuelAccept = "slots:duel:accept:" // + duelID
	CustomIDDuelCancel = "slots:duel:cancel:" // + duelID
)

// Admin prefix commands
const (
	AdminPrefix       = "!slots"
	AdminCmdSetup     = "setup"
	AdminCmdReload    = "reload"
	AdminCmdRefill    = "refill"
	AdminCmdHardReset = "hardreset"
)

// Embed colors
const (
	ColorNeutral = 0x5865F2
	ColorWin     = 0x00FF00
	ColorLoss    = 0xFF0000
	ColorJackpot = 0xFFD700
	ColorDenied  = 0x808080
	ColorDuel    = 0xFF8C00
)

// Display refresh debounce window. Bursts of spins collapse into one edit
// so the bot stays inside Discord's edit rate limits.
const RefreshDebounce = 2 * time.Second

// Store keys for the persistent display message
const (
	KeyDisplayChannel = "slots:display:channel"
	KeyDisplayMessage = "slots:display:message"
)

// UsernameCacheSize bounds the id -> username LRU
const UsernameCacheSize = 2048
