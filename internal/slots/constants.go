package slots

// MinLineMatch is the minimum effective symbol count for a line to pay
const MinLineMatch = 3

// DefaultJackpotMinMatches is the board-wide effective count that triggers
// the progressive jackpot on a standard 5x5 board
const DefaultJackpotMinMatches = 20
