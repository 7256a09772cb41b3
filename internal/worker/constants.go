package worker

// LogMsgWorkerJobFailed is logged when a worker fails to process a job
const LogMsgWorkerJobFailed = "Worker job failed"

// Log messages for duel expiry worker operations
const (
	LogMsgFailedToSweepOnStartup  = "Failed to sweep open duels on startup"
	LogMsgSchedulingDuelExpiry    = "Scheduling duel expiry"
	LogMsgExecutingScheduledExpiry = "Executing scheduled duel expiry"
	LogMsgFailedToExpireDuel      = "Failed to expire duel"
)
