package constants

const (
	CHANNEL_SIZE               = 100  // buffer size of per-connection and broker channels
	MAX_LOGS_PER_ROOM          = 1000 // per-room log retention, enforced at append time
	OFFLINE_QUEUE_CAP          = 100  // per-recipient offline DM queue capacity
	DEFAULT_HISTORY_LIMIT      = 20   // history limit when the command omits one
	NICKNAME_CACHE_TTL         = 30   // nickname cache TTL (minutes)
	REFRESH_TOKEN_EXPIRY_HOURS = 168  // refresh token lifetime, 168h = 7d
)

// SystemUser is the sender recorded on room system log entries.
const SystemUser = "system"
