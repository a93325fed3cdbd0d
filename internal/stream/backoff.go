package stream

import "time"

// Reconnect defaults.
const (
	DefaultBaseDelay       = 1 * time.Second
	DefaultMaxDelay        = 30 * time.Second
	DefaultMaxAttempts     = 5
	DefaultCooldownPeriod  = 5 * time.Minute
	DefaultPingInterval    = 30 * time.Second
	DefaultLivenessTimeout = 45 * time.Second
)

// Backoff returns the reconnect delay for the given attempt number
// (1-based): base doubled per attempt, capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max || d <= 0 {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
