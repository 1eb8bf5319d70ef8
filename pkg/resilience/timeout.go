package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines the timeout hierarchy:
//
//	Cron settlement run (5m)
//	HTTP handler (20s)
//	  Report scan (15s, set by the database adapter)
//	Shutdown (30s)
//
// A report scan completes before its handler times out. A cron run still in flight when
// the shutdown budget runs out is abandoned; each vendor claim commits or rolls back on
// its own.
type TimeoutConfig struct {
	HTTPHandler time.Duration // Overall request timeout for API and webhook routes
	CronJob     time.Duration // Scheduled settlement run
	Shutdown    time.Duration // Graceful shutdown budget
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 20 * time.Second,
		CronJob:     5 * time.Minute,
		Shutdown:    30 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 2 * time.Second,
		CronJob:     5 * time.Second,
		Shutdown:    3 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// CronContext creates a context with timeout for cron jobs
func (tc *TimeoutConfig) CronContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.CronJob)
}
