package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds timing knobs that are tuned per environment rather
// than per config file.
type Timeouts struct {
	Request           time.Duration // Per-request timeout of the AWX HTTP client
	PollInterval      time.Duration // Interval between job status polls
	Watch             time.Duration // Upper bound for watching a job until terminal
	Shutdown          time.Duration // Graceful HTTP server shutdown
	RetryMaxAttempts  int           // Overrides awx.retry.max_retries when set
	RetryInitialDelay time.Duration // Overrides awx.retry.initial_delay when set
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - AWXGATE_TIMEOUT_REQUEST (default: 30s)
//   - AWXGATE_POLL_INTERVAL (default: 3s)
//   - AWXGATE_TIMEOUT_WATCH (default: 2h)
//   - AWXGATE_TIMEOUT_SHUTDOWN (default: 15s)
//   - AWXGATE_RETRY_MAX_ATTEMPTS (default: 0, keep config value)
//   - AWXGATE_RETRY_INITIAL_DELAY (default: 0, keep config value)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Request:           parseDuration("AWXGATE_TIMEOUT_REQUEST", 30*time.Second),
		PollInterval:      parseDuration("AWXGATE_POLL_INTERVAL", 3*time.Second),
		Watch:             parseDuration("AWXGATE_TIMEOUT_WATCH", 2*time.Hour),
		Shutdown:          parseDuration("AWXGATE_TIMEOUT_SHUTDOWN", 15*time.Second),
		RetryMaxAttempts:  parseInt("AWXGATE_RETRY_MAX_ATTEMPTS", 0),
		RetryInitialDelay: parseDuration("AWXGATE_RETRY_INITIAL_DELAY", 0),
	}
}

// ApplyRetry copies the retry overrides into cfg when they are set.
func (t *Timeouts) ApplyRetry(cfg *RetryConfig) {
	if t.RetryMaxAttempts > 0 {
		cfg.MaxRetries = t.RetryMaxAttempts
	}
	if t.RetryInitialDelay > 0 {
		cfg.InitialDelay = t.RetryInitialDelay
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
