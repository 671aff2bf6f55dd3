package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds readiness polling durations.
// These values can be customized via environment variables.
type Timeouts struct {
	PollInterval     time.Duration // Delay between readiness probes
	DockerReady      time.Duration // Docker daemon answering pings
	NodesReady       time.Duration // k3s node registration
	DatabaseReady    time.Duration // PostgreSQL pods
	AppReady         time.Duration // Application UI and API pods
	FallbackSleep    time.Duration // Extended wait after a readiness timeout
	FallbackAttempts int           // Extra poll passes after a readiness timeout
	PollMaxAttempts  int           // Checks per first pass, 0 for unbounded
	PollBackoff      float64       // Poll interval growth factor, 1 keeps it fixed
	PollMaxInterval  time.Duration // Cap for a growing poll interval
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - VSB_TIMEOUT_POLL_INTERVAL (default: 5s)
//   - VSB_TIMEOUT_DOCKER (default: 60s)
//   - VSB_TIMEOUT_NODES (default: 120s)
//   - VSB_TIMEOUT_DATABASE (default: 300s)
//   - VSB_TIMEOUT_APP (default: 300s)
//   - VSB_TIMEOUT_FALLBACK_SLEEP (default: 60s)
//   - VSB_FALLBACK_ATTEMPTS (default: 1)
//   - VSB_POLL_MAX_ATTEMPTS (default: 0, unbounded)
//   - VSB_POLL_BACKOFF (default: 1)
//   - VSB_TIMEOUT_POLL_MAX_INTERVAL (default: 30s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		PollInterval:     parseDuration("VSB_TIMEOUT_POLL_INTERVAL", 5*time.Second),
		DockerReady:      parseDuration("VSB_TIMEOUT_DOCKER", 60*time.Second),
		NodesReady:       parseDuration("VSB_TIMEOUT_NODES", 120*time.Second),
		DatabaseReady:    parseDuration("VSB_TIMEOUT_DATABASE", 300*time.Second),
		AppReady:         parseDuration("VSB_TIMEOUT_APP", 300*time.Second),
		FallbackSleep:    parseDuration("VSB_TIMEOUT_FALLBACK_SLEEP", 60*time.Second),
		FallbackAttempts: parseInt("VSB_FALLBACK_ATTEMPTS", 1),
		PollMaxAttempts:  parseInt("VSB_POLL_MAX_ATTEMPTS", 0),
		PollBackoff:      parseFloat("VSB_POLL_BACKOFF", 1),
		PollMaxInterval:  parseDuration("VSB_TIMEOUT_POLL_MAX_INTERVAL", 30*time.Second),
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
	if err != nil || d < 0 {
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
	if err != nil || i < 0 {
		return defaultVal
	}

	return i
}

// parseFloat parses a factor of at least 1 from an environment variable.
func parseFloat(envVar string, defaultVal float64) float64 {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 1 {
		return defaultVal
	}

	return f
}
