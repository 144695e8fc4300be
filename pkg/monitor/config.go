package monitor

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables recognized at process attach.
const (
	// EnvFacility tags emitted records; truncated to four characters.
	EnvFacility = "IOTRACE_FACILITY"

	// EnvMQPath selects the message-queue backend when set; absent means
	// records go to the loopback socket collector.
	EnvMQPath = "IOTRACE_MQ_PATH"

	// EnvDomains is a comma-separated list of domain names, or "ALL".
	// Absent means monitor nothing.
	EnvDomains = "IOTRACE_DOMAINS"

	// EnvStartOnOpen keeps the monitor paused until the first OPEN whose
	// path contains this substring.
	EnvStartOnOpen = "IOTRACE_START_ON_OPEN"

	// EnvStartOnElapsed keeps the monitor paused until any single call's
	// elapsed time first exceeds this many milliseconds.
	EnvStartOnElapsed = "IOTRACE_START_ON_ELAPSED"
)

// DefaultFacility marks records from an unspecified component.
const DefaultFacility = "u"

// facilityLen is the number of significant facility characters.
const facilityLen = 4

// minElapsedTriggerMS is the smallest usable elapsed-time trigger; values
// below it are ignored rather than arming the pause gate on noise.
const minElapsedTriggerMS = 0.1

// Config holds the per-process control state, established once at attach.
type Config struct {
	// Facility identifies the monitored component or run.
	Facility string

	// MQPath, when non-empty, selects the message-queue transport keyed
	// by this filesystem path.
	MQPath string

	// Domains is the raw domain filter spec ("ALL" or a comma list).
	Domains string

	// StartOnOpen arms the pause gate with a path-substring trigger.
	StartOnOpen string

	// StartOnElapsedMS arms the pause gate with an elapsed-time trigger.
	StartOnElapsedMS float64
}

// DefaultConfig returns a config that monitors nothing until domains are
// chosen, reporting to the loopback socket collector.
func DefaultConfig() *Config {
	return &Config{Facility: DefaultFacility}
}

// LoadFromEnv builds a config from the environment. Malformed values
// degrade to their defaults; missing configuration never aborts the host.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv(EnvFacility); v != "" {
		cfg.Facility = v
	}
	cfg.MQPath = os.Getenv(EnvMQPath)
	cfg.Domains = os.Getenv(EnvDomains)
	cfg.StartOnOpen = os.Getenv(EnvStartOnOpen)

	if v := os.Getenv(EnvStartOnElapsed); v != "" {
		if ms, err := strconv.ParseFloat(v, 64); err == nil && ms >= minElapsedTriggerMS {
			cfg.StartOnElapsedMS = ms
		}
	}

	return cfg
}

// Validate checks programmatically-built configs; env-loaded ones are
// always valid by construction.
func (c *Config) Validate() error {
	if c.Facility == "" {
		return fmt.Errorf("facility must not be empty")
	}
	if c.StartOnElapsedMS < 0 {
		return fmt.Errorf("elapsed trigger must be >= 0, got %g", c.StartOnElapsedMS)
	}
	return nil
}

// paused reports whether the process should start in the PAUSED state.
func (c *Config) paused() bool {
	return c.StartOnOpen != "" || c.StartOnElapsedMS >= minElapsedTriggerMS
}

func truncateFacility(s string) string {
	if s == "" {
		return DefaultFacility
	}
	if len(s) > facilityLen {
		return s[:facilityLen]
	}
	return s
}
