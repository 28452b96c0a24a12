package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort                  int
	SQLiteDSN                 string
	Z3SolverEnabled           bool
	SolverTimeout             time.Duration
	AvailabilitySlotIncrement time.Duration
	DecisionCacheSize         int
	AdminTokenHash            string
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// malformed values.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:                  8080,
		SQLiteDSN:                 "file:scheduler.db?_foreign_keys=on",
		Z3SolverEnabled:           true,
		SolverTimeout:             5 * time.Second,
		AvailabilitySlotIncrement: 15 * time.Minute,
		DecisionCacheSize:         256,
	}

	invalid := make([]string, 0, 4)

	if v := strings.TrimSpace(os.Getenv("SCHEDULER_HTTP_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SCHEDULER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if v := strings.TrimSpace(os.Getenv("SCHEDULER_Z3_SOLVER_ENABLED")); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_Z3_SOLVER_ENABLED")
		} else {
			cfg.Z3SolverEnabled = enabled
		}
	}

	if v := strings.TrimSpace(os.Getenv("SCHEDULER_SOLVER_TIMEOUT_MS")); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			invalid = append(invalid, "SCHEDULER_SOLVER_TIMEOUT_MS")
		} else {
			cfg.SolverTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	if v := strings.TrimSpace(os.Getenv("SCHEDULER_AVAILABILITY_SLOT_INCREMENT_MINUTES")); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			invalid = append(invalid, "SCHEDULER_AVAILABILITY_SLOT_INCREMENT_MINUTES")
		} else {
			cfg.AvailabilitySlotIncrement = time.Duration(minutes) * time.Minute
		}
	}

	if v := strings.TrimSpace(os.Getenv("SCHEDULER_DECISION_CACHE_SIZE")); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			invalid = append(invalid, "SCHEDULER_DECISION_CACHE_SIZE")
		} else {
			cfg.DecisionCacheSize = size
		}
	}

	if v := strings.TrimSpace(os.Getenv("SCHEDULER_ADMIN_TOKEN_HASH")); v != "" {
		cfg.AdminTokenHash = v
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable value(s): %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
