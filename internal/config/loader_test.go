package config

import (
	"os"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"SCHEDULER_HTTP_PORT",
			"SCHEDULER_SQLITE_DSN",
			"SCHEDULER_Z3_SOLVER_ENABLED",
			"SCHEDULER_SOLVER_TIMEOUT_MS",
			"SCHEDULER_AVAILABILITY_SLOT_INCREMENT_MINUTES",
			"SCHEDULER_DECISION_CACHE_SIZE",
			"SCHEDULER_ADMIN_TOKEN_HASH",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:scheduler.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if !cfg.Z3SolverEnabled {
			t.Fatalf("expected solver enabled by default")
		}
		if cfg.SolverTimeout != 5*time.Second {
			t.Fatalf("expected default solver timeout 5s, got %s", cfg.SolverTimeout)
		}
		if cfg.AvailabilitySlotIncrement != 15*time.Minute {
			t.Fatalf("expected default slot increment 15m, got %s", cfg.AvailabilitySlotIncrement)
		}
		if cfg.DecisionCacheSize != 256 {
			t.Fatalf("expected default decision cache size 256, got %d", cfg.DecisionCacheSize)
		}
	})

	t.Run("errors when values are malformed", func(t *testing.T) {
		t.Setenv("SCHEDULER_Z3_SOLVER_ENABLED", "not-a-bool")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for malformed boolean")
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		t.Setenv("SCHEDULER_HTTP_PORT", "9090")
		t.Setenv("SCHEDULER_SQLITE_DSN", "file:/tmp/scheduler.db")
		t.Setenv("SCHEDULER_Z3_SOLVER_ENABLED", "false")
		t.Setenv("SCHEDULER_SOLVER_TIMEOUT_MS", "2000")
		t.Setenv("SCHEDULER_AVAILABILITY_SLOT_INCREMENT_MINUTES", "30")
		t.Setenv("SCHEDULER_DECISION_CACHE_SIZE", "50")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/scheduler.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.Z3SolverEnabled {
			t.Fatalf("expected solver disabled")
		}
		if cfg.SolverTimeout != 2*time.Second {
			t.Fatalf("expected solver timeout 2s, got %s", cfg.SolverTimeout)
		}
		if cfg.AvailabilitySlotIncrement != 30*time.Minute {
			t.Fatalf("expected slot increment 30m, got %s", cfg.AvailabilitySlotIncrement)
		}
		if cfg.DecisionCacheSize != 50 {
			t.Fatalf("expected decision cache size 50, got %d", cfg.DecisionCacheSize)
		}
	})
}
