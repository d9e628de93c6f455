package config

import (
	"testing"
	"time"

	"github.com/hackgods/physician-calendar/internal/calendar"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REMOTE_STORE_URL", "http://store.local")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.Rules(); got != calendar.DefaultRules() {
		t.Fatalf("rules = %+v, want %+v", got, calendar.DefaultRules())
	}
	if cfg.LedgerBackend != "memory" || cfg.InFlightBackend != "memory" || cfg.NeedsRedis() {
		t.Fatalf("unexpected backends %q/%q", cfg.LedgerBackend, cfg.InFlightBackend)
	}
	if cfg.LedgerRetention != 90*24*time.Hour || cfg.LedgerMaxEntries != 500 {
		t.Fatalf("ledger policy = %s/%d", cfg.LedgerRetention, cfg.LedgerMaxEntries)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REMOTE_STORE_URL", "http://store.local")
	t.Setenv("GRACE_PERIOD", "600")
	t.Setenv("END_OF_DAY", "17:30")
	t.Setenv("LEDGER_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://user:pw@cache:6380")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GracePeriod != 10*time.Minute {
		t.Errorf("grace period = %s", cfg.GracePeriod)
	}
	if cfg.EndOfDay != calendar.MustClock("17:30") {
		t.Errorf("end of day = %s", cfg.EndOfDay)
	}
	if !cfg.NeedsRedis() || cfg.RedisAddr != "cache:6380" || cfg.RedisUsername != "user" || cfg.RedisPassword != "pw" {
		t.Errorf("unexpected redis settings %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing store url":    {},
		"bad end of day":       {"REMOTE_STORE_URL": "http://x", "END_OF_DAY": "25:00"},
		"postgres without dsn": {"REMOTE_STORE_URL": "http://x", "LEDGER_BACKEND": "postgres"},
		"unknown ledger":       {"REMOTE_STORE_URL": "http://x", "LEDGER_BACKEND": "etcd"},
		"unknown inflight":     {"REMOTE_STORE_URL": "http://x", "INFLIGHT_BACKEND": "postgres"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("REMOTE_STORE_URL", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
