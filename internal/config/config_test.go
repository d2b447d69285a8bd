package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "REDIS_URL", "DATABASE_URL", "TICK_INTERVAL_MS", "MATCH_TTL_SEC", "MAX_ACTIVE_MATCHES", "DEFAULT_PLAYER_COUNT"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.TickInterval != 100*time.Millisecond || cfg.MatchTTL != 24*time.Hour || cfg.MaxActiveMatches != 200 || cfg.DefaultPlayerCount != 2 {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("REDIS_URL", " redis://localhost:6379/0 ")
	t.Setenv("TICK_INTERVAL_MS", "250")
	t.Setenv("MATCH_TTL_SEC", "60")
	t.Setenv("DEFAULT_PLAYER_COUNT", "4")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" || cfg.RedisURL != "redis://localhost:6379/0" || cfg.TickInterval != 250*time.Millisecond || cfg.MatchTTL != time.Minute || cfg.DefaultPlayerCount != 4 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	cases := map[string]string{
		"TICK_INTERVAL_MS":     "fast",
		"MATCH_TTL_SEC":        "-1",
		"MAX_ACTIVE_MATCHES":   "0",
		"DEFAULT_PLAYER_COUNT": "1",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CLOCK_TEST_VALUE=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CLOCK_TEST_VALUE", "")
	os.Unsetenv("CLOCK_TEST_VALUE")
	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if got := os.Getenv("CLOCK_TEST_VALUE"); got != "from-dotenv" {
		t.Fatalf("value = %q", got)
	}
	if err := LoadDotenv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}
