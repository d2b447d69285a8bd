package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	HTTPAddr string

	RedisURL       string
	RedisNamespace string
	DatabaseURL    string

	PresetCatalog string
	MessagesDir   string

	TickInterval       time.Duration
	MatchTTL           time.Duration
	MaxActiveMatches   int
	DefaultPlayerCount int
}

// LoadDotenv reads .env files into the environment; a missing file is fine.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:           ":8080",
		RedisNamespace:     "clock",
		TickInterval:       100 * time.Millisecond,
		MatchTTL:           24 * time.Hour,
		MaxActiveMatches:   200,
		DefaultPlayerCount: 2,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if v := strings.TrimSpace(os.Getenv("REDIS_NAMESPACE")); v != "" {
		cfg.RedisNamespace = v
	}
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.PresetCatalog = strings.TrimSpace(os.Getenv("PRESET_CATALOG"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if n, ok, err := positiveInt("TICK_INTERVAL_MS"); err != nil {
		return nil, err
	} else if ok {
		cfg.TickInterval = time.Duration(n) * time.Millisecond
	}
	if n, ok, err := positiveInt("MATCH_TTL_SEC"); err != nil {
		return nil, err
	} else if ok {
		cfg.MatchTTL = time.Duration(n) * time.Second
	}
	if n, ok, err := positiveInt("MAX_ACTIVE_MATCHES"); err != nil {
		return nil, err
	} else if ok {
		cfg.MaxActiveMatches = n
	}
	if n, ok, err := positiveInt("DEFAULT_PLAYER_COUNT"); err != nil {
		return nil, err
	} else if ok {
		cfg.DefaultPlayerCount = n
	}

	if cfg.DefaultPlayerCount < 2 {
		return nil, errors.New("DEFAULT_PLAYER_COUNT must be at least 2")
	}
	if cfg.TickInterval < 10*time.Millisecond {
		return nil, errors.New("TICK_INTERVAL_MS must be at least 10")
	}
	return cfg, nil
}

func positiveInt(key string) (int, bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, false, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, true, nil
}
