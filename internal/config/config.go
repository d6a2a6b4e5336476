// Package config reads process configuration from the environment and an optional .env file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

const EnvProduction = "production"

var (
	ErrInvalidStore   = errors.New("REQ_STORE must be memory or sqlite")
	ErrInvalidCSRFKey = errors.New("REQ_CSRF_KEY must be 64 hex characters (32 bytes)")
	ErrMissingCSRFKey = errors.New("REQ_CSRF_KEY is required in production")
)

// Config holds everything main needs to wire the server.
type Config struct {
	Addr          string
	Env           string
	Store         string
	DBPath        string
	CataloguePath string
	CSRFKey       []byte
	// TrustedOrigins are host:port values allowed as form-post referers.
	TrustedOrigins []string

	ResendKey  string
	NotifyFrom string
	NotifyTo   string

	Seed          bool
	RateLimit     int
	SlowQueryMs   int
	SlowRequestMs int
}

// IsProduction reports whether REQ_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// NotificationsEnabled reports whether submissions should be emailed.
func (c Config) NotificationsEnabled() bool {
	return c.NotifyTo != ""
}

// Load reads .env (if present) and then the process environment.
// Variables already set in the environment win over .env values.
// POST: returned Config has every default applied and a 32-byte CSRF key
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Load uses os.Getenv; tests pass a map.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Addr:          get("REQ_ADDR", ":8080"),
		Env:           get("REQ_ENV", "development"),
		Store:         strings.ToLower(get("REQ_STORE", StoreMemory)),
		DBPath:        get("REQ_DB_PATH", "requisitions.db"),
		CataloguePath: get("REQ_CATALOGUE_PATH", ""),
		ResendKey:     get("REQ_RESEND_KEY", ""),
		NotifyFrom:    get("REQ_NOTIFY_FROM", "Requisitions <noreply@example.com>"),
		NotifyTo:      get("REQ_NOTIFY_TO", ""),
	}

	if cfg.Store != StoreMemory && cfg.Store != StoreSQLite {
		return Config{}, fmt.Errorf("%w: %q", ErrInvalidStore, cfg.Store)
	}

	seed, err := strconv.ParseBool(get("REQ_SEED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("REQ_SEED: %w", err)
	}
	cfg.Seed = seed

	if cfg.RateLimit, err = positiveInt(get("REQ_RATE_LIMIT", "10")); err != nil {
		return Config{}, fmt.Errorf("REQ_RATE_LIMIT: %w", err)
	}
	if cfg.SlowQueryMs, err = positiveInt(get("REQ_SLOW_QUERY_MS", "50")); err != nil {
		return Config{}, fmt.Errorf("REQ_SLOW_QUERY_MS: %w", err)
	}
	if cfg.SlowRequestMs, err = positiveInt(get("REQ_SLOW_REQUEST_MS", "200")); err != nil {
		return Config{}, fmt.Errorf("REQ_SLOW_REQUEST_MS: %w", err)
	}

	cfg.TrustedOrigins = splitList(get("REQ_TRUSTED_ORIGINS", "localhost:8080,127.0.0.1:8080"))

	cfg.CSRFKey, err = csrfKey(getenv("REQ_CSRF_KEY"), cfg.IsProduction())
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// csrfKey decodes the hex secret. In development a random key is generated per startup.
func csrfKey(keyHex string, production bool) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, ErrInvalidCSRFKey
		}
		return key, nil
	}
	if production {
		return nil, ErrMissingCSRFKey
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate CSRF key: %w", err)
	}
	log.Println("WARNING: using random CSRF key (form tokens won't survive restart). Set REQ_CSRF_KEY for production.")
	return key, nil
}

func positiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
