// Package config loads application configuration from environment variables.
package config

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/ericfisherdev/krishiai/internal/keyring"
)

// Key derivation labels for the subkeys of SecretKey.
const (
	PurposeSessions    = "krishiai/sessions"
	PurposeCredentials = "krishiai/credentials"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string
	// SecureCookies marks session and CSRF cookies Secure. Enable behind TLS.
	SecureCookies bool

	// SecretKey signs session tokens and encrypts stored credentials. nil when
	// KRISHIAI_SECRET_KEY is unset; the server refuses to start without it.
	SecretKey  []byte
	SessionTTL time.Duration

	GeminiAPIKey  string
	GeminiAPIKeys string
	GeminiModel   string

	WeatherURL string

	MarketURL            string
	MarketAPIKey         string
	TrackedCommodities   []string
	PriceRefreshInterval time.Duration

	S3Bucket    string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	ImageDir    string
}

// AIKeys returns the ordered, de-duplicated Gemini credential set from the
// environment. It is recomputed on every call.
func (c *Config) AIKeys() []string {
	return keyring.ParseKeys(c.GeminiAPIKey, c.GeminiAPIKeys)
}

// DeriveKey returns a 32-byte subkey of SecretKey for the given purpose, or nil
// when no secret key is configured.
func (c *Config) DeriveKey(purpose string) ([]byte, error) {
	if c.SecretKey == nil {
		return nil, nil
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, c.SecretKey, nil, []byte(purpose)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}

// HasMarketAPI returns true when a data.gov.in key is configured. Without it
// market lookups are served from stored snapshots only.
func (c *Config) HasMarketAPI() bool {
	return c.MarketAPIKey != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// Optional variables with defaults: KRISHIAI_LISTEN_ADDR (127.0.0.1:8080),
// KRISHIAI_DB_PATH (krishiai.db), KRISHIAI_SESSION_TTL (168h),
// KRISHIAI_GEMINI_MODEL (gemini-2.0-flash), KRISHIAI_PRICE_REFRESH_INTERVAL (30m).
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:           "127.0.0.1:8080",
		DBPath:               "krishiai.db",
		SessionTTL:           7 * 24 * time.Hour,
		GeminiModel:          "gemini-2.0-flash",
		WeatherURL:           "https://api.open-meteo.com",
		MarketURL:            "https://api.data.gov.in",
		PriceRefreshInterval: 30 * time.Minute,
		S3Region:             "ap-south-1",
	}

	if v, ok := os.LookupEnv("KRISHIAI_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("KRISHIAI_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv("KRISHIAI_SECURE_COOKIES"); ok && v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("KRISHIAI_SECURE_COOKIES must be a boolean, got %q", v)
		}
		cfg.SecureCookies = secure
	}

	if v, ok := os.LookupEnv("KRISHIAI_SECRET_KEY"); ok && v != "" {
		key, err := ParseSecretKey(v)
		if err != nil {
			return nil, fmt.Errorf("KRISHIAI_SECRET_KEY: %w", err)
		}
		cfg.SecretKey = key
	}

	if v, ok := os.LookupEnv("KRISHIAI_SESSION_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("KRISHIAI_SESSION_TTL has invalid duration %q: %w", v, err)
		}
		cfg.SessionTTL = parsed
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiAPIKeys = os.Getenv("GEMINI_API_KEYS")
	if v, ok := os.LookupEnv("KRISHIAI_GEMINI_MODEL"); ok && v != "" {
		cfg.GeminiModel = v
	}

	if v, ok := os.LookupEnv("KRISHIAI_WEATHER_URL"); ok && v != "" {
		cfg.WeatherURL = strings.TrimRight(v, "/")
	}
	if v, ok := os.LookupEnv("KRISHIAI_MARKET_URL"); ok && v != "" {
		cfg.MarketURL = strings.TrimRight(v, "/")
	}
	cfg.MarketAPIKey = os.Getenv("KRISHIAI_MARKET_API_KEY")

	cfg.TrackedCommodities = splitList(os.Getenv("KRISHIAI_TRACKED_COMMODITIES"))

	if v, ok := os.LookupEnv("KRISHIAI_PRICE_REFRESH_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("KRISHIAI_PRICE_REFRESH_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("KRISHIAI_PRICE_REFRESH_INTERVAL must be positive, got %s", parsed)
		}
		cfg.PriceRefreshInterval = parsed
	}

	cfg.S3Bucket = os.Getenv("KRISHIAI_S3_BUCKET")
	cfg.S3Endpoint = os.Getenv("KRISHIAI_S3_ENDPOINT")
	if v, ok := os.LookupEnv("KRISHIAI_S3_REGION"); ok && v != "" {
		cfg.S3Region = v
	}
	cfg.S3AccessKey = os.Getenv("KRISHIAI_S3_ACCESS_KEY")
	cfg.S3SecretKey = os.Getenv("KRISHIAI_S3_SECRET_KEY")
	cfg.ImageDir = os.Getenv("KRISHIAI_IMAGE_DIR")

	return cfg, nil
}

// ParseSecretKey decodes a 32-byte key given as 64 hex characters or standard base64.
func ParseSecretKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if key, err := hex.DecodeString(s); err == nil {
		if len(key) != 32 {
			return nil, fmt.Errorf("expected 32 bytes, got %d", len(key))
		}
		return key, nil
	}
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("must be 64 hex characters or base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("expected 32 bytes, got %d", len(key))
	}
	return key, nil
}

func splitList(v string) []string {
	items := []string{}
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
