package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every env var that Load() reads.
var allConfigKeys = []string{
	"KRISHIAI_LISTEN_ADDR",
	"KRISHIAI_DB_PATH",
	"KRISHIAI_SECURE_COOKIES",
	"KRISHIAI_SECRET_KEY",
	"KRISHIAI_SESSION_TTL",
	"GEMINI_API_KEY",
	"GEMINI_API_KEYS",
	"KRISHIAI_GEMINI_MODEL",
	"KRISHIAI_WEATHER_URL",
	"KRISHIAI_MARKET_URL",
	"KRISHIAI_MARKET_API_KEY",
	"KRISHIAI_TRACKED_COMMODITIES",
	"KRISHIAI_PRICE_REFRESH_INTERVAL",
	"KRISHIAI_S3_BUCKET",
	"KRISHIAI_S3_ENDPOINT",
	"KRISHIAI_S3_REGION",
	"KRISHIAI_S3_ACCESS_KEY",
	"KRISHIAI_S3_SECRET_KEY",
	"KRISHIAI_IMAGE_DIR",
}

// isolateConfigEnv saves and unsets all config env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("KRISHIAI_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("KRISHIAI_DB_PATH", "/tmp/test.db")
	t.Setenv("KRISHIAI_SECURE_COOKIES", "true")
	t.Setenv("KRISHIAI_SECRET_KEY", strings.Repeat("ab", 32))
	t.Setenv("KRISHIAI_SESSION_TTL", "24h")
	t.Setenv("GEMINI_API_KEY", "primary")
	t.Setenv("GEMINI_API_KEYS", "second, third")
	t.Setenv("KRISHIAI_GEMINI_MODEL", "gemini-2.5-flash")
	t.Setenv("KRISHIAI_TRACKED_COMMODITIES", "Wheat, Onion,,Tomato")
	t.Setenv("KRISHIAI_PRICE_REFRESH_INTERVAL", "1h")
	t.Setenv("KRISHIAI_MARKET_URL", "http://market.local/")
	t.Setenv("KRISHIAI_S3_BUCKET", "photos")
	t.Setenv("KRISHIAI_S3_ACCESS_KEY", "minio")
	t.Setenv("KRISHIAI_S3_SECRET_KEY", "minio-secret")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.True(t, cfg.SecureCookies)
	assert.Len(t, cfg.SecretKey, 32)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, []string{"Wheat", "Onion", "Tomato"}, cfg.TrackedCommodities)
	assert.Equal(t, time.Hour, cfg.PriceRefreshInterval)
	assert.Equal(t, "http://market.local", cfg.MarketURL)
	assert.Equal(t, "photos", cfg.S3Bucket)
	assert.Equal(t, "minio", cfg.S3AccessKey)
	assert.Equal(t, "minio-secret", cfg.S3SecretKey)
	assert.Equal(t, "ap-south-1", cfg.S3Region)
	assert.Equal(t, []string{"primary", "second", "third"}, cfg.AIKeys())
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "krishiai.db", cfg.DBPath)
	assert.Nil(t, cfg.SecretKey)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 30*time.Minute, cfg.PriceRefreshInterval)
	assert.Empty(t, cfg.TrackedCommodities)
	assert.Empty(t, cfg.AIKeys())
	assert.False(t, cfg.HasMarketAPI())
}

func TestLoad_AIKeysDeduplicatePrimary(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("GEMINI_API_KEY", "X")
	t.Setenv("GEMINI_API_KEYS", "X,Y")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, cfg.AIKeys())
}

func TestLoad_InvalidDurations(t *testing.T) {
	for _, key := range []string{"KRISHIAI_SESSION_TTL", "KRISHIAI_PRICE_REFRESH_INTERVAL"} {
		t.Run(key, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv(key, "not-a-duration")

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_InvalidSecureCookies(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("KRISHIAI_SECURE_COOKIES", "sometimes")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "KRISHIAI_SECURE_COOKIES")
}

func TestLoad_NonPositiveRefreshInterval(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("KRISHIAI_PRICE_REFRESH_INTERVAL", "0s")

	_, err := Load()

	require.Error(t, err)
}

func TestParseSecretKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "hex 32 bytes", input: strings.Repeat("0f", 32)},
		{name: "base64 32 bytes", input: "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="},
		{name: "hex too short", input: "abcd", wantErr: true},
		{name: "garbage", input: "not a key!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseSecretKey(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, 32)
		})
	}
}

func TestDeriveKey(t *testing.T) {
	cfg := &Config{SecretKey: []byte(strings.Repeat("k", 32))}

	sessions, err := cfg.DeriveKey(PurposeSessions)
	require.NoError(t, err)
	creds, err := cfg.DeriveKey(PurposeCredentials)
	require.NoError(t, err)
	again, err := cfg.DeriveKey(PurposeSessions)
	require.NoError(t, err)

	assert.Len(t, sessions, 32)
	assert.NotEqual(t, sessions, creds)
	assert.Equal(t, sessions, again)

	empty, err := (&Config{}).DeriveKey(PurposeSessions)
	require.NoError(t, err)
	assert.Nil(t, empty)
}
