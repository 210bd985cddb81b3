package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewConfigWithDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "https://tdx.transportdata.tw", cfg.TDXBaseURL)
	assert.Contains(t, cfg.TDXTokenURL, "openid-connect/token")
	assert.Equal(t, []string{"Taipei", "NewTaipei", "Taoyuan"}, cfg.Regions)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 20*time.Second, cfg.RegionTimeout)
	assert.Equal(t, 50.0, cfg.MaxRadiusKm)
	assert.False(t, cfg.ExactRadius)
	assert.False(t, cfg.TLSEnabled())
	assert.False(t, cfg.UseS3Images())
}

func TestDefaultRegionsNotShared(t *testing.T) {
	cfg := New()
	cfg.Regions[0] = "Kaohsiung"

	assert.Equal(t, "Taipei", DefaultRegions[0])
}

func TestWithEnvironment(t *testing.T) {
	cfg := New(WithEnvironment("development"))

	assert.Equal(t, "development", cfg.Environment)
}

func TestWithLogLevel(t *testing.T) {
	cfg := New(WithLogLevel("debug"))
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)

	cfg = New(WithLogLevel("nonsense"))
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestWithHTTPTimeout(t *testing.T) {
	cfg := New(WithHTTPTimeout(30 * time.Second))

	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestOptionsIgnoreEmptyValues(t *testing.T) {
	cfg := New(
		WithRegions(nil),
		WithMaxRadiusKm(0),
		WithTDXRequestsPerSecond(-1),
		WithTDXEndpoints("", ""),
	)

	assert.Equal(t, DefaultRegions, cfg.Regions)
	assert.Equal(t, 50.0, cfg.MaxRadiusKm)
	assert.Equal(t, 2.0, cfg.TDXRequestsPerSecond)
	assert.Equal(t, defaultTDXBaseURL, cfg.TDXBaseURL)
}

func TestWithTLS(t *testing.T) {
	assert.False(t, New(WithTLS("cert.pem", "")).TLSEnabled())
	assert.True(t, New(WithTLS("cert.pem", "key.pem")).TLSEnabled())
}

func TestInitializeLogging(t *testing.T) {
	cfg := New(WithEnvironment("local"), WithLogLevel("debug"))
	cfg.InitializeLogging()

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("HTTP_ADDR", ":9443")
	t.Setenv("TLS_CERT_FILE", "/etc/tls/cert.pem")
	t.Setenv("TLS_KEY_FILE", "/etc/tls/key.pem")
	t.Setenv("TDX_CLIENT_ID", "client")
	t.Setenv("TDX_CLIENT_SECRET", "secret")
	t.Setenv("TDX_REQUESTS_PER_SECOND", "4.5")
	t.Setenv("REFRESH_REGIONS", "Taipei, Hsinchu ,,")
	t.Setenv("REFRESH_INTERVAL", "30s")
	t.Setenv("REGION_TIMEOUT", "5s")
	t.Setenv("MAX_RADIUS_KM", "10")
	t.Setenv("EXACT_RADIUS", "true")
	t.Setenv("IMAGE_S3_BUCKET", "bike-images")
	t.Setenv("IMAGE_S3_PREFIX", "stations/")
	t.Setenv("IMAGE_BASE_URL", "https://cdn.example.com/")

	cfg := LoadFromEnv()

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, ":9443", cfg.HTTPAddr)
	assert.True(t, cfg.TLSEnabled())
	assert.Equal(t, "client", cfg.TDXClientID)
	assert.Equal(t, "secret", cfg.TDXClientSecret)
	assert.Equal(t, 4.5, cfg.TDXRequestsPerSecond)
	assert.Equal(t, []string{"Taipei", "Hsinchu"}, cfg.Regions)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 5*time.Second, cfg.RegionTimeout)
	assert.Equal(t, 10.0, cfg.MaxRadiusKm)
	assert.True(t, cfg.ExactRadius)
	assert.True(t, cfg.UseS3Images())
	assert.Equal(t, "stations/", cfg.ImageS3Prefix)
	assert.Equal(t, "https://cdn.example.com/", cfg.ImageBaseURL)
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "value")

	assert.Equal(t, "value", getEnvOrDefault("TEST_ENV_VAR", "default"))
	assert.Equal(t, "default", getEnvOrDefault("NON_EXISTENT_ENV_VAR", "default"))
}

func TestGetDurationEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_DURATION_ENV_VAR", "2s")
	t.Setenv("TEST_BAD_DURATION_ENV_VAR", "soon")

	assert.Equal(t, 2*time.Second, getDurationEnvOrDefault("TEST_DURATION_ENV_VAR", 1*time.Second))
	assert.Equal(t, 1*time.Second, getDurationEnvOrDefault("TEST_BAD_DURATION_ENV_VAR", 1*time.Second))
	assert.Equal(t, 1*time.Second, getDurationEnvOrDefault("NON_EXISTENT_DURATION_ENV_VAR", 1*time.Second))
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "1.25")
	t.Setenv("TEST_BAD_FLOAT", "abc")

	assert.Equal(t, 1.25, getEnvFloat("TEST_FLOAT", 3))
	assert.Equal(t, 3.0, getEnvFloat("TEST_BAD_FLOAT", 3))
	assert.Equal(t, 3.0, getEnvFloat("NON_EXISTENT_FLOAT", 3))
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("TEST_LIST", " a, b ,c ")
	t.Setenv("TEST_EMPTY_LIST", " , ")

	assert.Equal(t, []string{"a", "b", "c"}, getEnvList("TEST_LIST"))
	assert.Empty(t, getEnvList("TEST_EMPTY_LIST"))
	assert.Empty(t, getEnvList("NON_EXISTENT_LIST"))
}
