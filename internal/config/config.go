package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultTDXBaseURL  = "https://tdx.transportdata.tw"
	defaultTDXTokenURL = "https://tdx.transportdata.tw/auth/realms/TDXConnect/protocol/openid-connect/token"
)

// DefaultRegions are the TDX cities served when REFRESH_REGIONS is unset.
var DefaultRegions = []string{"Taipei", "NewTaipei", "Taoyuan"}

type Config struct {
	Environment string
	LogLevel    zerolog.Level
	HTTPTimeout time.Duration
	MaxRetries  int

	// HTTP server
	HTTPAddr    string
	TLSCertFile string
	TLSKeyFile  string

	// TDX provider
	TDXBaseURL           string
	TDXTokenURL          string
	TDXClientID          string
	TDXClientSecret      string
	TDXRequestsPerSecond float64

	// Refresh
	Regions         []string
	RefreshInterval time.Duration
	RegionTimeout   time.Duration

	// Queries
	MaxRadiusKm float64
	ExactRadius bool

	// Images
	ImageDir      string
	ImageS3Bucket string
	ImageS3Prefix string
	ImageBaseURL  string
	// ImageS3Endpoint points the S3 client at a local stand-in such as MinIO.
	ImageS3Endpoint string
	AWSRegion       string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

func WithHTTPAddr(addr string) Option {
	return func(c *Config) {
		c.HTTPAddr = addr
	}
}

// WithTLS enables HTTPS when both files are set.
func WithTLS(certFile, keyFile string) Option {
	return func(c *Config) {
		c.TLSCertFile = certFile
		c.TLSKeyFile = keyFile
	}
}

// WithTDXCredentials sets the client-credentials pair used for token exchange.
func WithTDXCredentials(clientID, clientSecret string) Option {
	return func(c *Config) {
		c.TDXClientID = clientID
		c.TDXClientSecret = clientSecret
	}
}

func WithTDXEndpoints(baseURL, tokenURL string) Option {
	return func(c *Config) {
		if baseURL != "" {
			c.TDXBaseURL = baseURL
		}
		if tokenURL != "" {
			c.TDXTokenURL = tokenURL
		}
	}
}

func WithTDXRequestsPerSecond(rps float64) Option {
	return func(c *Config) {
		if rps > 0 {
			c.TDXRequestsPerSecond = rps
		}
	}
}

// WithRegions sets the cities refreshed on every cycle. An empty list keeps
// the defaults.
func WithRegions(regions []string) Option {
	return func(c *Config) {
		if len(regions) > 0 {
			c.Regions = regions
		}
	}
}

func WithRefreshInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.RefreshInterval = interval
	}
}

func WithRegionTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.RegionTimeout = timeout
	}
}

func WithMaxRadiusKm(km float64) Option {
	return func(c *Config) {
		if km > 0 {
			c.MaxRadiusKm = km
		}
	}
}

// WithExactRadius drops candidates farther than the requested radius.
func WithExactRadius(exact bool) Option {
	return func(c *Config) {
		c.ExactRadius = exact
	}
}

// WithImageDir serves images from a local directory.
func WithImageDir(dir string) Option {
	return func(c *Config) {
		c.ImageDir = dir
	}
}

// WithImageS3 lists images from an S3 bucket instead of a local directory.
// baseURL is the public prefix the object keys are appended to.
func WithImageS3(bucket, prefix, baseURL string) Option {
	return func(c *Config) {
		c.ImageS3Bucket = bucket
		c.ImageS3Prefix = prefix
		c.ImageBaseURL = baseURL
	}
}

func WithImageS3Endpoint(endpoint string) Option {
	return func(c *Config) {
		c.ImageS3Endpoint = endpoint
	}
}

func WithAWSRegion(region string) Option {
	return func(c *Config) {
		c.AWSRegion = region
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:          "production",
		LogLevel:             zerolog.InfoLevel,
		HTTPTimeout:          10 * time.Second,
		MaxRetries:           3,
		HTTPAddr:             ":8080",
		TDXBaseURL:           defaultTDXBaseURL,
		TDXTokenURL:          defaultTDXTokenURL,
		TDXRequestsPerSecond: 2,
		Regions:              append([]string(nil), DefaultRegions...),
		RefreshInterval:      time.Minute,
		RegionTimeout:        20 * time.Second,
		MaxRadiusKm:          50,
		ImageDir:             "./static/image",
		AWSRegion:            "ap-northeast-1",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// TLSEnabled reports whether the server should listen with HTTPS.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// UseS3Images reports whether the image catalog is backed by S3.
func (c *Config) UseS3Images() bool {
	return c.ImageS3Bucket != ""
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := New(
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 10*time.Second)),
		WithHTTPAddr(getEnvOrDefault("HTTP_ADDR", ":8080")),
		WithTLS(os.Getenv("TLS_CERT_FILE"), os.Getenv("TLS_KEY_FILE")),
		WithTDXEndpoints(os.Getenv("TDX_BASE_URL"), os.Getenv("TDX_TOKEN_URL")),
		WithTDXCredentials(os.Getenv("TDX_CLIENT_ID"), os.Getenv("TDX_CLIENT_SECRET")),
		WithTDXRequestsPerSecond(getEnvFloat("TDX_REQUESTS_PER_SECOND", 2)),
		WithRegions(getEnvList("REFRESH_REGIONS")),
		WithRefreshInterval(getDurationEnvOrDefault("REFRESH_INTERVAL", time.Minute)),
		WithRegionTimeout(getDurationEnvOrDefault("REGION_TIMEOUT", 20*time.Second)),
		WithMaxRadiusKm(getEnvFloat("MAX_RADIUS_KM", 50)),
		WithExactRadius(getEnvBool("EXACT_RADIUS", false)),
		WithImageDir(getEnvOrDefault("IMAGE_DIR", "./static/image")),
		WithImageS3(os.Getenv("IMAGE_S3_BUCKET"), os.Getenv("IMAGE_S3_PREFIX"), os.Getenv("IMAGE_BASE_URL")),
		WithImageS3Endpoint(os.Getenv("IMAGE_S3_ENDPOINT")),
		WithAWSRegion(getEnvOrDefault("AWS_REGION", "ap-northeast-1")),
	)

	log.Debug().
		Str("env", cfg.Environment).
		Str("http_addr", cfg.HTTPAddr).
		Strs("regions", cfg.Regions).
		Dur("refresh_interval", cfg.RefreshInterval).
		Dur("region_timeout", cfg.RegionTimeout).
		Float64("max_radius_km", cfg.MaxRadiusKm).
		Bool("exact_radius", cfg.ExactRadius).
		Bool("tls", cfg.TLSEnabled()).
		Bool("s3_images", cfg.UseS3Images()).
		Msg("Configuration loaded")

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Msg("Invalid float value in environment variable, using default")
	}
	return defaultVal
}

// getEnvList splits a comma separated variable, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
