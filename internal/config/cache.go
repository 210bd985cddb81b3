package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// CacheConfig holds all cache-related configuration
type CacheConfig struct {
	// Nearby query result cache
	NearbyLRUSize       int
	NearbyLRUTTLSeconds int
	EnableNearbyCache   bool

	// S3 image listing
	ImageListTTLMinutes int
}

const (
	// Default values
	defaultNearbyLRUSize       = 2000
	defaultNearbyTTLSeconds    = 60
	defaultImageListTTLMinutes = 10
)

// GetCacheConfig returns the cache configuration from environment variables or defaults
func GetCacheConfig() *CacheConfig {
	config := &CacheConfig{
		NearbyLRUSize:       getEnvInt("NEARBY_CACHE_SIZE", defaultNearbyLRUSize),
		NearbyLRUTTLSeconds: getEnvInt("CACHE_NEARBY_TTL_SECONDS", defaultNearbyTTLSeconds),
		EnableNearbyCache:   getEnvBool("CACHE_ENABLE_NEARBY", true),
		ImageListTTLMinutes: getEnvInt("CACHE_IMAGE_LIST_TTL_MINUTES", defaultImageListTTLMinutes),
	}

	// A non-positive size disables the cache rather than failing lru.New.
	if config.NearbyLRUSize <= 0 {
		config.EnableNearbyCache = false
	}

	log.Debug().
		Int("NearbyLRUSize", config.NearbyLRUSize).
		Int("NearbyLRUTTLSeconds", config.NearbyLRUTTLSeconds).
		Bool("EnableNearbyCache", config.EnableNearbyCache).
		Int("ImageListTTLMinutes", config.ImageListTTLMinutes).
		Msg("Cache configuration loaded")

	return config
}

func (c *CacheConfig) GetNearbyLRUTTL() time.Duration {
	return time.Duration(c.NearbyLRUTTLSeconds) * time.Second
}

func (c *CacheConfig) GetImageListTTL() time.Duration {
	return time.Duration(c.ImageListTTLMinutes) * time.Minute
}

// Helper functions to get environment variables with defaults
func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
