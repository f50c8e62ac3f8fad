// Package config centralizes application configuration into typed structs,
// with defaults overridable through the environment. A .env file in the
// working directory is loaded first when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store driver names accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverDynamoDB = "dynamodb"
	DriverRedis    = "redis"
)

type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Geo    GeoConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StoreConfig struct {
	Driver    string
	AWSRegion string
	RedisAddr string
	// PageSize caps one index-query page. Radius searches issue one page
	// per decomposed cell.
	PageSize int
}

// GeoConfig controls indexing precision. Spot geohashes are stored at
// PrecisionBits; search prefixes are derived per query and always coarser.
type GeoConfig struct {
	PrecisionBits int
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:    DriverMemory,
			AWSRegion: "eu-central-1",
			RedisAddr: "localhost:6379",
			PageSize:  100,
		},
		Geo: GeoConfig{
			PrecisionBits: 50,
		},
	}
}

// Load returns the defaults overridden by the environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := defaults()
	cfg.Server.Port = getString("PORT", cfg.Server.Port)
	cfg.Store.Driver = getString("STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.AWSRegion = getString("AWS_REGION", cfg.Store.AWSRegion)
	cfg.Store.RedisAddr = getString("REDIS_ADDR", cfg.Store.RedisAddr)
	cfg.Store.PageSize = getInt("STORE_PAGE_SIZE", cfg.Store.PageSize)
	cfg.Geo.PrecisionBits = getInt("GEOHASH_PRECISION_BITS", cfg.Geo.PrecisionBits)
	return cfg
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
