// Package config provides configuration management for the remittance gateway.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Chain     ChainConfig
	Tokens    []TokenConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Submit    SubmitConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// ChainConfig holds the target chain and contract configuration
type ChainConfig struct {
	RPCURL              string
	RemittanceContract  string
	SmartAccountAddress string // batch execution entry point, optional
	OperatorKeyHex      string // signing key for the gateway's session
	SupportsAtomicBatch bool   // decided once at session-connect time
}

// TokenConfig describes one supported stablecoin
type TokenConfig struct {
	Symbol   string
	Address  string
	Decimals int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// CacheConfig holds account-state cache configuration
type CacheConfig struct {
	AccountTTL time.Duration
}

// SubmitConfig holds submission tuning
type SubmitConfig struct {
	ReceiptTimeout     time.Duration
	ApproveIncludesFee bool // size approvals at principal+fee instead of principal
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional; environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Chain: ChainConfig{
			RPCURL:              getEnv("CHAIN_RPC_URL", ""),
			RemittanceContract:  getEnv("REMITTANCE_CONTRACT", ""),
			SmartAccountAddress: getEnv("SMART_ACCOUNT_ADDRESS", ""),
			OperatorKeyHex:      getEnv("OPERATOR_PRIVATE_KEY", ""),
			SupportsAtomicBatch: getEnvAsBool("SUPPORTS_ATOMIC_BATCH", false),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "remittance"),
				User:           getEnv("POSTGRES_USER", "remit"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 50),
			},
		},
		Cache: CacheConfig{
			AccountTTL: getEnvAsDuration("ACCOUNT_CACHE_TTL", 2*time.Minute),
		},
		Submit: SubmitConfig{
			ReceiptTimeout:     getEnvAsDuration("RECEIPT_TIMEOUT", 90*time.Second),
			ApproveIncludesFee: getEnvAsBool("APPROVE_INCLUDES_FEE", false),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 50),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	config.Tokens = loadTokenConfigs()

	if config.Chain.RPCURL == "" {
		return nil, fmt.Errorf("CHAIN_RPC_URL is required")
	}
	if config.Chain.RemittanceContract == "" {
		return nil, fmt.Errorf("REMITTANCE_CONTRACT is required")
	}

	return config, nil
}

// loadTokenConfigs reads the supported stablecoin set. Format:
// SUPPORTED_TOKENS=USDC,USDT plus per-token USDC_ADDRESS / USDC_DECIMALS.
func loadTokenConfigs() []TokenConfig {
	symbols := strings.Split(getEnv("SUPPORTED_TOKENS", "USDC,USDT"), ",")

	var tokens []TokenConfig
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		tokens = append(tokens, TokenConfig{
			Symbol:   symbol,
			Address:  getEnv(symbol+"_ADDRESS", ""),
			Decimals: getEnvAsInt(symbol+"_DECIMALS", 6),
		})
	}
	return tokens
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a bool with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
