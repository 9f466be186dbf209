package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server"`
	Mongo    MongoConfig    `json:"mongo"`
	Redis    RedisConfig    `json:"redis"`
	Facta    FactaConfig    `json:"facta"`
	VCTEX    VCTEXConfig    `json:"vctex"`
	BMG      BMGConfig      `json:"bmg"`
	Log      LogConfig      `json:"log"`
	Security SecurityConfig `json:"security"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `json:"port"`
	Environment  string `json:"environment"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout"`
}

// MongoConfig holds MongoDB configuration
type MongoConfig struct {
	URI            string        `json:"uri"`
	Database       string        `json:"database"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// FactaConfig holds FACTA partner API configuration
type FactaConfig struct {
	BaseURL    string        `json:"base_url"`
	OfflineURL string        `json:"offline_url"`
	User       string        `json:"user"`
	Password   string        `json:"password"`
	Timeout    time.Duration `json:"timeout"`
	// TokenTTL is kept shorter than the partner's real TTL to force a
	// proactive refresh before expiry.
	TokenTTL       time.Duration `json:"token_ttl"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	DefaultRate    string        `json:"default_rate"`
	DefaultTable   string        `json:"default_table"`
}

// VCTEXConfig holds VCTEX/QI partner API configuration
type VCTEXConfig struct {
	BaseURL  string        `json:"base_url"`
	CPF      string        `json:"cpf"`
	Password string        `json:"password"`
	ProxyURL string        `json:"proxy_url"`
	Timeout  time.Duration `json:"timeout"`
	TokenTTL time.Duration `json:"token_ttl"`
	// StatusSettleDelay is how long the partner needs before a freshly
	// created proposal shows up on the status endpoint.
	StatusSettleDelay time.Duration `json:"status_settle_delay"`
}

// BMGConfig holds BMG SOAP webservice configuration
type BMGConfig struct {
	Host           string        `json:"host"`
	Login          string        `json:"login"`
	Password       string        `json:"password"`
	ConsigLogin    string        `json:"consig_login"`
	ConsigPassword string        `json:"consig_password"`
	Timeout        time.Duration `json:"timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit"`
	CORS      CORSConfig      `json:"cors"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", 8080),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvAsInt("IDLE_TIMEOUT", 60),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGODB_URL", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "fgts_agent"),
			ConnectTimeout: time.Duration(getEnvAsInt("MONGODB_CONNECT_TIMEOUT", 10)) * time.Second,
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  time.Duration(getEnvAsInt("REDIS_DIAL_TIMEOUT", 5)) * time.Second,
			ReadTimeout:  time.Duration(getEnvAsInt("REDIS_READ_TIMEOUT", 3)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("REDIS_WRITE_TIMEOUT", 3)) * time.Second,
		},
		Facta: FactaConfig{
			BaseURL:        getEnv("FACTA_BASE_URL", "https://webservice.facta.com.br"),
			OfflineURL:     getEnv("FACTA_OFFLINE_URL", "https://webservice.facta.com.br"),
			User:           getEnv("FACTA_USER", ""),
			Password:       getEnv("FACTA_PASSWORD", ""),
			Timeout:        time.Duration(getEnvAsInt("FACTA_TIMEOUT", 60)) * time.Second,
			TokenTTL:       time.Duration(getEnvAsInt("FACTA_TOKEN_TTL_MINUTES", 55)) * time.Minute,
			RequestsPerSec: 2, // partner-enforced limit
			DefaultRate:    getEnv("FACTA_DEFAULT_RATE", "1.8"),
			DefaultTable:   getEnv("FACTA_DEFAULT_TABLE", "57851"),
		},
		VCTEX: VCTEXConfig{
			BaseURL:           getEnv("VCTEX_API_URL", ""),
			CPF:               getEnv("VCTEX_CPF", ""),
			Password:          getEnv("VCTEX_PASSWORD", ""),
			ProxyURL:          getEnv("PROXY_URL", ""),
			Timeout:           time.Duration(getEnvAsInt("VCTEX_TIMEOUT", 90)) * time.Second,
			TokenTTL:          time.Duration(getEnvAsInt("VCTEX_TOKEN_TTL_MINUTES", 115)) * time.Minute,
			StatusSettleDelay: time.Duration(getEnvAsInt("VCTEX_STATUS_SETTLE_DELAY", 10)) * time.Second,
		},
		BMG: BMGConfig{
			Host:           getEnv("BMG_HOST", "ws1.bmgconsig.com.br"),
			Login:          getEnv("BMG_BOT_LOGIN", ""),
			Password:       getEnv("BMG_BOT_PASSWORD", ""),
			ConsigLogin:    getEnv("BMG_CONSIG_LOGIN", ""),
			ConsigPassword: getEnv("BMG_CONSIG_PASSWORD", ""),
			Timeout:        time.Duration(getEnvAsInt("BMG_TIMEOUT", 60)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 100),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
				CleanupInterval:   time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP", 60)) * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
			},
		},
	}

	// Validate required fields
	if cfg.Facta.User == "" || cfg.Facta.Password == "" {
		return nil, fmt.Errorf("FACTA_USER and FACTA_PASSWORD are required")
	}
	if cfg.VCTEX.BaseURL == "" {
		return nil, fmt.Errorf("VCTEX_API_URL is required")
	}

	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
