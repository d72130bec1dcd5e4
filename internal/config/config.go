package config

import (
	"encoding/json"
	"os"
)

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig   `json:"database"`
	Cache      CacheConfig      `json:"cache"`
	Gateway    GatewayConfig    `json:"gateway"`
	RateSource RateSourceConfig `json:"rate_source"`
	Engine     EngineConfig     `json:"engine"`
	Server     ServerConfig     `json:"server"`
}

// DatabaseConfig represents PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// CacheConfig represents Redis configuration
type CacheConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	Database int    `json:"database"`
}

// GatewayConfig represents the market data gateway configuration.
// Mode "test" substitutes the synthetic gateway for the live one.
type GatewayConfig struct {
	Mode               string `json:"mode"`
	BaseURL            string `json:"base_url"`
	APIKey             string `json:"api_key"`
	TimeoutSeconds     int    `json:"timeout_seconds"`
	RequestDelayMillis int    `json:"request_delay_millis"`
	MaxRetries         int    `json:"max_retries"`
	RetryBaseMillis    int    `json:"retry_base_millis"`
}

// RateSourceConfig represents the benchmark rate source configuration
type RateSourceConfig struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// EngineConfig represents the pricing engine configuration
type EngineConfig struct {
	CycleIntervalSeconds int `json:"cycle_interval_seconds"`
	BatchSize            int `json:"batch_size"`
	Workers              int `json:"workers"`
	CurveTTLMinutes      int `json:"curve_ttl_minutes"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port int `json:"port"`
}

// Load loads configuration from file
func Load() (*Config, error) {
	configFile := "configs/config.json"
	if envFile := os.Getenv("CONFIG_FILE"); envFile != "" {
		configFile = envFile
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
