package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	// Cluster access
	Kubeconfig   string
	DescribeTool string // oc or kubectl; autodetected when empty

	// Output
	OutputDir string

	// Usage report
	PrometheusURL string

	// Run history
	DatabaseURL string

	// Collection
	Workers int
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	return &Config{
		Kubeconfig:    getEnv("KUBECONFIG", ""),
		DescribeTool:  getEnv("DESCRIBE_TOOL", ""),
		OutputDir:     getEnv("OUTPUT_DIR", "."),
		PrometheusURL: getEnv("PROMETHEUS_URL", ""),
		DatabaseURL:   getEnv("DATABASE_URL", "host=localhost port=5432 user=gather password=devpassword dbname=resourcegather sslmode=disable"),
		Workers:       getEnvInt("GATHER_WORKERS", 4),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory must be set")
	}
	return nil
}
