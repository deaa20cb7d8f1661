package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	// Client side.
	APIOrigin      string        `env:"MYKASH_API_ORIGIN"`
	StateDir       string        `env:"MYKASH_STATE_DIR"`
	RequestTimeout time.Duration `env:"MYKASH_REQUEST_TIMEOUT"`

	// Dev server.
	DevServer struct {
		Port      int    `env:"DEVSERVER_PORT"`
		DataDir   string `env:"DEVSERVER_DATA_DIR"`
		JWTSecret string `env:"DEVSERVER_JWT_SECRET"`
		AdminPIN  string `env:"DEVSERVER_ADMIN_PIN"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.APIOrigin = getEnvOrDefault("MYKASH_API_ORIGIN", "http://localhost:8082")
	cfg.StateDir = getEnvOrDefault("MYKASH_STATE_DIR", defaultStateDir())
	cfg.RequestTimeout = getEnvAsDuration("MYKASH_REQUEST_TIMEOUT", 30*time.Second)

	cfg.DevServer.Port = getEnvAsInt("DEVSERVER_PORT", 8082)
	cfg.DevServer.DataDir = getEnvOrDefault("DEVSERVER_DATA_DIR", filepath.Join(os.TempDir(), "mykash-devserver"))
	cfg.DevServer.JWTSecret = getEnvOrDefault("DEVSERVER_JWT_SECRET", "dev-only-secret")
	cfg.DevServer.AdminPIN = getEnvOrDefault("DEVSERVER_ADMIN_PIN", "12345")

	return cfg, nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "mykash")
	}
	return filepath.Join(home, ".mykash")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnvOrDefault(key, defaultValue.String())
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
