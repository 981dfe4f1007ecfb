package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	DBDriver     string
	DatabaseURL  string
	SQLitePath   string
	APIPort      string
	UploadDir    string
	StagedWrites bool
}

func New() (*Config, error) {
	cfg := &Config{
		DBDriver:   getEnv("DB_DRIVER", DriverPostgres),
		SQLitePath: getEnv("SQLITE_PATH", "payroll.sqlite"),
		APIPort:    getEnv("API_PORT", "8080"),
		UploadDir:  getEnv("UPLOAD_DIR", "input_files"),
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: expected %q or %q", cfg.DBDriver, DriverPostgres, DriverSQLite)
	}

	var err error
	cfg.StagedWrites, err = getEnvAsBool("STAGED_WRITES", false)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: expected a boolean, got '%s'", key, valueStr)
	}

	return value, nil
}
