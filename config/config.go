package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultDBName is the file name of the expense database inside DataDir.
const DefaultDBName = "smart_expense.db"

// DefaultReportModel is the Gemini model used for generated reports.
const DefaultReportModel = "gemini-2.5-flash"

type Config struct {
	DataDir  string
	DBName   string
	LogLevel string

	// FallbackToDestructiveMigration drops and recreates every table when
	// the on-disk schema version differs and no migration path exists.
	FallbackToDestructiveMigration bool

	// Location is used for calendar math (day and month boundaries).
	Location *time.Location

	// Reports are generated with Gemini when an API key is set and with the
	// built-in summary otherwise.
	GeminiAPIKey string
	ReportModel  string
}

// DBPath returns the full path of the database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, c.DBName)
}

// Load reads an optional .env file from the working directory and then the
// process environment.
func Load() (*Config, error) {
	// A missing .env file is normal; real environment variables still apply.
	_ = godotenv.Load()

	destructive, err := getBoolEnv("SMART_EXPENSE_DESTRUCTIVE_MIGRATION", true)
	if err != nil {
		return nil, err
	}

	tzName := getEnv("SMART_EXPENSE_TIMEZONE", "Local")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid SMART_EXPENSE_TIMEZONE %q: %w", tzName, err)
	}

	cfg := &Config{
		DataDir:                        getEnv("SMART_EXPENSE_DATA_DIR", "."),
		DBName:                         getEnv("SMART_EXPENSE_DB_NAME", DefaultDBName),
		LogLevel:                       getEnv("SMART_EXPENSE_LOG_LEVEL", "info"),
		FallbackToDestructiveMigration: destructive,
		Location:                       loc,
		GeminiAPIKey:                   getEnv("GEMINI_API_KEY", ""),
		ReportModel:                    getEnv("SMART_EXPENSE_REPORT_MODEL", DefaultReportModel),
	}

	if strings.ContainsRune(cfg.DBName, filepath.Separator) {
		return nil, fmt.Errorf("SMART_EXPENSE_DB_NAME must be a bare file name, got %q", cfg.DBName)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
