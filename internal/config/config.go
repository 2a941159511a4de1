package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cockpit/internal/logger"
	"cockpit/internal/refdata"
)

type Config struct {
	// Cockpit selection
	CompanyCodes []string

	// Google Sheets Configuration
	GoogleSheetURL string
	ReportSheet    string

	// Reference workbook tabs
	Critical3B5Sheet  string
	CriticalV436Sheet string
	VendorMatrixSheet string
	FIVendorsSheet    string
	CalendarSheet     string

	// Optional: disposition journal
	DatabaseURL string

	// Optional: disposition events
	KafkaBrokers          []string
	KafkaDispositionTopic string

	// Session limits
	MaxSecondarySessions int
	LineMatchTimeout     time.Duration

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		CompanyCodes:          companyCodes(getEnv("COCKPIT_COMPANY_CODES", "3B5,V436")),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		ReportSheet:           getEnv("REPORT_SHEET", "Dispositions"),
		Critical3B5Sheet:      getEnv("REFDATA_CRITICAL_3B5_SHEET", "AM France 3b5"),
		CriticalV436Sheet:     getEnv("REFDATA_CRITICAL_V436_SHEET", "AMMED v436"),
		VendorMatrixSheet:     getEnv("REFDATA_VENDOR_MATRIX_SHEET", "vendor matrix"),
		FIVendorsSheet:        getEnv("REFDATA_FI_VENDORS_SHEET", "UPDATE FOS FI"),
		CalendarSheet:         getEnv("REFDATA_CALENDAR_SHEET", "Calendar"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		KafkaBrokers:          splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaDispositionTopic: getEnv("KAFKA_DISPOSITION_TOPIC", "invoice.dispositions"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stdout"),
	}

	sessions, err := strconv.Atoi(getEnv("MAX_SECONDARY_SESSIONS", "6"))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: MAX_SECONDARY_SESSIONS: %w", err)
	}
	config.MaxSecondarySessions = sessions

	timeout, err := time.ParseDuration(getEnv("LINE_MATCH_TIMEOUT", "1m"))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: LINE_MATCH_TIMEOUT: %w", err)
	}
	config.LineMatchTimeout = timeout

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if len(c.CompanyCodes) == 0 {
		return fmt.Errorf("COCKPIT_COMPANY_CODES needs at least one company code")
	}
	if c.MaxSecondarySessions <= 0 {
		return fmt.Errorf("MAX_SECONDARY_SESSIONS must be positive")
	}
	if c.LineMatchTimeout <= 0 {
		return fmt.Errorf("LINE_MATCH_TIMEOUT must be positive")
	}
	return nil
}

// HasCompany reports whether the company code is one the cockpit processes.
func (c *Config) HasCompany(code string) bool {
	for _, cc := range c.CompanyCodes {
		if strings.EqualFold(cc, strings.TrimSpace(code)) {
			return true
		}
	}
	return false
}

// Tabs returns the reference workbook tab names.
func (c *Config) Tabs() refdata.Tabs {
	return refdata.Tabs{
		Critical3B5:  c.Critical3B5Sheet,
		CriticalV436: c.CriticalV436Sheet,
		VendorMatrix: c.VendorMatrixSheet,
		FIVendors:    c.FIVendorsSheet,
		Calendar:     c.CalendarSheet,
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func companyCodes(s string) []string {
	codes := splitList(s)
	for i := range codes {
		codes[i] = strings.ToUpper(codes[i])
	}
	return codes
}
