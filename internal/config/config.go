package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"stream-scheduler/internal/domain"
)

// Config holds all application configuration loaded from environment variables
type Config struct {
	// Channel identity
	ExpectedChannelID string

	// Persistent ingestion streams per venue
	StreamIDSanctuary  string
	StreamIDFellowship string

	// Scheduling policy
	TimeZone              string
	ConflictWindowMinutes int
	UpcomingPageSize      int
	CategoryID            string
	PrimaryLabelKeyword   string
	DescriptionBlurb      string

	// OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string
	TokenPath          string

	// Email notification
	SMTPHost        string
	SMTPPort        int
	EmailSender     string
	EmailPassword   string
	EmailRecipients []string

	// Run history database
	DatabasePath string

	// Upstream call timeout
	APITimeout time.Duration
}

// Load reads configuration from environment variables and returns a Config instance
func Load() (*Config, error) {
	cfg := &Config{
		// Channel identity (required)
		ExpectedChannelID: os.Getenv("EXPECTED_CHANNEL_ID"),

		// Ingestion streams (required)
		StreamIDSanctuary:  os.Getenv("PERSISTENT_STREAM_ID_SANCTUARY"),
		StreamIDFellowship: os.Getenv("PERSISTENT_STREAM_ID_FELLOWSHIP"),

		// Scheduling policy
		TimeZone:            getEnvOrDefault("SCHEDULE_TIME_ZONE", "America/Los_Angeles"),
		CategoryID:          getEnvOrDefault("VIDEO_CATEGORY_ID", "29"), // Nonprofits & Activism
		PrimaryLabelKeyword: getEnvOrDefault("PRIMARY_LABEL_KEYWORD", "English"),
		DescriptionBlurb:    os.Getenv("DESCRIPTION_BLURB"),

		// OAuth configuration (required)
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		TokenPath:          getEnvOrDefault("TOKEN_PATH", "token.json"),

		// Email notification (optional - will log warnings if missing)
		SMTPHost:      getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		EmailSender:   os.Getenv("EMAIL_SENDER"),
		EmailPassword: os.Getenv("EMAIL_PASSWORD"),

		// Run history database
		DatabasePath: getEnvOrDefault("DATABASE_PATH", "./data/stream-scheduler.db"),
	}

	if recipients := os.Getenv("EMAIL_RECIPIENTS"); recipients != "" {
		for _, r := range strings.Split(recipients, ",") {
			if r = strings.TrimSpace(r); r != "" {
				cfg.EmailRecipients = append(cfg.EmailRecipients, r)
			}
		}
	}

	windowMinutes, err := strconv.Atoi(getEnvOrDefault("CONFLICT_WINDOW_MINUTES", "90"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONFLICT_WINDOW_MINUTES format: %w", err)
	}
	cfg.ConflictWindowMinutes = windowMinutes

	pageSize, err := strconv.Atoi(getEnvOrDefault("UPCOMING_PAGE_SIZE", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPCOMING_PAGE_SIZE format: %w", err)
	}
	cfg.UpcomingPageSize = pageSize

	smtpPort, err := strconv.Atoi(getEnvOrDefault("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT format: %w", err)
	}
	cfg.SMTPPort = smtpPort

	timeoutSeconds, err := strconv.Atoi(getEnvOrDefault("API_TIMEOUT_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT_SECONDS format: %w", err)
	}
	cfg.APITimeout = time.Duration(timeoutSeconds) * time.Second

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration values are present and valid
func (c *Config) Validate() error {
	if c.ExpectedChannelID == "" {
		return fmt.Errorf("EXPECTED_CHANNEL_ID environment variable is required")
	}
	if c.StreamIDSanctuary == "" {
		return fmt.Errorf("PERSISTENT_STREAM_ID_SANCTUARY environment variable is required")
	}
	if c.StreamIDFellowship == "" {
		return fmt.Errorf("PERSISTENT_STREAM_ID_FELLOWSHIP environment variable is required")
	}

	if c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID environment variable is required")
	}
	if c.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET environment variable is required")
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid SCHEDULE_TIME_ZONE %q: %w", c.TimeZone, err)
	}

	if c.ConflictWindowMinutes <= 0 {
		return fmt.Errorf("CONFLICT_WINDOW_MINUTES must be positive, got %d", c.ConflictWindowMinutes)
	}
	if c.UpcomingPageSize <= 0 {
		return fmt.Errorf("UPCOMING_PAGE_SIZE must be positive, got %d", c.UpcomingPageSize)
	}

	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH cannot be empty")
	}

	return nil
}

// Location returns the configured civil time zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		// Validate() already rejected unknown zones
		return time.UTC
	}
	return loc
}

// ScheduleRequests returns the weekly services to schedule, bound to the
// configured ingestion streams
func (c *Config) ScheduleRequests() []domain.ScheduleRequest {
	return []domain.ScheduleRequest{
		{Label: "English Sunday Worship", Hour: 9, Minute: 15, StreamID: c.StreamIDSanctuary},
		{Label: "Mandarin Sunday Worship 國語主日崇拜", Hour: 9, Minute: 15, StreamID: c.StreamIDFellowship},
		{Label: "Cantonese Sunday Worship 粵語主日崇拜", Hour: 11, Minute: 0, StreamID: c.StreamIDSanctuary},
	}
}

// EmailConfigured reports whether the notifier has enough configuration to send
func (c *Config) EmailConfigured() bool {
	return c.EmailSender != "" && c.EmailPassword != "" && len(c.EmailRecipients) > 0
}

// LogConfiguration logs all loaded configuration values, excluding secrets
func (c *Config) LogConfiguration() {
	log.Println("=== Application Configuration ===")
	log.Printf("Expected Channel ID: %s", c.ExpectedChannelID)
	log.Printf("Sanctuary Stream ID: %s", maskSecret(c.StreamIDSanctuary))
	log.Printf("Fellowship Stream ID: %s", maskSecret(c.StreamIDFellowship))
	log.Printf("Time Zone: %s", c.TimeZone)
	log.Printf("Conflict Window: %d minutes", c.ConflictWindowMinutes)
	log.Printf("Google Client ID: %s", maskSecret(c.GoogleClientID))
	log.Printf("Token Path: %s", c.TokenPath)
	log.Printf("SMTP Host: %s:%d", c.SMTPHost, c.SMTPPort)
	log.Printf("Email Sender: %s", c.EmailSender)
	log.Printf("Email Recipients: %d", len(c.EmailRecipients))
	log.Printf("Database Path: %s", c.DatabasePath)
	log.Printf("API Timeout: %s", c.APITimeout)

	if !c.EmailConfigured() {
		log.Println("WARNING: EMAIL_SENDER, EMAIL_PASSWORD or EMAIL_RECIPIENTS not set - run summaries will not be emailed")
	}

	log.Println("=================================")
}

// getEnvOrDefault returns the environment variable value or a default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// maskSecret masks a secret string for logging, showing only first 4 characters
func maskSecret(secret string) string {
	if secret == "" {
		return "[not set]"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
