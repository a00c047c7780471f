package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Persistence modes
const (
	PersistMemory = "memory"
	PersistJSON   = "json"
)

// Config holds the application configuration
type Config struct {
	Env      string
	LogLevel string
	Port     string

	Persistence string
	DataFile    string

	DemoRecipientPhone string
	VenueName          string
	StrictAvailability bool
	CORSAllowedOrigins []string

	TwilioAccountSID      string
	TwilioAuthToken       string
	TwilioFromPhone       string
	TwilioValidateWebhook bool
	TwilioWebhookURL      string

	SendgridAPIKey    string
	SendgridFromEmail string

	WhatsAppEnabled bool
	WhatsAppDataDir string
}

// LoadConfig loads configuration from an optional .env file, then environment variables or defaults
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "4000"),

		Persistence: strings.ToLower(getEnv("PERSISTENCE", PersistMemory)),
		DataFile:    getEnv("DATA_FILE", "data/state.json"),

		DemoRecipientPhone: getEnv("DEMO_RECIPIENT_PHONE", "+15551234567"),
		VenueName:          getEnv("VENUE_NAME", "The Rowan House"),
		StrictAvailability: getEnvAsBool("STRICT_AVAILABILITY", false),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		TwilioAccountSID:      getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:       getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromPhone:       getEnv("TWILIO_FROM_PHONE", ""),
		TwilioValidateWebhook: getEnvAsBool("TWILIO_VALIDATE_WEBHOOK", false),
		TwilioWebhookURL:      getEnv("TWILIO_WEBHOOK_URL", ""),

		SendgridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendgridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),

		WhatsAppEnabled: getEnvAsBool("WHATSAPP_ENABLED", false),
		WhatsAppDataDir: getEnv("WHATSAPP_DATA_DIR", "data"),
	}

	if cfg.Persistence != PersistMemory && cfg.Persistence != PersistJSON {
		return nil, fmt.Errorf("invalid PERSISTENCE %q: want %q or %q", cfg.Persistence, PersistMemory, PersistJSON)
	}
	if cfg.TwilioValidateWebhook && cfg.TwilioAuthToken == "" {
		return nil, fmt.Errorf("TWILIO_VALIDATE_WEBHOOK requires TWILIO_AUTH_TOKEN")
	}

	return cfg, nil
}

// Persistent reports whether state is backed by the JSON file.
func (c *Config) Persistent() bool {
	return c.Persistence == PersistJSON
}

// SMSEnabled reports whether Twilio credentials for outbound SMS are present.
func (c *Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromPhone != ""
}

// EmailEnabled reports whether SendGrid delivery is configured.
func (c *Config) EmailEnabled() bool {
	return c.SendgridAPIKey != "" && c.SendgridFromEmail != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
