package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Lead form behaviour
	LeadFormVariant   string
	AutoPromptDelay   time.Duration
	SuccessCloseDelay time.Duration
	LeadAPIBaseURL    string

	// Email delivery
	EmailProvider    string
	EmailBrandName   string
	ResendAPIKey     string
	ResendFrom       string
	ResendTo         string
	ResendCC         []string
	ResendBaseURL    string
	SendConfirmation bool
	SendGridAPIKey   string

	// AWS (SES provider)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Lead archive
	DatabaseURL string

	// Rate limiting
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	RateLimitPerMinute int
	RateLimitBurst     int

	CORSAllowedOrigins []string

	// AdminToken guards GET /admin/leads; the route is off when empty.
	AdminToken string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment values win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		LeadFormVariant:   strings.ToLower(strings.TrimSpace(getEnv("LEAD_FORM_VARIANT", "strict"))),
		AutoPromptDelay:   getEnvAsDuration("AUTO_PROMPT_DELAY", 15*time.Second),
		SuccessCloseDelay: getEnvAsDuration("SUCCESS_CLOSE_DELAY", 2200*time.Millisecond),
		LeadAPIBaseURL:    strings.TrimRight(getEnv("LEAD_API_BASE_URL", "http://localhost:8080"), "/"),

		EmailProvider:    strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "resend"))),
		EmailBrandName:   getEnv("EMAIL_BRAND_NAME", "Skolarrs Solutions"),
		ResendAPIKey:     strings.TrimSpace(getEnv("RESEND_API_KEY", "")),
		ResendFrom:       strings.TrimSpace(getEnv("RESEND_FROM", "")),
		ResendTo:         strings.TrimSpace(getEnv("RESEND_TO", "")),
		ResendCC:         getEnvAsList("RESEND_CC"),
		ResendBaseURL:    getEnv("RESEND_BASE_URL", "https://api.resend.com"),
		SendConfirmation: getEnvAsBool("RESEND_SEND_CONFIRMATION", true),
		SendGridAPIKey:   strings.TrimSpace(getEnv("SENDGRID_API_KEY", "")),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 5),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		AdminToken:         strings.TrimSpace(getEnv("ADMIN_TOKEN", "")),
	}
}

// OperatorRecipients returns the operator To list; RESEND_TO may itself hold
// several comma-separated addresses.
func (c *Config) OperatorRecipients() []string {
	return splitList(c.ResendTo)
}

// EmailAPIKey returns the key for the selected provider.
func (c *Config) EmailAPIKey() string {
	if c.EmailProvider == "sendgrid" && c.SendGridAPIKey != "" {
		return c.SendGridAPIKey
	}
	return c.ResendAPIKey
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks and duplicates.
func getEnvAsList(key string) []string {
	return splitList(getEnv(key, ""))
}

func splitList(raw string) []string {
	parts := lo.Map(strings.Split(raw, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Uniq(lo.Compact(parts))
}
