package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	DB          DBConfig
	S3          S3Config
	Log         LogConfig
	Parser      ParserConfig
	Odoo        OdooConfig
	Attachments AttachmentConfig
	Gmail       GmailConfig
	Queue       QueueConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Email       EmailConfig
}

// EmailConfig holds settings for operator notifications.
type EmailConfig struct {
	Provider    string   `mapstructure:"provider"`
	Region      string   `mapstructure:"region"`
	FromAddress string   `mapstructure:"from_address"`
	FromName    string   `mapstructure:"from_name"`
	Recipients  []string `mapstructure:"recipients"`
}

// QueueConfig holds pending invoice queue settings.
type QueueConfig struct {
	DefaultDrain int `mapstructure:"default_drain"`
	MaxDrain     int `mapstructure:"max_drain"`
}

// RateLimitConfig bounds OCR requests per client IP.
type RateLimitConfig struct {
	OCRPerSecond float64 `mapstructure:"ocr_per_second"`
	OCRBurst     int     `mapstructure:"ocr_burst"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ParserProviderConfig holds settings for a single OCR provider.
type ParserProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ParserConfig holds OCR provider settings with an optional fallback.
type ParserConfig struct {
	// Legacy flat fields
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`

	Primary   ParserProviderConfig `mapstructure:"primary"`
	Secondary ParserProviderConfig `mapstructure:"secondary"`
}

// PrimaryConfig returns the primary provider config, falling back to legacy flat fields.
func (p *ParserConfig) PrimaryConfig() *ParserProviderConfig {
	if p.Primary.Provider != "" {
		return &p.Primary
	}
	return &ParserProviderConfig{
		Provider:     p.Provider,
		APIKey:       p.APIKey,
		DefaultModel: p.DefaultModel,
		MaxRetries:   p.MaxRetries,
		TimeoutSecs:  p.TimeoutSecs,
	}
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (p *ParserConfig) SecondaryConfig() *ParserProviderConfig {
	if p.Secondary.Provider != "" {
		return &p.Secondary
	}
	return nil
}

// OdooConfig holds accounting webhook settings.
type OdooConfig struct {
	WebhookURL          string        `mapstructure:"webhook_url"`
	APIKey              string        `mapstructure:"api_key"`
	PayloadFormat       string        `mapstructure:"payload_format"`
	Timeout             time.Duration `mapstructure:"timeout"`
	DefaultCurrency     string        `mapstructure:"default_currency"`
	DefaultPaymentTerms string        `mapstructure:"default_payment_terms"`
	SplitConcurrency    int           `mapstructure:"split_concurrency"`
}

// AttachmentConfig holds attachment cache and link signing settings.
type AttachmentConfig struct {
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
	PublicBaseURL   string        `mapstructure:"public_base_url"`
	SigningSecret   string        `mapstructure:"signing_secret"`
	LinkTTL         time.Duration `mapstructure:"link_ttl"`
}

// GmailConfig holds mailbox ingestion settings.
type GmailConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	ClientID         string `mapstructure:"client_id"`
	ClientSecret     string `mapstructure:"client_secret"`
	RefreshToken     string `mapstructure:"refresh_token"`
	RedirectURL      string `mapstructure:"redirect_url"`
	User             string `mapstructure:"user"`
	Query            string `mapstructure:"query"`
	ProcessedLabel   string `mapstructure:"processed_label"`
	PollIntervalSecs int    `mapstructure:"poll_interval_secs"`
	MaxPerPoll       int    `mapstructure:"max_per_poll"`
	PubSubTopic      string `mapstructure:"pubsub_topic"`
	StartHistoryID   string `mapstructure:"start_history_id"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the BIP_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "bip")
	v.SetDefault("db.password", "bip_secret")
	v.SetDefault("db.name", "bip_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-west-2")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Parser defaults (legacy flat)
	v.SetDefault("parser.provider", "gemini")
	v.SetDefault("parser.api_key", "")
	v.SetDefault("parser.default_model", "gemini-2.5-flash")
	v.SetDefault("parser.max_retries", 2)
	v.SetDefault("parser.timeout_secs", 120)

	v.SetDefault("parser.primary.provider", "")
	v.SetDefault("parser.primary.api_key", "")
	v.SetDefault("parser.primary.default_model", "")
	v.SetDefault("parser.primary.max_retries", 2)
	v.SetDefault("parser.primary.timeout_secs", 120)
	v.SetDefault("parser.secondary.provider", "")
	v.SetDefault("parser.secondary.api_key", "")
	v.SetDefault("parser.secondary.default_model", "")
	v.SetDefault("parser.secondary.max_retries", 2)
	v.SetDefault("parser.secondary.timeout_secs", 120)

	// Odoo defaults
	v.SetDefault("odoo.webhook_url", "")
	v.SetDefault("odoo.api_key", "")
	v.SetDefault("odoo.payload_format", "standard")
	v.SetDefault("odoo.timeout", "30s")
	v.SetDefault("odoo.default_currency", "USD")
	v.SetDefault("odoo.default_payment_terms", "NET 30 DAYS")
	v.SetDefault("odoo.split_concurrency", 4)

	// Attachment defaults
	v.SetDefault("attachments.cache_ttl", "1h")
	v.SetDefault("attachments.janitor_interval", "5m")
	v.SetDefault("attachments.key_prefix", "odoo")
	v.SetDefault("attachments.public_base_url", "http://localhost:8080")
	v.SetDefault("attachments.signing_secret", "")
	v.SetDefault("attachments.link_ttl", "168h")

	// Gmail defaults
	v.SetDefault("gmail.enabled", false)
	v.SetDefault("gmail.user", "me")
	v.SetDefault("gmail.redirect_url", "http://localhost:8080/api/v1/gmail/callback")
	v.SetDefault("gmail.query", "has:attachment newer_than:30d")
	v.SetDefault("gmail.processed_label", "BIP/Processed")
	v.SetDefault("gmail.poll_interval_secs", 300)
	v.SetDefault("gmail.max_per_poll", 10)
	v.SetDefault("gmail.pubsub_topic", "")
	v.SetDefault("gmail.start_history_id", "")

	// Queue defaults
	v.SetDefault("queue.default_drain", 50)
	v.SetDefault("queue.max_drain", 200)

	// Rate limit defaults
	v.SetDefault("rate_limit.ocr_per_second", 2.0)
	v.SetDefault("rate_limit.ocr_burst", 5)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-west-2")
	v.SetDefault("email.from_address", "noreply@example.com")
	v.SetDefault("email.from_name", "Bill Integration")
	v.SetDefault("email.recipients", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "BIP_SERVER_PORT",
		"server.read_timeout":            "BIP_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "BIP_SERVER_WRITE_TIMEOUT",
		"server.environment":             "BIP_SERVER_ENVIRONMENT",
		"db.host":                        "BIP_DB_HOST",
		"db.port":                        "BIP_DB_PORT",
		"db.user":                        "BIP_DB_USER",
		"db.password":                    "BIP_DB_PASSWORD",
		"db.name":                        "BIP_DB_NAME",
		"db.sslmode":                     "BIP_DB_SSLMODE",
		"db.max_open":                    "BIP_DB_MAX_OPEN",
		"db.max_idle":                    "BIP_DB_MAX_IDLE",
		"s3.region":                      "BIP_S3_REGION",
		"s3.bucket":                      "BIP_S3_BUCKET",
		"s3.endpoint":                    "BIP_S3_ENDPOINT",
		"s3.access_key":                  "BIP_S3_ACCESS_KEY",
		"s3.secret_key":                  "BIP_S3_SECRET_KEY",
		"s3.max_file_size_mb":            "BIP_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":              "BIP_S3_PRESIGN_EXPIRY",
		"log.level":                      "BIP_LOG_LEVEL",
		"log.format":                     "BIP_LOG_FORMAT",
		"cors.allowed_origins":           "BIP_CORS_ALLOWED_ORIGINS",
		"parser.provider":                "BIP_PARSER_PROVIDER",
		"parser.api_key":                 "BIP_PARSER_API_KEY",
		"parser.default_model":           "BIP_PARSER_DEFAULT_MODEL",
		"parser.max_retries":             "BIP_PARSER_MAX_RETRIES",
		"parser.timeout_secs":            "BIP_PARSER_TIMEOUT_SECS",
		"parser.primary.provider":        "BIP_PARSER_PRIMARY_PROVIDER",
		"parser.primary.api_key":         "BIP_PARSER_PRIMARY_API_KEY",
		"parser.primary.default_model":   "BIP_PARSER_PRIMARY_DEFAULT_MODEL",
		"parser.primary.max_retries":     "BIP_PARSER_PRIMARY_MAX_RETRIES",
		"parser.primary.timeout_secs":    "BIP_PARSER_PRIMARY_TIMEOUT_SECS",
		"parser.secondary.provider":      "BIP_PARSER_SECONDARY_PROVIDER",
		"parser.secondary.api_key":       "BIP_PARSER_SECONDARY_API_KEY",
		"parser.secondary.default_model": "BIP_PARSER_SECONDARY_DEFAULT_MODEL",
		"parser.secondary.max_retries":   "BIP_PARSER_SECONDARY_MAX_RETRIES",
		"parser.secondary.timeout_secs":  "BIP_PARSER_SECONDARY_TIMEOUT_SECS",
		"odoo.webhook_url":               "BIP_ODOO_WEBHOOK_URL",
		"odoo.api_key":                   "BIP_ODOO_API_KEY",
		"odoo.payload_format":            "BIP_ODOO_PAYLOAD_FORMAT",
		"odoo.timeout":                   "BIP_ODOO_TIMEOUT",
		"odoo.default_currency":          "BIP_ODOO_DEFAULT_CURRENCY",
		"odoo.default_payment_terms":     "BIP_ODOO_DEFAULT_PAYMENT_TERMS",
		"odoo.split_concurrency":         "BIP_ODOO_SPLIT_CONCURRENCY",
		"attachments.cache_ttl":          "BIP_ATTACHMENTS_CACHE_TTL",
		"attachments.janitor_interval":   "BIP_ATTACHMENTS_JANITOR_INTERVAL",
		"attachments.key_prefix":         "BIP_ATTACHMENTS_KEY_PREFIX",
		"attachments.public_base_url":    "BIP_ATTACHMENTS_PUBLIC_BASE_URL",
		"attachments.signing_secret":     "BIP_ATTACHMENTS_SIGNING_SECRET",
		"attachments.link_ttl":           "BIP_ATTACHMENTS_LINK_TTL",
		"gmail.enabled":                  "BIP_GMAIL_ENABLED",
		"gmail.client_id":                "BIP_GMAIL_CLIENT_ID",
		"gmail.client_secret":            "BIP_GMAIL_CLIENT_SECRET",
		"gmail.refresh_token":            "BIP_GMAIL_REFRESH_TOKEN",
		"gmail.redirect_url":             "BIP_GMAIL_REDIRECT_URL",
		"gmail.user":                     "BIP_GMAIL_USER",
		"gmail.query":                    "BIP_GMAIL_QUERY",
		"gmail.processed_label":          "BIP_GMAIL_PROCESSED_LABEL",
		"gmail.poll_interval_secs":       "BIP_GMAIL_POLL_INTERVAL_SECS",
		"gmail.max_per_poll":             "BIP_GMAIL_MAX_PER_POLL",
		"gmail.pubsub_topic":             "BIP_GMAIL_PUBSUB_TOPIC",
		"gmail.start_history_id":         "BIP_GMAIL_START_HISTORY_ID",
		"queue.default_drain":            "BIP_QUEUE_DEFAULT_DRAIN",
		"queue.max_drain":                "BIP_QUEUE_MAX_DRAIN",
		"rate_limit.ocr_per_second":      "BIP_RATE_LIMIT_OCR_PER_SECOND",
		"rate_limit.ocr_burst":           "BIP_RATE_LIMIT_OCR_BURST",
		"email.provider":                 "BIP_EMAIL_PROVIDER",
		"email.region":                   "BIP_EMAIL_REGION",
		"email.from_address":             "BIP_EMAIL_FROM_ADDRESS",
		"email.from_name":                "BIP_EMAIL_FROM_NAME",
		"email.recipients":               "BIP_EMAIL_RECIPIENTS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if BIP_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("BIP_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	cfg.Parser = ParserConfig{
		Provider:     v.GetString("parser.provider"),
		APIKey:       v.GetString("parser.api_key"),
		DefaultModel: v.GetString("parser.default_model"),
		MaxRetries:   v.GetInt("parser.max_retries"),
		TimeoutSecs:  v.GetInt("parser.timeout_secs"),
		Primary: ParserProviderConfig{
			Provider:     v.GetString("parser.primary.provider"),
			APIKey:       v.GetString("parser.primary.api_key"),
			DefaultModel: v.GetString("parser.primary.default_model"),
			MaxRetries:   v.GetInt("parser.primary.max_retries"),
			TimeoutSecs:  v.GetInt("parser.primary.timeout_secs"),
		},
		Secondary: ParserProviderConfig{
			Provider:     v.GetString("parser.secondary.provider"),
			APIKey:       v.GetString("parser.secondary.api_key"),
			DefaultModel: v.GetString("parser.secondary.default_model"),
			MaxRetries:   v.GetInt("parser.secondary.max_retries"),
			TimeoutSecs:  v.GetInt("parser.secondary.timeout_secs"),
		},
	}

	cfg.Odoo = OdooConfig{
		WebhookURL:          v.GetString("odoo.webhook_url"),
		APIKey:              v.GetString("odoo.api_key"),
		PayloadFormat:       v.GetString("odoo.payload_format"),
		Timeout:             v.GetDuration("odoo.timeout"),
		DefaultCurrency:     v.GetString("odoo.default_currency"),
		DefaultPaymentTerms: v.GetString("odoo.default_payment_terms"),
		SplitConcurrency:    v.GetInt("odoo.split_concurrency"),
	}

	cfg.Attachments = AttachmentConfig{
		CacheTTL:        v.GetDuration("attachments.cache_ttl"),
		JanitorInterval: v.GetDuration("attachments.janitor_interval"),
		KeyPrefix:       v.GetString("attachments.key_prefix"),
		PublicBaseURL:   strings.TrimRight(v.GetString("attachments.public_base_url"), "/"),
		SigningSecret:   v.GetString("attachments.signing_secret"),
		LinkTTL:         v.GetDuration("attachments.link_ttl"),
	}

	cfg.Gmail = GmailConfig{
		Enabled:          v.GetBool("gmail.enabled"),
		ClientID:         v.GetString("gmail.client_id"),
		ClientSecret:     v.GetString("gmail.client_secret"),
		RefreshToken:     v.GetString("gmail.refresh_token"),
		RedirectURL:      v.GetString("gmail.redirect_url"),
		User:             v.GetString("gmail.user"),
		Query:            v.GetString("gmail.query"),
		ProcessedLabel:   v.GetString("gmail.processed_label"),
		PollIntervalSecs: v.GetInt("gmail.poll_interval_secs"),
		MaxPerPoll:       v.GetInt("gmail.max_per_poll"),
		PubSubTopic:      v.GetString("gmail.pubsub_topic"),
		StartHistoryID:   v.GetString("gmail.start_history_id"),
	}

	cfg.Queue = QueueConfig{
		DefaultDrain: v.GetInt("queue.default_drain"),
		MaxDrain:     v.GetInt("queue.max_drain"),
	}

	cfg.RateLimit = RateLimitConfig{
		OCRPerSecond: v.GetFloat64("rate_limit.ocr_per_second"),
		OCRBurst:     v.GetInt("rate_limit.ocr_burst"),
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		Recipients:  splitList(v.GetString("email.recipients")),
	}

	return cfg, nil
}

// splitList parses a comma-separated string, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
