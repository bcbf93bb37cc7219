package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	AppPort      string
	LogLevel     string
	LogFormat    string
	SeedProducts bool

	DBDriver       string
	DatabaseDSN    string
	DBMaxOpenConns int

	JWTSecret string

	RabbitMQURL         string
	RedisURL            string
	EventPublishTimeout time.Duration

	MidtransServerKey string
	MidtransBaseURL   string
	ProcessorTimeout  time.Duration

	NotifyTransport string
	NotifyTimeout   time.Duration
	ResendAPIKey    string
	ResendBaseURL   string
	MailFrom        string
	OpsEmail        string

	// AdminCompleteAdjustsStock decides whether an administrator's direct
	// COMPLETED edit decrements inventory like a settled payment does.
	AdminCompleteAdjustsStock bool
}

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SEED_PRODUCTS", false)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=littlegrow port=5432 sslmode=disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("EVENT_PUBLISH_TIMEOUT", "3s")
	v.SetDefault("MIDTRANS_SERVER_KEY", "")
	v.SetDefault("MIDTRANS_BASE_URL", "https://app.sandbox.midtrans.com")
	v.SetDefault("PROCESSOR_TIMEOUT", "10s")
	v.SetDefault("NOTIFY_TRANSPORT", "log")
	v.SetDefault("NOTIFY_TIMEOUT", "5s")
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("RESEND_BASE_URL", "https://api.resend.com")
	v.SetDefault("MAIL_FROM", "LittleGrow <onboarding@resend.dev>")
	v.SetDefault("OPS_EMAIL", "ops@littlegrow.local")
	v.SetDefault("ADMIN_COMPLETE_ADJUSTS_STOCK", true)
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper resolves a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:                   v.GetString("APP_PORT"),
		LogLevel:                  v.GetString("LOG_LEVEL"),
		LogFormat:                 v.GetString("LOG_FORMAT"),
		SeedProducts:              v.GetBool("SEED_PRODUCTS"),
		DBDriver:                  strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:               v.GetString("DATABASE_DSN"),
		DBMaxOpenConns:            v.GetInt("DB_MAX_OPEN_CONNS"),
		JWTSecret:                 v.GetString("JWT_SECRET"),
		RabbitMQURL:               v.GetString("RABBITMQ_URL"),
		RedisURL:                  v.GetString("REDIS_URL"),
		EventPublishTimeout:       v.GetDuration("EVENT_PUBLISH_TIMEOUT"),
		MidtransServerKey:         v.GetString("MIDTRANS_SERVER_KEY"),
		MidtransBaseURL:           v.GetString("MIDTRANS_BASE_URL"),
		ProcessorTimeout:          v.GetDuration("PROCESSOR_TIMEOUT"),
		NotifyTransport:           strings.ToLower(v.GetString("NOTIFY_TRANSPORT")),
		NotifyTimeout:             v.GetDuration("NOTIFY_TIMEOUT"),
		ResendAPIKey:              v.GetString("RESEND_API_KEY"),
		ResendBaseURL:             v.GetString("RESEND_BASE_URL"),
		MailFrom:                  v.GetString("MAIL_FROM"),
		OpsEmail:                  v.GetString("OPS_EMAIL"),
		AdminCompleteAdjustsStock: v.GetBool("ADMIN_COMPLETE_ADJUSTS_STOCK"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.MidtransServerKey == "" {
		errs = append(errs, errors.New("MIDTRANS_SERVER_KEY is required"))
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, errors.New("DB_DRIVER must be postgres or sqlite"))
	}
	switch c.NotifyTransport {
	case "log", "amqp":
	case "resend":
		if c.ResendAPIKey == "" {
			errs = append(errs, errors.New("RESEND_API_KEY is required when NOTIFY_TRANSPORT=resend"))
		}
	default:
		errs = append(errs, errors.New("NOTIFY_TRANSPORT must be log, amqp or resend"))
	}
	if c.NotifyTransport == "amqp" && c.RabbitMQURL == "" {
		errs = append(errs, errors.New("RABBITMQ_URL is required when NOTIFY_TRANSPORT=amqp"))
	}
	if c.ProcessorTimeout <= 0 || c.NotifyTimeout <= 0 || c.EventPublishTimeout <= 0 {
		errs = append(errs, errors.New("PROCESSOR_TIMEOUT, NOTIFY_TIMEOUT and EVENT_PUBLISH_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}
