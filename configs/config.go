package configs

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`
	Port   string `envconfig:"PORT" default:"5000"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBSource string `envconfig:"DB_SOURCE" default:"caketime.db"`

	// customer and admin credentials are separate trust domains
	JWTSecret      string        `envconfig:"JWT_SECRET"`
	JWTTTL         time.Duration `envconfig:"JWT_TTL" default:"168h"`
	AdminJWTSecret string        `envconfig:"ADMIN_JWT_SECRET"`
	AdminJWTTTL    time.Duration `envconfig:"ADMIN_JWT_TTL" default:"24h"`

	StripeSecretKey      string `envconfig:"STRIPE_SECRET_KEY"`
	StripePublishableKey string `envconfig:"STRIPE_PUBLISHABLE_KEY"`
	StripeWebhookSecret  string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	Currency             string `envconfig:"CURRENCY" default:"inr"`

	SMTPHost   string `envconfig:"SMTP_HOST"`
	SMTPPort   int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser   string `envconfig:"SMTP_USER"`
	SMTPPass   string `envconfig:"SMTP_PASS"`
	MailFrom   string `envconfig:"MAIL_FROM" default:"TheCakeTime <orders@thecaketime.in>"`
	AdminEmail string `envconfig:"ADMIN_EMAIL"`

	// only used by the seed command
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"caketime.order-events"`

	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"100"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"15m"`

	// addresses or CIDRs allowed to set X-Forwarded-For; empty trusts no one
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	// set by LoadConfig, logged once the logger exists
	EnvFileLoaded bool `ignored:"true"`
}

const minSecretLen = 16

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	envErr := godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = envErr == nil
	cfg.Currency = strings.ToLower(cfg.Currency)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Validate refuses configurations that would run with guessable or shared
// signing secrets. There are no built-in fallback secrets.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be set and at least %d characters", minSecretLen))
	}
	if len(c.AdminJWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("ADMIN_JWT_SECRET must be set and at least %d characters", minSecretLen))
	}
	if c.JWTSecret != "" && c.JWTSecret == c.AdminJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET and ADMIN_JWT_SECRET must differ"))
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	for _, p := range c.TrustedProxies {
		if !validProxy(p) {
			errs = append(errs, fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", p))
		}
	}
	if c.IsProduction() {
		if c.StripeSecretKey == "" {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY is required in production"))
		}
		if c.StripeWebhookSecret == "" {
			errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required in production"))
		}
	}
	return errors.Join(errs...)
}

func validProxy(p string) bool {
	if strings.Contains(p, "/") {
		_, _, err := net.ParseCIDR(p)
		return err == nil
	}
	return net.ParseIP(p) != nil
}
