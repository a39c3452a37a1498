package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Checkout  CheckoutConfig
	Stripe    StripeConfig
	Debit     BankDebitConfig
	RateLimit RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate aggregates semantic checks envconfig tags cannot express.
func (c *Config) Validate() error {
	var err error
	if c.Checkout.CancellationWindow <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvCancellationWindow))
	}
	if c.Checkout.PendingTTL <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvPendingTTL))
	}
	if c.Checkout.ShippingFlatCents < 0 {
		err = multierr.Append(err, fmt.Errorf("%s cannot be negative", EnvShippingFlatCents))
	}
	if c.Stripe.MinChargeCents < 0 {
		err = multierr.Append(err, fmt.Errorf("%s cannot be negative", EnvStripeMinCharge))
	}
	if c.Debit.BaseURL != "" {
		if _, parseErr := url.Parse(c.Debit.BaseURL); parseErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s is not a valid url: %w", EnvDebitBaseURL, parseErr))
		}
	}
	return err
}

type AppConfig struct {
	Env          string `envconfig:"STORELANE_APP_ENV" required:"true"`
	Port         string `envconfig:"STORELANE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STORELANE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STORELANE_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"STORELANE_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STORELANE_DB_DSN"`
	Driver string `envconfig:"STORELANE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STORELANE_DB_HOST"`
	LegacyPort     int    `envconfig:"STORELANE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STORELANE_DB_USER"`
	LegacyPassword string `envconfig:"STORELANE_DB_PASSWORD"`
	LegacyName     string `envconfig:"STORELANE_DB_NAME"`
	LegacySSLMode  string `envconfig:"STORELANE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STORELANE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STORELANE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STORELANE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STORELANE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STORELANE_REDIS_URL"`
	Address      string        `envconfig:"STORELANE_REDIS_ADDR"`
	Password     string        `envconfig:"STORELANE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STORELANE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STORELANE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STORELANE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STORELANE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STORELANE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STORELANE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes the token surface issued by the external identity
// provider. The API only verifies tokens, it never issues them.
type JWTConfig struct {
	Secret string `envconfig:"STORELANE_JWT_SECRET"`
	Issuer string `envconfig:"STORELANE_JWT_ISSUER" default:"storelane-identity"`
}

type CheckoutConfig struct {
	CancellationWindow time.Duration `envconfig:"STORELANE_CANCELLATION_WINDOW" default:"30m"`
	PendingTTL         time.Duration `envconfig:"STORELANE_PENDING_ORDER_TTL" default:"24h"`
	ShippingFlatCents  int64         `envconfig:"STORELANE_SHIPPING_FLAT_CENTS" default:"8000"`
}

type StripeConfig struct {
	APIKey         string        `envconfig:"STORELANE_STRIPE_API_KEY"`
	Env            string        `envconfig:"STORELANE_STRIPE_ENV" default:"test"`
	MinChargeCents int64         `envconfig:"STORELANE_STRIPE_MIN_CHARGE_CENTS" default:"2000"`
	Timeout        time.Duration `envconfig:"STORELANE_STRIPE_TIMEOUT" default:"15s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// RateLimitConfig throttles the checkout surface. Zero limits disable the
// corresponding counter.
type RateLimitConfig struct {
	CheckoutWindow       time.Duration `envconfig:"STORELANE_CHECKOUT_RL_WINDOW" default:"1m"`
	CheckoutIPLimit      int           `envconfig:"STORELANE_CHECKOUT_RL_IP_LIMIT" default:"30"`
	CheckoutSessionLimit int           `envconfig:"STORELANE_CHECKOUT_RL_SESSION_LIMIT" default:"10"`
}

type BankDebitConfig struct {
	BaseURL        string        `envconfig:"STORELANE_DEBIT_BASE_URL"`
	APIKey         string        `envconfig:"STORELANE_DEBIT_API_KEY"`
	CallbackSecret string        `envconfig:"STORELANE_DEBIT_CALLBACK_SECRET"`
	ReturnURL      string        `envconfig:"STORELANE_DEBIT_RETURN_URL"`
	Timeout        time.Duration `envconfig:"STORELANE_DEBIT_TIMEOUT" default:"15s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
