package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "TIJARA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Alwaseet     AlwaseetConfig
	Barq         BarqConfig
	Gateway      GatewayConfig
	Sendgrid     SendgridConfig
	Cashback     CashbackDefaults
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TIJARA_APP_ENV" required:"true"`
	Port         string `envconfig:"TIJARA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TIJARA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TIJARA_LOG_WARN_STACK" default:"false"`
	StoreBaseURL string `envconfig:"TIJARA_STORE_BASE_URL" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TIJARA_DB_DSN"`
	Driver string `envconfig:"TIJARA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TIJARA_DB_HOST"`
	Port     int    `envconfig:"TIJARA_DB_PORT" default:"5432"`
	User     string `envconfig:"TIJARA_DB_USER"`
	Password string `envconfig:"TIJARA_DB_PASSWORD"`
	Name     string `envconfig:"TIJARA_DB_NAME"`
	SSLMode  string `envconfig:"TIJARA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TIJARA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TIJARA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TIJARA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TIJARA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TIJARA_REDIS_URL" required:"true"`
	Password     string        `envconfig:"TIJARA_REDIS_PASSWORD"`
	DB           int           `envconfig:"TIJARA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TIJARA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TIJARA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TIJARA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TIJARA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TIJARA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TIJARA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TIJARA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TIJARA_JWT_EXPIRATION_MINUTES" default:"10080"`
	CookieName        string `envconfig:"TIJARA_JWT_COOKIE_NAME" default:"tijara_session"`
	CookieSecure      bool   `envconfig:"TIJARA_JWT_COOKIE_SECURE" default:"true"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TIJARA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TIJARA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TIJARA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TIJARA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TIJARA_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	Window   time.Duration `envconfig:"TIJARA_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit  int           `envconfig:"TIJARA_RATE_LIMIT_IP_LIMIT" default:"120"`
	Disabled bool          `envconfig:"TIJARA_RATE_LIMIT_DISABLED" default:"false"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TIJARA_AUTO_MIGRATE" default:"false"`
}

// AlwaseetConfig configures the Alwaseet courier integration.
type AlwaseetConfig struct {
	BaseURL  string        `envconfig:"TIJARA_ALWASEET_BASE_URL"`
	Username string        `envconfig:"TIJARA_ALWASEET_USERNAME"`
	Password string        `envconfig:"TIJARA_ALWASEET_PASSWORD"`
	Timeout  time.Duration `envconfig:"TIJARA_ALWASEET_TIMEOUT" default:"15s"`
}

// BarqConfig configures the Barq courier integration.
type BarqConfig struct {
	BaseURL    string        `envconfig:"TIJARA_BARQ_BASE_URL"`
	MerchantID string        `envconfig:"TIJARA_BARQ_MERCHANT_ID"`
	APISecret  string        `envconfig:"TIJARA_BARQ_API_SECRET"`
	Timeout    time.Duration `envconfig:"TIJARA_BARQ_TIMEOUT" default:"15s"`
}

// GatewayConfig configures the hosted payment page provider.
type GatewayConfig struct {
	BaseURL     string        `envconfig:"TIJARA_GATEWAY_BASE_URL"`
	MerchantID  string        `envconfig:"TIJARA_GATEWAY_MERCHANT_ID"`
	Secret      string        `envconfig:"TIJARA_GATEWAY_SECRET"`
	CallbackURL string        `envconfig:"TIJARA_GATEWAY_CALLBACK_URL"`
	Timeout     time.Duration `envconfig:"TIJARA_GATEWAY_TIMEOUT" default:"20s"`
}

type SendgridConfig struct {
	APIKey   string `envconfig:"TIJARA_SENDGRID_API_KEY"`
	From     string `envconfig:"TIJARA_SENDGRID_FROM_EMAIL"`
	FromName string `envconfig:"TIJARA_SENDGRID_FROM_NAME" default:"Tijara Store"`
}

// CashbackDefaults seeds the settings row on first boot; runtime values live in the DB.
type CashbackDefaults struct {
	Enabled       bool            `envconfig:"TIJARA_CASHBACK_ENABLED" default:"false"`
	Percentage    decimal.Decimal `envconfig:"TIJARA_CASHBACK_PERCENTAGE" default:"0"`
	MinOrderValue decimal.Decimal `envconfig:"TIJARA_CASHBACK_MIN_ORDER_VALUE" default:"0"`
	MinQuantity   int             `envconfig:"TIJARA_CASHBACK_MIN_QUANTITY" default:"0"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		"TIJARA_DB_HOST": db.Host,
		"TIJARA_DB_USER": db.User,
		"TIJARA_DB_NAME": db.Name,
	}
	for _, env := range []string{"TIJARA_DB_HOST", "TIJARA_DB_USER", "TIJARA_DB_NAME"} {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either TIJARA_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
