package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FARMSTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "FARMSTORE_APP_ENV"
	EnvPort     = "FARMSTORE_APP_PORT"
	EnvLogLevel = "FARMSTORE_LOG_LEVEL"

	EnvDBDSN  = "FARMSTORE_DB_DSN"
	EnvDBHost = "FARMSTORE_DB_HOST"
	EnvDBUser = "FARMSTORE_DB_USER"
	EnvDBName = "FARMSTORE_DB_NAME"

	EnvRedisURL   = "FARMSTORE_REDIS_URL"
	EnvJWTSecret  = "FARMSTORE_JWT_SECRET"
	EnvJWTIssuer  = "FARMSTORE_JWT_ISSUER"
	EnvJWTExpMins = "FARMSTORE_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite              = "FARMSTORE_USE_SQLITE"
	EnvSQLitePath             = "FARMSTORE_SQLITE_PATH"
	EnvRatingsRequirePurchase = "FARMSTORE_RATINGS_REQUIRE_PURCHASE"

	EnvSessionTTL             = "FARMSTORE_SESSION_TTL"
	EnvSignupDiscountPercent  = "FARMSTORE_SIGNUP_DISCOUNT_PERCENT"
	EnvOrderNotificationEmail = "FARMSTORE_ORDER_NOTIFICATION_EMAIL"
	EnvSMTPHost               = "FARMSTORE_SMTP_HOST"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Session       SessionConfig
	Store         StoreConfig
	Mail          MailConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FARMSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"FARMSTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FARMSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FARMSTORE_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"FARMSTORE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"FARMSTORE_DB_DSN"`

	LegacyHost     string `envconfig:"FARMSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"FARMSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FARMSTORE_DB_USER"`
	LegacyPassword string `envconfig:"FARMSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FARMSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FARMSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FARMSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FARMSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FARMSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FARMSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FARMSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FARMSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"FARMSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FARMSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FARMSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FARMSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FARMSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FARMSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FARMSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FARMSTORE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FARMSTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FARMSTORE_JWT_EXPIRATION_MINUTES" required:"true"`
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FARMSTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FARMSTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FARMSTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FARMSTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FARMSTORE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"FARMSTORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"FARMSTORE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"FARMSTORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"FARMSTORE_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"FARMSTORE_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"FARMSTORE_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite              bool   `envconfig:"FARMSTORE_USE_SQLITE" default:"false"`
	SQLitePath             string `envconfig:"FARMSTORE_SQLITE_PATH" default:"farmstore.db"`
	AutoMigrate            bool   `envconfig:"FARMSTORE_AUTO_MIGRATE" default:"false"`
	RatingsRequirePurchase bool   `envconfig:"FARMSTORE_RATINGS_REQUIRE_PURCHASE" default:"true"`
}

type SessionConfig struct {
	CookieName   string        `envconfig:"FARMSTORE_SESSION_COOKIE_NAME" default:"fs_session"`
	TTL          time.Duration `envconfig:"FARMSTORE_SESSION_TTL" default:"336h"`
	SecureCookie bool          `envconfig:"FARMSTORE_SESSION_SECURE_COOKIE" default:"false"`
}

type StoreConfig struct {
	SignupDiscountPercent  float64 `envconfig:"FARMSTORE_SIGNUP_DISCOUNT_PERCENT" default:"10"`
	SignupDiscountDays     int     `envconfig:"FARMSTORE_SIGNUP_DISCOUNT_DAYS" default:"30"`
	OrderNotificationEmail string  `envconfig:"FARMSTORE_ORDER_NOTIFICATION_EMAIL"`
	CouponCodeMaxLength    int     `envconfig:"FARMSTORE_COUPON_CODE_MAX_LENGTH" default:"8"`
}

// SignupDiscountWindow is how long a new account keeps the signup discount.
func (s StoreConfig) SignupDiscountWindow() time.Duration {
	return time.Duration(s.SignupDiscountDays) * 24 * time.Hour
}

func (s StoreConfig) validate() error {
	if s.SignupDiscountPercent < 0 || s.SignupDiscountPercent > 100 {
		return fmt.Errorf("%s must be between 0 and 100", EnvSignupDiscountPercent)
	}
	if s.SignupDiscountDays < 0 {
		return fmt.Errorf("FARMSTORE_SIGNUP_DISCOUNT_DAYS must not be negative")
	}
	return nil
}

type MailConfig struct {
	SMTPHost     string        `envconfig:"FARMSTORE_SMTP_HOST"`
	SMTPPort     int           `envconfig:"FARMSTORE_SMTP_PORT" default:"587"`
	SMTPUsername string        `envconfig:"FARMSTORE_SMTP_USERNAME"`
	SMTPPassword string        `envconfig:"FARMSTORE_SMTP_PASSWORD"`
	From         string        `envconfig:"FARMSTORE_MAIL_FROM" default:"orders@farmstore.local"`
	Timeout      time.Duration `envconfig:"FARMSTORE_SMTP_TIMEOUT" default:"10s"`
}

// Enabled reports whether outbound mail is configured.
func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.SMTPHost) != ""
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
