package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Checkout      CheckoutConfig
	Cart          CartConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
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
	Env          string `envconfig:"KOPPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"KOPPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KOPPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KOPPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KOPPOS_DB_DSN"`
	Driver string `envconfig:"KOPPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KOPPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"KOPPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KOPPOS_DB_USER"`
	LegacyPassword string `envconfig:"KOPPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"KOPPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"KOPPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KOPPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KOPPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KOPPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KOPPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KOPPOS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KOPPOS_REDIS_ADDR"`
	Password     string        `envconfig:"KOPPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"KOPPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KOPPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KOPPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KOPPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KOPPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KOPPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"KOPPOS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"KOPPOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"KOPPOS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"KOPPOS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KOPPOS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KOPPOS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KOPPOS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KOPPOS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KOPPOS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"KOPPOS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"KOPPOS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"KOPPOS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KOPPOS_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig selects the commit discipline for the checkout flow.
//
// Best-effort (the default) mirrors the original terminal behaviour: the
// transaction header is the only hard write; line items and per-product
// stock decrements fail soft. Strict runs the whole commit in one database
// transaction with conditional stock decrements.
type CheckoutConfig struct {
	Strict bool `envconfig:"KOPPOS_CHECKOUT_STRICT" default:"false"`
}

type CartConfig struct {
	SnapshotTTL time.Duration `envconfig:"KOPPOS_CART_SNAPSHOT_TTL" default:"12h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"KOPPOS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"KOPPOS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"KOPPOS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ChangeFeedTopic        string `envconfig:"KOPPOS_PUBSUB_CHANGE_FEED_TOPIC" default:"koppos-change-feed"`
	ChangeFeedSubscription string `envconfig:"KOPPOS_PUBSUB_CHANGE_FEED_SUBSCRIPTION" required:"true"`
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
