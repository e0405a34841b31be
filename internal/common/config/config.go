package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/devnla/backend-express/internal/common/constants"
)

var (
	ErrInvalidJWTSecret    = errors.New("JWT_SECRET must be at least 32 bytes")
	ErrUnknownDriver       = errors.New("unknown storage driver")
	ErrInvalidTTL          = errors.New("invalid token ttl")
	ErrMissingDatabaseURL  = errors.New("relational driver needs DATABASE_URL or POSTGRES_HOST")
	ErrMissingMongoURI     = errors.New("document driver needs MONGODB_URI")
	ErrInvalidBreakerLimit = errors.New("circuit breaker threshold must be positive")
)

type StorageDriver string

const (
	DriverDocument   StorageDriver = "document"
	DriverRelational StorageDriver = "relational"
	DriverMemory     StorageDriver = "memory"
)

func ParseStorageDriver(s string) (StorageDriver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "document", "mongodb", "mongo":
		return DriverDocument, nil
	case "relational", "postgresql", "postgres":
		return DriverRelational, nil
	case "memory":
		return DriverMemory, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDriver, s)
	}
}

func (d *StorageDriver) UnmarshalText(text []byte) error {
	parsed, err := ParseStorageDriver(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TokenTTL accepts Go durations ("12h"), whole days ("7d") and bare seconds ("3600").
type TokenTTL time.Duration

func ParseTokenTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTTL)
	}

	var d time.Duration
	switch {
	case strings.HasSuffix(s, "d"):
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTTL, s)
		}
		d = time.Duration(days) * 24 * time.Hour
	default:
		if secs, err := strconv.Atoi(s); err == nil {
			d = time.Duration(secs) * time.Second
			break
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTTL, s)
		}
		d = parsed
	}

	if d <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidTTL, s)
	}
	return d, nil
}

func (t *TokenTTL) UnmarshalText(text []byte) error {
	d, err := ParseTokenTTL(string(text))
	if err != nil {
		return err
	}
	*t = TokenTTL(d)
	return nil
}

func (t TokenTTL) Duration() time.Duration {
	return time.Duration(t)
}

type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	Username string `env:"POSTGRES_USERNAME" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	Database string `env:"POSTGRES_DATABASE" envDefault:"backend-express"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

func (p PostgresConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.Username, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}
	return u.String()
}

type CircuitBreakerConfig struct {
	Threshold  int32         `env:"CIRCUIT_BREAKER_THRESHOLD"`
	Timeout    time.Duration `env:"CIRCUIT_BREAKER_TIMEOUT"`
	ResetAfter time.Duration `env:"CIRCUIT_BREAKER_RESET"`
}

type AuthConfig struct {
	HTTPPort       string        `env:"AUTH_HTTP_PORT"`
	Port           string        `env:"PORT"`
	Driver         StorageDriver `env:"STORAGE_DRIVER"`
	LegacyDriver   StorageDriver `env:"DATABASE_DRIVER"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	Postgres       PostgresConfig
	AutoMigrate    bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	MongoURI       string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017/backend-express"`
	MongoDatabase  string        `env:"MONGODB_DATABASE" envDefault:"backend-express"`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       TokenTTL      `env:"JWT_EXPIRES_IN" envDefault:"7d"`
	RequestTimeout time.Duration `env:"AUTH_REQUEST_TIMEOUT"`
	CircuitBreaker CircuitBreakerConfig
	LogDir         string `env:"LOG_DIR"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"text"`
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// StorageDriver resolves STORAGE_DRIVER, falling back to DATABASE_DRIVER.
func (c AuthConfig) StorageDriver() StorageDriver {
	if c.Driver != "" {
		return c.Driver
	}
	if c.LegacyDriver != "" {
		return c.LegacyDriver
	}
	return DriverDocument
}

func (c AuthConfig) Addr() string {
	return ":" + c.HTTPPort
}

// LoadAuthConfig reads an optional .env file and then the process
// environment. A missing JWT_SECRET is tolerated here and reported when the
// first token is issued.
func LoadAuthConfig(envFiles ...string) (AuthConfig, error) {
	_ = godotenv.Load(envFiles...)

	var cfg AuthConfig
	if err := env.Parse(&cfg); err != nil {
		return AuthConfig{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return AuthConfig{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *AuthConfig) {
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = cfg.Port
	}
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = constants.DefaultAuthHTTPPort
	}
	if cfg.DatabaseURL == "" && cfg.Postgres.Host != "" {
		cfg.DatabaseURL = cfg.Postgres.URL()
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = TokenTTL(constants.DefaultTokenTTL)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = constants.DefaultAuthRequestTimeout
	}
	if cfg.CircuitBreaker.Threshold == 0 {
		cfg.CircuitBreaker.Threshold = constants.DefaultCircuitBreakerThreshold
	}
	if cfg.CircuitBreaker.Timeout <= 0 {
		cfg.CircuitBreaker.Timeout = constants.DefaultCircuitBreakerTimeout
	}
	if cfg.CircuitBreaker.ResetAfter <= 0 {
		cfg.CircuitBreaker.ResetAfter = constants.DefaultCircuitBreakerReset
	}
}

func (c AuthConfig) validate() error {
	if c.JWTSecret != "" && len(c.JWTSecret) < constants.JWTSecretMinLength {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidJWTSecret, len(c.JWTSecret))
	}
	if c.CircuitBreaker.Threshold < 0 {
		return ErrInvalidBreakerLimit
	}

	switch c.StorageDriver() {
	case DriverRelational:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	case DriverDocument:
		if c.MongoURI == "" {
			return ErrMissingMongoURI
		}
	}
	return nil
}
