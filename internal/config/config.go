package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

type Config struct {
	PositionInterval       time.Duration `validate:"gt=0"`
	StatusInterval         time.Duration `validate:"gt=0"`
	DriverLocationInterval time.Duration `validate:"gt=0"`
	RandomSeed             uint64

	StoreBackend   string `validate:"oneof=memory postgres sqlite redis"`
	StoreNamespace string `validate:"required"`
	DatabaseURL    string `validate:"required_if=StoreBackend postgres"`
	SQLitePath     string `validate:"required_if=StoreBackend sqlite"`
	RedisAddr      string `validate:"required_if=StoreBackend redis"`
	RedisPassword  string
	RedisDB        int `validate:"gte=0"`

	NATSURL           string
	NATSSubjectPrefix string `validate:"required"`
	LogNATSSubjects   bool

	MetricsAddr string
	HTTPAddr    string
	RoutesFile  string

	LogJSON  bool
	LogDebug bool
	Location *time.Location `validate:"required"`
}

// Load reads the full configuration, including the store backend settings.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.loadStore(); err != nil {
		return nil, err
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithoutStore reads everything except the store backend settings, for
// commands that never open the store.
func LoadWithoutStore() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := validate.StructExcept(cfg, storeFields...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

var storeFields = []string{"StoreBackend", "StoreNamespace", "DatabaseURL", "SQLitePath", "RedisAddr", "RedisDB"}

func load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	if cfg.PositionInterval, err = durationMS("POSITION_INTERVAL_MS", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.StatusInterval, err = durationMS("STATUS_INTERVAL_MS", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.DriverLocationInterval, err = durationMS("DRIVER_LOCATION_INTERVAL_MS", 10*time.Second); err != nil {
		return nil, err
	}

	if v := os.Getenv("RANDOM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RANDOM_SEED: %q", v)
		}
		cfg.RandomSeed = seed
	}

	// Empty NATS_URL disables publishing.
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "tracking")
	cfg.LogNATSSubjects = truthy(os.Getenv("LOG_NATS_SUBJECTS"))

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", ":8080")
	cfg.RoutesFile = os.Getenv("ROUTES_FILE")

	cfg.LogJSON = strings.EqualFold(os.Getenv("LOG_FORMAT"), "json")
	cfg.LogDebug = strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug")

	tzName := getenvDefault("TZ", "")
	if tzName == "" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ: %v", err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

func (cfg *Config) loadStore() error {
	cfg.StoreBackend = strings.ToLower(getenvDefault("STORE_BACKEND", BackendMemory))
	cfg.StoreNamespace = getenvDefault("STORE_NAMESPACE", "bustracker")

	if cfg.StoreBackend == BackendPostgres {
		// prefer DATABASE_URL / PG_DSN, else build from PG* vars
		dsn := firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("PG_DSN"))
		if dsn == "" {
			host := getenvDefault("PGHOST", "127.0.0.1")
			port := getenvDefault("PGPORT", "5432")
			user := getenvDefault("PGUSER", "postgres")
			pass := os.Getenv("PGPASSWORD")
			db := os.Getenv("PGDATABASE")
			if db == "" {
				return errors.New("PGDATABASE or DATABASE_URL must be set when STORE_BACKEND=postgres")
			}
			sslmode := getenvDefault("PGSSLMODE", "disable")
			if pass != "" {
				dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
			} else {
				dsn = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
			}
		}
		cfg.DatabaseURL = dsn
	}

	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "bustracker.db")

	cfg.RedisAddr = getenvDefault("REDIS_ADDR", "127.0.0.1:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid REDIS_DB: %q", v)
		}
		cfg.RedisDB = n
	}
	return nil
}

func durationMS(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
