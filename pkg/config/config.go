package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/iancoleman/strcase"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/newsstand.yaml"
)

type Config struct {
	DatabaseDriver            string        `koanf:"database_driver" default:"sqlite"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DatabaseURL               string        `koanf:"database_url"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"5"`

	Environment       string `koanf:"environment" default:"development"`
	ServerHost        string `koanf:"server_host" default:"0.0.0.0"`
	ServerPort        int    `koanf:"server_port" default:"8000"`
	CORSAllowedOrigin string `koanf:"cors_allowed_origin" default:"http://localhost:5173"`

	JWTSecret string `koanf:"jwt_secret"`

	// Redis is optional. The public listing cache is disabled when RedisAddr
	// is empty.
	RedisAddr       string        `koanf:"redis_addr"`
	RedisPassword   string        `koanf:"redis_password"`
	RedisDB         int           `koanf:"redis_db"`
	ListingCacheTTL time.Duration `koanf:"listing_cache_ttl" default:"30s"`

	SubscriptionSweepInterval time.Duration `koanf:"subscription_sweep_interval" default:"1m"`
}

// New builds the config from defaults, then the YAML file named by
// CONFIG_FILE, then environment variables. Later sources win.
func New() (*Config, error) {
	// A missing .env is the normal case outside of local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
		}
	}

	known := knownKeys()
	err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := known[key]; !ok {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config backed by an in-memory SQLite database.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.DatabaseFilePath = ":memory:"
	cfg.Environment = "test"
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	return cfg
}

func (cfg *Config) validate() error {
	required := []string{"JWTSecret"}
	switch cfg.DatabaseDriver {
	case DriverSQLite:
		required = append(required, "DatabaseFilePath")
	case DriverPostgres:
		required = append(required, "DatabaseURL")
	default:
		return errors.Errorf("invalid config: database_driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, cfg.DatabaseDriver)
	}

	v := reflect.ValueOf(cfg).Elem()
	missing := []string{}
	for _, name := range required {
		if v.FieldByName(name).IsZero() {
			key := toSnakeCase(name)
			missing = append(missing, strings.ToUpper(key)+" ("+key+")")
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("koanf"); tag != "" {
			keys[tag] = struct{}{}
		}
	}
	return keys
}

func toSnakeCase(s string) string {
	return strcase.ToSnake(s)
}
