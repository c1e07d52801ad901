package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type (
	Container struct {
		App      *App      `koanf:"app"`
		Token    *Token    `koanf:"token"`
		DB       *DB       `koanf:"db"`
		HTTP     *HTTP     `koanf:"http"`
		Redis    *Redis    `koanf:"redis"`
		GRPC     *GRPC     `koanf:"grpc"`
		Health   *Health   `koanf:"health"`
		Odometer *Odometer `koanf:"odometer"`
		Influx   *Influx   `koanf:"influx"`
		AMQP     *AMQP     `koanf:"amqp"`
		Tracing  *Tracing  `koanf:"tracing"`
	}

	App struct {
		Name    string `koanf:"name"`
		Env     string `koanf:"env"`
		Version string `koanf:"version"`
	}

	Token struct {
		Secret   string `koanf:"secret"`
		Duration string `koanf:"duration"`
	}

	DB struct {
		Host          string `koanf:"host"`
		Port          string `koanf:"port"`
		User          string `koanf:"user"`
		Password      string `koanf:"password"`
		Name          string `koanf:"name"`
		SSLMode       string `koanf:"sslmode"`
		MigrationsDir string `koanf:"migrations_dir"`
	}

	HTTP struct {
		Env            string `koanf:"env"`
		Port           string `koanf:"port"`
		AllowedOrigins string `koanf:"allowed_origins"`
		URL            string `koanf:"url"`
	}

	Redis struct {
		Address  string `koanf:"address"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	}

	GRPC struct {
		Port string `koanf:"port"`
	}

	// Health holds the default wear thresholds; requests may override them.
	Health struct {
		WarnAt     int `koanf:"warn_at"`
		CriticalAt int `koanf:"critical_at"`
	}

	// Odometer selects where readings come from: postgres or influx.
	Odometer struct {
		Backend string `koanf:"backend"`
	}

	Influx struct {
		URL    string `koanf:"url"`
		Token  string `koanf:"token"`
		Org    string `koanf:"org"`
		Bucket string `koanf:"bucket"`
	}

	// AMQP publishing is disabled when URL is empty.
	AMQP struct {
		URL      string `koanf:"url"`
		Exchange string `koanf:"exchange"`
	}

	// Tracing is disabled when Endpoint is empty.
	Tracing struct {
		Endpoint string `koanf:"endpoint"`
	}
)

// envKeys maps environment variables onto config keys.
var envKeys = map[string]string{
	"APP_NAME":                    "app.name",
	"APP_ENV":                     "app.env",
	"APP_VERSION":                 "app.version",
	"TOKEN_SECRET":                "token.secret",
	"TOKEN_DURATION":              "token.duration",
	"DB_HOST":                     "db.host",
	"DB_PORT":                     "db.port",
	"DB_USER":                     "db.user",
	"DB_PASSWORD":                 "db.password",
	"DB_NAME":                     "db.name",
	"DB_SSLMODE":                  "db.sslmode",
	"DB_MIGRATIONS_DIR":           "db.migrations_dir",
	"HTTP_PORT":                   "http.port",
	"HTTP_URL":                    "http.url",
	"ALLOWED_ORIGINS":             "http.allowed_origins",
	"REDIS_ADDRESS":               "redis.address",
	"REDIS_PASSWORD":              "redis.password",
	"REDIS_DB":                    "redis.db",
	"GRPC_PORT":                   "grpc.port",
	"HEALTH_WARN_AT":              "health.warn_at",
	"HEALTH_CRITICAL_AT":          "health.critical_at",
	"ODOMETER_BACKEND":            "odometer.backend",
	"INFLUX_URL":                  "influx.url",
	"INFLUX_TOKEN":                "influx.token",
	"INFLUX_ORG":                  "influx.org",
	"INFLUX_BUCKET":               "influx.bucket",
	"AMQP_URL":                    "amqp.url",
	"AMQP_EXCHANGE":               "amqp.exchange",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "tracing.endpoint",
}

func Defaults() *Container {
	return &Container{
		App:      &App{Name: "webike-component-service", Env: "development", Version: "1.0.0"},
		Token:    &Token{},
		DB:       &DB{Host: "localhost", Port: "5432", SSLMode: "disable", MigrationsDir: "./internal/adapter/postgres/migrations"},
		HTTP:     &HTTP{Port: "8082", URL: "0.0.0.0"},
		Redis:    &Redis{Address: "localhost:6379"},
		GRPC:     &GRPC{Port: "50053"},
		Health:   &Health{WarnAt: domain.DefaultThresholds.WarnAt, CriticalAt: domain.DefaultThresholds.CriticalAt},
		Odometer: &Odometer{Backend: "postgres"},
		Influx:   &Influx{},
		AMQP:     &AMQP{Exchange: "webike.components"},
		Tracing:  &Tracing{},
	}
}

// New layers defaults, an optional YAML file (CONFIG_FILE) and the
// environment. Outside production a .env file is loaded first when present.
func New() (*Container, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	k := koanf.New(".")

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	envProvider := env.Provider("", ".", func(s string) string {
		return envKeys[s]
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.HTTP.Env = cfg.App.Env
	cfg.Odometer.Backend = strings.ToLower(strings.TrimSpace(cfg.Odometer.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Container) Validate() error {
	if c.Token.Secret == "" {
		return errors.New("TOKEN_SECRET must be set")
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("health thresholds: %w", err)
	}
	switch c.Odometer.Backend {
	case "postgres":
	case "influx":
		if c.Influx.URL == "" || c.Influx.Token == "" || c.Influx.Org == "" || c.Influx.Bucket == "" {
			return errors.New("influx odometer backend requires INFLUX_URL, INFLUX_TOKEN, INFLUX_ORG and INFLUX_BUCKET")
		}
	default:
		return fmt.Errorf("unknown odometer backend %q", c.Odometer.Backend)
	}
	return nil
}

func (c *Container) Thresholds() domain.Thresholds {
	return domain.Thresholds{WarnAt: c.Health.WarnAt, CriticalAt: c.Health.CriticalAt}
}

func (d *DB) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (g *GRPC) PortInt() int {
	port, err := strconv.Atoi(g.Port)
	if err != nil {
		return 50053 // дефолт если ошибка
	}
	return port
}
