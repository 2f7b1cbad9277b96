package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const Production = "prod"

type Config struct {
	AppEnv         string `env:"APP_ENV" envDefault:"dev"`
	HTTPAddr       string `env:"HTTP_ADDR"`
	Port           string `env:"PORT"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	MigrationsPath string `env:"MIGRATIONS_PATH"`

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often a pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string `env:"DATABASE_URL"`
	DirectURL   string `env:"DIRECT_URL"`

	DB      DBConfig
	Backend BackendConfig
	Viewer  ViewerConfig
	Queue   QueueConfig
	Stats   StatsConfig

	// ConsoleAllowedOrigins is the CORS allowlist for the browser console.
	ConsoleAllowedOrigins []string `env:"CONSOLE_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:4173"`
	MetricsPath           string   `env:"METRICS_PATH" envDefault:"/metrics"`
	// ScheduleTimezone decides which calendar day a booking start falls on.
	ScheduleTimezone string `env:"SCHEDULE_TIMEZONE" envDefault:"UTC"`
}

type DBConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	Name     string `env:"DB_NAME" envDefault:"resourcedesk"`
	User     string `env:"DB_USER" envDefault:"resourcedesk"`
	Password string `env:"DB_PASSWORD" envDefault:"resourcedesk"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// BackendConfig points at the REST service that owns the records.
type BackendConfig struct {
	URL     string        `env:"BACKEND_URL" envDefault:"http://localhost:8000/api"`
	Token   string        `env:"BACKEND_TOKEN"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"20s"`
}

type ViewerConfig struct {
	// TokenSecret verifies HS256 viewer tokens minted by the gateway.
	TokenSecret   string `env:"VIEWER_TOKEN_SECRET"`
	TokenAudience string `env:"VIEWER_TOKEN_AUDIENCE" envDefault:"resourcedesk"`
}

type QueueConfig struct {
	Enabled  bool   `env:"QUEUE_ENABLED" envDefault:"true"`
	Schedule string `env:"QUEUE_SCHEDULE" envDefault:"@every 1m"`
	PageSize int    `env:"QUEUE_PAGE_SIZE" envDefault:"50"`
}

type StatsConfig struct {
	PageSize int `env:"STATS_PAGE_SIZE" envDefault:"100"`
	MaxPages int `env:"STATS_MAX_PAGES" envDefault:"20"`
}

func Load() (Config, error) {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, errors.Wrap(err, "load .env")
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	if cfg.HTTPAddr == "" {
		if cfg.Port != "" {
			cfg.HTTPAddr = ":" + cfg.Port
		} else {
			cfg.HTTPAddr = ":8081"
		}
	}
	cfg.ConsoleAllowedOrigins = trimAll(cfg.ConsoleAllowedOrigins)

	if cfg.AppEnv == Production && strings.TrimSpace(cfg.Viewer.TokenSecret) == "" {
		return Config{}, errors.New("VIEWER_TOKEN_SECRET is required in prod")
	}
	if _, err := time.LoadLocation(cfg.ScheduleTimezone); err != nil {
		return Config{}, errors.Wrapf(err, "SCHEDULE_TIMEZONE %q", cfg.ScheduleTimezone)
	}
	return cfg, nil
}

func (c Config) IsProd() bool { return c.AppEnv == Production }

// HasDatabase reports whether any database connection was configured.
func (c Config) HasDatabase() bool {
	return strings.TrimSpace(c.DatabaseURL) != "" || os.Getenv("DB_HOST") != ""
}

// Location returns the schedule timezone; Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ScheduleTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
