package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"APP_ADDR"                env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"SERVER_MAX_BODY_BYTES"   env-default:"1048576"`
	EnableHSTS      bool          `yaml:"enable_hsts"      env:"ENABLE_HSTS"             env-default:"false"`
}

// DatabaseConfig holds PostgreSQL connection settings. DSN wins over the
// discrete fields when set.
type DatabaseConfig struct {
	DSN              string        `yaml:"dsn"                env:"DB_DSN"`
	Host             string        `yaml:"host"               env:"DB_HOST"                env-default:"localhost"`
	Port             int           `yaml:"port"               env:"DB_PORT"                env-default:"5432"`
	Name             string        `yaml:"name"               env:"DB_NAME"                env-default:"library"`
	User             string        `yaml:"user"               env:"DB_USER"                env-default:"postgres"`
	Password         string        `yaml:"password"           env:"DB_PASSWORD"            env-default:"postgres"`
	SSLMode          string        `yaml:"sslmode"            env:"DB_SSLMODE"             env-default:"disable"`
	MaxConns         int32         `yaml:"max_conns"          env:"DB_MAX_CONNS"           env-default:"10"`
	MinConns         int32         `yaml:"min_conns"          env:"DB_MIN_CONNS"           env-default:"1"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"  env:"DB_MAX_CONN_LIFETIME"   env-default:"1h"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME"  env-default:"30m"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"    env:"DB_CONNECT_TIMEOUT"     env-default:"5s"`
	QueryTimeout     time.Duration `yaml:"query_timeout"      env:"DB_QUERY_TIMEOUT"       env-default:"5s"`
	StatsConcurrency int           `yaml:"stats_concurrency"  env:"DB_STATS_CONCURRENCY"   env-default:"4"`
}

// ConnString returns DSN or builds a postgres URL from the discrete fields.
func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

// APIConfig holds settings of the catalog API surface.
type APIConfig struct {
	BasePath    string `yaml:"base_path"   env:"API_BASE_PATH"   env-default:"/api"`
	Name        string `yaml:"name"        env:"API_NAME"        env-default:"Library API"`
	Environment string `yaml:"environment" env:"APP_ENV"         env-default:"local"`
	Debug       bool   `yaml:"debug"       env:"API_DEBUG"       env-default:"false"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	AllowedMethods []string `yaml:"allowed_methods" env:"CORS_ALLOWED_METHODS" env-separator:"," env-default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `yaml:"allowed_headers" env:"CORS_ALLOWED_HEADERS" env-separator:"," env-default:"Content-Type,Authorization,X-Requested-With"`
}

// RateLimitConfig holds per-client request rate settings.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	RPS     float64 `yaml:"rps"     env:"RATE_LIMIT_RPS"     env-default:"20"`
	Burst   int     `yaml:"burst"   env:"RATE_LIMIT_BURST"   env-default:"40"`
}
