package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Seed     SeedConfig
	Query    QueryConfig
	LogLevel string
	// LogFormat is "text" or "json"
	LogFormat string
}

type ServerConfig struct {
	Port         int
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

type StoreConfig struct {
	// Driver is "memory" or "sqlite"
	Driver          string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
}

type SeedConfig struct {
	// Path is a YAML file or a directory of YAML files, empty disables file seeding
	Path     string
	Charset  string
	Defaults bool
}

type QueryConfig struct {
	DefaultPerPage    int
	MaxPerPage        int
	SearchHistorySize int
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// env names are kept flat (PORT, DB_PATH, ...) rather than derived from keys
var bindings = []struct {
	key, env string
	def      any
}{
	{"server.port", "PORT", 5000},
	{"server.read_timeout", "READ_TIMEOUT", 15},
	{"server.write_timeout", "WRITE_TIMEOUT", 15},
	{"server.idle_timeout", "IDLE_TIMEOUT", 60},
	{"store.driver", "STORE_DRIVER", DriverMemory},
	{"store.path", "DB_PATH", "books.db"},
	{"store.max_open_conns", "DB_MAX_OPEN_CONNS", 25},
	{"store.max_idle_conns", "DB_MAX_IDLE_CONNS", 25},
	{"store.conn_max_lifetime", "DB_CONN_MAX_LIFETIME", 300},
	{"seed.path", "SEED_PATH", ""},
	{"seed.charset", "SEED_CHARSET", "utf-8"},
	{"seed.defaults", "SEED_DEFAULTS", true},
	{"query.default_per_page", "QUERY_DEFAULT_PER_PAGE", 10},
	{"query.max_per_page", "QUERY_MAX_PER_PAGE", 100},
	{"query.search_history_size", "SEARCH_HISTORY_SIZE", 10},
	{"log_level", "LOG_LEVEL", "info"},
	{"log_format", "LOG_FORMAT", "text"},
}

// Load creates a new Config from .env files and environment variables with defaults
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := viper.New()
	for _, b := range bindings {
		v.SetDefault(b.key, b.def)
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", b.env, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetInt("server.read_timeout"),
			WriteTimeout: v.GetInt("server.write_timeout"),
			IdleTimeout:  v.GetInt("server.idle_timeout"),
		},
		Store: StoreConfig{
			Driver:          strings.ToLower(v.GetString("store.driver")),
			Path:            v.GetString("store.path"),
			MaxOpenConns:    v.GetInt("store.max_open_conns"),
			MaxIdleConns:    v.GetInt("store.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("store.conn_max_lifetime"),
		},
		Seed: SeedConfig{
			Path:     v.GetString("seed.path"),
			Charset:  v.GetString("seed.charset"),
			Defaults: v.GetBool("seed.defaults"),
		},
		Query: QueryConfig{
			DefaultPerPage:    v.GetInt("query.default_per_page"),
			MaxPerPage:        v.GetInt("query.max_per_page"),
			SearchHistorySize: v.GetInt("query.search_history_size"),
		},
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("invalid store driver %q (expected %s or %s)", c.Store.Driver, DriverMemory, DriverSQLite)
	}
	if c.Query.MaxPerPage < 1 {
		return fmt.Errorf("max per page must be positive, got %d", c.Query.MaxPerPage)
	}
	if c.Query.DefaultPerPage < 1 || c.Query.DefaultPerPage > c.Query.MaxPerPage {
		return fmt.Errorf("default per page %d must be between 1 and %d", c.Query.DefaultPerPage, c.Query.MaxPerPage)
	}
	if c.Query.SearchHistorySize < 1 {
		return fmt.Errorf("search history size must be positive, got %d", c.Query.SearchHistorySize)
	}
	return nil
}
