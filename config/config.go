// Package config loads the bookkeeper server and CLI configuration from
// defaults, an optional YAML file, a .env file and BOOKKEEPER_* environment
// variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BOOKKEEPER_STORE_DRIVER.
const EnvPrefix = "BOOKKEEPER"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
)

type ServerConfig struct {
	Addr     string `json:"addr" mapstructure:"addr" yaml:"addr"`
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`
}

type StoreConfig struct {
	// Driver is one of memory, postgres, mongo or sqlite.
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`
	// DSN is the connection string, or the database file path for sqlite.
	DSN string `json:"dsn" mapstructure:"dsn" yaml:"dsn"`
	// Database names the MongoDB database.
	Database string `json:"database" mapstructure:"database" yaml:"database"`
	PoolSize int    `json:"pool_size" mapstructure:"pool_size" yaml:"pool_size"`
}

type LogConfig struct {
	Level  string `json:"level" mapstructure:"level" yaml:"level"`
	Format string `json:"format" mapstructure:"format" yaml:"format"`
}

type BooksConfig struct {
	Currency       string `json:"currency" mapstructure:"currency" yaml:"currency"`
	TopCustomers   int    `json:"top_customers" mapstructure:"top_customers" yaml:"top_customers"`
	MaxRetries     int    `json:"max_retries" mapstructure:"max_retries" yaml:"max_retries"`
	DisableMigrate bool   `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`
	Timezone       string `json:"timezone" mapstructure:"timezone" yaml:"timezone"`
}

// Config is the full application configuration.
type Config struct {
	Server ServerConfig `json:"server" mapstructure:"server" yaml:"server"`
	Store  StoreConfig  `json:"store" mapstructure:"store" yaml:"store"`
	Log    LogConfig    `json:"log" mapstructure:"log" yaml:"log"`
	Books  BooksConfig  `json:"books" mapstructure:"books" yaml:"books"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_path", "/")
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.database", "bookkeeper")
	v.SetDefault("store.pool_size", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("books.currency", "try")
	v.SetDefault("books.top_customers", 5)
	v.SetDefault("books.max_retries", 3)
	v.SetDefault("books.disable_migrate", false)
	v.SetDefault("books.timezone", "Local")
}

// Options controls where Load looks for configuration.
type Options struct {
	// File is an explicit config file. When empty, bookkeeper.yaml is
	// looked up in the working directory and its absence is not an error.
	File string
	// EnvFiles are loaded into the process environment before the
	// environment is read. Missing files are skipped.
	EnvFiles []string
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv.Load never overrides variables that are already set.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("bookkeeper")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values Load cannot default.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres, DriverMongo, DriverSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("config: store.dsn is required for the %s driver", c.Store.Driver)
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}
