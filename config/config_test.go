package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bookkeeper/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load(config.Options{})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "try", cfg.Books.Currency)
	assert.Equal(t, 5, cfg.Books.TopCustomers)
	assert.Equal(t, 3, cfg.Books.MaxRetries)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "books.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
store:
  driver: sqlite
  dsn: /tmp/books.db
books:
  currency: usd
  top_customers: 10
`), 0o600))

	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("BOOKKEEPER_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("BOOKKEEPER_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("BOOKKEEPER_LOG_LEVEL"))
	t.Setenv("BOOKKEEPER_BOOKS_CURRENCY", "eur")

	cfg, err := config.Load(config.Options{File: file, EnvFiles: []string{envFile, filepath.Join(dir, "missing.env")}})
	require.NoError(t, err)

	assert.Equal(t, config.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/books.db", cfg.Store.DSN)
	assert.Equal(t, "eur", cfg.Books.Currency, "environment beats the file")
	assert.Equal(t, 10, cfg.Books.TopCustomers)
	assert.Equal(t, "debug", cfg.Log.Level, "loaded from the env file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		ok   bool
	}{
		{"memory", config.Config{Store: config.StoreConfig{Driver: "memory"}, Log: config.LogConfig{Format: "json"}}, true},
		{"postgres without dsn", config.Config{Store: config.StoreConfig{Driver: "postgres"}, Log: config.LogConfig{Format: "text"}}, false},
		{"unknown driver", config.Config{Store: config.StoreConfig{Driver: "redis"}, Log: config.LogConfig{Format: "text"}}, false},
		{"unknown format", config.Config{Store: config.StoreConfig{Driver: "memory"}, Log: config.LogConfig{Format: "xml"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
