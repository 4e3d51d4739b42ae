// Package extension provides the Forge extension adapter for the bookkeeper.
//
// It implements the forge.Extension interface to integrate the bookkeeper
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.bookkeeper" or
// "bookkeeper" keys.
package extension

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/api"
	"github.com/xraph/bookkeeper/store"
	"github.com/xraph/bookkeeper/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "bookkeeper"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Invoice reconciliation and financial reporting"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the bookkeeper as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *bookkeeper.Bookkeeper
	handler    http.Handler
	store      store.Store
	engineOpts []bookkeeper.Option
}

// New creates a new bookkeeper Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Bookkeeper instance.
// This is nil until Register is called.
func (e *Extension) Engine() *bookkeeper.Bookkeeper { return e.engine }

// Handler returns the HTTP API with BasePath stripped from incoming paths,
// ready to be mounted under BasePath. It is nil when routes are disabled
// or before Register is called.
func (e *Extension) Handler() http.Handler { return e.handler }

// Config returns the resolved configuration.
func (e *Extension) Config() Config { return e.config }

// Register implements [forge.Extension]. It loads configuration,
// initializes the bookkeeper engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = bookkeeper.New(e.store, e.buildEngineOpts()...)

	if err := vessel.Provide(fapp.Container(), func() (*bookkeeper.Bookkeeper, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}

	if e.config.DisableRoutes {
		return nil
	}
	h := api.New(e.engine)
	e.handler = http.StripPrefix(strings.TrimSuffix("/"+strings.Trim(e.config.BasePath, "/"), "/"), h)
	return vessel.Provide(fapp.Container(), func() (*api.Handler, error) {
		return h, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("bookkeeper: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("bookkeeper: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs bookkeeper.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []bookkeeper.Option {
	opts := make([]bookkeeper.Option, 0, len(e.engineOpts)+4)

	opts = append(opts,
		bookkeeper.WithCurrency(e.config.Currency),
		bookkeeper.WithTopCustomers(e.config.TopCustomers),
		bookkeeper.WithMaxRetries(e.config.MaxRetries),
		bookkeeper.WithMigrations(!e.config.DisableMigrate),
	)

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("bookkeeper: configuration is required but not found in config files; " +
				"ensure 'extensions.bookkeeper' or 'bookkeeper' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("bookkeeper: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("currency", e.config.Currency),
		forge.F("top_customers", e.config.TopCustomers),
		forge.F("max_retries", e.config.MaxRetries),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.bookkeeper", "bookkeeper"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("bookkeeper: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("bookkeeper: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	if cfg.TopCustomers == 0 {
		cfg.TopCustomers = defaults.TopCustomers
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.Currency == "" && programmaticConfig.Currency != "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}

	// Int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.TopCustomers == 0 && programmaticConfig.TopCustomers != 0 {
		yamlConfig.TopCustomers = programmaticConfig.TopCustomers
	}
	if yamlConfig.MaxRetries == 0 && programmaticConfig.MaxRetries != 0 {
		yamlConfig.MaxRetries = programmaticConfig.MaxRetries
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
