package extension

import (
	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/observability"
	"github.com/xraph/bookkeeper/plugin"
	"github.com/xraph/bookkeeper/store"
)

// Option configures the bookkeeper Forge extension.
type Option func(*Extension)

// WithStore sets the store for the bookkeeper engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithBookkeeperOption passes a bookkeeper.Option through to the underlying engine.
func WithBookkeeperOption(opt bookkeeper.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a bookkeeper plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, bookkeeper.WithPlugin(p))
	}
}

// WithMetrics registers an observability.MetricsExtension built from factory.
func WithMetrics(factory observability.MetricFactory) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, bookkeeper.WithPlugin(observability.NewMetricsExtension(factory)))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP handler registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for bookkeeper routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithCurrency sets the currency amounts are held in.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithTopCustomers sets the default length of the top-customers report.
func WithTopCustomers(n int) Option {
	return func(e *Extension) { e.config.TopCustomers = n }
}

// WithMaxRetries bounds how often a conflicting reconciliation is retried.
func WithMaxRetries(n int) Option {
	return func(e *Extension) { e.config.MaxRetries = n }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
