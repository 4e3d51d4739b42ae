package bookkeeper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/xraph/bookkeeper/plugin"
	"github.com/xraph/bookkeeper/report"
	"github.com/xraph/bookkeeper/store"
	"github.com/xraph/bookkeeper/types"
)

// DefaultMaxRetries is how many times a reconciliation that lost a
// concurrent race is retried before ErrConflict reaches the caller.
const DefaultMaxRetries = 3

// Bookkeeper is the invoicing and reporting engine.
type Bookkeeper struct {
	store    store.Store
	plugins  *plugin.Registry
	logger   *slog.Logger
	reporter *report.Reporter

	// Configuration
	clock          report.Clock
	loc            *time.Location
	currency       string
	topCustomers   int
	maxRetries     int
	disableMigrate bool
}

// New creates a new Bookkeeper backed by s.
func New(s store.Store, opts ...Option) *Bookkeeper {
	b := &Bookkeeper{
		store:        s,
		plugins:      plugin.NewRegistry(),
		logger:       slog.Default(),
		clock:        report.SystemClock,
		loc:          time.Local,
		currency:     types.DefaultCurrency,
		topCustomers: report.DefaultTopCustomers,
		maxRetries:   DefaultMaxRetries,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.reporter = report.New(b.currency,
		report.WithClock(b.clock),
		report.WithLocation(b.loc),
	)

	return b
}

// Option configures a Bookkeeper instance.
type Option func(*Bookkeeper)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bookkeeper) {
		b.logger = logger
		b.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(b *Bookkeeper) {
		if err := b.plugins.Register(p); err != nil {
			b.logger.Warn("plugin registration failed", "plugin", p.Name(), "error", err)
		}
	}
}

// WithClock sets the clock used for "today" in reports and default dates.
func WithClock(c report.Clock) Option {
	return func(b *Bookkeeper) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithLocation sets the time zone calendar dates are taken in.
func WithLocation(loc *time.Location) Option {
	return func(b *Bookkeeper) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// WithCurrency sets the single currency the books are kept in.
func WithCurrency(currency string) Option {
	return func(b *Bookkeeper) {
		if c := strings.ToLower(strings.TrimSpace(currency)); c != "" {
			b.currency = c
		}
	}
}

// WithTopCustomers sets the default N of the top customers report.
func WithTopCustomers(n int) Option {
	return func(b *Bookkeeper) {
		if n > 0 {
			b.topCustomers = n
		}
	}
}

// WithMaxRetries sets how often a conflicting reconciliation is retried.
func WithMaxRetries(n int) Option {
	return func(b *Bookkeeper) {
		if n >= 0 {
			b.maxRetries = n
		}
	}
}

// WithMigrations toggles schema migration on Start.
func WithMigrations(enabled bool) Option {
	return func(b *Bookkeeper) {
		b.disableMigrate = !enabled
	}
}

// Start migrates the store and initializes plugins.
func (b *Bookkeeper) Start(ctx context.Context) error {
	if !b.disableMigrate {
		if err := b.store.Migrate(ctx); err != nil {
			return err
		}
	}

	b.plugins.EmitInit(ctx, b)

	b.logger.Info("bookkeeper started",
		"currency", b.currency,
		"max_retries", b.maxRetries,
		"plugins", b.plugins.Count(),
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (b *Bookkeeper) Stop() error {
	b.plugins.EmitShutdown(context.Background())
	return b.store.Close()
}

// Store returns the underlying store.
func (b *Bookkeeper) Store() store.Store { return b.store }

// Plugins returns the plugin registry.
func (b *Bookkeeper) Plugins() *plugin.Registry { return b.plugins }

// Reporter returns the report builder bound to the engine's clock.
func (b *Bookkeeper) Reporter() *report.Reporter { return b.reporter }

// Currency returns the currency the books are kept in.
func (b *Bookkeeper) Currency() string { return b.currency }

// Logger returns the engine's logger.
func (b *Bookkeeper) Logger() *slog.Logger { return b.logger }

// today returns the current calendar date.
func (b *Bookkeeper) today() types.Date {
	return types.DateOf(b.clock.Now().In(b.loc))
}
