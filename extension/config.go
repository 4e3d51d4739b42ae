package extension

// Config holds the bookkeeper extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.bookkeeper" or "bookkeeper" keys).
type Config struct {
	// DisableRoutes prevents the HTTP handler from being built and provided.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for bookkeeper routes (default: "/bookkeeper").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// Currency is the ISO 4217 code all amounts are held in (default: "try").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// TopCustomers is the default length of the top-customers report (default: 5).
	TopCustomers int `json:"top_customers" mapstructure:"top_customers" yaml:"top_customers"`

	// MaxRetries bounds how often a conflicting reconciliation is retried (default: 3).
	MaxRetries int `json:"max_retries" mapstructure:"max_retries" yaml:"max_retries"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:     "/bookkeeper",
		Currency:     "try",
		TopCustomers: 5,
		MaxRetries:   3,
	}
}
