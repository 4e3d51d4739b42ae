package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/bookkeeper"
	audithook "github.com/xraph/bookkeeper/audit_hook"
	"github.com/xraph/bookkeeper/config"
	"github.com/xraph/bookkeeper/logging"
)

var version = "0.1.0"

var (
	configFile string
	envFiles   []string
	userID     string
)

var rootCmd = &cobra.Command{
	Use:   "bookkeeper",
	Short: "Invoices, payments, expenses and financial reports",
	Long: `bookkeeper keeps a small business's invoices, the payments received
against them and its expenses, and derives dashboard and report figures
from them.

Configuration is read from bookkeeper.yaml (or --config), a .env file and
BOOKKEEPER_* environment variables, e.g. BOOKKEEPER_STORE_DRIVER=postgres.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./bookkeeper.yaml when present)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load (default: .env)")
}

// addUserFlag registers the --user flag on commands that act for one user.
func addUserFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&userID, "user", "u", "", "ID of the user whose books to use")
	_ = cmd.MarkFlagRequired("user")
}

// app holds what every command needs once configuration is resolved.
type app struct {
	cfg    *config.Config
	base   *slog.Logger
	logger *slog.Logger
	books  *bookkeeper.Bookkeeper
}

// setup loads the configuration, opens the store and starts the engine.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(config.Options{File: configFile, EnvFiles: envFiles})
	if err != nil {
		return nil, err
	}
	base, err := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.WithSource(base, logging.SourceApp)

	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	loc := time.Local
	if cfg.Books.Timezone != "" && cfg.Books.Timezone != "Local" {
		if loc, err = time.LoadLocation(cfg.Books.Timezone); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("books.timezone: %w", err)
		}
	}

	books := bookkeeper.New(s,
		bookkeeper.WithLogger(logger),
		bookkeeper.WithCurrency(cfg.Books.Currency),
		bookkeeper.WithTopCustomers(cfg.Books.TopCustomers),
		bookkeeper.WithMaxRetries(cfg.Books.MaxRetries),
		bookkeeper.WithMigrations(!cfg.Books.DisableMigrate),
		bookkeeper.WithLocation(loc),
		bookkeeper.WithPlugin(audithook.New(
			audithook.SlogRecorder(logging.WithSource(base, logging.SourceAudit)),
			audithook.WithLogger(logger),
		)),
	)
	if err := books.Start(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	return &app{cfg: cfg, base: base, logger: logger, books: books}, nil
}

func (a *app) close() {
	if err := a.books.Stop(); err != nil {
		a.logger.Warn("closing store failed", "error", err)
	}
}
