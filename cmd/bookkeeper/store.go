package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/xraph/bookkeeper/config"
	"github.com/xraph/bookkeeper/store"
	"github.com/xraph/bookkeeper/store/memory"
	"github.com/xraph/bookkeeper/store/mongo"
	"github.com/xraph/bookkeeper/store/postgres"
	"github.com/xraph/bookkeeper/store/sqlite"
)

// openStore connects the backend named by cfg.Driver.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.DSN, cfg.PoolSize)
	case config.DriverMongo:
		uri, err := mongoURI(cfg.DSN, cfg.Database)
		if err != nil {
			return nil, err
		}
		return mongo.Open(ctx, uri)
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// mongoURI adds database to dsn when dsn does not name one.
func mongoURI(dsn, database string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("store.dsn: %w", err)
	}
	if strings.Trim(u.Path, "/") == "" && database != "" {
		u.Path = "/" + database
	}
	return u.String(), nil
}
