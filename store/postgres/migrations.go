package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the bookkeeper store.
var Migrations = migrate.NewGroup("bookkeeper")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_bookkeeper_customers",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bookkeeper_customers (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    name       TEXT NOT NULL,
    phone      TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    address    TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_bookkeeper_customers_user ON bookkeeper_customers (user_id, name);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bookkeeper_customers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bookkeeper_invoices",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bookkeeper_invoices (
    id                TEXT PRIMARY KEY,
    user_id           TEXT NOT NULL,
    customer_id       TEXT NOT NULL REFERENCES bookkeeper_customers (id),
    invoice_number    TEXT NOT NULL,
    sequence          BIGINT NOT NULL,
    description       TEXT NOT NULL DEFAULT '',
    currency          TEXT NOT NULL,
    amount_minor      BIGINT NOT NULL CHECK (amount_minor > 0),
    paid_amount_minor BIGINT NOT NULL DEFAULT 0 CHECK (paid_amount_minor >= 0),
    paid              BOOLEAN NOT NULL DEFAULT FALSE,
    invoice_date      DATE NOT NULL,
    version           BIGINT NOT NULL DEFAULT 0,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (paid_amount_minor <= amount_minor)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_bookkeeper_invoices_number ON bookkeeper_invoices (user_id, invoice_number);
CREATE INDEX IF NOT EXISTS idx_bookkeeper_invoices_user_date ON bookkeeper_invoices (user_id, invoice_date DESC);
CREATE INDEX IF NOT EXISTS idx_bookkeeper_invoices_customer ON bookkeeper_invoices (customer_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bookkeeper_invoices`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bookkeeper_payments",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bookkeeper_payments (
    id           TEXT PRIMARY KEY,
    invoice_id   TEXT NOT NULL REFERENCES bookkeeper_invoices (id) ON DELETE CASCADE,
    currency     TEXT NOT NULL,
    amount_minor BIGINT NOT NULL CHECK (amount_minor > 0),
    payment_date DATE NOT NULL,
    notes        TEXT NOT NULL DEFAULT '',
    manual       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_bookkeeper_payments_invoice ON bookkeeper_payments (invoice_id, payment_date);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bookkeeper_payments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bookkeeper_expenses",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bookkeeper_expenses (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    label        TEXT NOT NULL DEFAULT '',
    currency     TEXT NOT NULL,
    amount_minor BIGINT NOT NULL CHECK (amount_minor > 0),
    expense_date DATE NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_bookkeeper_expenses_user_date ON bookkeeper_expenses (user_id, expense_date DESC);
CREATE INDEX IF NOT EXISTS idx_bookkeeper_expenses_label ON bookkeeper_expenses (user_id, label);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bookkeeper_expenses`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bookkeeper_invoice_sequences",
			Version: "20240101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bookkeeper_invoice_sequences (
    user_id    TEXT PRIMARY KEY,
    last_value BIGINT NOT NULL DEFAULT 0
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bookkeeper_invoice_sequences`)
				return err
			},
		},
	)
}
