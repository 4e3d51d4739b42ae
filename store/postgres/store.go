// Package postgres implements store.Store on PostgreSQL through the grove
// ORM. Invoice reconciliation runs in a transaction holding a row lock on
// the invoice.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/driver"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate" // registers the pg migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
	bkstore "github.com/xraph/bookkeeper/store"
)

// compile-time interface check
var _ bkstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// Open connects to dsn and returns a Store owning the connection pool.
func Open(ctx context.Context, dsn string, poolSize int) (*Store, error) {
	pgdb := pgdriver.New()
	var opts []driver.Option
	if poolSize > 0 {
		opts = append(opts, driver.WithPoolSize(poolSize))
	}
	if err := pgdb.Open(ctx, dsn, opts...); err != nil {
		return nil, fmt.Errorf("bookkeeper/postgres: open: %w", err)
	}
	db, err := grove.Open(pgdb)
	if err != nil {
		return nil, fmt.Errorf("bookkeeper/postgres: open: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("bookkeeper/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: postgres: %w", bookkeeper.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Customer Store ====================

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	_, err := s.pg.NewInsert(toCustomerModel(c)).Exec(ctx)
	if err != nil {
		return wrap("create customer", err)
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, custID id.CustomerID) (*customer.Customer, error) {
	m := new(customerModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", custID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, bookkeeper.ErrCustomerNotFound
		}
		return nil, wrap("get customer", err)
	}
	return fromCustomerModel(m)
}

func (s *Store) ListCustomers(ctx context.Context, userID string, opts customer.ListOpts) ([]*customer.Customer, error) {
	var models []customerModel
	q := s.pg.NewSelect(&models).
		Where("user_id = $1", userID).
		OrderExpr("name ASC, id ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, wrap("list customers", err)
	}

	result := make([]*customer.Customer, len(models))
	for i := range models {
		c, err := fromCustomerModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	m := toCustomerModel(c)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return wrap("update customer", err)
	}
	return expectRow(res, bookkeeper.ErrCustomerNotFound)
}

func (s *Store) DeleteCustomer(ctx context.Context, custID id.CustomerID) error {
	res, err := s.pg.NewDelete((*customerModel)(nil)).
		Where("id = $1", custID.String()).
		Exec(ctx)
	if err != nil {
		return wrap("delete customer", err)
	}
	return expectRow(res, bookkeeper.ErrCustomerNotFound)
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	_, err := s.pg.NewInsert(toInvoiceModel(inv)).Exec(ctx)
	if err != nil {
		return wrap("create invoice", err)
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", invID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, bookkeeper.ErrInvoiceNotFound
		}
		return nil, wrap("get invoice", err)
	}
	return fromInvoiceModel(m)
}

func (s *Store) ListInvoices(ctx context.Context, userID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	q := s.pg.NewSelect(&models).Where("user_id = $1", userID)

	argIdx := 1
	if !opts.CustomerID.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("customer_id = $%d", argIdx), opts.CustomerID.String())
	}
	switch opts.Status {
	case invoice.StatusPaid:
		q = q.Where("paid")
	case invoice.StatusPartial:
		q = q.Where("NOT paid AND paid_amount_minor > 0")
	case invoice.StatusUnpaid:
		q = q.Where("paid_amount_minor = 0")
	}
	if !opts.From.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("invoice_date >= $%d", argIdx), opts.From.Time())
	}
	if !opts.To.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("invoice_date <= $%d", argIdx), opts.To.Time())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("invoice_date DESC, sequence DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, wrap("list invoices", err)
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

// DeleteInvoice removes the invoice; its payments go with it through the
// ON DELETE CASCADE foreign key.
func (s *Store) DeleteInvoice(ctx context.Context, invID id.InvoiceID) error {
	res, err := s.pg.NewDelete((*invoiceModel)(nil)).
		Where("id = $1", invID.String()).
		Exec(ctx)
	if err != nil {
		return wrap("delete invoice", err)
	}
	return expectRow(res, bookkeeper.ErrInvoiceNotFound)
}

// NextInvoiceNumber bumps the user's counter row in a single upsert, so two
// callers can never read the same value.
func (s *Store) NextInvoiceNumber(ctx context.Context, userID string) (int64, error) {
	var last int64
	err := s.pg.NewRaw(`
INSERT INTO bookkeeper_invoice_sequences (user_id, last_value) VALUES ($1, 1)
ON CONFLICT (user_id) DO UPDATE SET last_value = bookkeeper_invoice_sequences.last_value + 1
RETURNING last_value`, userID).Scan(ctx, &last)
	if err != nil {
		return 0, wrap("next invoice number", err)
	}
	return last, nil
}

// ==================== Payment Store ====================

func (s *Store) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	m := new(paymentModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", payID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, bookkeeper.ErrPaymentNotFound
		}
		return nil, wrap("get payment", err)
	}
	return fromPaymentModel(m)
}

func (s *Store) ListPayments(ctx context.Context, invID id.InvoiceID) ([]*payment.Payment, error) {
	var models []paymentModel
	err := s.pg.NewSelect(&models).
		Where("invoice_id = $1", invID.String()).
		OrderExpr("payment_date ASC, created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, wrap("list payments", err)
	}
	return fromPaymentModels(models)
}

// ==================== Expense Store ====================

func (s *Store) CreateExpense(ctx context.Context, e *expense.Expense) error {
	_, err := s.pg.NewInsert(toExpenseModel(e)).Exec(ctx)
	if err != nil {
		return wrap("create expense", err)
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, expID id.ExpenseID) (*expense.Expense, error) {
	m := new(expenseModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", expID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, bookkeeper.ErrExpenseNotFound
		}
		return nil, wrap("get expense", err)
	}
	return fromExpenseModel(m)
}

func (s *Store) ListExpenses(ctx context.Context, userID string, opts expense.ListOpts) ([]*expense.Expense, error) {
	var models []expenseModel
	q := s.pg.NewSelect(&models).Where("user_id = $1", userID)

	argIdx := 1
	if opts.Label != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("label = $%d", argIdx), opts.Label)
	}
	if !opts.From.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("expense_date >= $%d", argIdx), opts.From.Time())
	}
	if !opts.To.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("expense_date <= $%d", argIdx), opts.To.Time())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("expense_date DESC, created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, wrap("list expenses", err)
	}

	result := make([]*expense.Expense, len(models))
	for i := range models {
		e, err := fromExpenseModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e *expense.Expense) error {
	m := toExpenseModel(e)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return wrap("update expense", err)
	}
	return expectRow(res, bookkeeper.ErrExpenseNotFound)
}

func (s *Store) DeleteExpense(ctx context.Context, expID id.ExpenseID) error {
	res, err := s.pg.NewDelete((*expenseModel)(nil)).
		Where("id = $1", expID.String()).
		Exec(ctx)
	if err != nil {
		return wrap("delete expense", err)
	}
	return expectRow(res, bookkeeper.ErrExpenseNotFound)
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports a duplicate key error (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "duplicate key"))
}

// wrap annotates err with the failed operation. Duplicate keys become
// bookkeeper.ErrAlreadyExists.
func wrap(op string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("bookkeeper/postgres: %s: %w: %v", op, bookkeeper.ErrAlreadyExists, err)
	}
	return fmt.Errorf("bookkeeper/postgres: %s: %w", op, err)
}

func expectRow(res driver.Result, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
