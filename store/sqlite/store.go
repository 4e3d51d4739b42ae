// Package sqlite implements store.Store on an embedded SQLite database
// through gorm. All access goes through a single connection, so writers
// queue inside the process; invoice versions still guard every
// reconciliation commit.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

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

// Store implements store.Store using SQLite via gorm.
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open creates the database file at path (and its directory) when missing.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("bookkeeper/sqlite: create db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("bookkeeper/sqlite: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("bookkeeper/sqlite: get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
	_, _ = sqlDB.Exec("PRAGMA synchronous = NORMAL;")

	return New(db), nil
}

// DB returns the underlying gorm database for direct access.
func (s *Store) DB() *gorm.DB { return s.db }

// Migrate creates the tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&customerModel{},
		&invoiceModel{},
		&paymentModel{},
		&expenseModel{},
		&sequenceModel{},
	)
	if err != nil {
		return fmt.Errorf("%w: sqlite: %w", bookkeeper.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ==================== Customer Store ====================

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	if err := s.db.WithContext(ctx).Create(toCustomerModel(c)).Error; err != nil {
		return wrap("create customer", err)
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, custID id.CustomerID) (*customer.Customer, error) {
	var m customerModel
	err := s.db.WithContext(ctx).Where("id = ?", custID.String()).Take(&m).Error
	if err != nil {
		if isNotFound(err) {
			return nil, bookkeeper.ErrCustomerNotFound
		}
		return nil, wrap("get customer", err)
	}
	return fromCustomerModel(&m)
}

func (s *Store) ListCustomers(ctx context.Context, userID string, opts customer.ListOpts) ([]*customer.Customer, error) {
	var models []customerModel
	q := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC, id ASC")
	q = page(q, opts.Limit, opts.Offset)

	if err := q.Find(&models).Error; err != nil {
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
	res := s.db.WithContext(ctx).Model(&customerModel{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{
			"name":       m.Name,
			"phone":      m.Phone,
			"email":      m.Email,
			"address":    m.Address,
			"updated_at": now(),
		})
	if res.Error != nil {
		return wrap("update customer", res.Error)
	}
	if res.RowsAffected == 0 {
		return bookkeeper.ErrCustomerNotFound
	}
	return nil
}

func (s *Store) DeleteCustomer(ctx context.Context, custID id.CustomerID) error {
	res := s.db.WithContext(ctx).Where("id = ?", custID.String()).Delete(&customerModel{})
	if res.Error != nil {
		return wrap("delete customer", res.Error)
	}
	if res.RowsAffected == 0 {
		return bookkeeper.ErrCustomerNotFound
	}
	return nil
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	if err := s.db.WithContext(ctx).Create(toInvoiceModel(inv)).Error; err != nil {
		return wrap("create invoice", err)
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	m, err := findInvoice(s.db.WithContext(ctx), invID)
	if err != nil {
		return nil, err
	}
	return fromInvoiceModel(m)
}

func findInvoice(db *gorm.DB, invID id.InvoiceID) (*invoiceModel, error) {
	var m invoiceModel
	if err := db.Where("id = ?", invID.String()).Take(&m).Error; err != nil {
		if isNotFound(err) {
			return nil, bookkeeper.ErrInvoiceNotFound
		}
		return nil, wrap("get invoice", err)
	}
	return &m, nil
}

func (s *Store) ListInvoices(ctx context.Context, userID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)

	if !opts.CustomerID.IsNil() {
		q = q.Where("customer_id = ?", opts.CustomerID.String())
	}
	switch opts.Status {
	case invoice.StatusPaid:
		q = q.Where("paid = ?", true)
	case invoice.StatusPartial:
		q = q.Where("paid = ? AND paid_amount_minor > 0", false)
	case invoice.StatusUnpaid:
		q = q.Where("paid_amount_minor = 0")
	}
	if !opts.From.IsZero() {
		q = q.Where("invoice_date >= ?", opts.From.Time())
	}
	if !opts.To.IsZero() {
		q = q.Where("invoice_date <= ?", opts.To.Time())
	}
	q = page(q.Order("invoice_date DESC, sequence DESC"), opts.Limit, opts.Offset)

	if err := q.Find(&models).Error; err != nil {
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

// DeleteInvoice removes the invoice and its payments in one transaction.
func (s *Store) DeleteInvoice(ctx context.Context, invID id.InvoiceID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invID.String()).Delete(&paymentModel{}).Error; err != nil {
			return wrap("delete invoice payments", err)
		}
		res := tx.Where("id = ?", invID.String()).Delete(&invoiceModel{})
		if res.Error != nil {
			return wrap("delete invoice", res.Error)
		}
		if res.RowsAffected == 0 {
			return bookkeeper.ErrInvoiceNotFound
		}
		return nil
	})
}

// NextInvoiceNumber upserts the user's counter row and reads it back inside
// one transaction.
func (s *Store) NextInvoiceNumber(ctx context.Context, userID string) (int64, error) {
	var seq sequenceModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{"last_value": gorm.Expr("last_value + 1")}),
		}).Create(&sequenceModel{UserID: userID, LastValue: 1}).Error
		if err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Take(&seq).Error
	})
	if err != nil {
		return 0, wrap("next invoice number", err)
	}
	return seq.LastValue, nil
}

// ==================== Payment Store ====================

func (s *Store) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	var m paymentModel
	err := s.db.WithContext(ctx).Where("id = ?", payID.String()).Take(&m).Error
	if err != nil {
		if isNotFound(err) {
			return nil, bookkeeper.ErrPaymentNotFound
		}
		return nil, wrap("get payment", err)
	}
	return fromPaymentModel(&m)
}

func (s *Store) ListPayments(ctx context.Context, invID id.InvoiceID) ([]*payment.Payment, error) {
	return listPayments(s.db.WithContext(ctx), invID)
}

func listPayments(db *gorm.DB, invID id.InvoiceID) ([]*payment.Payment, error) {
	var models []paymentModel
	err := db.Where("invoice_id = ?", invID.String()).
		Order("payment_date ASC, created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, wrap("list payments", err)
	}
	return fromPaymentModels(models)
}

// ==================== Expense Store ====================

func (s *Store) CreateExpense(ctx context.Context, e *expense.Expense) error {
	if err := s.db.WithContext(ctx).Create(toExpenseModel(e)).Error; err != nil {
		return wrap("create expense", err)
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, expID id.ExpenseID) (*expense.Expense, error) {
	var m expenseModel
	err := s.db.WithContext(ctx).Where("id = ?", expID.String()).Take(&m).Error
	if err != nil {
		if isNotFound(err) {
			return nil, bookkeeper.ErrExpenseNotFound
		}
		return nil, wrap("get expense", err)
	}
	return fromExpenseModel(&m)
}

func (s *Store) ListExpenses(ctx context.Context, userID string, opts expense.ListOpts) ([]*expense.Expense, error) {
	var models []expenseModel
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)

	if opts.Label != "" {
		q = q.Where("label = ?", opts.Label)
	}
	if !opts.From.IsZero() {
		q = q.Where("expense_date >= ?", opts.From.Time())
	}
	if !opts.To.IsZero() {
		q = q.Where("expense_date <= ?", opts.To.Time())
	}
	q = page(q.Order("expense_date DESC, created_at DESC"), opts.Limit, opts.Offset)

	if err := q.Find(&models).Error; err != nil {
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
	res := s.db.WithContext(ctx).Model(&expenseModel{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{
			"label":        m.Label,
			"currency":     m.Currency,
			"amount_minor": m.AmountMinor,
			"expense_date": m.Date,
			"updated_at":   now(),
		})
	if res.Error != nil {
		return wrap("update expense", res.Error)
	}
	if res.RowsAffected == 0 {
		return bookkeeper.ErrExpenseNotFound
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, expID id.ExpenseID) error {
	res := s.db.WithContext(ctx).Where("id = ?", expID.String()).Delete(&expenseModel{})
	if res.Error != nil {
		return wrap("delete expense", res.Error)
	}
	if res.RowsAffected == 0 {
		return bookkeeper.ErrExpenseNotFound
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// wrap annotates err with the failed operation. Duplicate keys become
// bookkeeper.ErrAlreadyExists.
func wrap(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("bookkeeper/sqlite: %s: %w: %v", op, bookkeeper.ErrAlreadyExists, err)
	}
	return fmt.Errorf("bookkeeper/sqlite: %s: %w", op, err)
}

// page applies limit and offset; a zero limit lists everything.
func page(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		if limit <= 0 {
			q = q.Limit(-1)
		}
		q = q.Offset(offset)
	}
	return q
}
