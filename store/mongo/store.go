// Package mongo implements store.Store on MongoDB through the grove
// mongodriver. Reconciliation and cascade deletes run in multi-document
// transactions, so the server must be a replica set or sharded cluster.
// Invoices also carry a version; a reconciliation whose swap no longer
// matches it aborts with bookkeeper.ErrConflict.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
	bkstore "github.com/xraph/bookkeeper/store"
)

// Collection name constants.
const (
	colCustomers = "bookkeeper_customers"
	colInvoices  = "bookkeeper_invoices"
	colPayments  = "bookkeeper_payments"
	colExpenses  = "bookkeeper_expenses"
	colSequences = "bookkeeper_invoice_sequences"
)

// compile-time interface check
var _ bkstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Open connects to uri and returns a Store owning the client. The database
// name is taken from the URI path.
func Open(ctx context.Context, uri string) (*Store, error) {
	mdb := mongodriver.New()
	if err := mdb.Open(ctx, uri); err != nil {
		return nil, fmt.Errorf("bookkeeper/mongo: open: %w", err)
	}
	db, err := grove.Open(mdb)
	if err != nil {
		return nil, fmt.Errorf("bookkeeper/mongo: open: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all bookkeeper collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("%w: mongo %s indexes: %w", bookkeeper.ErrMigrationFailed, col, err)
		}
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
	if _, err := s.mdb.NewInsert(toCustomerModel(c)).Exec(ctx); err != nil {
		return wrap("create customer", err)
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, custID id.CustomerID) (*customer.Customer, error) {
	var m customerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": custID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, bookkeeper.ErrCustomerNotFound
		}
		return nil, wrap("get customer", err)
	}
	return fromCustomerModel(&m)
}

func (s *Store) ListCustomers(ctx context.Context, userID string, opts customer.ListOpts) ([]*customer.Customer, error) {
	var models []customerModel
	q := s.mdb.NewFind(&models).
		Filter(bson.M{"user_id": userID}).
		Sort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return wrap("update customer", err)
	}
	if res.MatchedCount() == 0 {
		return bookkeeper.ErrCustomerNotFound
	}
	return nil
}

func (s *Store) DeleteCustomer(ctx context.Context, custID id.CustomerID) error {
	res, err := s.mdb.NewDelete((*customerModel)(nil)).
		Filter(bson.M{"_id": custID.String()}).
		Exec(ctx)
	if err != nil {
		return wrap("delete customer", err)
	}
	if res.DeletedCount() == 0 {
		return bookkeeper.ErrCustomerNotFound
	}
	return nil
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	if _, err := s.mdb.NewInsert(toInvoiceModel(inv)).Exec(ctx); err != nil {
		return wrap("create invoice", err)
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	m, err := s.findInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	return fromInvoiceModel(m)
}

func (s *Store) findInvoice(ctx context.Context, invID id.InvoiceID) (*invoiceModel, error) {
	var m invoiceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": invID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, bookkeeper.ErrInvoiceNotFound
		}
		return nil, wrap("get invoice", err)
	}
	return &m, nil
}

func (s *Store) ListInvoices(ctx context.Context, userID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel

	filter := bson.M{"user_id": userID}
	if !opts.CustomerID.IsNil() {
		filter["customer_id"] = opts.CustomerID.String()
	}
	switch opts.Status {
	case invoice.StatusPaid:
		filter["paid"] = true
	case invoice.StatusPartial:
		filter["paid"] = false
		filter["paid_amount_minor"] = bson.M{"$gt": 0}
	case invoice.StatusUnpaid:
		filter["paid_amount_minor"] = 0
	}
	if dates := dateRange(opts.From.Time(), opts.To.Time(), opts.From.IsZero(), opts.To.IsZero()); dates != nil {
		filter["invoice_date"] = dates
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "invoice_date", Value: -1}, {Key: "sequence", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

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

// DeleteInvoice removes the invoice and its payments in one transaction.
func (s *Store) DeleteInvoice(ctx context.Context, invID id.InvoiceID) error {
	return s.inTransaction(ctx, func(ctx context.Context) error {
		res, err := s.mdb.NewDelete((*invoiceModel)(nil)).
			Filter(bson.M{"_id": invID.String()}).
			Exec(ctx)
		if err != nil {
			return wrap("delete invoice", err)
		}
		if res.DeletedCount() == 0 {
			return bookkeeper.ErrInvoiceNotFound
		}

		_, err = s.mdb.NewDelete((*paymentModel)(nil)).
			Filter(bson.M{"invoice_id": invID.String()}).
			Many().
			Exec(ctx)
		if err != nil {
			return wrap("delete invoice payments", err)
		}
		return nil
	})
}

// NextInvoiceNumber increments the user's counter document with $inc,
// creating it on first use.
func (s *Store) NextInvoiceNumber(ctx context.Context, userID string) (int64, error) {
	var seq sequenceModel
	err := s.mdb.Collection(colSequences).FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$inc": bson.M{"last_value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&seq)
	if err != nil {
		return 0, wrap("next invoice number", err)
	}
	return seq.LastValue, nil
}

// ==================== Payment Store ====================

func (s *Store) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	var m paymentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": payID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, bookkeeper.ErrPaymentNotFound
		}
		return nil, wrap("get payment", err)
	}
	return fromPaymentModel(&m)
}

func (s *Store) ListPayments(ctx context.Context, invID id.InvoiceID) ([]*payment.Payment, error) {
	var models []paymentModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"invoice_id": invID.String()}).
		Sort(bson.D{{Key: "payment_date", Value: 1}, {Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, wrap("list payments", err)
	}
	return fromPaymentModels(models)
}

// ==================== Expense Store ====================

func (s *Store) CreateExpense(ctx context.Context, e *expense.Expense) error {
	if _, err := s.mdb.NewInsert(toExpenseModel(e)).Exec(ctx); err != nil {
		return wrap("create expense", err)
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, expID id.ExpenseID) (*expense.Expense, error) {
	var m expenseModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": expID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, bookkeeper.ErrExpenseNotFound
		}
		return nil, wrap("get expense", err)
	}
	return fromExpenseModel(&m)
}

func (s *Store) ListExpenses(ctx context.Context, userID string, opts expense.ListOpts) ([]*expense.Expense, error) {
	var models []expenseModel

	filter := bson.M{"user_id": userID}
	if opts.Label != "" {
		filter["label"] = opts.Label
	}
	if dates := dateRange(opts.From.Time(), opts.To.Time(), opts.From.IsZero(), opts.To.IsZero()); dates != nil {
		filter["expense_date"] = dates
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "expense_date", Value: -1}, {Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return wrap("update expense", err)
	}
	if res.MatchedCount() == 0 {
		return bookkeeper.ErrExpenseNotFound
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, expID id.ExpenseID) error {
	res, err := s.mdb.NewDelete((*expenseModel)(nil)).
		Filter(bson.M{"_id": expID.String()}).
		Exec(ctx)
	if err != nil {
		return wrap("delete expense", err)
	}
	if res.DeletedCount() == 0 {
		return bookkeeper.ErrExpenseNotFound
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// wrap annotates err with the failed operation. Duplicate keys become
// bookkeeper.ErrAlreadyExists.
func wrap(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("bookkeeper/mongo: %s: %w: %v", op, bookkeeper.ErrAlreadyExists, err)
	}
	return fmt.Errorf("bookkeeper/mongo: %s: %w", op, err)
}

// dateRange builds an inclusive range filter, or nil when both ends are open.
func dateRange(from, to time.Time, noFrom, noTo bool) bson.M {
	if noFrom && noTo {
		return nil
	}
	r := bson.M{}
	if !noFrom {
		r["$gte"] = from
	}
	if !noTo {
		r["$lte"] = to
	}
	return r
}

// migrationIndexes returns the index definitions for all bookkeeper collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colCustomers: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "name", Value: 1}}},
		},
		colInvoices: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "invoice_number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "invoice_date", Value: -1}}},
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "invoice_id", Value: 1}, {Key: "payment_date", Value: 1}}},
		},
		colExpenses: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "expense_date", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "label", Value: 1}}},
		},
	}
}
