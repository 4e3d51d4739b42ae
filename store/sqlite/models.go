package sqlite

import (
	"time"

	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/types"
)

// ==================== Customer models ====================

type customerModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"not null;index:idx_bookkeeper_customers_user,priority:1"`
	Name      string    `gorm:"not null;index:idx_bookkeeper_customers_user,priority:2"`
	Phone     string    `gorm:"not null;default:''"`
	Email     string    `gorm:"not null;default:''"`
	Address   string    `gorm:"not null;default:''"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (customerModel) TableName() string { return "bookkeeper_customers" }

func toCustomerModel(c *customer.Customer) *customerModel {
	return &customerModel{
		ID:        c.ID.String(),
		UserID:    c.UserID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromCustomerModel(m *customerModel) (*customer.Customer, error) {
	custID, err := id.ParseCustomerID(m.ID)
	if err != nil {
		return nil, err
	}
	return &customer.Customer{
		Entity:  types.Entity{CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()},
		ID:      custID,
		UserID:  m.UserID,
		Name:    m.Name,
		Phone:   m.Phone,
		Email:   m.Email,
		Address: m.Address,
	}, nil
}

// ==================== Invoice models ====================

type invoiceModel struct {
	ID          string    `gorm:"primaryKey;size:64"`
	UserID      string    `gorm:"not null;uniqueIndex:idx_bookkeeper_invoices_number,priority:1;index:idx_bookkeeper_invoices_user_date,priority:1"`
	CustomerID  string    `gorm:"not null;index"`
	Number      string    `gorm:"column:invoice_number;not null;uniqueIndex:idx_bookkeeper_invoices_number,priority:2"`
	Sequence    int64     `gorm:"not null"`
	Description string    `gorm:"not null;default:''"`
	Currency    string    `gorm:"not null"`
	AmountMinor int64     `gorm:"not null"`
	PaidMinor   int64     `gorm:"column:paid_amount_minor;not null;default:0"`
	Paid        bool      `gorm:"not null;default:false"`
	Date        time.Time `gorm:"column:invoice_date;not null;index:idx_bookkeeper_invoices_user_date,priority:2"`
	Version     int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (invoiceModel) TableName() string { return "bookkeeper_invoices" }

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	return &invoiceModel{
		ID:          inv.ID.String(),
		UserID:      inv.UserID,
		CustomerID:  inv.CustomerID.String(),
		Number:      inv.Number,
		Sequence:    inv.Sequence,
		Description: inv.Description,
		Currency:    inv.Amount.Currency,
		AmountMinor: inv.Amount.Amount,
		PaidMinor:   inv.PaidAmount.Amount,
		Paid:        inv.Paid,
		Date:        inv.Date.Time(),
		Version:     inv.Version,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	invID, err := id.ParseInvoiceID(m.ID)
	if err != nil {
		return nil, err
	}
	custID, err := id.ParseCustomerID(m.CustomerID)
	if err != nil {
		return nil, err
	}
	return &invoice.Invoice{
		Entity:      types.Entity{CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()},
		ID:          invID,
		Number:      m.Number,
		Sequence:    m.Sequence,
		UserID:      m.UserID,
		CustomerID:  custID,
		Description: m.Description,
		Amount:      types.Money{Amount: m.AmountMinor, Currency: m.Currency},
		PaidAmount:  types.Money{Amount: m.PaidMinor, Currency: m.Currency},
		Paid:        m.Paid,
		Date:        types.DateOf(m.Date.UTC()),
		Version:     m.Version,
	}, nil
}

// invoiceColumns lists the mutable invoice columns written by reconciliation.
func invoiceColumns(m *invoiceModel) map[string]any {
	return map[string]any{
		"customer_id":       m.CustomerID,
		"description":       m.Description,
		"currency":          m.Currency,
		"amount_minor":      m.AmountMinor,
		"paid_amount_minor": m.PaidMinor,
		"paid":              m.Paid,
		"invoice_date":      m.Date,
		"version":           m.Version,
		"updated_at":        m.UpdatedAt,
	}
}

type sequenceModel struct {
	UserID    string `gorm:"primaryKey;size:128"`
	LastValue int64  `gorm:"not null;default:0"`
}

func (sequenceModel) TableName() string { return "bookkeeper_invoice_sequences" }

// ==================== Payment models ====================

type paymentModel struct {
	ID          string    `gorm:"primaryKey;size:64"`
	InvoiceID   string    `gorm:"not null;index:idx_bookkeeper_payments_invoice,priority:1"`
	Currency    string    `gorm:"not null"`
	AmountMinor int64     `gorm:"not null"`
	PaymentDate time.Time `gorm:"not null;index:idx_bookkeeper_payments_invoice,priority:2"`
	Notes       string    `gorm:"not null;default:''"`
	Manual      bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (paymentModel) TableName() string { return "bookkeeper_payments" }

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:          p.ID.String(),
		InvoiceID:   p.InvoiceID.String(),
		Currency:    p.Amount.Currency,
		AmountMinor: p.Amount.Amount,
		PaymentDate: p.PaymentDate.Time(),
		Notes:       p.Notes,
		Manual:      p.Manual,
		CreatedAt:   p.CreatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	payID, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, err
	}
	invID, err := id.ParseInvoiceID(m.InvoiceID)
	if err != nil {
		return nil, err
	}
	return &payment.Payment{
		ID:          payID,
		InvoiceID:   invID,
		Amount:      types.Money{Amount: m.AmountMinor, Currency: m.Currency},
		PaymentDate: types.DateOf(m.PaymentDate.UTC()),
		Notes:       m.Notes,
		Manual:      m.Manual,
		CreatedAt:   m.CreatedAt.UTC(),
	}, nil
}

func fromPaymentModels(models []paymentModel) ([]*payment.Payment, error) {
	result := make([]*payment.Payment, len(models))
	for i := range models {
		p, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Expense models ====================

type expenseModel struct {
	ID          string    `gorm:"primaryKey;size:64"`
	UserID      string    `gorm:"not null;index:idx_bookkeeper_expenses_user_date,priority:1"`
	Label       string    `gorm:"not null;default:''"`
	Currency    string    `gorm:"not null"`
	AmountMinor int64     `gorm:"not null"`
	Date        time.Time `gorm:"column:expense_date;not null;index:idx_bookkeeper_expenses_user_date,priority:2"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (expenseModel) TableName() string { return "bookkeeper_expenses" }

func toExpenseModel(e *expense.Expense) *expenseModel {
	return &expenseModel{
		ID:          e.ID.String(),
		UserID:      e.UserID,
		Label:       e.Label,
		Currency:    e.Amount.Currency,
		AmountMinor: e.Amount.Amount,
		Date:        e.Date.Time(),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func fromExpenseModel(m *expenseModel) (*expense.Expense, error) {
	expID, err := id.ParseExpenseID(m.ID)
	if err != nil {
		return nil, err
	}
	return &expense.Expense{
		Entity: types.Entity{CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()},
		ID:     expID,
		UserID: m.UserID,
		Label:  m.Label,
		Amount: types.Money{Amount: m.AmountMinor, Currency: m.Currency},
		Date:   types.DateOf(m.Date.UTC()),
	}, nil
}
