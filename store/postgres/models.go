package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/types"
)

// ==================== Customer models ====================

type customerModel struct {
	grove.BaseModel `grove:"table:bookkeeper_customers"`

	ID        string    `grove:"id,pk"`
	UserID    string    `grove:"user_id"`
	Name      string    `grove:"name"`
	Phone     string    `grove:"phone"`
	Email     string    `grove:"email"`
	Address   string    `grove:"address"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

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
		Entity:  types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
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
	grove.BaseModel `grove:"table:bookkeeper_invoices"`

	ID          string    `grove:"id,pk"`
	UserID      string    `grove:"user_id"`
	CustomerID  string    `grove:"customer_id"`
	Number      string    `grove:"invoice_number"`
	Sequence    int64     `grove:"sequence"`
	Description string    `grove:"description"`
	Currency    string    `grove:"currency"`
	AmountMinor int64     `grove:"amount_minor"`
	PaidMinor   int64     `grove:"paid_amount_minor"`
	Paid        bool      `grove:"paid"`
	Date        time.Time `grove:"invoice_date"`
	Version     int64     `grove:"version"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

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
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
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

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:bookkeeper_payments"`

	ID          string    `grove:"id,pk"`
	InvoiceID   string    `grove:"invoice_id"`
	Currency    string    `grove:"currency"`
	AmountMinor int64     `grove:"amount_minor"`
	PaymentDate time.Time `grove:"payment_date"`
	Notes       string    `grove:"notes"`
	Manual      bool      `grove:"manual"`
	CreatedAt   time.Time `grove:"created_at"`
}

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
		CreatedAt:   m.CreatedAt,
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
	grove.BaseModel `grove:"table:bookkeeper_expenses"`

	ID          string    `grove:"id,pk"`
	UserID      string    `grove:"user_id"`
	Label       string    `grove:"label"`
	Currency    string    `grove:"currency"`
	AmountMinor int64     `grove:"amount_minor"`
	Date        time.Time `grove:"expense_date"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

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
		Entity: types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:     expID,
		UserID: m.UserID,
		Label:  m.Label,
		Amount: types.Money{Amount: m.AmountMinor, Currency: m.Currency},
		Date:   types.DateOf(m.Date.UTC()),
	}, nil
}
