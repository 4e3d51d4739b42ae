package audithook

// Action constants for audit events.
const (
	// Customer actions
	ActionCustomerCreated = "customer.created"
	ActionCustomerDeleted = "customer.deleted"

	// Invoice actions
	ActionInvoiceCreated = "invoice.created"
	ActionInvoiceUpdated = "invoice.updated"
	ActionInvoiceDeleted = "invoice.deleted"
	ActionInvoicePaid    = "invoice.paid"

	// Payment actions
	ActionPaymentRecorded = "payment.recorded"
	ActionPaymentDeleted  = "payment.deleted"
	ActionPaymentRejected = "payment.rejected"

	// Expense actions
	ActionExpenseRecorded = "expense.recorded"
	ActionExpenseDeleted  = "expense.deleted"
)

// Resource constants for audit events.
const (
	ResourceCustomer = "customer"
	ResourceInvoice  = "invoice"
	ResourcePayment  = "payment"
	ResourceExpense  = "expense"
)

// Category constants for audit events.
const (
	CategoryCustomer = "customer"
	CategoryBilling  = "billing"
	CategoryPayment  = "payment"
	CategorySpending = "spending"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
