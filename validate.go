package bookkeeper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/bookkeeper/report"
	"github.com/xraph/bookkeeper/types"
)

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ValidationError{Field: "user_id", Message: "is required"}
	}
	return nil
}

// amount checks that m is strictly positive and in the books' currency.
// A blank currency is read as the books' currency.
func (b *Bookkeeper) amount(field string, m types.Money) (types.Money, error) {
	m.Currency = strings.ToLower(m.Currency)
	if m.Currency == "" {
		m.Currency = b.currency
	}
	if m.Currency != b.currency {
		return m, fmt.Errorf("%w: %w", ValidationError{
			Field:   field,
			Message: fmt.Sprintf("currency %q is not accepted, books are kept in %q", m.Currency, b.currency),
		}, ErrCurrencyMismatch)
	}
	if !m.IsPositive() {
		return m, ValidationError{Field: field, Message: "must be greater than zero"}
	}
	return m, nil
}

// dateOrToday returns d, or today when d is zero.
func (b *Bookkeeper) dateOrToday(d types.Date) types.Date {
	if d.IsZero() {
		return b.today()
	}
	return d
}

// reportError turns argument errors from package report into
// ValidationErrors.
func reportError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, report.ErrInvalidMonth):
		return ValidationError{Field: "month", Message: "must be between 1 and 12"}
	case errors.Is(err, report.ErrInvalidYear):
		return ValidationError{Field: "year", Message: "must be positive"}
	case errors.Is(err, report.ErrInvalidPeriod):
		return ValidationError{Field: "period", Message: `must be "monthly" or "yearly"`}
	default:
		return err
	}
}
