// Package report derives dashboard figures and report views from
// customers, invoices and expenses. Every function is a pure computation
// over the slices it is given; the current date comes from a Clock.
package report

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xraph/bookkeeper/types"
)

// Sentinel errors returned for malformed report arguments.
var (
	ErrInvalidPeriod = errors.New("report: invalid period")
	ErrInvalidMonth  = errors.New("report: invalid month")
	ErrInvalidYear   = errors.New("report: invalid year")
)

// Period selects the window a report covers, relative to the clock.
type Period string

const (
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// ParsePeriod accepts "monthly" or "yearly" in any case. An empty string
// selects Monthly.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", Monthly:
		return Monthly, nil
	case Yearly:
		return Yearly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// DefaultTopCustomers is the N used when TopCustomers is asked for n <= 0.
const DefaultTopCustomers = 5

// UncategorizedLabel groups expenses with a blank label.
const UncategorizedLabel = "Uncategorized"

// Reporter builds reports in one currency against one clock.
type Reporter struct {
	currency string
	clock    Clock
	loc      *time.Location
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithClock sets the clock used for "today", "this month" and "this year".
func WithClock(c Clock) Option {
	return func(r *Reporter) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLocation sets the time zone the clock is read in.
func WithLocation(loc *time.Location) Option {
	return func(r *Reporter) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// New returns a Reporter that totals amounts in currency.
func New(currency string, opts ...Option) *Reporter {
	r := &Reporter{
		currency: strings.ToLower(currency),
		clock:    SystemClock,
		loc:      time.Local,
	}
	if r.currency == "" {
		r.currency = types.DefaultCurrency
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Currency returns the reporting currency.
func (r *Reporter) Currency() string { return r.currency }

// Today returns the clock's current calendar date.
func (r *Reporter) Today() types.Date {
	return types.DateOf(r.clock.Now().In(r.loc))
}

// Window returns the inclusive date range period covers today.
func (r *Reporter) Window(p Period) (from, to types.Date) {
	today := r.Today()
	if p == Yearly {
		return types.NewDate(today.Year, time.January, 1), types.NewDate(today.Year, time.December, 31)
	}
	first := types.NewDate(today.Year, today.Month, 1)
	return first, types.DateOf(first.Time().AddDate(0, 1, -1))
}

func (r *Reporter) zero() types.Money { return types.Zero(r.currency) }

// counts reports whether m is in the reporting currency. Amounts in any
// other currency are left out of totals and tallied as skipped.
func (r *Reporter) counts(m types.Money) bool { return m.Currency == r.currency }

// inPeriod reports whether d falls into period as seen from today.
func inPeriod(d types.Date, p Period, today types.Date) bool {
	if p == Yearly {
		return d.Year == today.Year
	}
	return d.InMonth(today.Year, today.Month)
}

// Percent returns part as a percentage of total, rounded to two decimals.
// A zero total yields 0.
func Percent(part, total types.Money) float64 {
	if total.Amount == 0 {
		return 0
	}
	return math.Round(float64(part.Amount)/float64(total.Amount)*10000) / 100
}
