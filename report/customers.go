package report

import (
	"sort"

	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/types"
)

// CustomerTotal is one customer's billing in the period.
type CustomerTotal struct {
	CustomerID   id.CustomerID `json:"customer_id"`
	Name         string        `json:"name"`
	InvoiceCount int           `json:"invoice_count"`
	TotalAmount  types.Money   `json:"total_amount"`
	Share        float64       `json:"share"`
}

// TopCustomersReport ranks customers by amount billed.
type TopCustomersReport struct {
	Period    Period          `json:"period"`
	From      types.Date      `json:"from"`
	To        types.Date      `json:"to"`
	Customers []CustomerTotal `json:"customers"`
	// Total is billed across all customers in the period, not only the top N.
	Total types.Money `json:"total"`
	// Skipped counts invoices in another currency.
	Skipped int `json:"skipped,omitempty"`
}

// TopCustomers returns the n customers with the highest billed amount in
// period. n <= 0 selects DefaultTopCustomers.
func (r *Reporter) TopCustomers(invoices []*invoice.Invoice, customers []*customer.Customer, period Period, n int) *TopCustomersReport {
	if n <= 0 {
		n = DefaultTopCustomers
	}
	today := r.Today()
	from, to := r.Window(period)

	names := make(map[string]string, len(customers))
	for _, c := range customers {
		names[c.ID.String()] = c.Name
	}

	rep := &TopCustomersReport{
		Period:    period,
		From:      from,
		To:        to,
		Customers: []CustomerTotal{},
		Total:     r.zero(),
	}

	index := make(map[string]int)
	for _, inv := range invoices {
		if !inPeriod(inv.Date, period, today) {
			continue
		}
		if !r.counts(inv.Amount) {
			rep.Skipped++
			continue
		}
		key := inv.CustomerID.String()
		i, ok := index[key]
		if !ok {
			i = len(rep.Customers)
			index[key] = i
			rep.Customers = append(rep.Customers, CustomerTotal{
				CustomerID:  inv.CustomerID,
				Name:        names[key],
				TotalAmount: r.zero(),
			})
		}
		rep.Customers[i].InvoiceCount++
		rep.Customers[i].TotalAmount = rep.Customers[i].TotalAmount.Add(inv.Amount)
		rep.Total = rep.Total.Add(inv.Amount)
	}

	sort.SliceStable(rep.Customers, func(i, j int) bool {
		a, b := rep.Customers[i], rep.Customers[j]
		if a.TotalAmount.Amount != b.TotalAmount.Amount {
			return a.TotalAmount.Amount > b.TotalAmount.Amount
		}
		return a.Name < b.Name
	})

	if len(rep.Customers) > n {
		rep.Customers = rep.Customers[:n]
	}
	for i := range rep.Customers {
		rep.Customers[i].Share = Percent(rep.Customers[i].TotalAmount, rep.Total)
	}

	return rep
}
