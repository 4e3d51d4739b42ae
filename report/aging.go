package report

import (
	"sort"

	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/types"
)

// Bucket boundaries in days. Bucket i holds [bounds[i], bounds[i+1]); the
// last bucket is open ended.
var agingBounds = []int{0, 10, 20, 30}

var agingLabels = []string{"<10 days", "10-19 days", "20-29 days", "30+ days"}

// AgingRow is one invoice with an outstanding balance.
type AgingRow struct {
	Invoice         *invoice.Invoice `json:"invoice"`
	DaysOutstanding int              `json:"days_outstanding"`
	Balance         types.Money      `json:"balance"`
}

// AgingBucket collects the invoices whose age falls in [MinDays, MaxDays).
// MaxDays is 0 for the open-ended bucket.
type AgingBucket struct {
	Label   string      `json:"label"`
	MinDays int         `json:"min_days"`
	MaxDays int         `json:"max_days,omitempty"`
	Rows    []AgingRow  `json:"rows"`
	Total   types.Money `json:"total"`
}

// AgingReport is the receivables aging view as of one date.
type AgingReport struct {
	AsOf    types.Date    `json:"as_of"`
	Buckets []AgingBucket `json:"buckets"`
	Total   types.Money   `json:"total"`
	Count   int           `json:"count"`
	// Skipped counts invoices in another currency.
	Skipped int `json:"skipped,omitempty"`
}

// Aging buckets every invoice with a balance by whole days since its date.
// Invoices dated in the future count as zero days old.
func (r *Reporter) Aging(invoices []*invoice.Invoice) *AgingReport {
	today := r.Today()

	rep := &AgingReport{
		AsOf:    today,
		Buckets: make([]AgingBucket, len(agingBounds)),
		Total:   r.zero(),
	}
	for i, lo := range agingBounds {
		b := AgingBucket{Label: agingLabels[i], MinDays: lo, Rows: []AgingRow{}, Total: r.zero()}
		if i+1 < len(agingBounds) {
			b.MaxDays = agingBounds[i+1]
		}
		rep.Buckets[i] = b
	}

	for _, inv := range invoices {
		balance := inv.Remaining()
		if balance.Amount <= 0 {
			continue
		}
		if !r.counts(balance) {
			rep.Skipped++
			continue
		}
		days := inv.Date.DaysUntil(today)
		if days < 0 {
			days = 0
		}
		b := &rep.Buckets[bucketFor(days)]
		b.Rows = append(b.Rows, AgingRow{Invoice: inv, DaysOutstanding: days, Balance: balance})
		b.Total = b.Total.Add(balance)
		rep.Total = rep.Total.Add(balance)
		rep.Count++
	}

	for i := range rep.Buckets {
		rows := rep.Buckets[i].Rows
		sort.SliceStable(rows, func(a, b int) bool {
			if rows[a].DaysOutstanding != rows[b].DaysOutstanding {
				return rows[a].DaysOutstanding > rows[b].DaysOutstanding
			}
			return rows[a].Invoice.Number < rows[b].Invoice.Number
		})
	}

	return rep
}

func bucketFor(days int) int {
	for i := len(agingBounds) - 1; i > 0; i-- {
		if days >= agingBounds[i] {
			return i
		}
	}
	return 0
}
