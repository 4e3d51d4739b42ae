package report

import (
	"sort"
	"strings"

	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/types"
)

// Category is the expenses sharing one label.
type Category struct {
	Label string      `json:"label"`
	Total types.Money `json:"total"`
	Count int         `json:"count"`
	Share float64     `json:"share"`
}

// ExpenseReport groups a period's expenses by label.
type ExpenseReport struct {
	Period     Period      `json:"period"`
	From       types.Date  `json:"from"`
	To         types.Date  `json:"to"`
	Categories []Category  `json:"categories"`
	Total      types.Money `json:"total"`
	Count      int         `json:"count"`
	// Skipped counts expenses in another currency.
	Skipped int `json:"skipped,omitempty"`
}

// ExpensesByCategory groups the expenses dated in period by label, largest
// total first.
func (r *Reporter) ExpensesByCategory(expenses []*expense.Expense, period Period) *ExpenseReport {
	today := r.Today()
	from, to := r.Window(period)

	rep := &ExpenseReport{
		Period:     period,
		From:       from,
		To:         to,
		Categories: []Category{},
		Total:      r.zero(),
	}

	index := make(map[string]int)
	for _, e := range expenses {
		if !inPeriod(e.Date, period, today) {
			continue
		}
		if !r.counts(e.Amount) {
			rep.Skipped++
			continue
		}
		label := strings.TrimSpace(e.Label)
		if label == "" {
			label = UncategorizedLabel
		}
		i, ok := index[label]
		if !ok {
			i = len(rep.Categories)
			index[label] = i
			rep.Categories = append(rep.Categories, Category{Label: label, Total: r.zero()})
		}
		rep.Categories[i].Total = rep.Categories[i].Total.Add(e.Amount)
		rep.Categories[i].Count++
		rep.Total = rep.Total.Add(e.Amount)
		rep.Count++
	}

	for i := range rep.Categories {
		rep.Categories[i].Share = Percent(rep.Categories[i].Total, rep.Total)
	}

	sort.SliceStable(rep.Categories, func(i, j int) bool {
		a, b := rep.Categories[i], rep.Categories[j]
		if a.Total.Amount != b.Total.Amount {
			return a.Total.Amount > b.Total.Amount
		}
		return a.Label < b.Label
	})

	return rep
}
