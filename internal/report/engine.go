// Package report computes financial summaries and renders exportable
// reports from a point-in-time read of the record store.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"clientbooks/internal/records/models"
)

// Totals sums revenue, expenses and net profit over a record set. Zero-valued
// when the set is empty, never absent.
type Totals struct {
	Revenue   decimal.Decimal `json:"revenue"`
	Expenses  decimal.Decimal `json:"expenses"`
	NetProfit decimal.Decimal `json:"netProfit"`
}

// MonthlyBucket is one (year, month) aggregation unit keyed by record
// creation date.
type MonthlyBucket struct {
	Year        int             `json:"year"`
	Month       time.Month      `json:"month"`
	Revenue     decimal.Decimal `json:"monthlyRevenue"`
	Expenses    decimal.Decimal `json:"monthlyExpenses"`
	NetProfit   decimal.Decimal `json:"monthlyNetProfit"`
	ClientCount int             `json:"clientCount"`
}

// Summary is the dashboard aggregate: global totals plus the monthly series
// in ascending chronological order.
type Summary struct {
	Totals        Totals          `json:"totals"`
	MonthlySeries []MonthlyBucket `json:"monthlySeries"`
}

type monthKey struct {
	year  int
	month time.Month
}

// Summarize folds the records into totals and monthly buckets. Net profit is
// taken from each record's stored figure, not rederived, so the bucket sums
// always reconcile with the totals.
func Summarize(records []models.Record) Summary {
	summary := Summary{
		Totals: Totals{
			Revenue:   decimal.Zero,
			Expenses:  decimal.Zero,
			NetProfit: decimal.Zero,
		},
		MonthlySeries: []MonthlyBucket{},
	}

	buckets := make(map[monthKey]*MonthlyBucket)
	for i := range records {
		r := &records[i]
		summary.Totals.Revenue = summary.Totals.Revenue.Add(r.Financials.Revenue)
		summary.Totals.Expenses = summary.Totals.Expenses.Add(r.Financials.Expenses)
		summary.Totals.NetProfit = summary.Totals.NetProfit.Add(r.Financials.NetProfit)

		created := r.CreatedAt.UTC()
		key := monthKey{year: created.Year(), month: created.Month()}
		bucket, ok := buckets[key]
		if !ok {
			bucket = &MonthlyBucket{
				Year:      key.year,
				Month:     key.month,
				Revenue:   decimal.Zero,
				Expenses:  decimal.Zero,
				NetProfit: decimal.Zero,
			}
			buckets[key] = bucket
		}
		bucket.Revenue = bucket.Revenue.Add(r.Financials.Revenue)
		bucket.Expenses = bucket.Expenses.Add(r.Financials.Expenses)
		bucket.NetProfit = bucket.NetProfit.Add(r.Financials.NetProfit)
		bucket.ClientCount++
	}

	for _, bucket := range buckets {
		summary.MonthlySeries = append(summary.MonthlySeries, *bucket)
	}
	sort.Slice(summary.MonthlySeries, func(i, j int) bool {
		a, b := summary.MonthlySeries[i], summary.MonthlySeries[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return summary
}
