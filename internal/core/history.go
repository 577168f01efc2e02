package core

import (
	"sort"
	"strings"
)

// MonthSummary totals a list of transactions by type.
type MonthSummary struct {
	Month        string `json:"month"` // YYYY-MM, empty for "all months"
	IncomeTotal  int64  `json:"income_total"`
	ExpenseTotal int64  `json:"expense_total"`
	Count        int    `json:"count"`
}

// SortTransactions orders transactions by date, newest first, then by creation time.
func SortTransactions(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.After(txs[j].Date.Time)
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}

// RecentTransactions returns up to n of the newest transactions.
func RecentTransactions(txs []Transaction, n int) []Transaction {
	sorted := append([]Transaction(nil), txs...)
	SortTransactions(sorted)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// AvailableMonths lists the distinct YYYY-MM keys present, newest first.
func AvailableMonths(txs []Transaction) []string {
	seen := map[string]struct{}{}
	for _, tx := range txs {
		seen[tx.Date.MonthKey()] = struct{}{}
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// FilterByMonth keeps transactions in the given YYYY-MM month. An empty month keeps all.
func FilterByMonth(txs []Transaction, month string) []Transaction {
	month = strings.TrimSpace(month)
	if month == "" {
		return append([]Transaction(nil), txs...)
	}
	var out []Transaction
	for _, tx := range txs {
		if tx.Date.MonthKey() == month {
			out = append(out, tx)
		}
	}
	return out
}

// SummarizeMonth totals income and expense amounts of txs.
func SummarizeMonth(month string, txs []Transaction) MonthSummary {
	s := MonthSummary{Month: month, Count: len(txs)}
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			s.IncomeTotal += tx.Amount
		case Expense:
			s.ExpenseTotal += tx.Amount
		}
	}
	return s
}
