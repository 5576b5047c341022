package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthOverview is a compact summary of spending in one calendar month.
type MonthOverview struct {
	Month      YearMonth
	Total      Money
	Wallet     Money // part of Total that left the wallet directly
	Card       Money // part of Total charged to cards
	ByCategory []CategoryAmount
}

// SummarizeMonth aggregates the month's spending. Debt payments are
// transfers, not spending, and are left out.
func SummarizeMonth(expenses []Expense, ym YearMonth) MonthOverview {
	out := MonthOverview{Month: ym}
	byCat := make(map[string]int64)
	for _, e := range expenses {
		if e.IsPayment || !ym.Contains(e.ISODate) {
			continue
		}
		out.Total.Cents += e.Amount.Cents
		if e.IsCredit {
			out.Card.Cents += e.Amount.Cents
		} else {
			out.Wallet.Cents += e.Amount.Cents
		}
		byCat[e.Category] += e.Amount.Cents
	}
	for name, cents := range byCat {
		out.ByCategory = append(out.ByCategory, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	sort.Slice(out.ByCategory, func(i, j int) bool {
		a, b := out.ByCategory[i], out.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Name < b.Name
	})
	return out
}
