// Package services provides the ledger's business logic.
//
// This file holds the strategies that decide which months a monthly
// obligation still owes. Recurring plans catch up on every missed month;
// recurring income only ever looks at the current one.
package services

import (
	"kasa/internal/core"
)

// DuenessChecker returns the months, oldest first, that must be
// materialized for an obligation falling on day each month.
//
// last is the most recent processed month (zero if never), start is the
// first month to consider when last is zero.
type DuenessChecker interface {
	DueMonths(last, start core.YearMonth, day int, today core.Date) []core.YearMonth
}

// BackfillChecker walks forward one month at a time from the month after
// last (or from start) up to today's month. The current month is included
// only once its clamped day has been reached.
type BackfillChecker struct{}

func (BackfillChecker) DueMonths(last, start core.YearMonth, day int, today core.Date) []core.YearMonth {
	current := core.MonthOf(today)
	ym := start
	if !last.IsZero() {
		ym = last.Next()
	}
	if ym.IsZero() {
		ym = current
	}
	var out []core.YearMonth
	for !current.Before(ym) {
		if ym == current && today.Before(ym.Day(day)) {
			break
		}
		out = append(out, ym)
		ym = ym.Next()
	}
	return out
}

// CurrentMonthChecker owes at most the current month, once its clamped day
// has been reached and it was not processed yet. Missed months are not
// caught up.
type CurrentMonthChecker struct{}

func (CurrentMonthChecker) DueMonths(last, _ core.YearMonth, day int, today core.Date) []core.YearMonth {
	current := core.MonthOf(today)
	if (!last.IsZero() && !last.Before(current)) || today.Before(current.Day(day)) {
		return nil
	}
	return []core.YearMonth{current}
}
