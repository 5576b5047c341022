package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kasa/internal/core"
)

// ProcessRecurringIncome credits every active income whose day has come this
// month and that has not been credited yet. Missed months are not caught up.
func ProcessRecurringIncome(ctx context.Context, st *core.State, now time.Time) []core.BalanceLog {
	today := core.Today(now)
	checker := CurrentMonthChecker{}
	var credited []core.BalanceLog

	for i := range st.RecurringIncome {
		inc := &st.RecurringIncome[i]
		if !inc.Active {
			continue
		}
		for _, ym := range checker.DueMonths(inc.LastProcessedMonth, core.YearMonth{}, inc.Day, today) {
			entry, err := AppendEntry(st, core.BalanceLog{
				Title:             "Düzenli Gelir: " + inc.Name,
				Amount:            inc.Amount,
				Date:              ym.Day(inc.Day),
				RecurringIncomeID: inc.ID,
			}, now)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to credit recurring income",
					"income_id", inc.ID,
					"month", ym.String(),
					"error", err)
				continue
			}
			inc.LastProcessedMonth = ym
			credited = append(credited, entry)
			slog.InfoContext(ctx, "Credited recurring income",
				"income_id", inc.ID,
				"income", inc.Name,
				"month", ym.String(),
				"amount_cents", entry.Amount.Cents)
		}
	}
	return credited
}

// IncomeInput carries the editable fields of a recurring income.
type IncomeInput struct {
	Name   string
	Amount int64
	Day    int
}

// AddIncome registers an active recurring income. The first credit happens
// on the next engine pass once its day has come.
func AddIncome(st *core.State, in IncomeInput) (core.RecurringIncome, error) {
	inc := core.RecurringIncome{
		ID:     core.NewID(),
		Name:   strings.TrimSpace(in.Name),
		Amount: core.Money{Cents: in.Amount},
		Day:    in.Day,
		Active: true,
	}
	if err := inc.Validate(); err != nil {
		return core.RecurringIncome{}, fmt.Errorf("add income: %w", err)
	}
	st.RecurringIncome = append(st.RecurringIncome, inc)
	return inc, nil
}

// DeleteIncome removes an income definition. Entries it already credited
// stay in the wallet.
func DeleteIncome(st *core.State, id core.ID) error {
	idx := st.IncomeIndex(id)
	if idx < 0 {
		return fmt.Errorf("income %s: %w", id, core.ErrNotFound)
	}
	st.RecurringIncome = append(st.RecurringIncome[:idx], st.RecurringIncome[idx+1:]...)
	return nil
}

// SetIncomeActive pauses or resumes an income.
func SetIncomeActive(st *core.State, id core.ID, active bool) (core.RecurringIncome, error) {
	idx := st.IncomeIndex(id)
	if idx < 0 {
		return core.RecurringIncome{}, fmt.Errorf("income %s: %w", id, core.ErrNotFound)
	}
	st.RecurringIncome[idx].Active = active
	return st.RecurringIncome[idx], nil
}
