package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"kasa/internal/core"
)

// RecurringReport summarizes one pass of the recurring engine.
type RecurringReport struct {
	Materialized []core.Expense
	Skipped      int // months dropped for insufficient card limit
	Income       []core.BalanceLog
}

// Changed reports whether the pass touched the state.
func (r RecurringReport) Changed() bool {
	return len(r.Materialized) > 0 || r.Skipped > 0 || len(r.Income) > 0
}

// ProcessRecurringPlans materializes every month owed by active auto-pay
// plans, catching up months missed while the program was not running.
//
// For each owed month the net amount (after any campaign cashback) is
// admission checked when the plan pays with a card. A rejected month is
// skipped for good. Either way the plan's marker advances, so calling this
// again with the same clock changes nothing.
func ProcessRecurringPlans(ctx context.Context, st *core.State, now time.Time) RecurringReport {
	var report RecurringReport
	today := core.Today(now)
	checker := BackfillChecker{}

	for i := range st.RecurringPlans {
		p := &st.RecurringPlans[i]
		if !p.Active || !p.AutoPay {
			continue
		}
		var start core.YearMonth
		if !p.CreatedAt.IsZero() {
			start = core.MonthOf(core.Today(p.CreatedAt))
		}
		for _, ym := range checker.DueMonths(p.LastProcessedMonth, start, p.Day, today) {
			e, err := materializePlan(st, *p, ym, now)
			var limitErr *LimitError
			switch {
			case errors.As(err, &limitErr):
				report.Skipped++
				slog.WarnContext(ctx, "Skipped recurring payment, insufficient limit",
					"plan_id", p.ID,
					"plan", p.Name,
					"month", ym.String(),
					"amount_cents", limitErr.Amount,
					"remaining_cents", limitErr.Remaining)
			case err != nil:
				slog.ErrorContext(ctx, "Failed to materialize recurring payment",
					"plan_id", p.ID,
					"month", ym.String(),
					"error", err)
			default:
				report.Materialized = append(report.Materialized, e)
				slog.InfoContext(ctx, "Created expense from recurring plan",
					"plan_id", p.ID,
					"plan", p.Name,
					"month", ym.String(),
					"amount_cents", e.Amount.Cents,
					"card", e.IsCredit)
			}
			p.LastProcessedMonth = ym
		}
	}

	if len(report.Materialized) > 0 || report.Skipped > 0 {
		slog.InfoContext(ctx, "Recurring plan processing complete",
			"materialized", len(report.Materialized),
			"skipped", report.Skipped,
			"processing_date", today.ISO())
	}
	return report
}

// materializePlan creates the plan's expense for one month. Card plans are
// admission checked and stay off the wallet; other plans are paid out of it.
func materializePlan(st *core.State, p core.RecurringPlan, ym core.YearMonth, now time.Time) (core.Expense, error) {
	occ := ym.Day(p.Day)
	net := p.NetAmount(occ)
	card, isCard := st.ResolveCard(p.CardID, p.Method)
	if isCard {
		if err := CheckAdmission(st, *card, net); err != nil {
			return core.Expense{}, err
		}
	}
	e := planExpense(p, occ, net, card)
	st.Expenses = append(st.Expenses, e)
	recordDelta(st, "Otomatik Ödeme: "+p.Name, e.WalletEffect(), occ, now)
	return e, nil
}

func planExpense(p core.RecurringPlan, occ core.Date, net int64, card *core.Card) core.Expense {
	e := core.Expense{
		ID:              core.NewID(),
		Merchant:        p.Name,
		Amount:          core.Money{Cents: net},
		Method:          p.Method,
		Category:        core.CategoryRecurring,
		ISODate:         occ,
		DisplayDate:     occ.Display(),
		IsRecurring:     true,
		RecurringPlanID: p.ID,
	}
	if card != nil {
		e.IsCredit = true
		e.Method = card.Name
		e.CardID = card.ID
	}
	return e
}
