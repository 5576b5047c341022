package services

import (
	"errors"
	"fmt"
	"sort"

	"kasa/internal/core"
)

// dueDateLag is the number of days between statement close and payment due.
const dueDateLag = 10

// ErrInsufficientLimit is wrapped by LimitError.
var ErrInsufficientLimit = errors.New("insufficient card limit")

// LimitError reports a rejected charge.
type LimitError struct {
	Card      string
	Amount    int64
	Remaining int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("card %q: charge of %d exceeds remaining limit %d", e.Card, e.Amount, e.Remaining)
}

func (e *LimitError) Unwrap() error { return ErrInsufficientLimit }

// Window is a billing cycle. Both ends are inclusive, the end through the
// whole cutoff day.
type Window struct {
	Start core.Date
	End   core.Date
}

func (w Window) Contains(d core.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Window) String() string {
	return w.Start.Display() + " - " + w.End.Display()
}

// BillingWindow returns the cycle containing ref shifted by periodOffset
// months. Before the cutoff day the cycle runs from last month's cutoff to
// this month's; from the cutoff day on it runs to next month's.
func BillingWindow(card core.Card, ref core.Date, periodOffset int) Window {
	d := ref.AddMonthsClamped(periodOffset)
	y, m := d.Year(), d.Month()
	if d.Day() < card.Cutoff {
		return Window{
			Start: core.ClampedDate(y, m-1, card.Cutoff),
			End:   core.ClampedDate(y, m, card.Cutoff),
		}
	}
	return Window{
		Start: core.ClampedDate(y, m, card.Cutoff),
		End:   core.ClampedDate(y, m+1, card.Cutoff),
	}
}

// DueDate is the first business day on or after ten days past the window end.
func DueDate(w Window) core.Date {
	return core.NextBusinessDay(w.End.AddDays(dueDateLag))
}

// OnCard reports whether the expense is charged to (or pays) the card.
func OnCard(e core.Expense, card core.Card) bool {
	return card.Is(e.CardID, e.Method)
}

func floorZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// CardDebt is all-time spending on the card minus all-time payments,
// floored at zero. Remaining limit and admission use this figure.
func CardDebt(st *core.State, card core.Card) int64 {
	var spends, payments int64
	for _, e := range st.Expenses {
		if !OnCard(e, card) {
			continue
		}
		if e.IsPayment {
			payments += e.Amount.Cents
		} else {
			spends += e.Amount.Cents
		}
	}
	return floorZero(spends - payments)
}

// PeriodDebt is spending minus payments inside one window, floored at zero.
// It describes a single cycle only and is not the amount owed on the card.
func PeriodDebt(st *core.State, card core.Card, w Window) int64 {
	var spends, payments int64
	for _, e := range st.Expenses {
		if !OnCard(e, card) || !w.Contains(e.ISODate) {
			continue
		}
		if e.IsPayment {
			payments += e.Amount.Cents
		} else {
			spends += e.Amount.Cents
		}
	}
	return floorZero(spends - payments)
}

// StatementDebt is spending up to the window end minus every payment ever
// made, floored at zero: what the statement closing at w.End still asks for.
func StatementDebt(st *core.State, card core.Card, w Window) int64 {
	var spends, payments int64
	for _, e := range st.Expenses {
		if !OnCard(e, card) {
			continue
		}
		switch {
		case e.IsPayment:
			payments += e.Amount.Cents
		case !e.ISODate.After(w.End):
			spends += e.Amount.Cents
		}
	}
	return floorZero(spends - payments)
}

// RemainingLimit may be negative when the limit was lowered below the debt.
func RemainingLimit(st *core.State, card core.Card) int64 {
	return card.Limit.Cents - CardDebt(st, card)
}

// CheckAdmission rejects a charge that exceeds the remaining limit. A charge
// equal to the remaining limit is admitted.
func CheckAdmission(st *core.State, card core.Card, amount int64) error {
	remaining := RemainingLimit(st, card)
	if amount > remaining {
		return &LimitError{Card: card.Name, Amount: amount, Remaining: remaining}
	}
	return nil
}

// Statement is the view of one card for one billing cycle.
type Statement struct {
	Card           core.Card
	Window         Window
	DueDate        core.Date
	PeriodDebt     int64
	StatementDebt  int64
	TotalDebt      int64
	RemainingLimit int64
	Operations     []core.Expense // newest first
}

// CardStatement assembles the statement of the cycle containing ref shifted
// by periodOffset months.
func CardStatement(st *core.State, card core.Card, ref core.Date, periodOffset int) Statement {
	w := BillingWindow(card, ref, periodOffset)
	s := Statement{
		Card:           card,
		Window:         w,
		DueDate:        DueDate(w),
		PeriodDebt:     PeriodDebt(st, card, w),
		StatementDebt:  StatementDebt(st, card, w),
		TotalDebt:      CardDebt(st, card),
		RemainingLimit: RemainingLimit(st, card),
	}
	for _, e := range st.Expenses {
		if OnCard(e, card) && w.Contains(e.ISODate) {
			s.Operations = append(s.Operations, e)
		}
	}
	sortNewestFirst(s.Operations)
	return s
}

// CardsOverview sums every card, each over its own billing window.
type CardsOverview struct {
	TotalLimit     int64
	TotalDebt      int64
	PeriodDebt     int64
	RemainingLimit int64
	Operations     []core.Expense
}

func AllCardsOverview(st *core.State, ref core.Date, periodOffset int) CardsOverview {
	var out CardsOverview
	var spends, payments int64
	for _, card := range st.Cards {
		out.TotalLimit += card.Limit.Cents
		out.TotalDebt += CardDebt(st, card)
		w := BillingWindow(card, ref, periodOffset)
		for _, e := range st.Expenses {
			if !OnCard(e, card) || !w.Contains(e.ISODate) {
				continue
			}
			out.Operations = append(out.Operations, e)
			if e.IsPayment {
				payments += e.Amount.Cents
			} else {
				spends += e.Amount.Cents
			}
		}
	}
	out.PeriodDebt = floorZero(spends - payments)
	out.RemainingLimit = out.TotalLimit - out.TotalDebt
	sortNewestFirst(out.Operations)
	return out
}

func sortNewestFirst(exps []core.Expense) {
	sort.SliceStable(exps, func(i, j int) bool {
		return exps[i].ISODate.After(exps[j].ISODate)
	})
}
