package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kasa/internal/core"
)

// campaignWarningDays is how close to its end a campaign is flagged.
const campaignWarningDays = 30

// PlanInput carries the editable fields of a recurring plan.
type PlanInput struct {
	Name            string
	Amount          int64
	Day             int
	Method          string
	AutoPay         bool
	Icon            string
	CashbackType    core.CashbackType
	CashbackValue   decimal.Decimal
	CampaignEndDate core.Date
}

func (in PlanInput) apply(p core.RecurringPlan) core.RecurringPlan {
	p.Name = strings.TrimSpace(in.Name)
	p.Amount = core.Money{Cents: in.Amount}
	p.Day = in.Day
	p.Method = strings.TrimSpace(in.Method)
	p.AutoPay = in.AutoPay
	p.Icon = in.Icon
	p.CashbackType = in.CashbackType
	if p.CashbackType == "" {
		p.CashbackType = core.CashbackNone
	}
	p.CashbackValue = in.CashbackValue
	p.CampaignEndDate = in.CampaignEndDate
	return p
}

// bindCard points the plan at the card its method names, if any.
func bindCard(st *core.State, p *core.RecurringPlan) *core.Card {
	p.CardID = ""
	card, ok := st.CardByName(p.Method)
	if !ok {
		return nil
	}
	p.CardID = card.ID
	p.Method = card.Name
	return card
}

// CreatePlan registers an active plan. Card plans must fit in the remaining
// limit. When the plan's day has already passed this month the current month
// is marked as processed, so the first charge happens next month.
func CreatePlan(st *core.State, in PlanInput, now time.Time) (core.RecurringPlan, error) {
	p := in.apply(core.RecurringPlan{ID: core.NewID(), Active: true, CreatedAt: now})
	if err := p.Validate(); err != nil {
		return core.RecurringPlan{}, fmt.Errorf("create plan: %w", err)
	}
	if card := bindCard(st, &p); card != nil {
		if err := CheckAdmission(st, *card, p.Amount.Cents); err != nil {
			return core.RecurringPlan{}, err
		}
	}
	today := core.Today(now)
	current := core.MonthOf(today)
	if current.Day(p.Day).Before(today) {
		p.LastProcessedMonth = current
	}
	st.RecurringPlans = append(st.RecurringPlans, p)
	return p, nil
}

// currentExpenseIndex finds the plan's materialized expense for the month.
func currentExpenseIndex(st *core.State, planID core.ID, ym core.YearMonth) int {
	for i, e := range st.Expenses {
		if e.RecurringPlanID == planID && ym.Contains(e.ISODate) {
			return i
		}
	}
	return -1
}

// UpdatePlan edits a plan. When this month was already processed its
// materialized expense is overwritten in place with the recalculated amount,
// date and payment method, and the change in wallet effect is recorded.
func UpdatePlan(st *core.State, id core.ID, in PlanInput, now time.Time) (core.RecurringPlan, error) {
	idx := st.PlanIndex(id)
	if idx < 0 {
		return core.RecurringPlan{}, fmt.Errorf("plan %s: %w", id, core.ErrNotFound)
	}
	p := in.apply(st.RecurringPlans[idx])
	if err := p.Validate(); err != nil {
		return core.RecurringPlan{}, fmt.Errorf("update plan: %w", err)
	}
	card := bindCard(st, &p)

	current := core.MonthOf(core.Today(now))
	expIdx := -1
	if p.LastProcessedMonth == current {
		expIdx = currentExpenseIndex(st, id, current)
	}

	if card != nil {
		charge := p.Amount.Cents
		if expIdx >= 0 {
			charge = p.NetAmount(current.Day(p.Day))
			if old := st.Expenses[expIdx]; old.IsCredit && !old.IsPayment && card.Is(old.CardID, old.Method) {
				charge -= old.Amount.Cents
			}
		}
		if err := CheckAdmission(st, *card, charge); err != nil {
			return core.RecurringPlan{}, err
		}
	}

	st.RecurringPlans[idx] = p
	if expIdx < 0 {
		return p, nil
	}

	old := st.Expenses[expIdx]
	occ := current.Day(p.Day)
	e := planExpense(p, occ, p.NetAmount(occ), card)
	e.ID = old.ID
	e.Description = old.Description
	st.Expenses[expIdx] = e
	recordDelta(st, "Düzeltme: "+p.Name, e.WalletEffect()-old.WalletEffect(), core.Today(now), now)
	return p, nil
}

// removeCurrentExpense drops the plan's expense for the current month and
// reverses its wallet effect.
func removeCurrentExpense(st *core.State, plan core.RecurringPlan, now time.Time) bool {
	idx := currentExpenseIndex(st, plan.ID, core.MonthOf(core.Today(now)))
	if idx < 0 {
		return false
	}
	e := st.Expenses[idx]
	st.Expenses = append(st.Expenses[:idx], st.Expenses[idx+1:]...)
	recordDelta(st, "İade: "+plan.Name, -e.WalletEffect(), core.Today(now), now)
	return true
}

// SetPlanActive pauses or resumes a plan. Pausing removes this month's
// materialized expense; earlier months stay. Months that passed while the
// plan was paused are never charged: resuming moves the marker up to last
// month, then runs the engine so the current month is charged immediately
// when its day has come and it was not processed before the pause.
func SetPlanActive(ctx context.Context, st *core.State, id core.ID, active bool, now time.Time) (core.RecurringPlan, error) {
	idx := st.PlanIndex(id)
	if idx < 0 {
		return core.RecurringPlan{}, fmt.Errorf("plan %s: %w", id, core.ErrNotFound)
	}
	p := &st.RecurringPlans[idx]
	wasActive := p.Active
	p.Active = active
	switch {
	case !active:
		removeCurrentExpense(st, *p, now)
	case !wasActive:
		if prev := core.MonthOf(core.Today(now)).Prev(); p.LastProcessedMonth.Before(prev) {
			p.LastProcessedMonth = prev
		}
		ProcessRecurringPlans(ctx, st, now)
	}
	return st.RecurringPlans[idx], nil
}

// DeletePlan removes a plan and this month's materialized expense. Earlier
// months stay as history.
func DeletePlan(st *core.State, id core.ID, now time.Time) (core.RecurringPlan, error) {
	idx := st.PlanIndex(id)
	if idx < 0 {
		return core.RecurringPlan{}, fmt.Errorf("plan %s: %w", id, core.ErrNotFound)
	}
	p := st.RecurringPlans[idx]
	removeCurrentExpense(st, p, now)
	st.RecurringPlans = append(st.RecurringPlans[:idx], st.RecurringPlans[idx+1:]...)
	return p, nil
}

// CampaignState describes a plan's cashback campaign as of a date.
type CampaignState int

const (
	CampaignNone CampaignState = iota
	CampaignRunning
	CampaignEndingSoon
	CampaignExpired
)

func (s CampaignState) String() string {
	switch s {
	case CampaignRunning:
		return "running"
	case CampaignEndingSoon:
		return "ending soon"
	case CampaignExpired:
		return "expired"
	}
	return "none"
}

// CampaignStatus classifies the plan's campaign on the given day.
func CampaignStatus(p core.RecurringPlan, today core.Date) CampaignState {
	if p.CashbackType == "" || p.CashbackType == core.CashbackNone || p.CashbackValue.IsZero() {
		return CampaignNone
	}
	if p.CampaignEndDate.IsZero() {
		return CampaignRunning
	}
	if today.After(p.CampaignEndDate) {
		return CampaignExpired
	}
	if p.CampaignEndDate.Before(today.AddDays(campaignWarningDays)) {
		return CampaignEndingSoon
	}
	return CampaignRunning
}

// MonthlyCommitment is the sum of what every active plan costs in the
// given month after cashback.
func MonthlyCommitment(st *core.State, ym core.YearMonth) int64 {
	var total int64
	for _, p := range st.RecurringPlans {
		if p.Active {
			total += p.NetAmount(ym.Day(p.Day))
		}
	}
	return total
}
