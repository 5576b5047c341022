package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kasa/internal/core"
)

func TestCreatePlan(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		day      int
		wantLast core.YearMonth
	}{
		{"day already passed", at(2024, 1, 20), 10, yearMonth(2024, time.January)},
		{"day is today", at(2024, 1, 10), 10, core.YearMonth{}},
		{"day still ahead", at(2024, 1, 5), 10, core.YearMonth{}},
		{"day 31 clamps to today", at(2024, 2, 29), 31, core.YearMonth{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := core.NewState()
			p, err := CreatePlan(st, PlanInput{Name: "Netflix", Amount: 10000, Day: tt.day, Method: "Nakit", AutoPay: true}, tt.now)
			if err != nil {
				t.Fatalf("CreatePlan() error = %v", err)
			}
			if p.LastProcessedMonth != tt.wantLast {
				t.Errorf("LastProcessedMonth = %v, want %v", p.LastProcessedMonth, tt.wantLast)
			}
			if !p.Active || p.CashbackType != core.CashbackNone {
				t.Errorf("CreatePlan() = %+v, want active with no cashback", p)
			}
		})
	}
}

func TestCreatePlanValidation(t *testing.T) {
	st, _ := stateWithCard(t, "Bonus", 15, 5000)
	now := at(2024, 1, 5)

	if _, err := CreatePlan(st, PlanInput{Name: "Gym", Amount: 10000, Day: 10, Method: "bonus"}, now); !errors.Is(err, ErrInsufficientLimit) {
		t.Errorf("CreatePlan(over limit) error = %v, want ErrInsufficientLimit", err)
	}
	if _, err := CreatePlan(st, PlanInput{Name: "Gym", Amount: 1000, Day: 32, Method: "Nakit"}, now); !errors.Is(err, core.ErrInvalidDay) {
		t.Errorf("CreatePlan(day 32) error = %v, want ErrInvalidDay", err)
	}
	if _, err := CreatePlan(st, PlanInput{Name: "Gym", Amount: 1000, Day: 1, Method: "Nakit", CashbackType: core.CashbackPercent, CashbackValue: decimal.NewFromInt(101)}, now); !errors.Is(err, core.ErrInvalidCashback) {
		t.Errorf("CreatePlan(101%%) error = %v, want ErrInvalidCashback", err)
	}
	if len(st.RecurringPlans) != 0 {
		t.Errorf("rejected plans were stored: %+v", st.RecurringPlans)
	}

	p, err := CreatePlan(st, PlanInput{Name: "Music", Amount: 3000, Day: 10, Method: "BONUS"}, now)
	if err != nil {
		t.Fatalf("CreatePlan() error = %v", err)
	}
	if p.CardID == "" || p.Method != "Bonus" {
		t.Errorf("card plan = %+v, want bound to Bonus", p)
	}
}

func TestUpdatePlanRewritesCurrentMonth(t *testing.T) {
	ctx := context.Background()
	st := core.NewState()
	p, _ := CreatePlan(st, PlanInput{Name: "Netflix", Amount: 10000, Day: 10, Method: "Nakit", AutoPay: true}, at(2024, 1, 5))
	ProcessRecurringPlans(ctx, st, at(2024, 1, 12))
	original := st.Expenses[0]

	if _, err := UpdatePlan(st, p.ID, PlanInput{Name: "Netflix", Amount: 12000, Day: 11, Method: "Nakit", AutoPay: true}, at(2024, 1, 12)); err != nil {
		t.Fatalf("UpdatePlan() error = %v", err)
	}
	if len(st.Expenses) != 1 {
		t.Fatalf("expenses = %d, want the current month rewritten in place", len(st.Expenses))
	}
	e := st.Expenses[0]
	if e.ID != original.ID || e.Amount.Cents != 12000 || !e.ISODate.Equal(date(2024, 1, 11)) {
		t.Errorf("rewritten expense = %+v", e)
	}
	last := st.BalanceLogs[len(st.BalanceLogs)-1]
	if last.Amount.Cents != -2000 || last.Title != "Düzeltme: Netflix" {
		t.Errorf("adjustment entry = %+v, want -2000", last)
	}
	if Balance(st) != -12000 {
		t.Errorf("Balance() = %d, want -12000", Balance(st))
	}
}

func TestUpdatePlanMovesToCard(t *testing.T) {
	ctx := context.Background()
	st, card := stateWithCard(t, "Bonus", 15, 100000)
	p, _ := CreatePlan(st, PlanInput{Name: "Netflix", Amount: 10000, Day: 10, Method: "Nakit", AutoPay: true}, at(2024, 1, 5))
	ProcessRecurringPlans(ctx, st, at(2024, 1, 12))

	if _, err := UpdatePlan(st, p.ID, PlanInput{Name: "Netflix", Amount: 10000, Day: 10, Method: "Bonus", AutoPay: true}, at(2024, 1, 12)); err != nil {
		t.Fatalf("UpdatePlan() error = %v", err)
	}
	if Balance(st) != 0 {
		t.Errorf("Balance() = %d, want the cash payment refunded", Balance(st))
	}
	if CardDebt(st, card) != 10000 {
		t.Errorf("CardDebt() = %d, want 10000", CardDebt(st, card))
	}
}

func TestPauseAndResumePlan(t *testing.T) {
	ctx := context.Background()
	st := core.NewState()
	p, _ := CreatePlan(st, PlanInput{Name: "Gym", Amount: 5000, Day: 1, Method: "Nakit", AutoPay: true}, at(2024, 1, 1))
	ProcessRecurringPlans(ctx, st, at(2024, 2, 3))
	if len(st.Expenses) != 2 {
		t.Fatalf("expenses = %d, want 2", len(st.Expenses))
	}

	if _, err := SetPlanActive(ctx, st, p.ID, false, at(2024, 2, 3)); err != nil {
		t.Fatalf("SetPlanActive(false) error = %v", err)
	}
	if len(st.Expenses) != 1 || !st.Expenses[0].ISODate.Equal(date(2024, 1, 1)) {
		t.Errorf("pausing should only drop February: %+v", st.Expenses)
	}
	if Balance(st) != -5000 {
		t.Errorf("Balance() = %d, want -5000", Balance(st))
	}

	resumed, err := SetPlanActive(ctx, st, p.ID, true, at(2024, 2, 4))
	if err != nil {
		t.Fatalf("SetPlanActive(true) error = %v", err)
	}
	if !resumed.Active {
		t.Error("plan should be active after resume")
	}
	if len(st.Expenses) != 1 {
		t.Errorf("resume re-charged an already processed month: %d expenses", len(st.Expenses))
	}

	ProcessRecurringPlans(ctx, st, at(2024, 3, 1))
	if len(st.Expenses) != 2 {
		t.Errorf("expenses = %d, want March charged after resume", len(st.Expenses))
	}
}

func TestResumeSkipsPausedMonths(t *testing.T) {
	ctx := context.Background()
	st := core.NewState()
	p, _ := CreatePlan(st, PlanInput{Name: "Netflix", Amount: 5000, Day: 1, Method: "Nakit", AutoPay: true}, at(2024, 1, 1))
	ProcessRecurringPlans(ctx, st, at(2024, 1, 1))

	if _, err := SetPlanActive(ctx, st, p.ID, false, at(2024, 1, 20)); err != nil {
		t.Fatalf("SetPlanActive(false) error = %v", err)
	}
	// a paused plan is left alone by the engine
	ProcessRecurringPlans(ctx, st, at(2024, 3, 15))
	if len(st.Expenses) != 0 {
		t.Fatalf("paused plan charged: %+v", st.Expenses)
	}

	resumed, err := SetPlanActive(ctx, st, p.ID, true, at(2024, 5, 10))
	if err != nil {
		t.Fatalf("SetPlanActive(true) error = %v", err)
	}
	if len(st.Expenses) != 1 || !st.Expenses[0].ISODate.Equal(date(2024, 5, 1)) {
		t.Fatalf("expenses after resume = %+v, want only 2024-05-01", st.Expenses)
	}
	if Balance(st) != -5000 {
		t.Errorf("Balance() = %d, want -5000", Balance(st))
	}
	if want := (core.YearMonth{Year: 2024, Month: time.May}); resumed.LastProcessedMonth != want {
		t.Errorf("LastProcessedMonth = %v, want %v", resumed.LastProcessedMonth, want)
	}

	ProcessRecurringPlans(ctx, st, at(2024, 6, 2))
	if len(st.Expenses) != 2 {
		t.Errorf("expenses = %d, want June charged after resume", len(st.Expenses))
	}
}

func TestResumeBeforeDueDayWaits(t *testing.T) {
	ctx := context.Background()
	st := core.NewState()
	p, _ := CreatePlan(st, PlanInput{Name: "Spotify", Amount: 3000, Day: 20, Method: "Nakit", AutoPay: true}, at(2024, 1, 5))
	ProcessRecurringPlans(ctx, st, at(2024, 1, 25))
	SetPlanActive(ctx, st, p.ID, false, at(2024, 2, 10))

	if _, err := SetPlanActive(ctx, st, p.ID, true, at(2024, 4, 10)); err != nil {
		t.Fatalf("SetPlanActive(true) error = %v", err)
	}
	if len(st.Expenses) != 1 {
		t.Fatalf("expenses = %d, want only January before April 20", len(st.Expenses))
	}
	ProcessRecurringPlans(ctx, st, at(2024, 4, 20))
	if len(st.Expenses) != 2 || !st.Expenses[1].ISODate.Equal(date(2024, 4, 20)) {
		t.Errorf("expenses = %+v, want April charged on its day", st.Expenses)
	}
}

func TestDeletePlanKeepsHistory(t *testing.T) {
	ctx := context.Background()
	st := core.NewState()
	p, _ := CreatePlan(st, PlanInput{Name: "Gym", Amount: 5000, Day: 1, Method: "Nakit", AutoPay: true}, at(2024, 1, 1))
	ProcessRecurringPlans(ctx, st, at(2024, 2, 3))

	if _, err := DeletePlan(st, p.ID, at(2024, 2, 3)); err != nil {
		t.Fatalf("DeletePlan() error = %v", err)
	}
	if len(st.RecurringPlans) != 0 || len(st.Expenses) != 1 {
		t.Errorf("plans = %d expenses = %d, want 0 and 1", len(st.RecurringPlans), len(st.Expenses))
	}
	if Balance(st) != -5000 {
		t.Errorf("Balance() = %d, want -5000", Balance(st))
	}
	if _, err := DeletePlan(st, p.ID, at(2024, 2, 3)); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeletePlan(again) error = %v, want ErrNotFound", err)
	}
}

func TestCampaignStatus(t *testing.T) {
	today := date(2024, 1, 1)
	ten := decimal.NewFromInt(10)

	tests := []struct {
		name string
		plan core.RecurringPlan
		want CampaignState
	}{
		{"no cashback", core.RecurringPlan{CashbackType: core.CashbackNone}, CampaignNone},
		{"zero value", core.RecurringPlan{CashbackType: core.CashbackPercent}, CampaignNone},
		{"open ended", core.RecurringPlan{CashbackType: core.CashbackPercent, CashbackValue: ten}, CampaignRunning},
		{"expired", core.RecurringPlan{CashbackType: core.CashbackFixed, CashbackValue: ten, CampaignEndDate: date(2023, 12, 31)}, CampaignExpired},
		{"ends on the day", core.RecurringPlan{CashbackType: core.CashbackFixed, CashbackValue: ten, CampaignEndDate: today}, CampaignEndingSoon},
		{"ending soon", core.RecurringPlan{CashbackType: core.CashbackPercent, CashbackValue: ten, CampaignEndDate: date(2024, 1, 20)}, CampaignEndingSoon},
		{"far away", core.RecurringPlan{CashbackType: core.CashbackPercent, CashbackValue: ten, CampaignEndDate: date(2024, 3, 1)}, CampaignRunning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CampaignStatus(tt.plan, today); got != tt.want {
				t.Errorf("CampaignStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyCommitment(t *testing.T) {
	st := core.NewState()
	now := at(2024, 1, 1)
	CreatePlan(st, PlanInput{Name: "A", Amount: 10000, Day: 5, Method: "Nakit", CashbackType: core.CashbackPercent, CashbackValue: decimal.NewFromInt(10)}, now)
	CreatePlan(st, PlanInput{Name: "B", Amount: 5000, Day: 5, Method: "Nakit"}, now)
	c, _ := CreatePlan(st, PlanInput{Name: "C", Amount: 3000, Day: 5, Method: "Nakit"}, now)
	SetPlanActive(context.Background(), st, c.ID, false, now)

	if got := MonthlyCommitment(st, yearMonth(2024, time.January)); got != 14000 {
		t.Errorf("MonthlyCommitment() = %d, want 14000", got)
	}
}
