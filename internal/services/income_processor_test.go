package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"kasa/internal/core"
)

func TestProcessRecurringIncome(t *testing.T) {
	ctx := context.Background()
	st := core.NewState()
	inc, err := AddIncome(st, IncomeInput{Name: "Maaş", Amount: 5000000, Day: 15})
	if err != nil {
		t.Fatalf("AddIncome() error = %v", err)
	}

	if got := ProcessRecurringIncome(ctx, st, at(2024, 1, 10)); len(got) != 0 {
		t.Errorf("credited %d before the day, want 0", len(got))
	}

	got := ProcessRecurringIncome(ctx, st, at(2024, 1, 15))
	if len(got) != 1 {
		t.Fatalf("credited %d, want 1", len(got))
	}
	entry := got[0]
	if entry.Title != "Düzenli Gelir: Maaş" || entry.Amount.Cents != 5000000 || !entry.Date.Equal(date(2024, 1, 15)) || entry.RecurringIncomeID != inc.ID {
		t.Errorf("income entry = %+v", entry)
	}
	if again := ProcessRecurringIncome(ctx, st, at(2024, 1, 31)); len(again) != 0 {
		t.Errorf("credited twice in one month")
	}

	// February is missed entirely; only March is credited.
	got = ProcessRecurringIncome(ctx, st, at(2024, 3, 20))
	if len(got) != 1 || !got[0].Date.Equal(date(2024, 3, 15)) {
		t.Errorf("credited %+v, want only March", got)
	}
	if Balance(st) != 10000000 {
		t.Errorf("Balance() = %d, want 10000000", Balance(st))
	}
	if st.RecurringIncome[0].LastProcessedMonth != yearMonth(2024, time.March) {
		t.Errorf("LastProcessedMonth = %v, want 2024-03", st.RecurringIncome[0].LastProcessedMonth)
	}
}

func TestProcessRecurringIncome_ClampsDay(t *testing.T) {
	st := core.NewState()
	AddIncome(st, IncomeInput{Name: "Kira", Amount: 1500000, Day: 31})

	got := ProcessRecurringIncome(context.Background(), st, at(2024, 2, 29))
	if len(got) != 1 || !got[0].Date.Equal(date(2024, 2, 29)) {
		t.Errorf("credited %+v, want one entry on 2024-02-29", got)
	}
}

func TestIncomeLifecycle(t *testing.T) {
	ctx := context.Background()
	st := core.NewState()

	if _, err := AddIncome(st, IncomeInput{Name: " ", Amount: 100, Day: 1}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("AddIncome(empty) error = %v, want ErrEmptyName", err)
	}
	inc, _ := AddIncome(st, IncomeInput{Name: "Maaş", Amount: 100, Day: 1})

	if _, err := SetIncomeActive(st, inc.ID, false); err != nil {
		t.Fatalf("SetIncomeActive() error = %v", err)
	}
	if got := ProcessRecurringIncome(ctx, st, at(2024, 1, 2)); len(got) != 0 {
		t.Error("paused income was credited")
	}
	SetIncomeActive(st, inc.ID, true)
	ProcessRecurringIncome(ctx, st, at(2024, 1, 2))

	if err := DeleteIncome(st, inc.ID); err != nil {
		t.Fatalf("DeleteIncome() error = %v", err)
	}
	if len(st.RecurringIncome) != 0 || Balance(st) != 100 {
		t.Errorf("income = %d balance = %d, want 0 and the credit kept", len(st.RecurringIncome), Balance(st))
	}
	if err := DeleteIncome(st, inc.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteIncome(again) error = %v, want ErrNotFound", err)
	}
}
