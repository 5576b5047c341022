package services

import (
	"errors"
	"testing"

	"kasa/internal/core"
)

func TestAddCard(t *testing.T) {
	st, card := stateWithCard(t, "Bonus", 15, 100000)
	if card.ID == "" {
		t.Error("AddCard() should assign an id")
	}
	if st.Methods[len(st.Methods)-1] != "Bonus" {
		t.Errorf("Methods = %v, want Bonus appended", st.Methods)
	}
	if _, err := AddCard(st, CardInput{Name: " bonus", Cutoff: 1, Limit: 1}); !errors.Is(err, ErrDuplicateCard) {
		t.Errorf("AddCard(duplicate) error = %v, want ErrDuplicateCard", err)
	}
	if _, err := AddCard(st, CardInput{Name: "World", Cutoff: 32, Limit: 1}); !errors.Is(err, core.ErrInvalidCutoff) {
		t.Errorf("AddCard(cutoff 32) error = %v, want ErrInvalidCutoff", err)
	}
}

func TestUpdateCardRenameRepointsLabels(t *testing.T) {
	st, card := stateWithCard(t, "Bonus", 15, 100000)
	now := at(2024, 1, 10)
	AddCreditExpense(st, card.ID, ExpenseInput{Merchant: "X", Amount: 1000, Category: "Diğer", Date: date(2024, 1, 5)}, 1)
	// A legacy record that only carries the label.
	st.Expenses = append(st.Expenses, core.Expense{ID: "legacy", Merchant: "Y", Amount: core.Money{Cents: 500}, Method: "BONUS", IsCredit: true, ISODate: date(2024, 1, 6)})
	plan, err := CreatePlan(st, PlanInput{Name: "Netflix", Amount: 20000, Day: 20, Method: "Bonus"}, now)
	if err != nil {
		t.Fatalf("CreatePlan() error = %v", err)
	}

	if _, err := UpdateCard(st, card.ID, CardInput{Name: "Bonus Platinum", Cutoff: 20, Limit: 200000}); err != nil {
		t.Fatalf("UpdateCard() error = %v", err)
	}
	for _, e := range st.Expenses {
		if e.Method != "Bonus Platinum" || e.CardID != card.ID {
			t.Errorf("expense %s = %s/%s, want re-pointed", e.ID, e.Method, e.CardID)
		}
	}
	if p := st.RecurringPlans[st.PlanIndex(plan.ID)]; p.Method != "Bonus Platinum" {
		t.Errorf("plan method = %q, want Bonus Platinum", p.Method)
	}
	for _, m := range st.Methods {
		if m == "Bonus" {
			t.Error("old card name should leave the methods list")
		}
	}
	updated, _ := st.CardByID(card.ID)
	if CardDebt(st, *updated) != 1500 {
		t.Errorf("CardDebt() = %d, want 1500 after rename", CardDebt(st, *updated))
	}
}

func TestDeleteCardCascades(t *testing.T) {
	st, card := stateWithCard(t, "Bonus", 15, 100000)
	now := at(2024, 1, 10)
	AddCreditExpense(st, card.ID, ExpenseInput{Merchant: "X", Amount: 1000, Category: "Diğer", Date: date(2024, 1, 5)}, 2)
	PayDebt(st, card.ID, 500, date(2024, 1, 8), now)
	AddExpense(st, ExpenseInput{Merchant: "Migros", Amount: 300, Method: "Nakit", Category: "Market", Date: date(2024, 1, 6)}, now)
	CreatePlan(st, PlanInput{Name: "Netflix", Amount: 20000, Day: 20, Method: "Bonus"}, now)
	balance := Balance(st)

	exps, plans, err := DeleteCard(st, card.ID)
	if err != nil {
		t.Fatalf("DeleteCard() error = %v", err)
	}
	if exps != 3 || plans != 1 {
		t.Errorf("DeleteCard() removed %d expenses %d plans, want 3 and 1", exps, plans)
	}
	if len(st.Expenses) != 1 || st.Expenses[0].Merchant != "Migros" {
		t.Errorf("remaining expenses = %+v, want only Migros", st.Expenses)
	}
	if Balance(st) != balance {
		t.Error("deleting a card must not write wallet entries")
	}
	if _, _, err := DeleteCard(st, card.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteCard(again) error = %v, want ErrNotFound", err)
	}
}
