package services

import (
	"errors"
	"testing"

	"kasa/internal/core"
)

func TestAddExpense(t *testing.T) {
	st, _ := stateWithCard(t, "Bonus", 15, 100000)
	now := at(2024, 1, 10)

	tests := []struct {
		name    string
		in      ExpenseInput
		wantErr error
	}{
		{"empty merchant", ExpenseInput{Merchant: " ", Amount: 100, Method: "Nakit", Date: date(2024, 1, 1)}, core.ErrEmptyMerchant},
		{"zero amount", ExpenseInput{Merchant: "A", Amount: 0, Method: "Nakit", Date: date(2024, 1, 1)}, core.ErrInvalidAmount},
		{"missing date", ExpenseInput{Merchant: "A", Amount: 100, Method: "Nakit"}, core.ErrInvalidDate},
		{"card method", ExpenseInput{Merchant: "A", Amount: 100, Method: "bonus ", Date: date(2024, 1, 1)}, ErrCardMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := AddExpense(st, tt.in, now); !errors.Is(err, tt.wantErr) {
				t.Errorf("AddExpense() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if len(st.Expenses) != 0 || len(st.BalanceLogs) != 0 {
		t.Fatal("rejected expenses must leave the state untouched")
	}

	e, err := AddExpense(st, ExpenseInput{Merchant: " Migros ", Amount: 12550, Method: "Nakit", Category: "Market", Date: date(2024, 1, 5)}, now)
	if err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}
	if e.Merchant != "Migros" || e.DisplayDate != "05.01.2024" || e.IsCredit {
		t.Errorf("AddExpense() = %+v", e)
	}
	if Balance(st) != -12550 {
		t.Errorf("Balance() = %d, want -12550", Balance(st))
	}
	if len(st.Merchants) != 1 || st.Merchants[0] != "Migros" {
		t.Errorf("Merchants = %v, want [Migros]", st.Merchants)
	}
}

func TestAddCreditExpenseInstallments(t *testing.T) {
	st, card := stateWithCard(t, "Bonus", 15, 1000000)

	got, err := AddCreditExpense(st, card.ID, ExpenseInput{Merchant: "Teknosa", Amount: 10001, Category: "Teknoloji", Date: date(2024, 1, 31)}, 3)
	if err != nil {
		t.Fatalf("AddCreditExpense() error = %v", err)
	}
	wantAmounts := []int64{3335, 3333, 3333}
	wantDates := []core.Date{date(2024, 1, 31), date(2024, 2, 29), date(2024, 3, 31)}
	wantLabels := []string{"Teknosa (1/3)", "Teknosa (2/3)", "Teknosa (3/3)"}
	var sum int64
	for i, e := range got {
		sum += e.Amount.Cents
		if e.Amount.Cents != wantAmounts[i] || !e.ISODate.Equal(wantDates[i]) || e.Merchant != wantLabels[i] {
			t.Errorf("installment %d = %s %d %s, want %s %d %s", i, e.Merchant, e.Amount.Cents, e.ISODate, wantLabels[i], wantAmounts[i], wantDates[i])
		}
		if !e.IsCredit || e.CardID != card.ID || e.Method != "Bonus" {
			t.Errorf("installment %d not charged to the card: %+v", i, e)
		}
	}
	if sum != 10001 {
		t.Errorf("installments sum to %d, want 10001", sum)
	}
	if Balance(st) != 0 {
		t.Errorf("Balance() = %d, card spending must not touch the wallet", Balance(st))
	}

	if _, err := AddCreditExpense(st, card.ID, ExpenseInput{Merchant: "X", Amount: 100, Date: date(2024, 1, 1)}, 0); !errors.Is(err, ErrInvalidInstallments) {
		t.Errorf("AddCreditExpense(0 installments) error = %v", err)
	}
	if _, err := AddCreditExpense(st, "nope", ExpenseInput{Merchant: "X", Amount: 100, Date: date(2024, 1, 1)}, 1); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("AddCreditExpense(unknown card) error = %v", err)
	}
}

func TestEditExpense(t *testing.T) {
	st, card := stateWithCard(t, "Bonus", 15, 50000)
	now := at(2024, 1, 10)

	cash, _ := AddExpense(st, ExpenseInput{Merchant: "Migros", Amount: 2000, Method: "Nakit", Category: "Market", Date: date(2024, 1, 5)}, now)
	if _, err := EditExpense(st, cash.ID, "Migros Jet", 3000, date(2024, 1, 6), now); err != nil {
		t.Fatalf("EditExpense() error = %v", err)
	}
	last := st.BalanceLogs[len(st.BalanceLogs)-1]
	if last.Amount.Cents != -1000 || last.Title != "Düzeltme: Migros Jet" {
		t.Errorf("adjustment entry = %+v, want -1000", last)
	}

	credit, _ := AddCreditExpense(st, card.ID, ExpenseInput{Merchant: "Teknosa", Amount: 40000, Category: "Teknoloji", Date: date(2024, 1, 7)}, 1)
	logs := len(st.BalanceLogs)
	if _, err := EditExpense(st, credit[0].ID, "Teknosa", 45000, date(2024, 1, 7), now); err != nil {
		t.Fatalf("EditExpense(credit) error = %v", err)
	}
	if len(st.BalanceLogs) != logs {
		t.Error("editing card spending must not touch the wallet")
	}
	if _, err := EditExpense(st, credit[0].ID, "Teknosa", 60000, date(2024, 1, 7), now); !errors.Is(err, ErrInsufficientLimit) {
		t.Errorf("EditExpense(over limit) error = %v, want ErrInsufficientLimit", err)
	}
	if st.Expenses[st.ExpenseIndex(credit[0].ID)].Amount.Cents != 45000 {
		t.Error("rejected edit must not change the expense")
	}

	if _, err := EditExpense(st, "missing", "X", 1, date(2024, 1, 1), now); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("EditExpense(missing) error = %v", err)
	}
}

func TestDeleteCashExpenseRestoresWallet(t *testing.T) {
	st := core.NewState()
	now := at(2024, 1, 10)
	e, _ := AddExpense(st, ExpenseInput{Merchant: "Migros", Amount: 2000, Method: "Nakit", Category: "Market", Date: date(2024, 1, 5)}, now)
	before := Balance(st)

	if _, err := DeleteExpense(st, e.ID, now); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	last := st.BalanceLogs[len(st.BalanceLogs)-1]
	if last.Amount.Cents != 2000 || last.Title != "İade: Migros" {
		t.Errorf("reversal entry = %+v, want +2000", last)
	}
	if Balance(st)-before != 2000 {
		t.Errorf("balance moved by %d, want +2000", Balance(st)-before)
	}
}

func TestPayDebt(t *testing.T) {
	st, card := stateWithCard(t, "Bonus", 15, 100000)
	now := at(2024, 1, 20)
	AddCreditExpense(st, card.ID, ExpenseInput{Merchant: "X", Amount: 30000, Category: "Diğer", Date: date(2024, 1, 5)}, 1)

	if _, err := PayDebt(st, card.ID, 30001, date(2024, 1, 20), now); !errors.Is(err, ErrOverpayment) {
		t.Errorf("PayDebt(overpay) error = %v, want ErrOverpayment", err)
	}
	p, err := PayDebt(st, card.ID, 10000, date(2024, 1, 20), now)
	if err != nil {
		t.Fatalf("PayDebt() error = %v", err)
	}
	if !p.IsPayment || p.Category != core.CategoryCardPayout || p.CardID != card.ID {
		t.Errorf("PayDebt() = %+v", p)
	}
	if CardDebt(st, card) != 20000 || Balance(st) != -10000 {
		t.Errorf("debt = %d balance = %d, want 20000 and -10000", CardDebt(st, card), Balance(st))
	}

	if _, err := DeleteExpense(st, p.ID, now); err != nil {
		t.Fatalf("DeleteExpense(payment) error = %v", err)
	}
	if CardDebt(st, card) != 30000 || Balance(st) != 0 {
		t.Errorf("after deleting payment debt = %d balance = %d, want 30000 and 0", CardDebt(st, card), Balance(st))
	}
}

func TestRemoveMerchant(t *testing.T) {
	st := core.NewState()
	st.Merchants = []string{"Migros", "BIM"}
	if !RemoveMerchant(st, "migros") {
		t.Error("RemoveMerchant() = false, want true")
	}
	if RemoveMerchant(st, "A101") {
		t.Error("RemoveMerchant(unknown) = true, want false")
	}
	if len(st.Merchants) != 1 || st.Merchants[0] != "BIM" {
		t.Errorf("Merchants = %v, want [BIM]", st.Merchants)
	}
}
