package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"kasa/internal/core"
)

var (
	// ErrCardMethod is returned when a cash expense names a card; card
	// spending goes through AddCreditExpense.
	ErrCardMethod = errors.New("method is a credit card, use the card path")
	// ErrOverpayment is returned when a payment exceeds the card's debt.
	ErrOverpayment = errors.New("payment exceeds card debt")
	// ErrInvalidInstallments is returned for an installment count below 1.
	ErrInvalidInstallments = errors.New("installments must be at least 1")
)

const maxInstallments = 36

// ExpenseInput carries user-entered fields for a new or edited expense.
type ExpenseInput struct {
	Merchant    string
	Description string
	Amount      int64
	Method      string
	Category    string
	Date        core.Date
}

func (in ExpenseInput) validate() error {
	if strings.TrimSpace(in.Merchant) == "" {
		return core.ErrEmptyMerchant
	}
	if in.Amount <= 0 {
		return core.ErrInvalidAmount
	}
	return in.Date.Validate()
}

// AddExpense records a cash or bank expense and takes its amount out of the
// wallet.
func AddExpense(st *core.State, in ExpenseInput, now time.Time) (core.Expense, error) {
	if err := in.validate(); err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	if _, ok := st.CardByName(in.Method); ok {
		return core.Expense{}, fmt.Errorf("add expense: %w", ErrCardMethod)
	}
	e := core.Expense{
		ID:          core.NewID(),
		Merchant:    strings.TrimSpace(in.Merchant),
		Description: strings.TrimSpace(in.Description),
		Amount:      core.Money{Cents: in.Amount},
		Method:      in.Method,
		Category:    in.Category,
		ISODate:     in.Date,
		DisplayDate: in.Date.Display(),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	st.Expenses = append(st.Expenses, e)
	st.Merchants = core.AddUnique(st.Merchants, e.Merchant)
	recordDelta(st, e.Merchant, e.WalletEffect(), e.ISODate, now)
	return e, nil
}

// AddCreditExpense charges a card, optionally split into monthly
// installments. The whole amount must fit in the remaining limit. The
// remainder of the integer split goes to the first installment, and each
// installment date is clamped into its month.
func AddCreditExpense(st *core.State, cardID core.ID, in ExpenseInput, installments int) ([]core.Expense, error) {
	card, ok := st.CardByID(cardID)
	if !ok {
		return nil, fmt.Errorf("card %s: %w", cardID, core.ErrNotFound)
	}
	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("add credit expense: %w", err)
	}
	if installments < 1 || installments > maxInstallments {
		return nil, ErrInvalidInstallments
	}
	if err := CheckAdmission(st, *card, in.Amount); err != nil {
		return nil, err
	}

	merchant := strings.TrimSpace(in.Merchant)
	base := in.Amount / int64(installments)
	remainder := in.Amount % int64(installments)
	out := make([]core.Expense, 0, installments)
	for i := 0; i < installments; i++ {
		amount := base
		if i == 0 {
			amount += remainder
		}
		label := merchant
		if installments > 1 {
			label = fmt.Sprintf("%s (%d/%d)", merchant, i+1, installments)
		}
		date := in.Date.AddMonthsClamped(i)
		out = append(out, core.Expense{
			ID:          core.NewID(),
			Merchant:    label,
			Description: strings.TrimSpace(in.Description),
			Amount:      core.Money{Cents: amount},
			Method:      card.Name,
			Category:    in.Category,
			ISODate:     date,
			DisplayDate: date.Display(),
			IsCredit:    true,
			CardID:      card.ID,
		})
	}
	st.Expenses = append(st.Expenses, out...)
	st.Merchants = core.AddUnique(st.Merchants, merchant)
	return out, nil
}

// EditExpense changes merchant, amount and date of an expense and records
// the change in wallet effect. Growing a card charge is admission checked.
func EditExpense(st *core.State, id core.ID, merchant string, amount int64, date core.Date, now time.Time) (core.Expense, error) {
	idx := st.ExpenseIndex(id)
	if idx < 0 {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if strings.TrimSpace(merchant) == "" {
		return core.Expense{}, core.ErrEmptyMerchant
	}
	if amount <= 0 {
		return core.Expense{}, core.ErrInvalidAmount
	}
	if err := date.Validate(); err != nil {
		return core.Expense{}, err
	}

	old := st.Expenses[idx]
	if old.IsCredit && !old.IsPayment && amount > old.Amount.Cents {
		if card, ok := st.ResolveCard(old.CardID, old.Method); ok {
			if err := CheckAdmission(st, *card, amount-old.Amount.Cents); err != nil {
				return core.Expense{}, err
			}
		}
	}
	if old.IsPayment && amount > old.Amount.Cents {
		if card, ok := st.ResolveCard(old.CardID, old.Method); ok {
			if amount-old.Amount.Cents > CardDebt(st, *card) {
				return core.Expense{}, ErrOverpayment
			}
		}
	}

	updated := old
	updated.Merchant = strings.TrimSpace(merchant)
	updated.Amount = core.Money{Cents: amount}
	updated.ISODate = date
	updated.DisplayDate = date.Display()
	st.Expenses[idx] = updated
	recordDelta(st, "Düzeltme: "+updated.Merchant, updated.WalletEffect()-old.WalletEffect(), core.Today(now), now)
	return updated, nil
}

// DeleteExpense removes an expense and reverses its wallet effect.
func DeleteExpense(st *core.State, id core.ID, now time.Time) (core.Expense, error) {
	idx := st.ExpenseIndex(id)
	if idx < 0 {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	e := st.Expenses[idx]
	st.Expenses = append(st.Expenses[:idx], st.Expenses[idx+1:]...)
	recordDelta(st, "İade: "+e.Merchant, -e.WalletEffect(), core.Today(now), now)
	return e, nil
}

// PayDebt records a card payment out of the wallet. The amount may not
// exceed the card's all-time debt.
func PayDebt(st *core.State, cardID core.ID, amount int64, date core.Date, now time.Time) (core.Expense, error) {
	card, ok := st.CardByID(cardID)
	if !ok {
		return core.Expense{}, fmt.Errorf("card %s: %w", cardID, core.ErrNotFound)
	}
	if amount <= 0 {
		return core.Expense{}, core.ErrInvalidAmount
	}
	if err := date.Validate(); err != nil {
		return core.Expense{}, err
	}
	if debt := CardDebt(st, *card); amount > debt {
		return core.Expense{}, fmt.Errorf("%w: debt is %d", ErrOverpayment, debt)
	}
	e := core.Expense{
		ID:          core.NewID(),
		Merchant:    core.MerchantCardPayout,
		Amount:      core.Money{Cents: amount},
		Method:      card.Name,
		Category:    core.CategoryCardPayout,
		ISODate:     date,
		DisplayDate: date.Display(),
		IsCredit:    true,
		IsPayment:   true,
		CardID:      card.ID,
	}
	st.Expenses = append(st.Expenses, e)
	recordDelta(st, "KK Borç Ödemesi: "+card.Name, e.WalletEffect(), date, now)
	return e, nil
}

// RemoveMerchant drops a name from the autocomplete list.
func RemoveMerchant(st *core.State, name string) bool {
	for i, m := range st.Merchants {
		if core.NamesMatch(m, name) {
			st.Merchants = append(st.Merchants[:i], st.Merchants[i+1:]...)
			return true
		}
	}
	return false
}
