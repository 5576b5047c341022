package services

import (
	"testing"
	"time"

	"kasa/internal/core"
)

// at returns a local wall-clock instant on the given day.
func at(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.Local)
}

func date(year, month, day int) core.Date {
	return core.NewDate(year, month, day)
}

// stateWithCard returns a fresh ledger holding one card.
func stateWithCard(t *testing.T, name string, cutoff int, limit int64) (*core.State, core.Card) {
	t.Helper()
	st := core.NewState()
	card, err := AddCard(st, CardInput{Name: name, Cutoff: cutoff, Limit: limit})
	if err != nil {
		t.Fatalf("AddCard() error = %v", err)
	}
	return st, card
}

// walletAffecting sums the wallet effect of every expense still present.
func walletAffecting(st *core.State) int64 {
	var total int64
	for _, e := range st.Expenses {
		total += e.WalletEffect()
	}
	return total
}
