package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"kasa/internal/core"
)

// ErrZeroAmount is returned when a wallet entry would not move the balance.
var ErrZeroAmount = errors.New("wallet entry amount must not be zero")

// AppendEntry adds one wallet ledger entry. It never edits or removes
// existing entries; the only rejected input is a zero amount. Missing id,
// date and creation timestamp are filled from now.
func AppendEntry(st *core.State, entry core.BalanceLog, now time.Time) (core.BalanceLog, error) {
	if entry.Amount.IsZero() {
		return core.BalanceLog{}, ErrZeroAmount
	}
	if strings.TrimSpace(entry.Title) == "" {
		return core.BalanceLog{}, core.ErrEmptyTitle
	}
	if entry.ID == "" {
		entry.ID = core.NewID()
	}
	if entry.Date.IsZero() {
		entry.Date = core.Today(now)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	st.BalanceLogs = append(st.BalanceLogs, entry)
	return entry, nil
}

// recordDelta appends a compensating entry unless the delta is zero.
func recordDelta(st *core.State, title string, delta int64, on core.Date, now time.Time) {
	if delta == 0 {
		return
	}
	_, _ = AppendEntry(st, core.BalanceLog{Title: title, Amount: core.Money{Cents: delta}, Date: on}, now)
}

// Balance is the sum of every wallet entry. There is no stored balance.
func Balance(st *core.State) int64 {
	var total int64
	for _, l := range st.BalanceLogs {
		total += l.Amount.Cents
	}
	return total
}

// AddWalletEntry records a manual inflow or outflow. Amount is the absolute
// value; the sign comes from inflow.
func AddWalletEntry(st *core.State, title string, amount int64, inflow bool, on core.Date, now time.Time) (core.BalanceLog, error) {
	if amount < 0 {
		amount = -amount
	}
	if !inflow {
		amount = -amount
	}
	entry := core.BalanceLog{Title: strings.TrimSpace(title), Amount: core.Money{Cents: amount}, Date: on}
	if err := entry.Validate(); err != nil {
		return core.BalanceLog{}, fmt.Errorf("wallet entry: %w", err)
	}
	return AppendEntry(st, entry, now)
}

// DeleteBalanceLogs removes entries chosen by the user and returns how many
// were removed. The engine itself never calls this.
func DeleteBalanceLogs(st *core.State, ids ...core.ID) int {
	drop := make(map[core.ID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := st.BalanceLogs[:0]
	removed := 0
	for _, l := range st.BalanceLogs {
		if drop[l.ID] {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	st.BalanceLogs = kept
	return removed
}
