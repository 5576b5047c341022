package export

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"kasa/internal/core"
)

type expenseYAML struct {
	Date        string `yaml:"date"`
	Merchant    string `yaml:"merchant"`
	Description string `yaml:"description,omitempty"`
	Amount      string `yaml:"amount"`
	Method      string `yaml:"method"`
	Category    string `yaml:"category"`
	Card        bool   `yaml:"card,omitempty"`
	Payment     bool   `yaml:"payment,omitempty"`
	Recurring   bool   `yaml:"recurring,omitempty"`
}

type walletYAML struct {
	Date   string `yaml:"date,omitempty"`
	Title  string `yaml:"title"`
	Amount string `yaml:"amount"`
}

type cardYAML struct {
	Name   string `yaml:"name"`
	Cutoff int    `yaml:"cutoff"`
	Limit  string `yaml:"limit"`
}

type ledgerYAML struct {
	ExportedAt string        `yaml:"exported_at"`
	Balance    string        `yaml:"balance"`
	Cards      []cardYAML    `yaml:"cards"`
	Expenses   []expenseYAML `yaml:"expenses"`
	Wallet     []walletYAML  `yaml:"wallet"`
}

// WriteYAML writes a readable dump of cards, expenses and wallet entries.
// Amounts are major units with two decimals.
func WriteYAML(w io.Writer, st *core.State, now time.Time) error {
	var balance int64
	for _, l := range st.BalanceLogs {
		balance += l.Amount.Cents
	}
	out := ledgerYAML{
		ExportedAt: now.Format(time.RFC3339),
		Balance:    major(balance).StringFixed(2),
		Cards:      make([]cardYAML, 0, len(st.Cards)),
		Expenses:   make([]expenseYAML, 0, len(st.Expenses)),
		Wallet:     make([]walletYAML, 0, len(st.BalanceLogs)),
	}
	for _, c := range st.Cards {
		out.Cards = append(out.Cards, cardYAML{Name: c.Name, Cutoff: c.Cutoff, Limit: major(c.Limit.Cents).StringFixed(2)})
	}
	for _, e := range st.Expenses {
		out.Expenses = append(out.Expenses, expenseYAML{
			Date:        e.ISODate.ISO(),
			Merchant:    e.Merchant,
			Description: e.Description,
			Amount:      major(e.Amount.Cents).StringFixed(2),
			Method:      e.Method,
			Category:    e.Category,
			Card:        e.IsCredit,
			Payment:     e.IsPayment,
			Recurring:   e.IsRecurring,
		})
	}
	for _, l := range st.BalanceLogs {
		entry := walletYAML{Title: l.Title, Amount: major(l.Amount.Cents).StringFixed(2)}
		if !l.Date.IsZero() {
			entry.Date = l.Date.ISO()
		}
		out.Wallet = append(out.Wallet, entry)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
