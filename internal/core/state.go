package core

import "time"

// SchemaVersion is the data version written by this program. Version 2
// introduced integer minor units, version 3 card identifiers on expenses and
// plans.
const SchemaVersion = 3

var (
	DefaultMethods    = []string{"Nakit", "Havale / EFT"}
	DefaultCategories = []string{"Market", "Yemek", "Ulaşım", "Teknoloji", "Online Alışveriş", "Fatura", "Giyim", "Sağlık", "Eğlence", "Diğer"}
)

// State is the whole ledger. It is owned by one caller at a time and passed
// explicitly to every operation.
type State struct {
	Expenses        []Expense
	Cards           []Card
	Assets          []AssetTrade
	Methods         []string
	Categories      []string
	Merchants       []string
	RecurringPlans  []RecurringPlan
	RecurringIncome []RecurringIncome
	BalanceLogs     []BalanceLog
	IsDark          bool
	IsPrivacyMode   bool
	DataVersion     int
	LastSync        time.Time
}

// NewState returns an empty ledger with the default method and category
// lists at the current schema version.
func NewState() *State {
	return &State{
		Methods:     append([]string(nil), DefaultMethods...),
		Categories:  append([]string(nil), DefaultCategories...),
		DataVersion: SchemaVersion,
	}
}

// CardByID returns a pointer into Cards.
func (s *State) CardByID(id ID) (*Card, bool) {
	for i := range s.Cards {
		if s.Cards[i].ID == id {
			return &s.Cards[i], true
		}
	}
	return nil, false
}

// CardByName finds a card by label, ignoring case and surrounding space.
func (s *State) CardByName(name string) (*Card, bool) {
	for i := range s.Cards {
		if NamesMatch(s.Cards[i].Name, name) {
			return &s.Cards[i], true
		}
	}
	return nil, false
}

// ResolveCard finds the card an expense or plan points at: by id when set,
// by label otherwise.
func (s *State) ResolveCard(id ID, label string) (*Card, bool) {
	if id != "" {
		return s.CardByID(id)
	}
	return s.CardByName(label)
}

func (s *State) ExpenseIndex(id ID) int {
	for i := range s.Expenses {
		if s.Expenses[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) PlanIndex(id ID) int {
	for i := range s.RecurringPlans {
		if s.RecurringPlans[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) IncomeIndex(id ID) int {
	for i := range s.RecurringIncome {
		if s.RecurringIncome[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) AssetIndex(id ID) int {
	for i := range s.Assets {
		if s.Assets[i].ID == id {
			return i
		}
	}
	return -1
}

// AddUnique appends v to list unless an equal label is already present.
func AddUnique(list []string, v string) []string {
	for _, x := range list {
		if NamesMatch(x, v) {
			return list
		}
	}
	return append(list, v)
}

// Union merges extra into base keeping base order and dropping duplicates.
func Union(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	for _, v := range base {
		out = AddUnique(out, v)
	}
	for _, v := range extra {
		out = AddUnique(out, v)
	}
	return out
}
