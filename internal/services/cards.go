package services

import (
	"errors"
	"fmt"
	"strings"

	"kasa/internal/core"
)

// ErrDuplicateCard is returned when another card already uses the name.
var ErrDuplicateCard = errors.New("a card with this name already exists")

// CardInput carries the editable fields of a card.
type CardInput struct {
	Name   string
	Cutoff int
	Limit  int64
	Brand  string
	Last4  string
}

func (in CardInput) card(id core.ID) core.Card {
	return core.Card{
		ID:     id,
		Name:   strings.TrimSpace(in.Name),
		Cutoff: in.Cutoff,
		Limit:  core.Money{Cents: in.Limit},
		Brand:  strings.TrimSpace(in.Brand),
		Last4:  strings.TrimSpace(in.Last4),
	}
}

func nameTaken(st *core.State, name string, except core.ID) bool {
	for _, c := range st.Cards {
		if c.ID != except && core.NamesMatch(c.Name, name) {
			return true
		}
	}
	return false
}

// AddCard registers a card and offers its name as a payment method.
func AddCard(st *core.State, in CardInput) (core.Card, error) {
	c := in.card(core.NewID())
	if err := c.Validate(); err != nil {
		return core.Card{}, fmt.Errorf("add card: %w", err)
	}
	if nameTaken(st, c.Name, "") {
		return core.Card{}, ErrDuplicateCard
	}
	st.Cards = append(st.Cards, c)
	st.Methods = core.AddUnique(st.Methods, c.Name)
	return c, nil
}

// UpdateCard edits a card. A rename re-points every expense and plan label
// that referred to the old name and replaces it in the methods list.
func UpdateCard(st *core.State, id core.ID, in CardInput) (core.Card, error) {
	card, ok := st.CardByID(id)
	if !ok {
		return core.Card{}, fmt.Errorf("card %s: %w", id, core.ErrNotFound)
	}
	updated := in.card(id)
	if err := updated.Validate(); err != nil {
		return core.Card{}, fmt.Errorf("update card: %w", err)
	}
	if nameTaken(st, updated.Name, id) {
		return core.Card{}, ErrDuplicateCard
	}
	old := *card
	*card = updated
	if old.Name == updated.Name {
		return updated, nil
	}

	for i := range st.Expenses {
		if old.Is(st.Expenses[i].CardID, st.Expenses[i].Method) {
			st.Expenses[i].Method = updated.Name
			st.Expenses[i].CardID = id
		}
	}
	for i := range st.RecurringPlans {
		if old.Is(st.RecurringPlans[i].CardID, st.RecurringPlans[i].Method) {
			st.RecurringPlans[i].Method = updated.Name
			st.RecurringPlans[i].CardID = id
		}
	}
	replaced := false
	for i, m := range st.Methods {
		if m == old.Name {
			st.Methods[i] = updated.Name
			replaced = true
			break
		}
	}
	if !replaced {
		st.Methods = core.AddUnique(st.Methods, updated.Name)
	}
	return updated, nil
}

// DeleteCard removes a card together with every expense charged to it and
// every plan paying with it. Card expenses never touched the wallet and
// payments are history of money already gone, so no wallet entry is made.
func DeleteCard(st *core.State, id core.ID) (removedExpenses, removedPlans int, err error) {
	card, ok := st.CardByID(id)
	if !ok {
		return 0, 0, fmt.Errorf("card %s: %w", id, core.ErrNotFound)
	}
	c := *card

	keptCards := st.Cards[:0]
	for _, x := range st.Cards {
		if x.ID != id {
			keptCards = append(keptCards, x)
		}
	}
	st.Cards = keptCards

	keptExp := st.Expenses[:0]
	for _, e := range st.Expenses {
		if OnCard(e, c) {
			removedExpenses++
			continue
		}
		keptExp = append(keptExp, e)
	}
	st.Expenses = keptExp

	keptPlans := st.RecurringPlans[:0]
	for _, p := range st.RecurringPlans {
		if c.Is(p.CardID, p.Method) {
			removedPlans++
			continue
		}
		keptPlans = append(keptPlans, p)
	}
	st.RecurringPlans = keptPlans
	return removedExpenses, removedPlans, nil
}
