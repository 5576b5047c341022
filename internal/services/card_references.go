package services

import (
	"kasa/internal/core"
)

// ResolveCardReferences fills the missing card id of every expense and plan
// whose method label names a known card. It never changes an id that is
// already set, so running it again is harmless. Returns how many records
// were bound.
func ResolveCardReferences(st *core.State) int {
	bound := 0
	for i := range st.Expenses {
		e := &st.Expenses[i]
		if e.CardID != "" {
			continue
		}
		if card, ok := st.CardByName(e.Method); ok {
			e.CardID = card.ID
			bound++
		}
	}
	for i := range st.RecurringPlans {
		p := &st.RecurringPlans[i]
		if p.CardID != "" {
			continue
		}
		if card, ok := st.CardByName(p.Method); ok {
			p.CardID = card.ID
			bound++
		}
	}
	if st.DataVersion < core.SchemaVersion {
		st.DataVersion = core.SchemaVersion
	}
	return bound
}
