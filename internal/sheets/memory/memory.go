// Package memory is a spreadsheet that lives in the process. The sync
// command writes to it on a dry run.
package memory

import (
	"context"
	"fmt"
	"sync"

	"kasa/internal/core"
	ports "kasa/internal/sheets"
)

var (
	_ ports.ExpenseWriter = (*Store)(nil)
	_ ports.BatchWriter   = (*Store)(nil)
	_ ports.MonthReader   = (*Store)(nil)
)

type Store struct {
	mu    sync.Mutex
	items []core.Expense
}

func New() *Store {
	return &Store{}
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// AppendBatch stores all expenses or none.
func (s *Store) AppendBatch(_ context.Context, es []core.Expense) (string, error) {
	for _, e := range es {
		if err := e.Validate(); err != nil {
			return "", err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	first := len(s.items) + 1
	s.items = append(s.items, es...)
	return fmt.Sprintf("mem:%d-%d", first, len(s.items)), nil
}

func (s *Store) ReadMonthOverview(_ context.Context, ym core.YearMonth) (core.MonthOverview, error) {
	return core.SummarizeMonth(s.Rows(), ym), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...)
}
