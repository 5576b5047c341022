// Package memory is an in-process KV used by tests and dry runs.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("memory store closed")

type Store struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
	saves  int
	closed bool
}

func New() *Store {
	return &Store{values: make(map[string]json.RawMessage)}
}

// NewWith returns a store seeded with the given values.
func NewWith(values map[string]json.RawMessage) *Store {
	s := New()
	for k, v := range values {
		s.values[k] = append(json.RawMessage(nil), v...)
	}
	return s
}

func (s *Store) Load(_ context.Context) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make(map[string]json.RawMessage, len(s.values))
	for k, v := range s.values {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out, nil
}

func (s *Store) Save(_ context.Context, values map[string]json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for k, v := range values {
		s.values[k] = append(json.RawMessage(nil), v...)
	}
	s.saves++
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.values = make(map[string]json.RawMessage)
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Get returns one stored value.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Saves counts successful Save calls.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
