package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kasa/internal/core"
)

// EncodeState renders every ledger key.
func EncodeState(st *core.State) (map[string]json.RawMessage, error) {
	values := map[string]any{
		KeyExpenses:        nonNil(st.Expenses),
		KeyCards:           nonNil(st.Cards),
		KeyAssets:          nonNil(st.Assets),
		KeyMethods:         nonNil(st.Methods),
		KeyCategories:      nonNil(st.Categories),
		KeyMerchants:       nonNil(st.Merchants),
		KeyRecurringPlans:  nonNil(st.RecurringPlans),
		KeyRecurringIncome: nonNil(st.RecurringIncome),
		KeyBalanceLogs:     nonNil(st.BalanceLogs),
		KeyDarkMode:        st.IsDark,
		KeyPrivacyMode:     st.IsPrivacyMode,
		KeyDataVersion:     st.DataVersion,
	}
	if !st.LastSync.IsZero() {
		values[KeyLastSync] = st.LastSync
	}

	out := make(map[string]json.RawMessage, len(values))
	for key, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		out[key] = b
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// DecodeState builds the ledger from stored keys. Absent collections are
// empty, absent method and category lists get the defaults, and an absent
// data version means the legacy format (version 1).
func DecodeState(raw map[string]json.RawMessage) (*core.State, error) {
	st := &core.State{
		Methods:     append([]string(nil), core.DefaultMethods...),
		Categories:  append([]string(nil), core.DefaultCategories...),
		DataVersion: 1,
	}
	lists := []struct {
		key string
		dst any
	}{
		{KeyExpenses, &st.Expenses},
		{KeyCards, &st.Cards},
		{KeyAssets, &st.Assets},
		{KeyMethods, &st.Methods},
		{KeyCategories, &st.Categories},
		{KeyMerchants, &st.Merchants},
		{KeyRecurringPlans, &st.RecurringPlans},
		{KeyRecurringIncome, &st.RecurringIncome},
		{KeyBalanceLogs, &st.BalanceLogs},
	}
	for _, l := range lists {
		v, ok := raw[l.key]
		if !ok || isNull(v) {
			continue
		}
		if err := json.Unmarshal(v, l.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", l.key, err)
		}
	}

	var err error
	if st.IsDark, err = decodeBool(raw[KeyDarkMode]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyDarkMode, err)
	}
	if st.IsPrivacyMode, err = decodeBool(raw[KeyPrivacyMode]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyPrivacyMode, err)
	}
	version, err := DecodeVersion(raw[KeyDataVersion])
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyDataVersion, err)
	}
	if version > 0 {
		st.DataVersion = version
	}
	if v, ok := raw[KeyLastSync]; ok && !isNull(v) {
		var t time.Time
		if err := json.Unmarshal(v, &t); err != nil {
			return nil, fmt.Errorf("decode %s: %w", KeyLastSync, err)
		}
		st.LastSync = t
	}
	return st, nil
}

func isNull(v json.RawMessage) bool {
	s := strings.TrimSpace(string(v))
	return s == "" || s == "null"
}

// unquote strips the string wrapping the browser app put around scalars.
func unquote(v json.RawMessage) string {
	s := strings.TrimSpace(string(v))
	if u, err := strconv.Unquote(s); err == nil {
		return strings.TrimSpace(u)
	}
	return s
}

func decodeBool(v json.RawMessage) (bool, error) {
	if isNull(v) {
		return false, nil
	}
	s := unquote(v)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// DecodeVersion reads the data version, which may be stored as a number or
// a numeric string. Absent or empty yields 0.
func DecodeVersion(v json.RawMessage) (int, error) {
	if isNull(v) {
		return 0, nil
	}
	s := unquote(v)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
