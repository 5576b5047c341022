package storage

import (
	"context"
	"encoding/json"
)

// Persisted keys. The names match the browser app's local storage so a
// document copied from it loads unchanged.
const (
	KeyExpenses        = "exp_logs"
	KeyCards           = "exp_cards"
	KeyAssets          = "exp_assets"
	KeyMethods         = "exp_methods"
	KeyCategories      = "exp_cats"
	KeyMerchants       = "exp_merchants"
	KeyRecurringPlans  = "exp_recurring_plans"
	KeyRecurringIncome = "exp_recurring_income"
	KeyBalanceLogs     = "exp_balance_logs"
	KeyDarkMode        = "dark_mode"
	KeyPrivacyMode     = "privacy_mode"
	KeyDataVersion     = "exp_data_version"
	KeyLastSync        = "exp_last_sync"
)

// AllKeys lists every key the ledger writes, in write order.
var AllKeys = []string{
	KeyExpenses,
	KeyCards,
	KeyAssets,
	KeyMethods,
	KeyCategories,
	KeyMerchants,
	KeyRecurringPlans,
	KeyRecurringIncome,
	KeyBalanceLogs,
	KeyDarkMode,
	KeyPrivacyMode,
	KeyDataVersion,
	KeyLastSync,
}

// KV is a durable string-keyed store of JSON values.
type KV interface {
	// Load returns every stored key. Missing keys are simply absent.
	Load(ctx context.Context) (map[string]json.RawMessage, error)
	// Save writes the given keys atomically, leaving other keys untouched.
	Save(ctx context.Context, values map[string]json.RawMessage) error
	// Clear removes every key.
	Clear(ctx context.Context) error
	Close() error
}
