package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"kasa/internal/storage"
)

// MinorUnitsVersion is the first data version storing integer minor units.
const MinorUnitsVersion = 2

// legacyThreshold is the magnitude below which an integer is still taken to
// be a major-unit amount. A legacy value at or above it is left as is.
var legacyThreshold = decimal.NewFromInt(100000)

type moneyField struct {
	key   string
	field string
	// when set, the field is only converted if this returns true
	applies func(obj map[string]any) bool
}

var moneyFields = []moneyField{
	{key: storage.KeyExpenses, field: "amount"},
	{key: storage.KeyCards, field: "limit"},
	{key: storage.KeyAssets, field: "price"},
	{key: storage.KeyBalanceLogs, field: "amount"},
	{key: storage.KeyRecurringPlans, field: "amount"},
	{key: storage.KeyRecurringPlans, field: "cashbackValue", applies: func(obj map[string]any) bool {
		t, _ := obj["cashbackType"].(string)
		return t == "fixed"
	}},
	{key: storage.KeyRecurringIncome, field: "amount"},
}

// MigrationReport counts converted values per key.
type MigrationReport struct {
	FromVersion int
	Converted   map[string]int
}

// Ran reports whether the migration did anything.
func (r MigrationReport) Ran() bool { return r.Converted != nil }

// IsLegacyAmount reports whether a stored value looks like a major-unit
// amount: it has a fractional part or is below the threshold.
func IsLegacyAmount(v decimal.Decimal) bool {
	return !v.IsInteger() || v.LessThan(legacyThreshold)
}

// MigrateCurrency converts the monetary fields of a legacy store to minor
// units, in place, and stamps the new data version. It does nothing once the
// version is at least MinorUnitsVersion, so it is safe to call on every load.
func MigrateCurrency(ctx context.Context, raw map[string]json.RawMessage, version int) (MigrationReport, error) {
	report := MigrationReport{FromVersion: version}
	if version >= MinorUnitsVersion {
		return report, nil
	}

	slog.InfoContext(ctx, "Starting currency migration to minor units", "from_version", version)
	report.Converted = make(map[string]int)

	decoded := make(map[string][]map[string]any)
	for _, f := range moneyFields {
		items, ok := decoded[f.key]
		if !ok {
			v, present := raw[f.key]
			if !present {
				continue
			}
			var err error
			if items, err = decodeObjects(v); err != nil {
				return MigrationReport{}, fmt.Errorf("migrate %s: %w", f.key, err)
			}
			decoded[f.key] = items
		}
		for _, obj := range items {
			if f.applies != nil && !f.applies(obj) {
				continue
			}
			if convertField(obj, f.field) {
				report.Converted[f.key]++
			}
		}
	}

	for key, items := range decoded {
		b, err := json.Marshal(items)
		if err != nil {
			return MigrationReport{}, fmt.Errorf("encode %s: %w", key, err)
		}
		raw[key] = b
	}
	raw[storage.KeyDataVersion] = json.RawMessage(fmt.Sprint(MinorUnitsVersion))

	slog.InfoContext(ctx, "Currency migration complete",
		"to_version", MinorUnitsVersion,
		"converted", report.Converted)
	return report, nil
}

func decodeObjects(v json.RawMessage) ([]map[string]any, error) {
	if strings.TrimSpace(string(v)) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

// convertField rewrites obj[field] as round(v*100) when it holds a legacy
// amount. Numeric strings count; anything else is left alone.
func convertField(obj map[string]any, field string) bool {
	var d decimal.Decimal
	var err error
	switch v := obj[field].(type) {
	case json.Number:
		d, err = decimal.NewFromString(v.String())
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(v))
	default:
		return false
	}
	if err != nil || !IsLegacyAmount(d) {
		return false
	}
	obj[field] = json.Number(d.Mul(decimal.NewFromInt(100)).Round(0).String())
	return true
}
