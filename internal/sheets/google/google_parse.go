package google

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kasa/internal/core"
)

// parseRow converts one sheet row back into an expense. The header row and
// rows without a date or amount are rejected.
func parseRow(row []any) (core.Expense, bool) {
	cols := toStrings(row)
	if len(cols) < 4 {
		return core.Expense{}, false
	}
	date, err := core.ParseDate(cols[0])
	if err != nil {
		return core.Expense{}, false
	}
	cents, ok := parseAmount(row[3])
	if !ok {
		return core.Expense{}, false
	}
	e := core.Expense{
		ISODate:     date,
		Merchant:    safeGet(cols, 1),
		Description: safeGet(cols, 2),
		Amount:      core.Money{Cents: cents},
		Method:      safeGet(cols, 4),
		Category:    safeGet(cols, 5),
	}
	return e, true
}

// parseAmount accepts the numbers the API returns and the strings a human
// typed, with a decimal comma or point.
func parseAmount(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x).Shift(2).Round(0).IntPart(), true
	case string:
		s := strings.TrimSpace(x)
		s = strings.TrimSuffix(strings.TrimSpace(strings.TrimSuffix(s, "₺")), " TL")
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, false
		}
		return d.Shift(2).Round(0).IntPart(), true
	}
	return 0, false
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
