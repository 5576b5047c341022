// Package sheets holds the ports to spreadsheet destinations.
package sheets

import (
	"context"

	"kasa/internal/core"
)

// Ports for outbound adapters.
type (
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// BatchWriter appends many expenses in one call.
	BatchWriter interface {
		AppendBatch(ctx context.Context, es []core.Expense) (updatedRange string, err error)
	}

	// MonthReader reads back what was exported for a month.
	MonthReader interface {
		ReadMonthOverview(ctx context.Context, ym core.YearMonth) (core.MonthOverview, error)
	}
)

// Header is the first row of every expense sheet.
var Header = []string{"Tarih", "Yer", "Aciklama", "Tutar", "Yontem", "Kategori"}
