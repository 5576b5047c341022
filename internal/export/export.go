// Package export writes the expense history in formats other tools read.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kasa/internal/core"
)

// Format is an export file format.
type Format string

const (
	FormatSheetsTSV Format = "tsv"
	FormatExcelCSV  Format = "csv"
	FormatXLSX      Format = "xlsx"
	FormatYAML      Format = "yaml"
)

// Formats lists every supported format.
var Formats = []Format{FormatSheetsTSV, FormatExcelCSV, FormatXLSX, FormatYAML}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// FileName is the suggested file name for an export made on the given day.
func FileName(f Format, now time.Time) string {
	day := core.Today(now).ISO()
	switch f {
	case FormatSheetsTSV:
		return "google_sheets_import_" + day + ".tsv"
	case FormatExcelCSV:
		return "harcamalar_" + day + ".csv"
	case FormatXLSX:
		return "harcamalar_" + day + ".xlsx"
	}
	return "kasa_" + day + ".yaml"
}

// Write renders the ledger in the given format.
func Write(w io.Writer, f Format, st *core.State, now time.Time) error {
	switch f {
	case FormatSheetsTSV:
		return WriteSheetsTSV(w, st.Expenses)
	case FormatExcelCSV:
		return WriteExcelCSV(w, st.Expenses)
	case FormatXLSX:
		return WriteXLSX(w, st)
	case FormatYAML:
		return WriteYAML(w, st, now)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// decimalComma renders minor units as a major amount with a decimal comma,
// as Turkish spreadsheets expect.
func decimalComma(cents int64) string {
	return strings.Replace(major(cents).StringFixed(2), ".", ",", 1)
}

func major(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func displayDate(e core.Expense) string {
	if e.DisplayDate != "" {
		return e.DisplayDate
	}
	return e.ISODate.Display()
}

// WriteSheetsTSV writes the tab separated layout Google Sheets imports.
func WriteSheetsTSV(w io.Writer, exps []core.Expense) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write([]string{"Tarih", "Yer", "Aciklama", "Tutar", "Yontem", "Kategori"}); err != nil {
		return err
	}
	for _, e := range exps {
		row := []string{displayDate(e), e.Merchant, e.Description, decimalComma(e.Amount.Cents), e.Method, e.Category}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// kind labels where the money came from.
func kind(e core.Expense) string {
	if e.IsCredit {
		return "Kredi Kartı"
	}
	return "Nakit/Banka"
}

// WriteExcelCSV writes the semicolon separated layout Excel opens directly
// in a Turkish locale. A UTF-8 byte order mark keeps the letters intact.
func WriteExcelCSV(w io.Writer, exps []core.Expense) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write([]string{"Tarih", "Yer", "Tutar", "Yöntem", "Kategori", "Tür"}); err != nil {
		return err
	}
	for _, e := range exps {
		row := []string{displayDate(e), e.Merchant, decimalComma(e.Amount.Cents), e.Method, e.Category, kind(e)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
