package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"kasa/internal/core"
)

const (
	expenseSheet = "Harcamalar"
	walletSheet  = "Cüzdan"
)

// WriteXLSX writes a workbook with the expenses on one sheet and the wallet
// entries on another. Amounts are numeric cells in major units.
func WriteXLSX(w io.Writer, st *core.State) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", expenseSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	expenseRows := make([][]any, 0, len(st.Expenses))
	for _, e := range st.Expenses {
		expenseRows = append(expenseRows, []any{
			e.ISODate.ISO(), e.Merchant, e.Description, major(e.Amount.Cents).InexactFloat64(), e.Method, e.Category, kind(e),
		})
	}
	if err := fillSheet(f, expenseSheet, []string{"Tarih", "Yer", "Açıklama", "Tutar", "Yöntem", "Kategori", "Tür"}, expenseRows); err != nil {
		return err
	}

	if _, err := f.NewSheet(walletSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	walletRows := make([][]any, 0, len(st.BalanceLogs))
	for _, l := range st.BalanceLogs {
		date := ""
		if !l.Date.IsZero() {
			date = l.Date.ISO()
		}
		walletRows = append(walletRows, []any{date, l.Title, major(l.Amount.Cents).InexactFloat64()})
	}
	if err := fillSheet(f, walletSheet, []string{"Tarih", "Başlık", "Tutar"}, walletRows); err != nil {
		return err
	}

	f.SetColWidth(expenseSheet, "A", "A", 12)
	f.SetColWidth(expenseSheet, "B", "C", 25)
	f.SetColWidth(expenseSheet, "D", "D", 12)
	f.SetColWidth(expenseSheet, "E", "G", 16)
	f.SetColWidth(walletSheet, "A", "A", 12)
	f.SetColWidth(walletSheet, "B", "B", 40)
	f.SetColWidth(walletSheet, "C", "C", 12)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func fillSheet(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
