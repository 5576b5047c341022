package google

import "testing"

func TestParseRow(t *testing.T) {
	tests := []struct {
		name      string
		row       []any
		wantOK    bool
		wantCents int64
		wantMerch string
	}{
		{"header", []any{"Tarih", "Yer", "Aciklama", "Tutar"}, false, 0, ""},
		{"numeric amount", []any{"01.03.2024", "Migros", "", 125.5, "Nakit", "Market"}, true, 12550, "Migros"},
		{"comma amount", []any{"01.03.2024", "BIM", "", "1.234,56", "Nakit"}, true, 123456, "BIM"},
		{"currency suffix", []any{"2024-03-01", "Shell", "", "900,00 ₺"}, true, 90000, "Shell"},
		{"short row", []any{"01.03.2024", "Migros"}, false, 0, ""},
		{"bad amount", []any{"01.03.2024", "Migros", "", "abc"}, false, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := parseRow(tt.row)
			if ok != tt.wantOK {
				t.Fatalf("parseRow() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if e.Amount.Cents != tt.wantCents {
				t.Errorf("Amount = %d, want %d", e.Amount.Cents, tt.wantCents)
			}
			if e.Merchant != tt.wantMerch {
				t.Errorf("Merchant = %q, want %q", e.Merchant, tt.wantMerch)
			}
			if e.ISODate.ISO() != "2024-03-01" {
				t.Errorf("ISODate = %v, want 2024-03-01", e.ISODate)
			}
		})
	}
}
