package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{}).Validate(); err == nil {
		t.Fatalf("expected error for zero date")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Merchant: "Migros",
		Amount:   Money{Cents: 100},
		Method:   "Nakit",
		Category: "Market",
		ISODate:  NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zero := good
	zero.Amount = Money{}
	if err := zero.Validate(); err != nil {
		t.Errorf("zero amount is allowed for materialized records, got %v", err)
	}

	bads := []struct {
		mutate func(e *Expense)
		want   error
	}{
		{func(e *Expense) { e.ISODate = Date{} }, ErrInvalidDate},
		{func(e *Expense) { e.Merchant = "  " }, ErrEmptyMerchant},
		{func(e *Expense) { e.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{func(e *Expense) { e.Method = "" }, ErrEmptyMethod},
		{func(e *Expense) { e.IsPayment = true; e.IsCredit = true }, ErrPaymentWithoutCard},
	}
	for i, tc := range bads {
		e := good
		tc.mutate(&e)
		if err := e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: Validate() = %v, want %v", i, err, tc.want)
		}
	}
}

func TestExpenseWalletEffect(t *testing.T) {
	tests := []struct {
		name string
		e    Expense
		want int64
	}{
		{"cash", Expense{Amount: Money{Cents: 2000}}, -2000},
		{"card spend", Expense{Amount: Money{Cents: 2000}, IsCredit: true}, 0},
		{"card payment", Expense{Amount: Money{Cents: 2000}, IsCredit: true, IsPayment: true}, -2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.WalletEffect(); got != tt.want {
				t.Errorf("WalletEffect() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCardValidate(t *testing.T) {
	tests := []struct {
		name string
		card Card
		want error
	}{
		{"ok", Card{Name: "Bonus", Cutoff: 15, Limit: Money{Cents: 5000000}}, nil},
		{"cutoff zero", Card{Name: "Bonus", Cutoff: 0, Limit: Money{Cents: 1}}, ErrInvalidCutoff},
		{"cutoff 32", Card{Name: "Bonus", Cutoff: 32, Limit: Money{Cents: 1}}, ErrInvalidCutoff},
		{"no limit", Card{Name: "Bonus", Cutoff: 1}, ErrInvalidAmount},
		{"no name", Card{Cutoff: 1, Limit: Money{Cents: 1}}, ErrEmptyName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.card.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRecurringPlanNetAmount(t *testing.T) {
	end := NewDate(2024, 3, 15)
	tests := []struct {
		name string
		plan RecurringPlan
		on   Date
		want int64
	}{
		{"no cashback", RecurringPlan{Amount: Money{Cents: 10000}}, NewDate(2024, 1, 1), 10000},
		{"ten percent", RecurringPlan{Amount: Money{Cents: 10000}, CashbackType: CashbackPercent, CashbackValue: decimal.NewFromInt(10)}, NewDate(2024, 1, 1), 9000},
		{"percent rounds", RecurringPlan{Amount: Money{Cents: 999}, CashbackType: CashbackPercent, CashbackValue: decimal.NewFromInt(15)}, NewDate(2024, 1, 1), 849},
		{"fixed", RecurringPlan{Amount: Money{Cents: 10000}, CashbackType: CashbackFixed, CashbackValue: decimal.NewFromInt(2500)}, NewDate(2024, 1, 1), 7500},
		{"fixed floors at zero", RecurringPlan{Amount: Money{Cents: 1000}, CashbackType: CashbackFixed, CashbackValue: decimal.NewFromInt(2500)}, NewDate(2024, 1, 1), 0},
		{"campaign on end day", RecurringPlan{Amount: Money{Cents: 10000}, CashbackType: CashbackPercent, CashbackValue: decimal.NewFromInt(10), CampaignEndDate: end}, end, 9000},
		{"campaign expired", RecurringPlan{Amount: Money{Cents: 10000}, CashbackType: CashbackPercent, CashbackValue: decimal.NewFromInt(10), CampaignEndDate: end}, NewDate(2024, 4, 15), 10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.plan.NetAmount(tt.on); got != tt.want {
				t.Errorf("NetAmount(%s) = %d, want %d", tt.on.ISO(), got, tt.want)
			}
		})
	}
}

func TestRecurringPlanValidate(t *testing.T) {
	base := RecurringPlan{Name: "Netflix", Amount: Money{Cents: 19999}, Day: 31, Method: "Nakit"}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := base
	bad.Day = 0
	if err := bad.Validate(); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("day 0: got %v", err)
	}
	bad = base
	bad.CashbackType = CashbackPercent
	bad.CashbackValue = decimal.NewFromInt(120)
	if err := bad.Validate(); !errors.Is(err, ErrInvalidCashback) {
		t.Errorf("percent 120: got %v", err)
	}
	bad = base
	bad.CashbackType = "weird"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidCashback) {
		t.Errorf("unknown type: got %v", err)
	}
}

func TestIDUnmarshalLegacyNumber(t *testing.T) {
	var e Expense
	if err := json.Unmarshal([]byte(`{"id":1706000000000,"merchant":"x","amount":100,"method":"Nakit","isoDate":"2024-01-23"}`), &e); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if e.ID != "1706000000000" {
		t.Errorf("ID = %q, want 1706000000000", e.ID)
	}
	var f Expense
	if err := json.Unmarshal([]byte(`{"id":"abc","amount":1}`), &f); err != nil || f.ID != "abc" {
		t.Errorf("string id: got %q (err=%v)", f.ID, err)
	}
}

func TestNewIDOrdered(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Fatal("NewID returned duplicates")
	}
	if !(a < b) {
		t.Errorf("NewID not time-ordered: %s >= %s", a, b)
	}
}

func TestNamesMatch(t *testing.T) {
	if !NamesMatch(" Bonus Kart ", "bonus kart") {
		t.Error("expected match ignoring case and space")
	}
	if NamesMatch("Bonus", "Bonus Plus") {
		t.Error("unexpected match")
	}
}

func TestAssetTradeValue(t *testing.T) {
	a := AssetTrade{
		Asset:     "gram-altin",
		Quantity:  decimal.RequireFromString("2.5"),
		Price:     Money{Cents: 755000},
		TradeType: TradeBuy,
		ISODate:   NewDate(2024, 1, 1),
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if got := a.WalletEffect(); got != -1887500 {
		t.Errorf("WalletEffect() = %d, want -1887500", got)
	}
	a.TradeType = TradeSell
	if got := a.WalletEffect(); got != 1887500 {
		t.Errorf("sell WalletEffect() = %d, want 1887500", got)
	}
	if !a.SignedQuantity().Equal(decimal.RequireFromString("-2.5")) {
		t.Errorf("SignedQuantity() = %s", a.SignedQuantity())
	}
}

func TestSummarizeMonth(t *testing.T) {
	exps := []Expense{
		{Amount: Money{Cents: 1000}, Category: "Market", ISODate: NewDate(2024, 1, 5)},
		{Amount: Money{Cents: 3000}, Category: "Fatura", ISODate: NewDate(2024, 1, 9), IsCredit: true},
		{Amount: Money{Cents: 500}, Category: "Market", ISODate: NewDate(2024, 1, 20)},
		{Amount: Money{Cents: 9999}, Category: CategoryCardPayout, ISODate: NewDate(2024, 1, 21), IsCredit: true, IsPayment: true},
		{Amount: Money{Cents: 700}, Category: "Market", ISODate: NewDate(2024, 2, 1)},
	}
	got := SummarizeMonth(exps, YearMonth{Year: 2024, Month: 1})
	if got.Total.Cents != 4500 || got.Wallet.Cents != 1500 || got.Card.Cents != 3000 {
		t.Fatalf("totals = %+v", got)
	}
	if len(got.ByCategory) != 2 || got.ByCategory[0].Name != "Fatura" || got.ByCategory[1].Amount.Cents != 1500 {
		t.Errorf("ByCategory = %+v", got.ByCategory)
	}
}
