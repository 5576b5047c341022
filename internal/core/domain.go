package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CashbackNone    CashbackType = "none"
	CashbackPercent CashbackType = "percent"
	CashbackFixed   CashbackType = "fixed"
)

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

// Labels written by the engine itself.
const (
	CategoryRecurring  = "Abonelik"
	CategoryCardPayout = "Kart Ödemesi"
	MerchantCardPayout = "Kredi Kartı Borç Ödeme"
)

type (
	// ID identifies a record. New IDs are UUIDv7 so they sort by creation
	// time; documents written by the browser app carry numeric IDs, which
	// decode to their decimal string.
	ID string

	CashbackType string

	TradeType string

	Expense struct {
		ID              ID     `json:"id"`
		Merchant        string `json:"merchant"`
		Description     string `json:"description,omitempty"`
		Amount          Money  `json:"amount"`
		Method          string `json:"method"`
		Category        string `json:"category"`
		ISODate         Date   `json:"isoDate"`
		DisplayDate     string `json:"date,omitempty"`
		IsCredit        bool   `json:"isCredit,omitempty"`
		IsPayment       bool   `json:"isPayment,omitempty"`
		IsRecurring     bool   `json:"isRecurring,omitempty"`
		RecurringPlanID ID     `json:"recurringPlanId,omitempty"`
		CardID          ID     `json:"cardId,omitempty"`
	}

	Card struct {
		ID     ID     `json:"id"`
		Name   string `json:"name"`
		Cutoff int    `json:"cutoff"` // statement day of month
		Limit  Money  `json:"limit"`
		Brand  string `json:"brand,omitempty"`
		Last4  string `json:"last4,omitempty"`
	}

	RecurringPlan struct {
		ID                 ID              `json:"id"`
		Name               string          `json:"name"`
		Amount             Money           `json:"amount"`
		Day                int             `json:"day"`
		Method             string          `json:"method"`
		CardID             ID              `json:"cardId,omitempty"`
		Active             bool            `json:"active"`
		AutoPay            bool            `json:"autoPay"`
		Icon               string          `json:"icon,omitempty"`
		CashbackType       CashbackType    `json:"cashbackType,omitempty"`
		CashbackValue      decimal.Decimal `json:"cashbackValue"` // percent points, or minor units when fixed
		CampaignEndDate    Date            `json:"campaignEndDate,omitzero"`
		LastProcessedMonth YearMonth       `json:"lastProcessedMonth"`
		CreatedAt          time.Time       `json:"createdAt,omitzero"`
	}

	RecurringIncome struct {
		ID                 ID        `json:"id"`
		Name               string    `json:"name"`
		Amount             Money     `json:"amount"`
		Day                int       `json:"day"`
		Active             bool      `json:"active"`
		LastProcessedMonth YearMonth `json:"lastProcessedMonth"`
	}

	// BalanceLog is a wallet ledger entry. Positive amounts are inflows.
	BalanceLog struct {
		ID                ID        `json:"id"`
		Title             string    `json:"title"`
		Amount            Money     `json:"amount"`
		Date              Date      `json:"date,omitzero"`
		CreatedAt         time.Time `json:"createdAt,omitzero"`
		RecurringIncomeID ID        `json:"recurringIncomeId,omitempty"`
	}

	// AssetTrade is a buy or sell of an investment asset. Quantity is
	// fractional (grams of gold, bitcoin); price is minor units per unit.
	AssetTrade struct {
		ID          ID              `json:"id"`
		Asset       string          `json:"type"`
		Quantity    decimal.Decimal `json:"amount"`
		Price       Money           `json:"price"`
		TradeType   TradeType       `json:"tradeType"`
		ISODate     Date            `json:"isoDate"`
		DisplayDate string          `json:"date,omitempty"`
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCutoff      = errors.New("cutoff day must be between 1 and 31")
	ErrInvalidCashback    = errors.New("invalid cashback rule")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidTradeType   = errors.New("trade type must be buy or sell")
	ErrEmptyMerchant      = errors.New("empty merchant")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyTitle         = errors.New("empty title")
	ErrEmptyMethod        = errors.New("empty method")
	ErrEmptyAsset         = errors.New("empty asset type")
	ErrPaymentWithoutCard = errors.New("debt payment must reference a card")
	ErrNotFound           = errors.New("not found")
)

const maxDescriptionLength = 200

var (
	errDescriptionTooLong = errors.New("description too long (max 200 characters)")
	hundred               = decimal.NewFromInt(100)
)

// NewID returns a time-ordered identifier.
func NewID() ID {
	u, err := uuid.NewV7()
	if err != nil {
		return ID(uuid.NewString())
	}
	return ID(u.String())
}

func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts strings and legacy numeric identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// NamesMatch compares labels ignoring case and surrounding whitespace.
func NamesMatch(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// WalletEffect is the signed amount this expense contributes to the wallet
// balance: cash/bank spending and card payments leave the wallet, card
// spending does not until it is paid.
func (e Expense) WalletEffect() int64 {
	if !e.IsCredit || e.IsPayment {
		return -e.Amount.Cents
	}
	return 0
}

func (e Expense) Validate() error {
	if err := e.ISODate.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Merchant) == "" {
		return ErrEmptyMerchant
	}
	if len(e.Description) > maxDescriptionLength {
		return errDescriptionTooLong
	}
	if e.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Method) == "" {
		return ErrEmptyMethod
	}
	if e.IsPayment && e.CardID == "" {
		return ErrPaymentWithoutCard
	}
	return nil
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Cutoff < 1 || c.Cutoff > 31 {
		return ErrInvalidCutoff
	}
	return c.Limit.Validate()
}

// Is reports whether the card is the one referenced by id, or, for records
// that predate card identifiers, by label.
func (c Card) Is(id ID, label string) bool {
	if id != "" {
		return c.ID == id
	}
	return NamesMatch(c.Name, label)
}

func validateDay(day int) error {
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	return nil
}

func (p RecurringPlan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if err := validateDay(p.Day); err != nil {
		return err
	}
	if strings.TrimSpace(p.Method) == "" {
		return ErrEmptyMethod
	}
	switch p.CashbackType {
	case "", CashbackNone:
	case CashbackPercent:
		if p.CashbackValue.IsNegative() || p.CashbackValue.GreaterThan(hundred) {
			return fmt.Errorf("%w: percent must be between 0 and 100", ErrInvalidCashback)
		}
	case CashbackFixed:
		if p.CashbackValue.IsNegative() {
			return fmt.Errorf("%w: fixed value must not be negative", ErrInvalidCashback)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCashback, p.CashbackType)
	}
	return nil
}

// CampaignActive reports whether the cashback campaign still applies on the
// given occurrence date. A plan without an end date runs forever.
func (p RecurringPlan) CampaignActive(on Date) bool {
	return p.CampaignEndDate.IsZero() || !on.After(p.CampaignEndDate)
}

// Cashback is the discount in minor units for an occurrence on the given date.
func (p RecurringPlan) Cashback(on Date) int64 {
	if !p.CampaignActive(on) {
		return 0
	}
	switch p.CashbackType {
	case CashbackPercent:
		return decimal.NewFromInt(p.Amount.Cents).Mul(p.CashbackValue).Div(hundred).Round(0).IntPart()
	case CashbackFixed:
		return p.CashbackValue.Round(0).IntPart()
	}
	return 0
}

// NetAmount is the amount charged for an occurrence, never below zero.
func (p RecurringPlan) NetAmount(on Date) int64 {
	net := p.Amount.Cents - p.Cashback(on)
	if net < 0 {
		return 0
	}
	return net
}

func (i RecurringIncome) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	return validateDay(i.Day)
}

func (l BalanceLog) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return ErrEmptyTitle
	}
	if l.Amount.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

func (a AssetTrade) Validate() error {
	if strings.TrimSpace(a.Asset) == "" {
		return ErrEmptyAsset
	}
	if !a.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if err := a.Price.Validate(); err != nil {
		return err
	}
	if a.TradeType != TradeBuy && a.TradeType != TradeSell {
		return ErrInvalidTradeType
	}
	return a.ISODate.Validate()
}

// Value is quantity times unit price, rounded to minor units.
func (a AssetTrade) Value() int64 {
	return a.Quantity.Mul(decimal.NewFromInt(a.Price.Cents)).Round(0).IntPart()
}

// WalletEffect is the cash movement caused by the trade: buying spends,
// selling receives.
func (a AssetTrade) WalletEffect() int64 {
	if a.TradeType == TradeBuy {
		return -a.Value()
	}
	return a.Value()
}

// SignedQuantity is positive for buys and negative for sells.
func (a AssetTrade) SignedQuantity() decimal.Decimal {
	if a.TradeType == TradeSell {
		return a.Quantity.Neg()
	}
	return a.Quantity
}
