package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kasa/internal/core"
)

// ErrInsufficientQuantity is returned when a sale exceeds the holding.
var ErrInsufficientQuantity = errors.New("insufficient asset quantity")

// dustQuantity is the holding below which a position counts as closed.
var dustQuantity = decimal.RequireFromString("0.00001")

var assetLabels = map[string]string{
	"gram-altin": "Gram Altın",
	"usd":        "Dolar",
	"eur":        "Euro",
	"btc":        "Bitcoin",
}

// AssetLabel returns the display name of an asset key.
func AssetLabel(key string) string {
	if l, ok := assetLabels[key]; ok {
		return l
	}
	return key
}

// AssetUnit returns the unit the asset is counted in.
func AssetUnit(key string) string {
	if key == "gram-altin" {
		return "Gr"
	}
	return "Adet"
}

// TradeInput carries a buy or sell.
type TradeInput struct {
	Asset     string
	Quantity  decimal.Decimal
	Price     int64
	TradeType core.TradeType
	Date      core.Date
}

func (in TradeInput) trade(id core.ID) core.AssetTrade {
	return core.AssetTrade{
		ID:          id,
		Asset:       strings.TrimSpace(in.Asset),
		Quantity:    in.Quantity,
		Price:       core.Money{Cents: in.Price},
		TradeType:   in.TradeType,
		ISODate:     in.Date,
		DisplayDate: in.Date.Display(),
	}
}

// Holding is the net quantity of an asset over every recorded trade.
func Holding(st *core.State, asset string) decimal.Decimal {
	total := decimal.Zero
	for _, a := range st.Assets {
		if a.Asset == asset {
			total = total.Add(a.SignedQuantity())
		}
	}
	return total
}

// holdingReplacing is the holding of asset with the trade at idx swapped
// for t.
func holdingReplacing(st *core.State, idx int, t core.AssetTrade, asset string) decimal.Decimal {
	total := decimal.Zero
	for i, a := range st.Assets {
		if i == idx {
			a = t
		}
		if a.Asset == asset {
			total = total.Add(a.SignedQuantity())
		}
	}
	return total
}

func tradeTitle(t core.AssetTrade) string {
	verb := "Alışı"
	if t.TradeType == core.TradeSell {
		verb = "Satışı"
	}
	return fmt.Sprintf("Yatırım %s: %s (%sx)", verb, strings.ToUpper(t.Asset), t.Quantity.String())
}

// RecordTrade stores a trade and moves its value through the wallet. A sale
// may not exceed the current holding.
func RecordTrade(st *core.State, in TradeInput, now time.Time) (core.AssetTrade, error) {
	t := in.trade(core.NewID())
	if err := t.Validate(); err != nil {
		return core.AssetTrade{}, fmt.Errorf("record trade: %w", err)
	}
	if t.TradeType == core.TradeSell {
		if held := Holding(st, t.Asset); t.Quantity.GreaterThan(held) {
			return core.AssetTrade{}, fmt.Errorf("%w: holding %s", ErrInsufficientQuantity, held.String())
		}
	}
	st.Assets = append(st.Assets, t)
	recordDelta(st, tradeTitle(t), t.WalletEffect(), t.ISODate, now)
	return t, nil
}

// EditTrade replaces a trade and records the change in wallet effect.
func EditTrade(st *core.State, id core.ID, in TradeInput, now time.Time) (core.AssetTrade, error) {
	idx := st.AssetIndex(id)
	if idx < 0 {
		return core.AssetTrade{}, fmt.Errorf("trade %s: %w", id, core.ErrNotFound)
	}
	t := in.trade(id)
	if err := t.Validate(); err != nil {
		return core.AssetTrade{}, fmt.Errorf("edit trade: %w", err)
	}
	old := st.Assets[idx]
	for _, asset := range []string{old.Asset, t.Asset} {
		if held := holdingReplacing(st, idx, t, asset); held.IsNegative() {
			return core.AssetTrade{}, fmt.Errorf("edit trade: %w: holding %s", ErrInsufficientQuantity, held.String())
		}
	}
	st.Assets[idx] = t
	recordDelta(st, "Düzeltme: "+AssetLabel(t.Asset), t.WalletEffect()-old.WalletEffect(), core.Today(now), now)
	return t, nil
}

// DeleteTrade removes a trade and reverses its wallet effect.
func DeleteTrade(st *core.State, id core.ID, now time.Time) (core.AssetTrade, error) {
	idx := st.AssetIndex(id)
	if idx < 0 {
		return core.AssetTrade{}, fmt.Errorf("trade %s: %w", id, core.ErrNotFound)
	}
	t := st.Assets[idx]
	st.Assets = append(st.Assets[:idx], st.Assets[idx+1:]...)
	verb := "Alışı"
	if t.TradeType == core.TradeSell {
		verb = "Satışı"
	}
	recordDelta(st, fmt.Sprintf("İptal: %s %s", AssetLabel(t.Asset), verb), -t.WalletEffect(), core.Today(now), now)
	return t, nil
}

// Position is the open holding of one asset with its weighted-average cost.
type Position struct {
	Asset     string
	Quantity  decimal.Decimal
	TotalCost decimal.Decimal // minor units
	AvgCost   decimal.Decimal // minor units per unit
}

// Value prices the position at the given unit price in minor units.
func (p Position) Value(price int64) int64 {
	return p.Quantity.Mul(decimal.NewFromInt(price)).Round(0).IntPart()
}

// Positions replays trades in date order. Sales reduce cost at the running
// average; a holding that falls to dust resets to zero.
func Positions(st *core.State) []Position {
	trades := append([]core.AssetTrade(nil), st.Assets...)
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].ISODate.Before(trades[j].ISODate)
	})

	byAsset := map[string]*Position{}
	var order []string
	for _, t := range trades {
		p, ok := byAsset[t.Asset]
		if !ok {
			p = &Position{Asset: t.Asset, Quantity: decimal.Zero, TotalCost: decimal.Zero, AvgCost: decimal.Zero}
			byAsset[t.Asset] = p
			order = append(order, t.Asset)
		}
		price := decimal.NewFromInt(t.Price.Cents)
		if t.TradeType == core.TradeBuy {
			p.TotalCost = p.TotalCost.Add(t.Quantity.Mul(price))
			p.Quantity = p.Quantity.Add(t.Quantity)
		} else if p.Quantity.IsPositive() {
			avg := p.TotalCost.Div(p.Quantity)
			p.Quantity = p.Quantity.Sub(t.Quantity)
			p.TotalCost = p.TotalCost.Sub(t.Quantity.Mul(avg))
		}
		if p.Quantity.LessThanOrEqual(dustQuantity) {
			p.Quantity = decimal.Zero
			p.TotalCost = decimal.Zero
		}
		p.AvgCost = decimal.Zero
		if p.Quantity.IsPositive() {
			p.AvgCost = p.TotalCost.Div(p.Quantity)
		}
	}

	out := make([]Position, 0, len(order))
	for _, k := range order {
		if byAsset[k].Quantity.IsPositive() {
			out = append(out, *byAsset[k])
		}
	}
	return out
}
