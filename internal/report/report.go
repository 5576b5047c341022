// Package report renders ledger views as markdown for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"kasa/internal/backup"
	"kasa/internal/core"
	"kasa/internal/market"
	"kasa/internal/services"
)

const masked = "***"

// Printer formats amounts for one session. In privacy mode every amount is
// masked.
type Printer struct {
	Formatter *core.Formatter
	Privacy   bool
}

func NewPrinter(f *core.Formatter, privacy bool) *Printer {
	if f == nil {
		f, _ = core.NewFormatter(core.DefaultCurrency)
	}
	return &Printer{Formatter: f, Privacy: privacy}
}

func (p *Printer) money(cents int64) string {
	if p.Privacy {
		return masked
	}
	return p.Formatter.Format(cents)
}

// cell escapes the pipe so free text cannot break a table row.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// Render turns markdown into styled terminal output.
func Render(md string, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// Print renders md to w. When raw is set the markdown is written as is.
func Print(w io.Writer, md string, raw bool) error {
	if raw {
		_, err := io.WriteString(w, md)
		return err
	}
	out, err := Render(md, 0)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Expenses lists expenses newest first as they are stored.
func (p *Printer) Expenses(title string, exps []core.Expense) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(exps) == 0 {
		b.WriteString("_Kayıt yok._\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| Tarih | Yer | Tutar | Yöntem | Kategori | ID |")
	fmt.Fprintln(&b, "|:---|:---|---:|:---|:---|:---|")
	for _, e := range exps {
		merchant := cell(e.Merchant)
		if e.IsRecurring {
			merchant += " ↻"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | `%s` |\n",
			e.ISODate.Display(), merchant, p.money(e.Amount.Cents), cell(e.Method), cell(e.Category), e.ID)
	}
	return b.String()
}

// Month renders the spending summary of a calendar month.
func (p *Printer) Month(ov core.MonthOverview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Özeti\n\n", ov.Month)
	fmt.Fprintf(&b, "- **Toplam:** %s\n", p.money(ov.Total.Cents))
	fmt.Fprintf(&b, "- **Cüzdandan:** %s\n", p.money(ov.Wallet.Cents))
	fmt.Fprintf(&b, "- **Kartla:** %s\n\n", p.money(ov.Card.Cents))
	if len(ov.ByCategory) == 0 {
		return b.String()
	}
	fmt.Fprintln(&b, "| Kategori | Tutar |")
	fmt.Fprintln(&b, "|:---|---:|")
	for _, c := range ov.ByCategory {
		fmt.Fprintf(&b, "| %s | %s |\n", cell(c.Name), p.money(c.Amount.Cents))
	}
	return b.String()
}

// Statement renders one card's billing cycle.
func (p *Printer) Statement(s services.Statement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cell(s.Card.Name))
	fmt.Fprintf(&b, "Dönem: %s - %s, son ödeme %s\n\n", s.Window.Start.Display(), s.Window.End.Display(), s.DueDate.Display())
	fmt.Fprintln(&b, "| Limit | Toplam Borç | Dönem Borcu | Ekstre Borcu | Kalan Limit |")
	fmt.Fprintln(&b, "|---:|---:|---:|---:|---:|")
	fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n\n",
		p.money(s.Card.Limit.Cents), p.money(s.TotalDebt), p.money(s.PeriodDebt), p.money(s.StatementDebt), p.money(s.RemainingLimit))
	if len(s.Operations) == 0 {
		b.WriteString("_Bu dönemde işlem yok._\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| Tarih | İşlem | Tutar |")
	fmt.Fprintln(&b, "|:---|:---|---:|")
	for _, e := range s.Operations {
		amount := p.money(e.Amount.Cents)
		if e.IsPayment && !p.Privacy {
			amount = "-" + amount
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", e.ISODate.Display(), cell(e.Merchant), amount)
	}
	return b.String()
}

// Cards renders the totals over every card.
func (p *Printer) Cards(st *core.State, ov services.CardsOverview) string {
	var b strings.Builder
	b.WriteString("# Kartlar\n\n")
	if len(st.Cards) == 0 {
		b.WriteString("_Kart yok._\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| Kart | Kesim | Limit | Borç | Kalan | ID |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|:---|")
	for _, c := range st.Cards {
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | `%s` |\n",
			cell(c.Name), c.Cutoff, p.money(c.Limit.Cents), p.money(services.CardDebt(st, c)), p.money(services.RemainingLimit(st, c)), c.ID)
	}
	fmt.Fprintf(&b, "\n- **Toplam limit:** %s\n", p.money(ov.TotalLimit))
	fmt.Fprintf(&b, "- **Toplam borç:** %s\n", p.money(ov.TotalDebt))
	fmt.Fprintf(&b, "- **Dönem borcu:** %s\n", p.money(ov.PeriodDebt))
	fmt.Fprintf(&b, "- **Kalan limit:** %s\n", p.money(ov.RemainingLimit))
	return b.String()
}

// Plans renders recurring plans and incomes with the month's commitment.
func (p *Printer) Plans(st *core.State, today core.Date) string {
	var b strings.Builder
	b.WriteString("# Düzenli Ödemeler\n\n")
	if len(st.RecurringPlans) == 0 {
		b.WriteString("_Plan yok._\n")
	} else {
		fmt.Fprintln(&b, "| Plan | Gün | Tutar | Net | Yöntem | Durum | Kampanya | ID |")
		fmt.Fprintln(&b, "|:---|---:|---:|---:|:---|:---|:---|:---|")
		ym := core.MonthOf(today)
		for _, plan := range st.RecurringPlans {
			state := "aktif"
			switch {
			case !plan.Active:
				state = "durdu"
			case !plan.AutoPay:
				state = "manuel"
			}
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s | %s | `%s` |\n",
				cell(plan.Name), plan.Day, p.money(plan.Amount.Cents), p.money(plan.NetAmount(ym.Day(plan.Day))),
				cell(plan.Method), state, services.CampaignStatus(plan, today), plan.ID)
		}
		fmt.Fprintf(&b, "\n**Aylık taahhüt:** %s\n", p.money(services.MonthlyCommitment(st, core.MonthOf(today))))
	}

	b.WriteString("\n## Düzenli Gelirler\n\n")
	if len(st.RecurringIncome) == 0 {
		b.WriteString("_Gelir yok._\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| Gelir | Gün | Tutar | Durum | ID |")
	fmt.Fprintln(&b, "|:---|---:|---:|:---|:---|")
	for _, inc := range st.RecurringIncome {
		state := "aktif"
		if !inc.Active {
			state = "durdu"
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s | `%s` |\n", cell(inc.Name), inc.Day, p.money(inc.Amount.Cents), state, inc.ID)
	}
	return b.String()
}

// Wallet renders the balance and the latest entries, newest first.
func (p *Printer) Wallet(st *core.State, limit int) string {
	var b strings.Builder
	b.WriteString("# Cüzdan\n\n")
	fmt.Fprintf(&b, "**Bakiye:** %s\n\n", p.money(services.Balance(st)))
	logs := st.BalanceLogs
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	if len(logs) == 0 {
		return b.String()
	}
	fmt.Fprintln(&b, "| Tarih | Açıklama | Tutar |")
	fmt.Fprintln(&b, "|:---|:---|---:|")
	for _, l := range logs {
		date := ""
		if !l.Date.IsZero() {
			date = l.Date.Display()
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", date, cell(l.Title), p.money(l.Amount.Cents))
	}
	return b.String()
}

// Portfolio renders open positions valued at the given quotes.
func (p *Printer) Portfolio(positions []services.Position, q market.Quotes) string {
	var b strings.Builder
	b.WriteString("# Yatırımlar\n\n")
	if len(positions) == 0 {
		b.WriteString("_Açık pozisyon yok._\n")
		return b.String()
	}
	if q.Fallback {
		b.WriteString("> Fiyatlar güncel değil, son bilinen değerler kullanıldı.\n\n")
	}
	fmt.Fprintln(&b, "| Varlık | Miktar | Ort. Maliyet | Maliyet | Fiyat | Değer | K/Z |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|---:|")
	var cost, value int64
	for _, pos := range positions {
		total := pos.TotalCost.Round(0).IntPart()
		price, ok := q.MinorUnits(pos.Asset)
		if !ok {
			// unquoted assets are held at cost
			price = pos.AvgCost.Round(0).IntPart()
		}
		v := pos.Value(price)
		cost += total
		value += v
		fmt.Fprintf(&b, "| %s | %s %s | %s | %s | %s | %s | %s |\n",
			services.AssetLabel(pos.Asset), pos.Quantity.String(), services.AssetUnit(pos.Asset),
			p.money(pos.AvgCost.Round(0).IntPart()), p.money(total), p.money(price), p.money(v), p.money(v-total))
	}
	fmt.Fprintf(&b, "\n- **Toplam maliyet:** %s\n", p.money(cost))
	fmt.Fprintf(&b, "- **Toplam değer:** %s\n", p.money(value))
	fmt.Fprintf(&b, "- **Kâr/Zarar:** %s\n", p.money(value-cost))
	return b.String()
}

// Sync renders when the ledger was last written to the sync file.
func Sync(lastSync, now time.Time) string {
	f := backup.SyncFreshness(lastSync, now)
	if f == backup.FreshnessUnknown {
		return "Son yedek: bilinmiyor\n"
	}
	return fmt.Sprintf("Son yedek: %s (%s)\n", lastSync.Local().Format("02.01.2006 15:04"), f)
}
