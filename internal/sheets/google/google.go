package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"kasa/internal/core"
	ports "kasa/internal/sheets"
)

// DefaultSheetName is the base name of the yearly expense sheets.
const DefaultSheetName = "Harcamalar"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Harcamalar"); each expense goes to the
	// sheet of its own year.
	sheetBase string
}

// Ensure interface conformance
var (
	_ ports.ExpenseWriter = (*Client)(nil)
	_ ports.BatchWriter   = (*Client)(nil)
	_ ports.MonthReader   = (*Client)(nil)
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: strings.TrimSpace(spreadsheetID), sheetBase: sheetName}
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials, inline or from a file. GOOGLE_APPLICATION_CREDENTIALS is the
// last resort.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// SheetFor is the sheet an expense dated in the given year is written to.
func (c *Client) SheetFor(year int) string {
	return yearPrefixedName(c.sheetBase, year)
}

func (c *Client) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	return c.append(ctx, c.SheetFor(e.ISODate.Year()), [][]any{toRow(e)})
}

// AppendBatch writes the expenses with one request per yearly sheet and
// returns the range of the last request.
func (c *Client) AppendBatch(ctx context.Context, es []core.Expense) (string, error) {
	byYear := make(map[int][][]any)
	years := make([]int, 0)
	for _, e := range es {
		if err := e.Validate(); err != nil {
			return "", fmt.Errorf("validation failed for %s: %w", e.ID, err)
		}
		y := e.ISODate.Year()
		if _, ok := byYear[y]; !ok {
			years = append(years, y)
		}
		byYear[y] = append(byYear[y], toRow(e))
	}
	var last string
	for _, y := range years {
		rng, err := c.append(ctx, c.SheetFor(y), byYear[y])
		if err != nil {
			return last, err
		}
		last = rng
	}
	return last, nil
}

func (c *Client) append(ctx context.Context, sheet string, rows [][]any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:F", quoteSheet(sheet))
	vr := &gsheet.ValueRange{Values: rows}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	if resp.Updates == nil {
		return rng, nil
	}
	return resp.Updates.UpdatedRange, nil
}

// ReadMonthOverview scans the expense sheet of the month's year and
// aggregates the month's rows by category.
func (c *Client) ReadMonthOverview(ctx context.Context, ym core.YearMonth) (core.MonthOverview, error) {
	exps, err := c.ListExpenses(ctx, ym)
	if err != nil {
		return core.MonthOverview{}, err
	}
	return core.SummarizeMonth(exps, ym), nil
}

// ListExpenses reads back the rows of a month. Rows that do not parse are
// skipped.
func (c *Client) ListExpenses(ctx context.Context, ym core.YearMonth) ([]core.Expense, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if ym.Month < 1 || ym.Month > 12 {
		return nil, fmt.Errorf("invalid month: %d", ym.Month)
	}
	rng := fmt.Sprintf("%s!A:F", quoteSheet(c.SheetFor(ym.Year)))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	var out []core.Expense
	for _, row := range resp.Values {
		e, ok := parseRow(row)
		if !ok || !ym.Contains(e.ISODate) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// toRow lays an expense out in Header order. The amount is a number in
// major units so the sheet can sum it.
func toRow(e core.Expense) []any {
	amount := decimal.New(e.Amount.Cents, -2).InexactFloat64()
	return []any{e.ISODate.Display(), e.Merchant, e.Description, amount, e.Method, e.Category}
}

// quoteSheet quotes a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
