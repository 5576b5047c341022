// Package backup moves the ledger in and out of the JSON document shared
// with the browser app: the sync file and downloadable backups.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"kasa/internal/core"
	"kasa/internal/log"
	"kasa/internal/storage"
)

// lastSyncLayout matches JavaScript's Date.toISOString.
const lastSyncLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	// ErrInvalidBackup is returned when a document lacks the expense and
	// card arrays every backup carries.
	ErrInvalidBackup = errors.New("invalid or outdated backup file")
	// ErrEmptyDocument is returned for a blank file.
	ErrEmptyDocument = errors.New("empty document")
)

var (
	isoNamePattern = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	trNamePattern  = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`)
)

// Document is the on-disk form of the ledger. Fields are kept raw so a
// document can be merged into the store without decoding it, leaving legacy
// amounts for the currency migration.
type Document struct {
	Expenses        json.RawMessage `json:"expenses,omitempty"`
	Cards           json.RawMessage `json:"cards,omitempty"`
	Assets          json.RawMessage `json:"assets,omitempty"`
	Methods         json.RawMessage `json:"methods,omitempty"`
	Categories      json.RawMessage `json:"categories,omitempty"`
	Merchants       json.RawMessage `json:"merchants,omitempty"`
	RecurringPlans  json.RawMessage `json:"recurringPlans,omitempty"`
	RecurringIncome json.RawMessage `json:"recurringIncome,omitempty"`
	BalanceLogs     json.RawMessage `json:"balanceLogs,omitempty"`
	IsDark          json.RawMessage `json:"isDark,omitempty"`
	IsPrivacyMode   json.RawMessage `json:"isPrivacyMode,omitempty"`
	DataVersion     json.RawMessage `json:"dataVersion,omitempty"`
	LastSync        json.RawMessage `json:"lastSync,omitempty"`
}

type binding struct {
	key   string
	field *json.RawMessage
}

// bindings pairs each document field with its store key.
func (d *Document) bindings() []binding {
	return []binding{
		{storage.KeyExpenses, &d.Expenses},
		{storage.KeyCards, &d.Cards},
		{storage.KeyAssets, &d.Assets},
		{storage.KeyMethods, &d.Methods},
		{storage.KeyCategories, &d.Categories},
		{storage.KeyMerchants, &d.Merchants},
		{storage.KeyRecurringPlans, &d.RecurringPlans},
		{storage.KeyRecurringIncome, &d.RecurringIncome},
		{storage.KeyBalanceLogs, &d.BalanceLogs},
		{storage.KeyDarkMode, &d.IsDark},
		{storage.KeyPrivacyMode, &d.IsPrivacyMode},
		{storage.KeyDataVersion, &d.DataVersion},
		{storage.KeyLastSync, &d.LastSync},
	}
}

// Values returns the fields the document actually carries, keyed for the
// store and compacted, so a key reads the same whether the ledger or a
// pretty-printed file wrote it. Absent and null fields are left out.
func (d Document) Values() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage)
	for _, b := range d.bindings() {
		if present(*b.field) {
			out[b.key] = compact(*b.field)
		}
	}
	return out
}

func compact(v json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return v
	}
	return buf.Bytes()
}

func present(v json.RawMessage) bool {
	s := strings.TrimSpace(string(v))
	return s != "" && s != "null"
}

// Serialize renders the whole ledger with lastSync stamped as now.
func Serialize(st *core.State, now time.Time) (Document, error) {
	values, err := storage.EncodeState(st)
	if err != nil {
		return Document{}, fmt.Errorf("serialize ledger: %w", err)
	}
	var doc Document
	for _, b := range doc.bindings() {
		if v, ok := values[b.key]; ok {
			*b.field = v
		}
	}
	stamp, err := json.Marshal(now.UTC().Format(lastSyncLayout))
	if err != nil {
		return Document{}, err
	}
	doc.LastSync = stamp
	return doc, nil
}

// Marshal renders the document pretty-printed with two-space indentation.
func (d Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Parse decodes a document. Blank input yields ErrEmptyDocument.
func Parse(data []byte) (Document, error) {
	var doc Document
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, ErrEmptyDocument
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// ApplyDocument merges a document into the store. Only the fields it
// carries are written; everything else keeps its stored value. The next
// ledger open migrates legacy amounts and binds card references.
func ApplyDocument(ctx context.Context, store storage.KV, doc Document) (int, error) {
	values := doc.Values()
	if len(values) == 0 {
		return 0, nil
	}
	if err := store.Save(ctx, values); err != nil {
		return 0, fmt.Errorf("apply document: %w", err)
	}
	log.FromContext(ctx).WithComponent(log.ComponentSync).InfoContext(ctx, "Applied sync document",
		log.FieldKeys, len(values))
	return len(values), nil
}

// Import restores a backup file, replacing every collection. Methods and
// categories are merged with the defaults, collections the backup lacks
// become empty, and a backup older than the minor-unit format resets the
// data version so its amounts are migrated on the next open.
func Import(ctx context.Context, store storage.KV, doc Document, filename string, modTime, now time.Time) error {
	if !isArray(doc.Expenses) || !isArray(doc.Cards) {
		return ErrInvalidBackup
	}

	methods, err := mergeDefaults(doc.Methods, core.DefaultMethods)
	if err != nil {
		return fmt.Errorf("import methods: %w", err)
	}
	categories, err := mergeDefaults(doc.Categories, core.DefaultCategories)
	if err != nil {
		return fmt.Errorf("import categories: %w", err)
	}

	values := map[string]json.RawMessage{
		storage.KeyExpenses:        doc.Expenses,
		storage.KeyCards:           doc.Cards,
		storage.KeyMethods:         methods,
		storage.KeyCategories:      categories,
		storage.KeyRecurringPlans:  orEmpty(doc.RecurringPlans),
		storage.KeyRecurringIncome: orEmpty(doc.RecurringIncome),
		storage.KeyBalanceLogs:     orEmpty(doc.BalanceLogs),
		storage.KeyAssets:          orEmpty(doc.Assets),
	}
	if present(doc.Merchants) {
		values[storage.KeyMerchants] = doc.Merchants
	}
	if present(doc.IsDark) {
		values[storage.KeyDarkMode] = doc.IsDark
	}
	if present(doc.IsPrivacyMode) {
		values[storage.KeyPrivacyMode] = doc.IsPrivacyMode
	}

	synced, ok := LastSync(doc, filename, modTime)
	if !ok {
		synced = now
	}
	if values[storage.KeyLastSync], err = json.Marshal(synced.UTC().Format(lastSyncLayout)); err != nil {
		return err
	}

	version, err := storage.DecodeVersion(doc.DataVersion)
	if err != nil || version < 2 {
		version = 1
	}
	values[storage.KeyDataVersion] = json.RawMessage(strconv.Itoa(version))
	for k, v := range values {
		values[k] = compact(v)
	}

	if err := store.Save(ctx, values); err != nil {
		return fmt.Errorf("import backup: %w", err)
	}
	log.FromContext(ctx).WithComponent(log.ComponentSync).InfoContext(ctx, "Backup imported",
		log.FieldOperation, log.OpImport,
		log.FieldPath, filename,
		"data_version", version)
	return nil
}

func isArray(v json.RawMessage) bool {
	s := bytes.TrimSpace(v)
	return len(s) > 0 && s[0] == '['
}

func orEmpty(v json.RawMessage) json.RawMessage {
	if present(v) {
		return v
	}
	return json.RawMessage("[]")
}

func mergeDefaults(v json.RawMessage, defaults []string) (json.RawMessage, error) {
	var extra []string
	if present(v) {
		if err := json.Unmarshal(v, &extra); err != nil {
			return nil, err
		}
	}
	return json.Marshal(core.Union(defaults, extra))
}

// LastSync works out when a document was last written: its own lastSync
// field, else a date in the file name (YYYY-MM-DD or DD.MM.YYYY, taken at
// local noon), else the file's modification time.
func LastSync(doc Document, filename string, modTime time.Time) (time.Time, bool) {
	if present(doc.LastSync) {
		var s string
		if err := json.Unmarshal(doc.LastSync, &s); err == nil {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t, true
			}
		}
	}
	if m := isoNamePattern.FindStringSubmatch(filename); m != nil {
		if t, ok := noon(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if m := trNamePattern.FindStringSubmatch(filename); m != nil {
		if t, ok := noon(m[3], m[2], m[1]); ok {
			return t, true
		}
	}
	if !modTime.IsZero() {
		return modTime, true
	}
	return time.Time{}, false
}

func noon(year, month, day string) (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02 15:04", year+"-"+month+"-"+day+" 12:00", time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Freshness grades how recent the last sync is.
type Freshness int

const (
	FreshnessUnknown Freshness = iota
	FreshnessRecent            // within three days
	FreshnessAging             // within five days
	FreshnessStale
)

func (f Freshness) String() string {
	switch f {
	case FreshnessRecent:
		return "recent"
	case FreshnessAging:
		return "aging"
	case FreshnessStale:
		return "stale"
	}
	return "unknown"
}

// SyncFreshness grades lastSync as of now.
func SyncFreshness(lastSync, now time.Time) Freshness {
	if lastSync.IsZero() {
		return FreshnessUnknown
	}
	age := now.Sub(lastSync)
	switch {
	case age <= 3*24*time.Hour:
		return FreshnessRecent
	case age <= 5*24*time.Hour:
		return FreshnessAging
	}
	return FreshnessStale
}
