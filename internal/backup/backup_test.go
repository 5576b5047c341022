package backup

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kasa/internal/core"
	"kasa/internal/storage"
	"kasa/internal/storage/memory"
)

func TestSerializeRoundTrip(t *testing.T) {
	st := core.NewState()
	st.Cards = []core.Card{{ID: "c1", Name: "Bonus", Cutoff: 15, Limit: core.Money{Cents: 100000}}}
	st.IsDark = true
	now := time.Date(2026, 2, 8, 9, 30, 0, 0, time.UTC)

	doc, err := Serialize(st, now)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if string(doc.LastSync) != `"2026-02-08T09:30:00.000Z"` {
		t.Errorf("LastSync = %s", doc.LastSync)
	}
	data, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	values := parsed.Values()
	decoded, err := storage.DecodeState(values)
	if err != nil {
		t.Fatalf("DecodeState() error = %v", err)
	}
	if len(decoded.Cards) != 1 || decoded.Cards[0].Limit.Cents != 100000 || !decoded.IsDark {
		t.Errorf("decoded = %+v", decoded)
	}
	if !decoded.LastSync.Equal(now) {
		t.Errorf("LastSync = %v, want %v", decoded.LastSync, now)
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse([]byte("  \n")); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("Parse(blank) error = %v, want ErrEmptyDocument", err)
	}
	if _, err := Parse([]byte("{nope")); err == nil {
		t.Error("Parse(malformed) should fail")
	}
}

func TestValuesCompactsFields(t *testing.T) {
	doc, err := Parse([]byte(`{
  "merchants": [
    "Migros",
    "BIM"
  ],
  "isDark": true
}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	values := doc.Values()
	if got := string(values[storage.KeyMerchants]); got != `["Migros","BIM"]` {
		t.Errorf("Values()[merchants] = %s, want [\"Migros\",\"BIM\"]", got)
	}
	if got := string(values[storage.KeyDarkMode]); got != "true" {
		t.Errorf("Values()[dark_mode] = %s, want true", got)
	}
}

func TestImportCompactsPrettyFile(t *testing.T) {
	doc, err := Parse([]byte("{\n  \"expenses\": [],\n  \"cards\": [],\n  \"merchants\": [\n    \"A101\"\n  ]\n}"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	store := memory.New()
	if err := Import(context.Background(), store, doc, "backup.json", time.Time{}, time.Now()); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if v, _ := store.Get(storage.KeyMerchants); string(v) != `["A101"]` {
		t.Errorf("merchants = %s, want [\"A101\"]", v)
	}
}

func TestApplyDocumentIsPartial(t *testing.T) {
	ctx := context.Background()
	store := memory.NewWith(map[string]json.RawMessage{
		storage.KeyCards:    json.RawMessage(`[{"id":"c1","name":"Bonus","cutoff":1,"limit":0}]`),
		storage.KeyExpenses: json.RawMessage(`[]`),
	})
	doc := Document{
		Expenses: json.RawMessage(`[{"id":"e1","merchant":"Migros","amount":500}]`),
		Assets:   json.RawMessage(`null`),
	}

	n, err := ApplyDocument(ctx, store, doc)
	if err != nil {
		t.Fatalf("ApplyDocument() error = %v", err)
	}
	if n != 1 {
		t.Errorf("ApplyDocument() wrote %d keys, want 1", n)
	}
	if v, _ := store.Get(storage.KeyCards); string(v) != `[{"id":"c1","name":"Bonus","cutoff":1,"limit":0}]` {
		t.Errorf("cards changed to %s, absent fields must stay", v)
	}
	if _, ok := store.Get(storage.KeyAssets); ok {
		t.Error("null fields must not be written")
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		doc         string
		wantVersion string
	}{
		{"legacy without version", `{"expenses":[],"cards":[]}`, "1"},
		{"legacy version", `{"expenses":[],"cards":[],"dataVersion":1}`, "1"},
		{"minor units", `{"expenses":[],"cards":[],"dataVersion":2}`, "2"},
		{"string version", `{"expenses":[],"cards":[],"dataVersion":"3"}`, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			store := memory.New()
			if err := Import(ctx, store, doc, "backup.json", time.Time{}, now); err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if v, _ := store.Get(storage.KeyDataVersion); string(v) != tt.wantVersion {
				t.Errorf("data version = %s, want %s", v, tt.wantVersion)
			}
		})
	}
}

func TestImportMergesDefaults(t *testing.T) {
	ctx := context.Background()
	doc, _ := Parse([]byte(`{"expenses":[{"id":1}],"cards":[],"methods":["Bonus","Nakit"],"isDark":true}`))
	store := memory.New()
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

	if err := Import(ctx, store, doc, "x.json", time.Time{}, now); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	var methods []string
	v, _ := store.Get(storage.KeyMethods)
	json.Unmarshal(v, &methods)
	if len(methods) != 3 || methods[0] != "Nakit" || methods[2] != "Bonus" {
		t.Errorf("methods = %v, want defaults then Bonus", methods)
	}
	for _, key := range []string{storage.KeyRecurringPlans, storage.KeyRecurringIncome, storage.KeyBalanceLogs, storage.KeyAssets} {
		if v, _ := store.Get(key); string(v) != "[]" {
			t.Errorf("%s = %s, want []", key, v)
		}
	}
	if v, _ := store.Get(storage.KeyDarkMode); string(v) != "true" {
		t.Errorf("dark mode = %s, want true", v)
	}
	if v, _ := store.Get(storage.KeyLastSync); string(v) != `"2026-02-10T08:00:00.000Z"` {
		t.Errorf("last sync = %s, want the import time", v)
	}
}

func TestImportRejectsInvalid(t *testing.T) {
	for _, raw := range []string{`{"expenses":[]}`, `{"expenses":{},"cards":[]}`, `{"cards":[]}`} {
		doc, _ := Parse([]byte(raw))
		store := memory.New()
		if err := Import(context.Background(), store, doc, "x.json", time.Time{}, time.Now()); !errors.Is(err, ErrInvalidBackup) {
			t.Errorf("Import(%s) error = %v, want ErrInvalidBackup", raw, err)
		}
		if store.Saves() != 0 {
			t.Errorf("Import(%s) wrote to the store", raw)
		}
	}
}

func TestLastSync(t *testing.T) {
	modTime := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	noonOn := func(y, m, d int) time.Time {
		return time.Date(y, time.Month(m), d, 12, 0, 0, 0, time.Local)
	}

	tests := []struct {
		name     string
		doc      Document
		filename string
		modTime  time.Time
		want     time.Time
		wantOK   bool
	}{
		{"document field wins", Document{LastSync: json.RawMessage(`"2026-02-05T10:00:00.000Z"`)}, "2020-01-01.json", modTime, time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC), true},
		{"iso file name", Document{}, "kasa-2026-02-05.json", modTime, noonOn(2026, 2, 5), true},
		{"turkish file name", Document{}, "05.02.2026 tarihli Cebimdeki Kasa.json", modTime, noonOn(2026, 2, 5), true},
		{"bad document field falls through", Document{LastSync: json.RawMessage(`"yesterday"`)}, "kasa.json", modTime, modTime, true},
		{"modification time", Document{}, "kasa.json", modTime, modTime, true},
		{"nothing known", Document{}, "kasa.json", time.Time{}, time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LastSync(tt.doc, tt.filename, tt.modTime)
			if ok != tt.wantOK || !got.Equal(tt.want) {
				t.Errorf("LastSync() = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSyncFreshness(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		last time.Time
		want Freshness
	}{
		{time.Time{}, FreshnessUnknown},
		{now.Add(-72 * time.Hour), FreshnessRecent},
		{now.Add(-73 * time.Hour), FreshnessAging},
		{now.Add(-6 * 24 * time.Hour), FreshnessStale},
	}
	for _, tt := range tests {
		if got := SyncFreshness(tt.last, now); got != tt.want {
			t.Errorf("SyncFreshness(%v) = %v, want %v", tt.last, got, tt.want)
		}
	}
}

func TestFileTransport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "kasa.json")
	transport := NewFileTransport(path)

	if report, err := transport.Pull(ctx, memory.New()); err != nil || report.Keys != 0 {
		t.Errorf("Pull(missing file) = %+v, %v, want nothing", report, err)
	}

	st := core.NewState()
	st.Merchants = []string{"Migros"}
	now := time.Date(2026, 2, 8, 9, 0, 0, 0, time.UTC)
	written, err := transport.WriteSnapshot(ctx, st, now)
	if err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}
	if written != path {
		t.Errorf("WriteSnapshot() path = %s, want %s", written, path)
	}

	store := memory.New()
	report, err := transport.Pull(ctx, store)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if !report.LastSync.Equal(now) {
		t.Errorf("LastSync = %v, want %v", report.LastSync, now)
	}
	if v, _ := store.Get(storage.KeyMerchants); string(v) != `["Migros"]` {
		t.Errorf("merchants = %s", v)
	}
}

func TestFileTransportDirectory(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 2, 8, 12, 0, 0, 0, time.Local)
	path, err := NewFileTransport(dir).WriteSnapshot(context.Background(), core.NewState(), now)
	if err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}
	if filepath.Base(path) != "08.02.2026 tarihli Cebimdeki Kasa.json" {
		t.Errorf("file name = %s", filepath.Base(path))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot not on disk: %v", err)
	}
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "05.02.2026 tarihli Cebimdeki Kasa.json")
	if err := os.WriteFile(path, []byte(`{"expenses":[],"cards":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	store := memory.New()
	if err := ImportFile(context.Background(), store, path, time.Now()); err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	v, _ := store.Get(storage.KeyLastSync)
	var s string
	json.Unmarshal(v, &s)
	got, _ := time.Parse(time.RFC3339, s)
	want := time.Date(2026, 2, 5, 12, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("last sync = %v, want %v from the file name", got, want)
	}
}
