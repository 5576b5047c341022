package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"kasa/internal/core"
	"kasa/internal/log"
	"kasa/internal/storage"
)

// FileName is the default backup file name for the given day, for example
// "08.02.2026 tarihli Cebimdeki Kasa.json".
func FileName(now time.Time) string {
	return core.Today(now).Display() + " tarihli Cebimdeki Kasa.json"
}

// FileTransport keeps the ledger in a JSON file next to the store, the
// way the browser app keeps a linked sync file.
type FileTransport struct {
	path string
}

// NewFileTransport returns a transport for path. When path is an existing
// directory each write goes to a dated FileName inside it.
func NewFileTransport(path string) *FileTransport {
	return &FileTransport{path: path}
}

func (t *FileTransport) target(now time.Time) string {
	if info, err := os.Stat(t.path); err == nil && info.IsDir() {
		return filepath.Join(t.path, FileName(now))
	}
	return t.path
}

// WriteSnapshot writes the whole ledger, replacing the file atomically.
func (t *FileTransport) WriteSnapshot(ctx context.Context, st *core.State, now time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, err := Serialize(st, now)
	if err != nil {
		return "", err
	}
	data, err := doc.Marshal()
	if err != nil {
		return "", fmt.Errorf("encode sync file: %w", err)
	}

	path := t.target(now)
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("write sync file: %w", err)
	}
	log.FromContext(ctx).WithComponent(log.ComponentSync).DebugContext(ctx, "Sync file written",
		log.FieldPath, path,
		"bytes", len(data))
	return path, nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".kasa-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Read loads the sync file. A missing or blank file yields ErrEmptyDocument.
func (t *FileTransport) Read(ctx context.Context) (Document, fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, nil, err
	}
	data, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Document{}, nil, ErrEmptyDocument
	}
	if err != nil {
		return Document{}, nil, fmt.Errorf("read sync file: %w", err)
	}
	info, err := os.Stat(t.path)
	if err != nil {
		return Document{}, nil, fmt.Errorf("stat sync file: %w", err)
	}
	doc, err := Parse(data)
	return doc, info, err
}

// PullReport describes a pull from the sync file.
type PullReport struct {
	Keys     int
	LastSync time.Time
}

// Pull merges the sync file into the store and records when the file was
// written. A blank file is not an error and changes nothing.
func (t *FileTransport) Pull(ctx context.Context, store storage.KV) (PullReport, error) {
	var report PullReport
	doc, info, err := t.Read(ctx)
	if errors.Is(err, ErrEmptyDocument) {
		log.FromContext(ctx).WithComponent(log.ComponentSync).InfoContext(ctx, "Sync file is empty, keeping current ledger",
			log.FieldPath, t.path)
		return report, nil
	}
	if err != nil {
		return report, err
	}

	var modTime time.Time
	if info != nil {
		modTime = info.ModTime()
	}
	if synced, ok := LastSync(doc, filepath.Base(t.path), modTime); ok {
		report.LastSync = synced
		stamp := synced.UTC().Format(lastSyncLayout)
		doc.LastSync = []byte(`"` + stamp + `"`)
	}
	if report.Keys, err = ApplyDocument(ctx, store, doc); err != nil {
		return report, err
	}
	return report, nil
}

// ImportFile restores a downloaded backup from path.
func ImportFile(ctx context.Context, store storage.KV, path string, now time.Time) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat backup: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return err
	}
	return Import(ctx, store, doc, filepath.Base(path), info.ModTime(), now)
}
