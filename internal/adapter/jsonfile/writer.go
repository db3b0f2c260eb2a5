package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/fuel-price-etl/internal/domain"
	"github.com/google/renameio/v2"
)

// Writer publishes the densified document as a single JSON file.
// It implements pipeline.Loader.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a writer for the file at path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Load replaces the output file with doc. The file is swapped in with a rename,
// so readers see either the previous document or the new one, never a partial write.
func (w *Writer) Load(ctx context.Context, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := renameio.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}

	w.logger.Info("document written", "path", w.path, "stations", len(doc.Stations), "bytes", len(data))
	return nil
}

// Read decodes a document previously written by Load.
func Read(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}
