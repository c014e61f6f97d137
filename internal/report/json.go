package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/psibatch/psibatch/internal/audit"
)

// JSONWriter dumps every result record as an indented JSON array.
type JSONWriter struct {
	path string
}

// NewJSONWriter writes to path, creating parent directories on demand.
func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

// Name identifies the format in logs and config.
func (w *JSONWriter) Name() string { return "json" }

// Write renders the machine-readable dump.
func (w *JSONWriter) Write(results []audit.Result) error {
	payload, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	return writeFile(w.path, payload)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create report dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
