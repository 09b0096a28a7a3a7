// Package jsonstore persists settings objects as JSON files in the
// user-data directory. Writes are atomic (temp file + rename) and loads
// never fail hard: a missing or unreadable file yields no value so the
// caller falls back to its defaults.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Save marshals v with indentation and writes it atomically to path,
// creating parent directories as needed.
func Save(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

// Load reads path into v. It returns false when the file does not exist or
// cannot be parsed; parse failures are logged under tag, never escalated.
func Load(path string, v any, tag string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Error("Failed to read settings file", "tag", tag, "path", path, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		slog.Error("Failed to parse settings file", "tag", tag, "path", path, "error", err)
		return false
	}
	return true
}
