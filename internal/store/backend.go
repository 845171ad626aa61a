package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrDocumentNotFound is returned by a Backend when the document has never been written
var ErrDocumentNotFound = errors.New("document not found")

// Backend reads and writes the whole JSON document of one collection
type Backend interface {
	// Read returns the raw document.
	// Returns ErrDocumentNotFound if the document does not exist yet.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the whole document.
	// Readers must observe either the previous or the new document, never a mix.
	Write(ctx context.Context, data []byte) error

	// Location describes where the document lives, for logs
	Location() string
}

// FileBackend stores a collection as a JSON file on local disk
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend for the file at path
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Read reads the file
func (b *FileBackend) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", b.path, err)
	}
	return data, nil
}

// Write replaces the file through a temporary file and a rename
func (b *FileBackend) Write(ctx context.Context, data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, b.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", b.path, err)
	}
	return nil
}

// Location returns the file path
func (b *FileBackend) Location() string {
	return b.path
}
