package avatars

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for object names that are not a plain file name
var ErrInvalidName = errors.New("invalid avatar name")

// AllowedExtensions lists the image extensions accepted for avatars and static images
var AllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Storage keeps avatar images
type Storage interface {
	// Save stores the image under name, replacing any previous object
	Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) error

	// Delete removes the image. Deleting a missing image is not an error.
	Delete(ctx context.Context, name string) error

	// ServeAvatar writes the image (or a redirect to it) to w
	ServeAvatar(w http.ResponseWriter, r *http.Request, name string)
}

// ValidName reports whether name is a plain file name with an allowed image extension
func ValidName(name string) bool {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return false
	}
	return AllowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// LocalStorage keeps avatars in a directory on local disk
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates the directory if needed
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create avatar directory: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

// Save writes the image to disk
func (s *LocalStorage) Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}

	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create avatar file: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write avatar file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close avatar file: %w", err)
	}
	return nil
}

// Delete removes the image from disk
func (s *LocalStorage) Delete(ctx context.Context, name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete avatar file: %w", err)
	}
	return nil
}

// ServeAvatar serves the file from disk. Names are never reused, so the
// response may be cached for a year.
func (s *LocalStorage) ServeAvatar(w http.ResponseWriter, r *http.Request, name string) {
	if !ValidName(name) {
		writeError(w, "Avatar not found", http.StatusNotFound)
		return
	}

	path := filepath.Join(s.dir, name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		writeError(w, "Avatar not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(w, r, path)
}

// writeError sends the JSON error body used by every handler
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
