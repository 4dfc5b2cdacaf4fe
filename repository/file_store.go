package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/lawaid/soulsystem-backend/models"
)

// FileStore keeps the registry as a JSON file on local disk.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore at path. The file is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", s.path, err)
	}
	return data, nil
}

// Load reads the registry file; a missing file yields an empty document.
func (s *FileStore) Load(_ context.Context) (*models.Registry, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return nil, "", err
	}
	doc, err := models.DecodeRegistry(data)
	if err != nil {
		return nil, "", fmt.Errorf("decode registry %s: %w", s.path, err)
	}
	return doc, contentVersion(data), nil
}

// Save writes to a temp file in the same directory and renames it over the
// registry so readers never observe a half-written document.
func (s *FileStore) Save(_ context.Context, doc *models.Registry, expected string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return "", err
	}
	if contentVersion(current) != expected {
		return "", ErrVersionConflict
	}

	data, err := doc.Encode()
	if err != nil {
		return "", fmt.Errorf("encode registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create registry dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp registry: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync temp registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp registry: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return "", fmt.Errorf("replace registry %s: %w", s.path, err)
	}
	return contentVersion(data), nil
}
