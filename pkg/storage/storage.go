package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned by Open when no file has the requested name
var ErrNotFound = errors.New("file not found")

// FileStore persists generated documents by flat file name
type FileStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// CleanName rejects names that are empty or would escape the store root
func CleanName(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return name, nil
}

// LocalStore keeps files in a directory on the server
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, name string, data []byte, contentType string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}

// MemoryStore is an in-process FileStore
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte)}
}

func (s *MemoryStore) Save(ctx context.Context, name string, data []byte, contentType string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.files[name] = append([]byte(nil), data...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.files[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
