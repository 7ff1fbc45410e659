package share

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hwaldner/cloudcanvas/pkg/errors"
)

// FileStore is a file-based share store for CLI and single-host use.
// Shares are stored as JSON files in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based share store.
// If baseDir is empty, defaults to ~/.config/cloudcanvas/shares/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "cloudcanvas", "shares")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create share dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// sharePath maps an id to a file path. The id is validated first so it can
// never escape the base directory.
func (s *FileStore) sharePath(id string) (string, error) {
	if err := errors.ValidateShareID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, id+".json"), nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Share, error) {
	path, err := s.sharePath(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read share file: %w", err)
	}

	var sh Share
	if err := json.Unmarshal(data, &sh); err != nil {
		return nil, fmt.Errorf("parse share: %w", err)
	}

	if sh.IsExpired() {
		s.mu.Lock()
		os.Remove(path)
		s.mu.Unlock()
		return nil, nil
	}
	return &sh, nil
}

func (s *FileStore) Set(ctx context.Context, sh *Share) error {
	path, err := s.sharePath(sh.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(sh, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal share: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write share file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	path, err := s.sharePath(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove share file: %w", err)
	}
	return nil
}

// Cleanup removes expired share files.
func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read share dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var sh Share
		if err := json.Unmarshal(data, &sh); err != nil {
			// Unreadable entries are removed rather than kept forever.
			os.Remove(path)
			continue
		}
		if sh.IsExpired() {
			os.Remove(path)
		}
	}
	return nil
}

// Close does nothing for file store.
func (s *FileStore) Close(ctx context.Context) error {
	return nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
