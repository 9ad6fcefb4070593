package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/zcc135820/reqpipe/internal/util"
)

// FileStore persists credentials as a flat JSON object on disk, e.g. {"token": "..."}.
// Other keys in the file are preserved.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  string
}

// NewFileStore creates a store backed by the JSON file at path.
func NewFileStore(path, key string) (*FileStore, error) {
	resolved, err := util.ResolvePath(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	if resolved == "" {
		return nil, fmt.Errorf("file store: path is required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("file store: key is required")
	}
	return &FileStore{path: resolved, key: key}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Token implements client.CredentialProvider.
func (s *FileStore) Token(context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.readLocked()
	if err != nil {
		log.WithError(err).Warn("file store: read credential failed")
		return "", false
	}
	token := strings.TrimSpace(entries[s.key])
	return token, token != ""
}

// Set implements client.CredentialStore.
func (s *FileStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.readLocked()
	if err != nil {
		return err
	}
	entries[s.key] = strings.TrimSpace(token)
	return s.writeLocked(entries)
}

// Clear implements client.CredentialProvider. Clearing an absent credential is a no-op.
func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.readLocked()
	if err != nil {
		return err
	}
	if _, ok := entries[s.key]; !ok {
		return nil
	}
	delete(entries, s.key)
	return s.writeLocked(entries)
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) readLocked() (map[string]string, error) {
	entries := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("file store: read %s: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return entries, nil
	}
	if err = json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("file store: decode %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *FileStore) writeLocked(entries map[string]string) error {
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("file store: encode: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("file store: create dir failed: %w", err)
	}
	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("file store: write temp file: %w", err)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("file store: rename file: %w", err)
	}
	return nil
}
