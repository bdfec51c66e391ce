package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"evmwallet/pkg/keys"
)

// FileStore keeps the credential as a JSON document readable only by the
// owner.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Save atomically replaces the stored credential.
func (s *FileStore) Save(cred keys.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return wrap("save", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return wrap("save", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return wrap("save", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return wrap("save", err)
	}
	return nil
}

func (s *FileStore) Load() (*keys.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("load", err)
	}
	var rec keys.Credential
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, wrap("load", ErrCorruptRecord)
	}
	cred, err := decodeCredential(rec)
	if err != nil {
		return nil, wrap("load", err)
	}
	return cred, nil
}

// Remove deletes the stored credential. A missing file is not an error.
func (s *FileStore) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return wrap("remove", err)
	}
	return nil
}
