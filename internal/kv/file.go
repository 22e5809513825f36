package kv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/petdesk/internal/pathx"
)

// FileStore persists values in a TOML file, rewritten on every mutation.
// A missing or unreadable file starts empty.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

var _ Store = (*FileStore)(nil)

type fileDocument struct {
	Values map[string]string `toml:"values"`
}

// OpenFile loads the store at path, creating nothing until the first write.
func OpenFile(path string) (*FileStore, error) {
	resolved, err := pathx.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	s := &FileStore{path: resolved, values: make(map[string]string)}

	bytes, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	var doc fileDocument
	if err := toml.Unmarshal(bytes, &doc); err != nil {
		// A corrupt file only costs a fresh login.
		return s, nil
	}
	for k, v := range doc.Values {
		s.values[k] = v
	}
	return s, nil
}

// Path returns the resolved file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	if !had {
		return nil
	}
	delete(s.values, key)
	if err := s.flush(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

func (s *FileStore) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	bytes, err := toml.Marshal(fileDocument{Values: s.values})
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	return writeFileAtomic(s.path, bytes)
}

// writeFileAtomic replaces path with data through a temp file in the same
// directory, so readers see either the old or the new document.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write store: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync store: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
