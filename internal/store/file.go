package store

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps usernames one per line in an append-only text file. All
// operations hold one lock, so a read never observes a half-written line.
type FileStore struct {
	mu     sync.Mutex
	path   string
	append *os.File
}

// NewFileStore opens the username file at path, creating it and its parent
// directory if missing.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening username file: %w", err)
	}
	return &FileStore{path: path, append: f}, nil
}

// Exists reports whether name appears as a line in the file.
func (s *FileStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return false, fmt.Errorf("opening username file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if sc.Text() == name {
			return true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("reading username file: %w", err)
	}
	return false, nil
}

// Register appends name to the file. The line goes out in a single write.
func (s *FileStore) Register(_ context.Context, name string) error {
	if !ValidName(name) {
		return fmt.Errorf("registering %q: invalid username", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.append.WriteString(name + "\n"); err != nil {
		return fmt.Errorf("appending username: %w", err)
	}
	return nil
}

// Close closes the append handle.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append.Close()
}
