package store

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database", "usernames.txt")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestFileStoreRegisterExists(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	ok, err := s.Exists(ctx, "alice")
	if err != nil {
		t.Fatalf("exists on empty store: %v", err)
	}
	if ok {
		t.Error("empty store claims alice exists")
	}

	if err := s.Register(ctx, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}

	ok, err = s.Exists(ctx, "alice")
	if err != nil {
		t.Fatalf("exists after register: %v", err)
	}
	if !ok {
		t.Error("registered name not found")
	}
}

func TestFileStoreExactMatch(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if err := s.Register(ctx, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, name := range []string{"al", "alice2", "Alice", " alice"} {
		ok, err := s.Exists(ctx, name)
		if err != nil {
			t.Fatalf("exists(%q): %v", name, err)
		}
		if ok {
			t.Errorf("exists(%q) = true, names must match whole lines exactly", name)
		}
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	for _, name := range []string{"alice", "bob"} {
		if err := s.Register(ctx, name); err != nil {
			t.Fatalf("register %q: %v", name, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if got, want := string(data), "alice\nbob\n"; got != want {
		t.Errorf("file contents = %q, want %q", got, want)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer reopened.Close()

	ok, err := reopened.Exists(ctx, "bob")
	if err != nil {
		t.Fatalf("exists after reopen: %v", err)
	}
	if !ok {
		t.Error("name lost across reopen")
	}
}

func TestFileStoreConcurrentRegister(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	const n = 50
	names := make(map[string]bool, n)
	var wg sync.WaitGroup
	for i := range n {
		name := fmt.Sprintf("user%02d", i)
		names[name] = false
		wg.Go(func() {
			if err := s.Register(ctx, name); err != nil {
				t.Errorf("register %q: %v", name, err)
			}
		})
	}
	wg.Wait()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening file: %v", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		seen, known := names[line]
		if !known {
			t.Fatalf("file holds torn or foreign line %q", line)
		}
		if seen {
			t.Fatalf("file holds duplicate line %q", line)
		}
		names[line] = true
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scanning file: %v", err)
	}
	for name, seen := range names {
		if !seen {
			t.Errorf("name %q missing from file", name)
		}
	}
}

func TestFileStoreRejectsInvalidName(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for _, name := range []string{"", "two\nlines", "tab\there"} {
		if err := s.Register(ctx, name); err == nil {
			t.Errorf("register(%q) succeeded, want error", name)
		}
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"alice", true},
		{"Alice_42", true},
		{"name with spaces", true},
		{"", false},
		{"line\nbreak", false},
		{"carriage\rreturn", false},
		{"bell\aname", false},
	}
	for _, tt := range tests {
		if got := ValidName(tt.name); got != tt.want {
			t.Errorf("ValidName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
