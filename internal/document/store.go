// Package document is the only component that touches disk. Each entity
// lives in one JSON file inside the data directory; the same files are
// read and written by the external conversational agent, so every save is
// an atomic replace and no lock is assumed beyond this process.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"meal-planner-dashboard/internal/shared"
)

// Fixed document file names within the data directory.
const (
	Inventory    = "inventory.json"
	MealPlan     = "meal-plan.json"
	ShoppingList = "shopping-list.json"
	Status       = "status.json"
	Preferences  = "preferences.json"
)

// Store reads and writes JSON documents in a single directory.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Store over dir. The directory must exist and be writable;
// otherwise the store is unavailable and startup should fail.
func New(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrStoreUnavailable, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", shared.ErrStoreUnavailable, dir)
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %s not writable: %v", shared.ErrStoreUnavailable, dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return &Store{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// Dir returns the data directory the store operates on.
func (s *Store) Dir() string {
	return s.dir
}

// Load decodes the named document into v. An absent file is not an error:
// v is left at its zero value, which is the document's empty default.
// Malformed JSON surfaces as ErrCorruptDocument.
func (s *Store) Load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrCorruptDocument, name, err)
	}
	return nil
}

// Save atomically replaces the named document with v. The value is
// written to a temp file in the same directory and renamed into place, so
// a concurrent reader never observes a half-written file.
func (s *Store) Save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// Update runs a load-mutate-save sequence under a per-document mutex, so
// two requests in this process cannot lose each other's write. The
// external agent is not bound by the lock; the atomic rename keeps its
// reads consistent, and a cross-process lost update remains possible.
func (s *Store) Update(name string, v any, mutate func() error) error {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	if err := s.Load(name, v); err != nil {
		return err
	}
	if err := mutate(); err != nil {
		return err
	}
	return s.Save(name, v)
}

func (s *Store) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[name] = lock
	}
	return lock
}
