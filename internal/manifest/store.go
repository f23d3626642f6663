package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
)

// ErrNoManifest is returned by Load when no manifest has been saved yet.
var ErrNoManifest = errors.New("no manifest saved")

// Store is the persistence contract for the position manifest, the one
// artifact that must survive across runs. Implementations must be safe for
// concurrent use.
type Store interface {
	Save(entries []Entry) error
	Load() ([]Entry, error)
}

// NewStore creates the default store implementation (currently CSV-based).
func NewStore(path string) Store {
	return NewCSVStore(path)
}

// CSVStore persists the manifest as a CSV file, matching the layout earlier
// collectors produced by hand. Writes go to a temp file first and are moved
// into place atomically.
type CSVStore struct {
	mu   sync.RWMutex
	path string
}

// Ensure CSVStore implements Store at compile time.
var _ Store = (*CSVStore)(nil)

// NewCSVStore creates a CSV-backed manifest store at path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Save writes the full manifest, replacing any previous contents.
func (s *CSVStore) Save(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("refusing to persist invalid manifest: %w", err)
		}
	}

	data, err := gocsv.MarshalBytes(&entries)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating manifest dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}

// Load reads the persisted manifest. Returns ErrNoManifest if none exists.
func (s *CSVStore) Load() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoManifest
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var entries []Entry
	if err := gocsv.UnmarshalBytes(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return entries, nil
}

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	saved   bool
}

// Ensure MemoryStore implements Store at compile time.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores a copy of the entries.
func (s *MemoryStore) Save(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]Entry(nil), entries...)
	s.saved = true
	return nil
}

// Load returns a copy of the stored entries, or ErrNoManifest before the
// first Save.
func (s *MemoryStore) Load() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return nil, ErrNoManifest
	}
	return append([]Entry(nil), s.entries...), nil
}
