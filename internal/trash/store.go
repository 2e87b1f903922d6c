package trash

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Record represents one trashed item, kept so it can be listed, restored,
// or pruned later
type Record struct {
	ID           string    `json:"id"`
	OriginalPath string    `json:"original_path"`
	TrashedPath  string    `json:"trashed_path"`
	SizeBytes    int64     `json:"size_bytes"`
	Category     string    `json:"category"`
	Label        string    `json:"label"`
	DeletedAt    time.Time `json:"deleted_at"`
}

// Store persists trash records as JSON. Every mutation is written through
// to disk with an atomic replace.
type Store struct {
	path string

	mu      sync.Mutex
	records []Record
}

type storeFile struct {
	Records []Record `json:"records"`
}

// OpenStore loads the record store at path, creating an empty one if the
// file does not exist yet
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read trash records: %w", err)
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse trash records %s: %w", path, err)
	}
	s.records = file.Records
	return s, nil
}

// Add appends a record and persists the store
func (s *Store) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return s.save()
}

// List returns all records, newest first
func (s *Store) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	sort.Slice(out, func(i, j int) bool {
		return out[i].DeletedAt.After(out[j].DeletedAt)
	})
	return out
}

// Find looks up a record by exact ID or unique ID prefix
func (s *Store) Find(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var match Record
	var count int
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
		if strings.HasPrefix(r.ID, id) {
			match = r
			count++
		}
	}
	if count == 1 {
		return match, true
	}
	return Record{}, false
}

// Remove deletes the record with the given ID and persists the store
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return s.save()
		}
	}
	return ErrNotFound
}

// Prune removes and returns all records deleted before cutoff. A zero
// cutoff matches everything.
func (s *Store) Prune(cutoff time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pruned []Record
	var kept []Record
	for _, r := range s.records {
		if cutoff.IsZero() || r.DeletedAt.Before(cutoff) {
			pruned = append(pruned, r)
		} else {
			kept = append(kept, r)
		}
	}
	if len(pruned) == 0 {
		return nil, nil
	}

	s.records = kept
	if err := s.save(); err != nil {
		return nil, err
	}
	return pruned, nil
}

// save writes the store to disk via rename so a crash never leaves a
// truncated records file. Caller must hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(storeFile{Records: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode trash records: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create records directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write trash records: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace trash records: %w", err)
	}
	return nil
}

// newRecordID generates a short random identifier
func newRecordID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
