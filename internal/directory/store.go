package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"auditctl/internal/api"
	"auditctl/pkg/logging"
)

// Kind selects one of the directory exports.
type Kind string

const (
	// KindUsers is the users.json export.
	KindUsers Kind = "users"
	// KindGroups is the groups.json export.
	KindGroups Kind = "groups"
)

// AllKinds lists every export kind in display order.
var AllKinds = []Kind{KindUsers, KindGroups}

// FileName returns the export file name for k.
func (k Kind) FileName() string {
	return string(k) + ".json"
}

// ParseKind accepts "users" or "groups".
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown directory kind %q (want users or groups)", s)
}

// NotExportedError means the export file for Kind does not exist yet.
type NotExportedError struct {
	Kind Kind
	Path string
}

// Error returns a message with the command that creates the file.
func (e *NotExportedError) Error() string {
	return fmt.Sprintf("%s not found\n\nTo create it, run:\n  auditctl directory export --%s", e.Path, e.Kind)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *NotExportedError) Is(target error) bool {
	_, ok := target.(*NotExportedError)
	return ok
}

// Store keeps directory exports as pretty-printed JSON files in one
// directory. Operators edit these files to choose what gets audited.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// NewStore returns a store rooted at dir. An empty dir means the working directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir}
}

// Path returns the export file location for kind.
func (s *Store) Path(kind Kind) string {
	return filepath.Join(s.dir, kind.FileName())
}

// SaveUsers writes users.json.
func (s *Store) SaveUsers(page *api.UserPage) error {
	return s.save(KindUsers, page)
}

// SaveGroups writes groups.json.
func (s *Store) SaveGroups(page *api.GroupPage) error {
	return s.save(KindGroups, page)
}

// LoadUsers reads users.json.
func (s *Store) LoadUsers() (*api.UserPage, error) {
	var page api.UserPage
	if err := s.load(KindUsers, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// LoadGroups reads groups.json.
func (s *Store) LoadGroups() (*api.GroupPage, error) {
	var page api.GroupPage
	if err := s.load(KindGroups, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// List returns the kinds whose export file exists.
func (s *Store) List() ([]Kind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var kinds []Kind
	for _, kind := range AllKinds {
		_, err := os.Stat(s.Path(kind))
		switch {
		case err == nil:
			kinds = append(kinds, kind)
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to stat %s: %w", s.Path(kind), err)
		}
	}
	return kinds, nil
}

func (s *Store) save(kind Kind, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.dir, err)
	}

	filePath := s.Path(kind)
	if err := os.WriteFile(filePath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}

	logging.Info("DirectoryStore", "Saved %s to %s", kind, filePath)
	return nil
}

func (s *Store) load(kind Kind, v interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.Path(kind)
	// #nosec G304 -- fixed file name inside the operator's chosen directory
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &NotExportedError{Kind: kind, Path: filePath}
		}
		return fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	logging.Debug("DirectoryStore", "Loaded %s from %s", kind, filePath)
	return nil
}
