package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"auditctl/pkg/logging"
)

// DefaultTokenFile is the token file location relative to the user's home directory.
const DefaultTokenFile = ".config/auditctl/token.json"

// TokenRecord is the persisted bearer credential with its computed absolute expiry.
type TokenRecord struct {
	AccessToken  string `json:"accessToken"`
	TokenType    string `json:"tokenType"`
	RefreshToken string `json:"refreshToken"`
	// ExpiresIn is the lifetime in seconds as issued.
	ExpiresIn int64 `json:"expiresIn"`
	// ExpiresOn is always issuedAt + ExpiresIn, serialized as RFC3339.
	ExpiresOn time.Time `json:"expiresOn"`
}

// NewTokenRecord builds a record whose expiry is computed from issuedAt.
func NewTokenRecord(accessToken, tokenType, refreshToken string, expiresIn int64, issuedAt time.Time) *TokenRecord {
	return &TokenRecord{
		AccessToken:  accessToken,
		TokenType:    tokenType,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		ExpiresOn:    issuedAt.UTC().Add(time.Duration(expiresIn) * time.Second),
	}
}

// IsValid reports whether record can still be used at now.
// A record is valid up to and including its expiry instant.
func IsValid(record *TokenRecord, now time.Time) bool {
	if record == nil || record.AccessToken == "" {
		return false
	}
	return !now.After(record.ExpiresOn)
}

// OAuth2Token converts the record for use with golang.org/x/oauth2 transports.
func (r *TokenRecord) OAuth2Token() *oauth2.Token {
	tokenType := r.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    tokenType,
		RefreshToken: r.RefreshToken,
		Expiry:       r.ExpiresOn,
	}
}

// CredentialStore persists exactly one TokenRecord.
type CredentialStore interface {
	// Load returns the stored record, or nil with no error when none exists.
	Load() (*TokenRecord, error)
	// Save replaces any stored record.
	Save(record *TokenRecord) error
	// Delete removes the stored record. Deleting nothing is not an error.
	Delete() error
	// Path describes where the record lives.
	Path() string
}

// FileCredentialStore keeps the record in a JSON file.
//
// SECURITY: the file is created with 0600 permissions inside a 0700
// directory and token values are never logged.
type FileCredentialStore struct {
	path string
}

// NewFileCredentialStore returns a store backed by path.
// An empty path selects ~/.config/auditctl/token.json.
func NewFileCredentialStore(path string) (*FileCredentialStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, DefaultTokenFile)
	}
	return &FileCredentialStore{path: path}, nil
}

// Path returns the token file location.
func (s *FileCredentialStore) Path() string {
	return s.path
}

// Load reads and decodes the token file.
func (s *FileCredentialStore) Load() (*TokenRecord, error) {
	// #nosec G304 -- path comes from configuration, not request input
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("CredentialStore", "No token file at %s", s.path)
			return nil, nil
		}
		return nil, &StorageError{Op: "load", Path: s.path, Reason: err}
	}

	var record TokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &StorageError{Op: "load", Path: s.path, Reason: fmt.Errorf("failed to unmarshal token: %w", err)}
	}

	logging.Debug("CredentialStore", "Loaded token record from %s (expires %s)", s.path, record.ExpiresOn.Format(time.RFC3339))
	return &record, nil
}

// Save writes the record to a temp file next to the target and renames it into place.
func (s *FileCredentialStore) Save(record *TokenRecord) error {
	if record == nil {
		return &StorageError{Op: "save", Path: s.path, Reason: errors.New("nil token record")}
	}

	if err := s.writeAtomic(record); err != nil {
		logging.Audit(logging.AuditEvent{
			Event:   "token_store_failed",
			Outcome: "failure",
			Attrs:   []any{"path", s.path, "error", err.Error()},
		})
		return &StorageError{Op: "save", Path: s.path, Reason: err}
	}

	logging.Audit(logging.AuditEvent{
		Event:   "token_stored",
		Outcome: "success",
		Attrs: []any{
			"path", s.path,
			"expires_on", record.ExpiresOn.Format(time.RFC3339),
			"has_refresh_token", record.RefreshToken != "",
		},
	})
	return nil
}

func (s *FileCredentialStore) writeAtomic(record *TokenRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() { _ = os.Remove(tmpName) }

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to restrict temp file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Delete removes the token file.
func (s *FileCredentialStore) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &StorageError{Op: "delete", Path: s.path, Reason: err}
	}

	logging.Audit(logging.AuditEvent{
		Event:   "token_deleted",
		Outcome: "success",
		Attrs:   []any{"path", s.path},
	})
	return nil
}

// MemoryCredentialStore keeps the record for the lifetime of the process only.
type MemoryCredentialStore struct {
	mu     sync.RWMutex
	record *TokenRecord
}

// NewMemoryCredentialStore returns an empty in-memory store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

// Path implements CredentialStore.
func (s *MemoryCredentialStore) Path() string {
	return "memory"
}

// Load implements CredentialStore.
func (s *MemoryCredentialStore) Load() (*TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return nil, nil
	}
	record := *s.record
	return &record, nil
}

// Save implements CredentialStore.
func (s *MemoryCredentialStore) Save(record *TokenRecord) error {
	if record == nil {
		return &StorageError{Op: "save", Path: s.Path(), Reason: errors.New("nil token record")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.record = &copied
	return nil
}

// Delete implements CredentialStore.
func (s *MemoryCredentialStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = nil
	return nil
}
