package appctx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/phrazzld/synth-study/internal/domain"
)

// ErrNoCredentials is returned by a Store with nothing saved.
var ErrNoCredentials = errors.New("no stored credentials")

// Credentials are what a Store persists between runs.
type Credentials struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Store persists credentials.
type Store interface {
	Load() (*Credentials, error)
	Save(creds *Credentials) error
	Clear() error
}

// DefaultCredentialsPath returns credentials.json under the user's
// configuration directory.
func DefaultCredentialsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "synth", "credentials.json"), nil
}

// FileStore keeps credentials in a JSON file readable only by its owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the store writes.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the saved credentials.
func (s *FileStore) Load() (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("decoding credentials: %w", err)
	}
	return &creds, nil
}

// Save writes creds atomically with 0600 permissions.
func (s *FileStore) Save(creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting credentials permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing credentials: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing credentials: %w", err)
	}
	return nil
}

// Clear removes the credentials file. Clearing an empty store succeeds.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}

// MemoryStore keeps credentials for the lifetime of the process.
type MemoryStore struct {
	mu    sync.Mutex
	creds *Credentials
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store.
func (s *MemoryStore) Load() (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil, ErrNoCredentials
	}
	cp := *s.creds
	return &cp, nil
}

// Save implements Store.
func (s *MemoryStore) Save(creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *creds
	s.creds = &cp
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}
