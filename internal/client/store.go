package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	credentialsDirName  = "todos"
	credentialsFileName = "credentials.json"
)

// Store persists the signed-in session between runs.
// Load returns nil, nil when there is no session.
type Store interface {
	Load() (*Session, error)
	Save(session *Session) error
	Delete() error
}

// DefaultCredentialsPath is credentials.json in the user config dir.
func DefaultCredentialsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(dir, credentialsDirName, credentialsFileName), nil
}

type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() (*Session, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var session Session
	err = json.Unmarshal(b, &session)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if session.AccessToken == "" {
		return nil, nil
	}
	return &session, nil
}

func (s *FileStore) Save(session *Session) error {
	if session == nil || session.AccessToken == "" {
		return errors.New("empty session")
	}

	err := os.MkdirAll(filepath.Dir(s.path), 0o700)
	if err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	b, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	// Readers never see a partial write.
	tmp := s.path + ".tmp"
	err = os.WriteFile(tmp, b, 0o600)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	err = os.Rename(tmp, s.path)
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *FileStore) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// MemoryStore keeps the session for the lifetime of the process.
type MemoryStore struct {
	mu      sync.Mutex
	session *Session
}

func NewMemoryStore(session *Session) *MemoryStore {
	return &MemoryStore{session: session.clone()}
}

func (s *MemoryStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.clone(), nil
}

func (s *MemoryStore) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session.clone()
	return nil
}

func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

// NewStore returns an in-memory store holding token when it is set,
// and a FileStore at path otherwise.
func NewStore(token, path string) (Store, error) {
	token = stripBearer(strings.TrimSpace(token))
	if token != "" {
		return NewMemoryStore(&Session{AccessToken: token}), nil
	}

	if path == "" {
		var err error
		path, err = DefaultCredentialsPath()
		if err != nil {
			return nil, err
		}
	}
	return NewFileStore(path), nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
