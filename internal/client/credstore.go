package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// StoredSession is the single credential slot a client machine keeps. Logging
// in overwrites it; logging out deletes it.
type StoredSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Email     string    `json:"email,omitempty"`
}

// ErrNoSession indicates the credential slot is empty.
var ErrNoSession = errors.New("no stored session")

// CredStore persists the session slot as a JSON file under the user config
// directory.
type CredStore struct {
	path string
}

// NewCredStore creates a credential store rooted at the platform config dir.
func NewCredStore(appName string) (*CredStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &CredStore{path: filepath.Join(dir, appName, "session.json")}, nil
}

// NewCredStoreAt creates a credential store at an explicit path (for testing).
func NewCredStoreAt(path string) *CredStore {
	return &CredStore{path: path}
}

// Save overwrites the slot.
func (s *CredStore) Save(session *StoredSession) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Load returns the stored session, or ErrNoSession when the slot is empty.
func (s *CredStore) Load() (*StoredSession, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var session StoredSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	if session.Token == "" {
		return nil, ErrNoSession
	}
	return &session, nil
}

// Clear empties the slot. Clearing an already-empty slot succeeds.
func (s *CredStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
