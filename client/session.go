package client

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
)

// SessionState is the one record the client persists locally outside the
// document: the logged-in identity and theme preference. Read at startup,
// written on login, logout and theme change.
type SessionState struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Theme    string `json:"theme"`
}

// StateFile persists SessionState under a well-known path.
type StateFile struct {
	path string
}

func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// DefaultStatePath places the state under the user's config directory.
func DefaultStatePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "stagetrack", "session.json"), nil
}

// Load reads the persisted state. A missing file is not an error: it means
// nobody is logged in, and (nil, nil) is returned.
func (f *StateFile) Load() (*SessionState, error) {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session state: %w", err)
	}
	var st SessionState
	if err := sonic.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	return &st, nil
}

// Save writes the state, creating the parent directory when needed.
func (f *StateFile) Save(st *SessionState) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	raw, err := sonic.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := os.WriteFile(f.path, raw, 0o600); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	return nil
}

// Clear removes the persisted state (logout).
func (f *StateFile) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session state: %w", err)
	}
	return nil
}
